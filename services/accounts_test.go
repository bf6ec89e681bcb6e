package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meinhoongagan/gym-booking/models"
	"github.com/meinhoongagan/gym-booking/store"
)

type stubIssuer struct{}

func (stubIssuer) Issue(u *models.User) (string, error) { return "token-" + u.ID.String(), nil }

type stubUploader struct {
	publicID string
	body     string
	err      error
}

func (s *stubUploader) Upload(_ context.Context, file io.Reader, publicID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, _ := io.ReadAll(file)
	s.publicID, s.body = publicID, string(b)
	return "https://img.example.com/" + publicID, nil
}

type mapCache struct {
	entries map[uuid.UUID]Identity
	evicted []uuid.UUID
}

func newMapCache() *mapCache { return &mapCache{entries: map[uuid.UUID]Identity{}} }

func (c *mapCache) Get(_ context.Context, id uuid.UUID) (Identity, bool) {
	v, ok := c.entries[id]
	return v, ok
}
func (c *mapCache) Set(_ context.Context, id Identity) { c.entries[id.UserID] = id }
func (c *mapCache) Evict(_ context.Context, id uuid.UUID) {
	delete(c.entries, id)
	c.evicted = append(c.evicted, id)
}

func newAccounts(t *testing.T) (*Accounts, *store.MemoryStore, *mapCache, *stubUploader) {
	t.Helper()
	st := store.NewMemory()
	cache := newMapCache()
	up := &stubUploader{}
	a := NewAccounts(st, stubIssuer{}, up, cache)
	a.cost = bcrypt.MinCost
	return a, st, cache, up
}

func TestRegisterAndLogin(t *testing.T) {
	a, _, _, _ := newAccounts(t)
	ctx := context.Background()

	res, err := a.Register(ctx, RegisterInput{Name: "Ravi", Email: "Ravi@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainee, res.User.Role)
	assert.Equal(t, "ravi@example.com", res.User.Email)
	assert.NotEqual(t, "hunter22", res.User.Password)
	assert.Equal(t, "token-"+res.User.ID.String(), res.Token)

	_, err = a.Register(ctx, RegisterInput{Name: "Ravi 2", Email: "ravi@example.com", Password: "hunter22"})
	requireKind(t, err, KindValidation, MsgEmailExists)
	assert.Equal(t, "email", AsError(err).Field)

	logged, err := a.Login(ctx, LoginInput{Email: "RAVI@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, logged.User.ID)

	_, err = a.Login(ctx, LoginInput{Email: "ravi@example.com", Password: "wrong"})
	requireKind(t, err, KindUnauthorized, MsgInvalidCredentials)

	_, err = a.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "hunter22"})
	requireKind(t, err, KindUnauthorized, MsgInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	a, _, _, _ := newAccounts(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    RegisterInput
		field string
		msg   string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "secret1"}, "user", MsgFieldsRequired},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "secret1"}, "email", "Invalid email format"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "123"}, "password", "password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.in)
			requireKind(t, err, KindValidation, tt.msg)
			assert.Equal(t, tt.field, AsError(err).Field)
		})
	}
}

func TestResolveIdentityUsesCache(t *testing.T) {
	a, st, cache, _ := newAccounts(t)
	ctx := context.Background()

	res, err := a.Register(ctx, RegisterInput{Name: "Mina", Email: "mina@example.com", Password: "secret1"})
	require.NoError(t, err)

	id, err := a.ResolveIdentity(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainee, id.Role)
	assert.Contains(t, cache.entries, res.User.ID)

	require.NoError(t, st.DeleteUser(ctx, res.User.ID))
	_, err = a.ResolveIdentity(ctx, res.User.ID)
	require.NoError(t, err, "served from cache")

	a.Logout(ctx, id)
	_, err = a.ResolveIdentity(ctx, res.User.ID)
	requireKind(t, err, KindUnauthorized, "")
}

func TestProfile(t *testing.T) {
	a, st, cache, up := newAccounts(t)
	ctx := context.Background()

	res, err := a.Register(ctx, RegisterInput{Name: "Lee", Email: "lee@example.com", Password: "secret1"})
	require.NoError(t, err)
	id := Identity{UserID: res.User.ID, Email: res.User.Email, Role: res.User.Role}

	s := &models.Schedule{
		TrainerID: uuid.New(), ClassName: "Spin", Description: "d",
		Date: fixedNow.AddDate(0, 0, 1), StartTime: "08:00", EndTime: "10:00",
	}
	require.NoError(t, st.CreateSchedule(ctx, s))
	require.NoError(t, st.AddEnrolledSchedule(ctx, id.UserID, s.ID))

	p, err := a.Profile(ctx, id)
	require.NoError(t, err)
	require.Len(t, p.EnrolledSchedules, 1)
	assert.Equal(t, "Spin", p.EnrolledSchedules[0].ClassName)
	assert.Equal(t, "2030-01-02", p.EnrolledSchedules[0].Date)

	name := "Lee Park"
	p, err = a.UpdateProfile(ctx, id, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
	assert.Contains(t, cache.evicted, id.UserID)

	p, err = a.UploadPicture(ctx, id, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/user_"+id.UserID.String(), p.ProfilePicture)
	assert.Equal(t, "png-bytes", up.body)

	up.err = errors.New("cloud down")
	_, err = a.UploadPicture(ctx, id, strings.NewReader("x"))
	requireKind(t, err, KindServer, "Server error")
}

func TestTrainerRoster(t *testing.T) {
	a, _, _, _ := newAccounts(t)
	ctx := context.Background()
	admin := Identity{UserID: uuid.New(), Role: models.RoleAdmin}
	trainee := Identity{UserID: uuid.New(), Role: models.RoleTrainee}

	_, err := a.CreateTrainer(ctx, trainee, TrainerInput{Name: "T", Email: "t@example.com", Password: "secret1"})
	requireKind(t, err, KindForbidden, "")

	tr, err := a.CreateTrainer(ctx, admin, TrainerInput{Name: "T", Email: "t@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainer, tr.Role)

	_, err = a.CreateTrainer(ctx, admin, TrainerInput{Name: "T2", Email: "t@example.com", Password: "secret1"})
	requireKind(t, err, KindValidation, MsgEmailExists)

	list, err := a.ListTrainers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	email := "coach@example.com"
	updated, err := a.UpdateTrainer(ctx, admin, tr.ID.String(), ProfileUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)

	require.NoError(t, a.DeleteTrainer(ctx, admin, tr.ID.String()))
	_, err = a.GetTrainer(ctx, admin, tr.ID.String())
	requireKind(t, err, KindNotFound, MsgTrainerNotFound)
}
