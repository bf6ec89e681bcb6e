package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meinhoongagan/gym-booking/models"
	"github.com/meinhoongagan/gym-booking/store"
)

var fixedNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

const classDay = "2030-01-02"

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// faultStore injects failures into selected store calls.
type faultStore struct {
	*store.MemoryStore
	addEnrolled       func(ctx context.Context, userID, scheduleID uuid.UUID) error
	removeParticipant func(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error)
	removeEnrolled    func(ctx context.Context, userID, scheduleID uuid.UUID) error
}

func (f *faultStore) AddEnrolledSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if f.addEnrolled != nil {
		return f.addEnrolled(ctx, userID, scheduleID)
	}
	return f.MemoryStore.AddEnrolledSchedule(ctx, userID, scheduleID)
}

func (f *faultStore) RemoveParticipant(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error) {
	if f.removeParticipant != nil {
		return f.removeParticipant(ctx, scheduleID, userID)
	}
	return f.MemoryStore.RemoveParticipant(ctx, scheduleID, userID)
}

func (f *faultStore) RemoveEnrolledSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if f.removeEnrolled != nil {
		return f.removeEnrolled(ctx, userID, scheduleID)
	}
	return f.MemoryStore.RemoveEnrolledSchedule(ctx, userID, scheduleID)
}

type fixture struct {
	mem     *store.MemoryStore
	faults  *faultStore
	mailer  *recordingMailer
	alloc   *Allocator
	coord   *Coordinator
	admin   Identity
	trainer Identity
	trainee Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	faults := &faultStore{MemoryStore: mem}
	mailer := &recordingMailer{}

	f := &fixture{
		mem:    mem,
		faults: faults,
		mailer: mailer,
		alloc:  NewAllocator(faults, time.UTC),
		coord:  NewCoordinator(faults, mailer, nil),
	}
	f.alloc.now = func() time.Time { return fixedNow }

	f.admin = f.addUser(t, models.RoleAdmin)
	f.trainer = f.addUser(t, models.RoleTrainer)
	f.trainee = f.addUser(t, models.RoleTrainee)
	return f
}

func (f *fixture) addUser(t *testing.T, role models.Role) Identity {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:     string(role) + " user",
		Email:    uuid.NewString() + "@example.com",
		Password: string(hashed),
		Role:     role,
	}
	require.NoError(t, f.mem.CreateUser(context.Background(), u))
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) input(start string) ScheduleInput {
	return ScheduleInput{
		TrainerID:   f.trainer.UserID.String(),
		ClassName:   "Strength",
		Description: "Full body",
		Date:        classDay,
		StartTime:   start,
	}
}

func (f *fixture) schedule(t *testing.T, start string, capacity int) *models.Schedule {
	t.Helper()
	in := f.input(start)
	in.MaxParticipants = &capacity
	s, err := f.alloc.CreateSchedule(context.Background(), f.admin, in)
	require.NoError(t, err)
	return s
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Schedule {
	t.Helper()
	s, err := f.mem.GetSchedule(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, len(s.Participants), s.CurrentParticipants, "participant count must match the set")
	return s
}

func (f *fixture) user(t *testing.T, id Identity) *models.User {
	t.Helper()
	u, err := f.mem.GetUser(context.Background(), id.UserID)
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	svcErr := AsError(err)
	require.Equal(t, kind, svcErr.Kind, "error: %v", err)
	if message != "" {
		require.Equal(t, message, svcErr.Message)
	}
}

func intPtr(n int) *int { return &n }
