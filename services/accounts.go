package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meinhoongagan/gym-booking/models"
	"github.com/meinhoongagan/gym-booking/store"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(u *models.User) (string, error)
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
}

// IdentityCache short-circuits identity lookups. Implementations swallow their own
// failures; a miss always falls back to the store.
type IdentityCache interface {
	Get(ctx context.Context, userID uuid.UUID) (Identity, bool)
	Set(ctx context.Context, id Identity)
	Evict(ctx context.Context, userID uuid.UUID)
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID) (Identity, bool) { return Identity{}, false }
func (nopCache) Set(context.Context, Identity)                   {}
func (nopCache) Evict(context.Context, uuid.UUID)                {}

func orNopCache(c IdentityCache) IdentityCache {
	if c == nil {
		return nopCache{}
	}
	return c
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate carries optional changes; nil fields are left alone.
type ProfileUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ScheduleSummary is an enrolled class as shown on a profile.
type ScheduleSummary struct {
	ID        uuid.UUID `json:"id"`
	ClassName string    `json:"className"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

type Profile struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Role              models.Role       `json:"role"`
	ProfilePicture    string            `json:"profilePicture,omitempty"`
	EnrolledSchedules []ScheduleSummary `json:"enrolledSchedules"`
}

// Accounts covers registration, login, identity resolution, trainee profiles and the
// admin trainer roster.
type Accounts struct {
	store    store.Store
	tokens   TokenIssuer
	uploader Uploader
	cache    IdentityCache
	validate *validator.Validate
	cost     int
	log      *slog.Logger
}

func NewAccounts(st store.Store, tokens TokenIssuer, uploader Uploader, cache IdentityCache) *Accounts {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f.Tag.Get("json"), f.Name)
	})
	return &Accounts{
		store:    st,
		tokens:   tokens,
		uploader: uploader,
		cache:    orNopCache(cache),
		validate: v,
		cost:     bcrypt.DefaultCost,
		log:      slog.Default().With("component", "accounts"),
	}
}

func jsonName(tag, fallback string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" || name == "-" {
		return fallback
	}
	return name
}

// check validates a DTO and turns the first failure into a field-scoped error.
func (a *Accounts) check(scope string, dto interface{}) error {
	err := a.validate.Struct(dto)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ValidationError(scope, "Invalid input")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return ValidationError(scope, MsgFieldsRequired)
	case "email":
		return ValidationError(fe.Field(), "Invalid email format")
	case "min":
		return ValidationError(fe.Field(), fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
	case "max":
		return ValidationError(fe.Field(), fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return ValidationError(fe.Field(), "Invalid value")
	}
}

func (a *Accounts) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", ServerError("hash password", err)
	}
	return string(hashed), nil
}

func (a *Accounts) createUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	hashed, err := a.hash(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ValidationError("email", MsgEmailExists)
		}
		return nil, ServerError("create user", err)
	}
	return u, nil
}

// Register creates a trainee account and signs the caller in.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := a.check("user", in); err != nil {
		return nil, err
	}
	u, err := a.createUser(ctx, in.Name, in.Email, in.Password, models.RoleTrainee)
	if err != nil {
		return nil, err
	}
	token, err := a.tokens.Issue(u)
	if err != nil {
		return nil, ServerError("issue token", err)
	}
	a.log.Info("user registered", "userId", u.ID)
	return &AuthResult{Token: token, User: u}, nil
}

func (a *Accounts) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := a.check("user", in); err != nil {
		return nil, err
	}
	u, err := a.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, ServerError("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
		return nil, Unauthorized(MsgInvalidCredentials)
	}
	token, err := a.tokens.Issue(u)
	if err != nil {
		return nil, ServerError("issue token", err)
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Logout drops the cached identity; the token itself stays valid until it expires.
func (a *Accounts) Logout(ctx context.Context, id Identity) {
	a.cache.Evict(ctx, id.UserID)
}

// ResolveIdentity maps a token subject onto a live account.
func (a *Accounts) ResolveIdentity(ctx context.Context, userID uuid.UUID) (Identity, error) {
	if id, ok := a.cache.Get(ctx, userID); ok {
		return id, nil
	}
	u, err := a.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, Unauthorized(MsgInvalidAuth)
	}
	if err != nil {
		return Identity{}, ServerError("resolve identity", err)
	}
	id := Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
	a.cache.Set(ctx, id)
	return id, nil
}

// ---- trainee profile ----

func (a *Accounts) Profile(ctx context.Context, id Identity) (*Profile, error) {
	if err := Authorize(id, ActionManageProfile, Owned(id.UserID)); err != nil {
		return nil, err
	}
	u, err := a.store.GetUser(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, ServerError("load profile", err)
	}
	return a.profileOf(ctx, u)
}

func (a *Accounts) profileOf(ctx context.Context, u *models.User) (*Profile, error) {
	p := &Profile{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		ProfilePicture:    u.ProfilePicture,
		EnrolledSchedules: []ScheduleSummary{},
	}

	ids := make([]uuid.UUID, 0, len(u.EnrolledSchedules))
	for _, raw := range u.EnrolledSchedules {
		if sid, err := uuid.Parse(raw); err == nil {
			ids = append(ids, sid)
		}
	}
	if len(ids) == 0 {
		return p, nil
	}

	schedules, err := a.store.ListSchedules(ctx, store.ScheduleFilter{IDs: ids})
	if err != nil {
		return nil, ServerError("load enrolled schedules", err)
	}
	for _, s := range schedules {
		p.EnrolledSchedules = append(p.EnrolledSchedules, ScheduleSummary{
			ID:        s.ID,
			ClassName: s.ClassName,
			Date:      s.DateString(),
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}
	return p, nil
}

func (a *Accounts) changes(in ProfileUpdate) (store.UserChanges, error) {
	var ch store.UserChanges
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		ch.Name = &name
	}
	if in.Email != nil {
		email := models.NormalizeEmail(*in.Email)
		ch.Email = &email
	}
	if in.Password != nil {
		hashed, err := a.hash(*in.Password)
		if err != nil {
			return ch, err
		}
		ch.Password = &hashed
	}
	return ch, nil
}

func (a *Accounts) applyUpdate(ctx context.Context, userID uuid.UUID, ch store.UserChanges, notFound string) (*models.User, error) {
	u, err := a.store.UpdateUser(ctx, userID, ch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, NotFound(notFound)
	case errors.Is(err, store.ErrDuplicate):
		return nil, ValidationError("email", MsgEmailExists)
	case err != nil:
		return nil, ServerError("update user", err)
	}
	a.cache.Evict(ctx, userID)
	return u, nil
}

func (a *Accounts) UpdateProfile(ctx context.Context, id Identity, in ProfileUpdate) (*Profile, error) {
	if err := Authorize(id, ActionManageProfile, Owned(id.UserID)); err != nil {
		return nil, err
	}
	if err := a.check("user", in); err != nil {
		return nil, err
	}
	ch, err := a.changes(in)
	if err != nil {
		return nil, err
	}
	u, err := a.applyUpdate(ctx, id.UserID, ch, MsgUserNotFound)
	if err != nil {
		return nil, err
	}
	return a.profileOf(ctx, u)
}

// UploadPicture stores the image under a per-user public id and links it to the profile.
func (a *Accounts) UploadPicture(ctx context.Context, id Identity, file io.Reader) (*Profile, error) {
	if err := Authorize(id, ActionManageProfile, Owned(id.UserID)); err != nil {
		return nil, err
	}
	if a.uploader == nil {
		return nil, &Error{Kind: KindServer, Message: MsgUploadsDisabled}
	}

	url, err := a.uploader.Upload(ctx, file, "user_"+id.UserID.String())
	if err != nil {
		return nil, ServerError("upload profile picture", err)
	}
	u, err := a.applyUpdate(ctx, id.UserID, store.UserChanges{ProfilePicture: &url}, MsgUserNotFound)
	if err != nil {
		return nil, err
	}
	return a.profileOf(ctx, u)
}

// ---- trainer roster ----

type TrainerInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (a *Accounts) CreateTrainer(ctx context.Context, id Identity, in TrainerInput) (*models.User, error) {
	if err := Authorize(id, ActionManageTrainers, Resource{}); err != nil {
		return nil, err
	}
	if err := a.check("trainer", in); err != nil {
		return nil, err
	}
	u, err := a.createUser(ctx, in.Name, in.Email, in.Password, models.RoleTrainer)
	if err != nil {
		return nil, err
	}
	a.log.Info("trainer created", "trainerId", u.ID, "by", id.UserID)
	return u, nil
}

func (a *Accounts) ListTrainers(ctx context.Context, id Identity) ([]models.User, error) {
	if err := Authorize(id, ActionManageTrainers, Resource{}); err != nil {
		return nil, err
	}
	trainers, err := a.store.ListUsers(ctx, models.RoleTrainer)
	if err != nil {
		return nil, ServerError("list trainers", err)
	}
	return trainers, nil
}

func (a *Accounts) trainer(ctx context.Context, id Identity, trainerID string) (*models.User, error) {
	if err := Authorize(id, ActionManageTrainers, Resource{}); err != nil {
		return nil, err
	}
	tid, err := parseID(trainerID, "id", "Invalid trainer ID format")
	if err != nil {
		return nil, err
	}
	u, err := a.store.GetUser(ctx, tid)
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.Role != models.RoleTrainer) {
		return nil, NotFound(MsgTrainerNotFound)
	}
	if err != nil {
		return nil, ServerError("load trainer", err)
	}
	return u, nil
}

func (a *Accounts) GetTrainer(ctx context.Context, id Identity, trainerID string) (*models.User, error) {
	return a.trainer(ctx, id, trainerID)
}

func (a *Accounts) UpdateTrainer(ctx context.Context, id Identity, trainerID string, in ProfileUpdate) (*models.User, error) {
	t, err := a.trainer(ctx, id, trainerID)
	if err != nil {
		return nil, err
	}
	if err := a.check("trainer", in); err != nil {
		return nil, err
	}
	ch, err := a.changes(in)
	if err != nil {
		return nil, err
	}
	return a.applyUpdate(ctx, t.ID, ch, MsgTrainerNotFound)
}

// DeleteTrainer removes the trainer account. Their schedules stay in place.
func (a *Accounts) DeleteTrainer(ctx context.Context, id Identity, trainerID string) error {
	t, err := a.trainer(ctx, id, trainerID)
	if err != nil {
		return err
	}
	if err := a.store.DeleteUser(ctx, t.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound(MsgTrainerNotFound)
		}
		return ServerError("delete trainer", err)
	}
	a.cache.Evict(ctx, t.ID)
	a.log.Info("trainer deleted", "trainerId", t.ID, "by", id.UserID)
	return nil
}
