// Package store is the persistence contract shared by the schedule allocator and the
// enrollment coordinator.
//
// Every method that mutates the participant relation is a single conditional write:
// the predicate and the effect are applied together by the backing store, so callers
// never read a count and write it back. Two implementations are provided:
// PostgresStore for production and MemoryStore for tests and local runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/meinhoongagan/gym-booking/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed is returned when a conditional write matched nothing.
	ErrConditionFailed = errors.New("conditional update matched no record")
	// ErrDuplicate is returned when a unique key (user email) is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// ScheduleFilter narrows ListSchedules. Zero fields are ignored.
// Results are always ordered by date, then start time.
type ScheduleFilter struct {
	TrainerID *uuid.UUID
	Date      *time.Time
	From      *time.Time // inclusive
	To        *time.Time // inclusive
	Status    models.ScheduleStatus
	IDs       []uuid.UUID
}

// UserChanges lists the profile fields an update may overwrite; nil means untouched.
type UserChanges struct {
	Name           *string
	Email          *string
	Password       *string
	ProfilePicture *string
}

type Schedules interface {
	CreateSchedule(ctx context.Context, s *models.Schedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
	ListSchedules(ctx context.Context, f ScheduleFilter) ([]models.Schedule, error)
	CountSchedules(ctx context.Context, trainerID uuid.UUID, date time.Time) (int64, error)

	// UpdateScheduleSlot overwrites the slot fields. It fails with ErrConditionFailed
	// when the new capacity would be below the current participant count.
	UpdateScheduleSlot(ctx context.Context, id uuid.UUID, slot models.ScheduleSlot) (*models.Schedule, error)
	// DeleteSchedule removes the schedule and returns it as it was.
	DeleteSchedule(ctx context.Context, id uuid.UUID) (*models.Schedule, error)
	// TransitionSchedules moves the listed schedules still in from to status to.
	TransitionSchedules(ctx context.Context, ids []uuid.UUID, from, to models.ScheduleStatus) (int64, error)

	// AddParticipant atomically adds userID when the schedule is scheduled, has a free
	// seat and does not already contain the user. Otherwise ErrConditionFailed.
	AddParticipant(ctx context.Context, scheduleID, userID uuid.UUID) (*models.Schedule, error)
	// RemoveParticipant atomically removes userID when present. It reports whether a
	// seat was released; a missing schedule or absent user is not an error.
	RemoveParticipant(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error)
	// RemoveParticipantEverywhere releases every seat held by userID.
	RemoveParticipantEverywhere(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListUsers returns users with the role, or everyone for an empty role.
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, ch UserChanges) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// AddEnrolledSchedule is an idempotent set-add; ErrNotFound when the user is gone.
	AddEnrolledSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error
	// RemoveEnrolledSchedule is an idempotent set-remove; ErrNotFound when the user is gone.
	RemoveEnrolledSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error
	// DetachScheduleFromUsers removes scheduleID from every enrollment set.
	DetachScheduleFromUsers(ctx context.Context, scheduleID uuid.UUID) (int64, error)
}

type Compensations interface {
	RecordCompensation(ctx context.Context, c *models.Compensation) error
	PendingCompensations(ctx context.Context, limit int) ([]models.Compensation, error)
	ResolveCompensation(ctx context.Context, id uuid.UUID) error
	FailCompensation(ctx context.Context, id uuid.UUID, reason string) error
}

// Store is the full persistence surface.
type Store interface {
	Schedules
	Users
	Compensations
	Ping(ctx context.Context) error
}
