package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ScheduleStatus string

const (
	StatusScheduled ScheduleStatus = "scheduled"
	StatusCancelled ScheduleStatus = "cancelled"
	StatusCompleted ScheduleStatus = "completed"
)

const (
	// DefaultMaxParticipants applies when a schedule is created without a capacity.
	DefaultMaxParticipants = 10
	MinParticipants        = 1
	MaxParticipants        = 10

	// MaxSchedulesPerDay caps how many classes one trainer may hold on a date.
	MaxSchedulesPerDay = 5

	// ClassDuration is fixed; end times are always derived from it.
	ClassDuration = 2 * time.Hour

	DateLayout = "2006-01-02"
)

type Schedule struct {
	ID                  uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TrainerID           uuid.UUID      `json:"trainerId" gorm:"type:uuid;not null;index:idx_schedules_trainer_date"`
	ClassName           string         `json:"className" gorm:"not null"`
	Description         string         `json:"description" gorm:"not null"`
	Date                time.Time      `json:"date" gorm:"type:date;not null;index:idx_schedules_trainer_date"`
	StartTime           string         `json:"startTime" gorm:"type:varchar(5);not null"`
	EndTime             string         `json:"endTime" gorm:"type:varchar(5);not null"`
	MaxParticipants     int            `json:"maxParticipants" gorm:"not null;default:10;check:chk_schedules_max_participants,max_participants BETWEEN 1 AND 10"`
	CurrentParticipants int            `json:"currentParticipants" gorm:"not null;default:0;check:chk_schedules_current_participants,current_participants >= 0 AND current_participants <= max_participants"`
	Status              ScheduleStatus `json:"status" gorm:"type:varchar(16);not null;default:scheduled;index"`
	Participants        pq.StringArray `json:"participants" gorm:"type:text[];not null;default:'{}'"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func (s *Schedule) BeforeCreate(tx *gorm.DB) error {
	s.Prepare()
	return nil
}

// Prepare fills the defaults every stored schedule must carry.
func (s *Schedule) Prepare() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusScheduled
	}
	if s.MaxParticipants == 0 {
		s.MaxParticipants = DefaultMaxParticipants
	}
	if s.Participants == nil {
		s.Participants = pq.StringArray{}
	}
}

// IsFull reports whether no seat is left.
func (s *Schedule) IsFull() bool {
	return s.CurrentParticipants >= s.MaxParticipants
}

// CanBook reports whether an enrollment could currently succeed.
func (s *Schedule) CanBook() bool {
	return !s.IsFull() && s.Status == StatusScheduled
}

// HasParticipant reports whether userID holds a seat.
func (s *Schedule) HasParticipant(userID uuid.UUID) bool {
	id := userID.String()
	for _, p := range s.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// DateString renders the calendar date without a time component.
func (s *Schedule) DateString() string {
	return s.Date.Format(DateLayout)
}

// ScheduleSlot is the caller-controlled part of a schedule written by create and update.
type ScheduleSlot struct {
	TrainerID       uuid.UUID
	ClassName       string
	Description     string
	Date            time.Time
	StartTime       string
	EndTime         string
	MaxParticipants int
}

// Apply copies the slot onto the schedule.
func (slot ScheduleSlot) Apply(s *Schedule) {
	s.TrainerID = slot.TrainerID
	s.ClassName = slot.ClassName
	s.Description = slot.Description
	s.Date = slot.Date
	s.StartTime = slot.StartTime
	s.EndTime = slot.EndTime
	s.MaxParticipants = slot.MaxParticipants
}

// CanTransitionTo validates status changes; cancelled and completed are terminal.
func (s *Schedule) CanTransitionTo(next ScheduleStatus) error {
	switch s.Status {
	case StatusScheduled:
		if next != StatusCancelled && next != StatusCompleted {
			return fmt.Errorf("invalid transition from scheduled to %s", next)
		}
	case StatusCompleted, StatusCancelled:
		return fmt.Errorf("no transitions allowed from %s", s.Status)
	default:
		return fmt.Errorf("unknown status %q", s.Status)
	}
	return nil
}
