package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CompensationKind string

const (
	// CompensationReleaseSeat removes a participant from a schedule.
	CompensationReleaseSeat CompensationKind = "release_seat"
	// CompensationDetachSchedule removes a schedule from a user's enrollment set.
	CompensationDetachSchedule CompensationKind = "detach_schedule"
)

// Compensation is a journaled repair step that failed inline and must be replayed.
type Compensation struct {
	ID         uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Kind       CompensationKind  `json:"kind" gorm:"type:varchar(32);not null"`
	ScheduleID uuid.UUID         `json:"scheduleId" gorm:"type:uuid;not null"`
	UserID     uuid.UUID         `json:"userId" gorm:"type:uuid;not null"`
	Attempts   int               `json:"attempts" gorm:"not null;default:0"`
	LastError  string            `json:"lastError"`
	Detail     datatypes.JSONMap `json:"detail" gorm:"type:jsonb"`
	ResolvedAt *time.Time        `json:"resolvedAt" gorm:"index"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (Compensation) TableName() string { return "enrollment_compensations" }

func (c *Compensation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
