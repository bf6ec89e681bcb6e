package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type User struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string         `json:"name" gorm:"not null"`
	Email             string         `json:"email" gorm:"not null;uniqueIndex"`
	Password          string         `json:"-" gorm:"not null"`
	Role              Role           `json:"role" gorm:"type:varchar(16);not null;default:trainee;index"`
	ProfilePicture    string         `json:"profilePicture,omitempty"`
	EnrolledSchedules pq.StringArray `json:"enrolledSchedules" gorm:"type:text[];not null;default:'{}'"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Prepare()
	return nil
}

// Prepare fills the defaults every stored user must carry.
func (u *User) Prepare() {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleTrainee
	}
	if u.EnrolledSchedules == nil {
		u.EnrolledSchedules = pq.StringArray{}
	}
	u.Email = NormalizeEmail(u.Email)
}

// IsEnrolled reports whether scheduleID is in the user's enrollment set.
func (u *User) IsEnrolled(scheduleID uuid.UUID) bool {
	id := scheduleID.String()
	for _, s := range u.EnrolledSchedules {
		if s == id {
			return true
		}
	}
	return false
}

// NormalizeEmail makes email comparison case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
