package services

import (
	"github.com/google/uuid"

	"github.com/meinhoongagan/gym-booking/models"
)

// Identity is the authenticated caller as resolved by the auth layer.
type Identity struct {
	UserID uuid.UUID   `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

func (id Identity) IsZero() bool { return id.UserID == uuid.Nil }

type Action string

const (
	ActionCreateSchedule Action = "schedule:create"
	ActionUpdateSchedule Action = "schedule:update"
	ActionDeleteSchedule Action = "schedule:delete"
	ActionListOwn        Action = "schedule:list_own"
	ActionListAll        Action = "schedule:list_all"
	ActionViewSchedule   Action = "schedule:view"
	ActionEnroll         Action = "enrollment:enroll"
	ActionWithdraw       Action = "enrollment:withdraw"
	ActionManageProfile  Action = "profile:manage"
	ActionDeleteAccount  Action = "account:delete"
	ActionManageTrainers Action = "trainer:manage"
)

// Resource identifies what an action touches. OwnerID is the trainer for schedules
// and the account holder for profiles; it is nil for collection-level checks.
type Resource struct {
	OwnerID *uuid.UUID
}

// Owned is a convenience for resources with a single owner.
func Owned(owner uuid.UUID) Resource {
	return Resource{OwnerID: &owner}
}

func (r Resource) ownedBy(id uuid.UUID) bool {
	return r.OwnerID == nil || *r.OwnerID == id
}

// Authorize is the single access policy consulted by the allocator, the enrollment
// coordinator and the HTTP route gate.
func Authorize(id Identity, action Action, res Resource) error {
	if id.IsZero() || !id.Role.Valid() {
		return Unauthorized(MsgInvalidAuth)
	}
	if id.Role == models.RoleAdmin {
		return nil
	}

	allowed := false
	switch action {
	case ActionViewSchedule:
		allowed = true
	case ActionCreateSchedule, ActionUpdateSchedule, ActionDeleteSchedule, ActionListOwn:
		allowed = id.Role == models.RoleTrainer && res.ownedBy(id.UserID)
	case ActionEnroll, ActionWithdraw, ActionManageProfile, ActionDeleteAccount:
		allowed = id.Role == models.RoleTrainee && res.ownedBy(id.UserID)
	}

	if !allowed {
		return Forbidden(MsgInsufficientRole)
	}
	return nil
}
