package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulePrepare(t *testing.T) {
	s := &Schedule{}
	s.Prepare()

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, StatusScheduled, s.Status)
	assert.Equal(t, DefaultMaxParticipants, s.MaxParticipants)
	require.NotNil(t, s.Participants)
	assert.Len(t, s.Participants, 0)

	id := s.ID
	s.Prepare()
	assert.Equal(t, id, s.ID, "prepare must not replace an existing id")
}

func TestScheduleCapacity(t *testing.T) {
	user := uuid.New()
	s := &Schedule{Status: StatusScheduled, MaxParticipants: 1}

	assert.True(t, s.CanBook())
	assert.False(t, s.HasParticipant(user))

	s.Participants = append(s.Participants, user.String())
	s.CurrentParticipants = 1

	assert.True(t, s.IsFull())
	assert.False(t, s.CanBook())
	assert.True(t, s.HasParticipant(user))

	s.CurrentParticipants = 0
	s.Status = StatusCancelled
	assert.False(t, s.CanBook(), "cancelled classes are never bookable")
}

func TestScheduleTransitions(t *testing.T) {
	tests := []struct {
		from    ScheduleStatus
		to      ScheduleStatus
		wantErr bool
	}{
		{StatusScheduled, StatusCancelled, false},
		{StatusScheduled, StatusCompleted, false},
		{StatusScheduled, StatusScheduled, true},
		{StatusCancelled, StatusScheduled, true},
		{StatusCompleted, StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			s := &Schedule{Status: tt.from}
			err := s.CanTransitionTo(tt.to)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleDateString(t *testing.T) {
	s := &Schedule{Date: time.Date(2030, 3, 7, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2030-03-07", s.DateString())
}

func TestUserPrepare(t *testing.T) {
	u := &User{Email: "  Jane.Doe@Example.COM "}
	u.Prepare()

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, RoleTrainee, u.Role)
	assert.Equal(t, "jane.doe@example.com", u.Email)
	assert.NotNil(t, u.EnrolledSchedules)

	sid := uuid.New()
	assert.False(t, u.IsEnrolled(sid))
	u.EnrolledSchedules = append(u.EnrolledSchedules, sid.String())
	assert.True(t, u.IsEnrolled(sid))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleTrainer.Valid())
	assert.True(t, RoleTrainee.Valid())
	assert.False(t, Role("provider").Valid())
	assert.False(t, Role("").Valid())
}
