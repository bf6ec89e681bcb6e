package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/gym-booking/models"
)

func TestCreateScheduleValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(in *ScheduleInput)
		kind    Kind
		field   string
		message string
	}{
		{"missing class name", func(in *ScheduleInput) { in.ClassName = "  " }, KindValidation, "schedule", MsgFieldsRequired},
		{"missing start time", func(in *ScheduleInput) { in.StartTime = "" }, KindValidation, "schedule", MsgFieldsRequired},
		{"bad trainer id", func(in *ScheduleInput) { in.TrainerID = "abc" }, KindValidation, "trainerId", "Invalid trainer ID format"},
		{"today is not the future", func(in *ScheduleInput) { in.Date = "2030-01-01" }, KindValidation, "date", MsgDateInPast},
		{"past date", func(in *ScheduleInput) { in.Date = "2029-06-01" }, KindValidation, "date", MsgDateInPast},
		{"unparseable date", func(in *ScheduleInput) { in.Date = "soon" }, KindValidation, "date", MsgInvalidDate},
		{"bad time", func(in *ScheduleInput) { in.StartTime = "25:00" }, KindValidation, "time", MsgInvalidTime},
		{"capacity too high", func(in *ScheduleInput) { in.MaxParticipants = intPtr(11) }, KindValidation, "maxParticipants", MsgMaxParticipants},
		{"capacity zero", func(in *ScheduleInput) { in.MaxParticipants = intPtr(0) }, KindValidation, "maxParticipants", MsgMaxParticipants},
		{"unknown trainer", func(in *ScheduleInput) { in.TrainerID = uuid.NewString() }, KindValidation, "trainerId", MsgTrainerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input("09:00")
			tt.mutate(&in)
			_, err := f.alloc.CreateSchedule(context.Background(), f.admin, in)
			requireKind(t, err, tt.kind, tt.message)
			assert.Equal(t, tt.field, AsError(err).Field)
		})
	}
}

func TestCreateScheduleDefaults(t *testing.T) {
	f := newFixture(t)

	s, err := f.alloc.CreateSchedule(context.Background(), f.admin, f.input("7:30"))
	require.NoError(t, err)
	assert.Equal(t, "07:30", s.StartTime)
	assert.Equal(t, "09:30", s.EndTime)
	assert.Equal(t, models.DefaultMaxParticipants, s.MaxParticipants)
	assert.Equal(t, models.StatusScheduled, s.Status)
	assert.Zero(t, s.CurrentParticipants)
	assert.Equal(t, classDay, s.DateString())
}

func TestCreateScheduleWrapsPastMidnight(t *testing.T) {
	f := newFixture(t)

	s, err := f.alloc.CreateSchedule(context.Background(), f.admin, f.input("23:00"))
	require.NoError(t, err)
	assert.Equal(t, "01:00", s.EndTime)

	_, err = f.alloc.CreateSchedule(context.Background(), f.admin, f.input("22:30"))
	requireKind(t, err, KindValidation, MsgOverlap)
}

func TestOverlapScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.alloc.CreateSchedule(ctx, f.admin, f.input("09:00"))
	require.NoError(t, err)

	_, err = f.alloc.CreateSchedule(ctx, f.admin, f.input("10:30"))
	requireKind(t, err, KindValidation, MsgOverlap)
	assert.Equal(t, "schedule", AsError(err).Field)

	_, err = f.alloc.CreateSchedule(ctx, f.admin, f.input("11:00"))
	require.NoError(t, err, "touching intervals do not overlap")

	other := f.addUser(t, models.RoleTrainer)
	in := f.input("10:30")
	in.TrainerID = other.UserID.String()
	_, err = f.alloc.CreateSchedule(ctx, f.admin, in)
	require.NoError(t, err, "other trainers are independent")
}

func TestOverlapIgnoresCancelledSchedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.schedule(t, "09:00", 5)
	_, err := f.mem.TransitionSchedules(ctx, []uuid.UUID{s.ID}, models.StatusScheduled, models.StatusCancelled)
	require.NoError(t, err)

	_, err = f.alloc.CreateSchedule(ctx, f.admin, f.input("10:00"))
	require.NoError(t, err)
}

func TestDailyLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, start := range []string{"06:00", "08:00", "10:00", "12:00", "14:00"} {
		f.schedule(t, start, 10)
	}

	_, err := f.alloc.CreateSchedule(ctx, f.admin, f.input("16:00"))
	requireKind(t, err, KindResourceLimit, MsgDailyLimit)

	in := f.input("16:00")
	in.Date = "2030-01-03"
	_, err = f.alloc.CreateSchedule(ctx, f.admin, in)
	require.NoError(t, err, "limit is per date")
}

func TestUpdateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("excludes itself from overlap", func(t *testing.T) {
		f := newFixture(t)
		s := f.schedule(t, "09:00", 5)

		in := f.input("10:00")
		in.ClassName = "Mobility"
		updated, err := f.alloc.UpdateSchedule(ctx, f.admin, s.ID.String(), in)
		require.NoError(t, err)
		assert.Equal(t, "10:00", updated.StartTime)
		assert.Equal(t, "12:00", updated.EndTime)
		assert.Equal(t, "Mobility", updated.ClassName)
		assert.Equal(t, 5, updated.MaxParticipants, "omitted capacity keeps the stored value")
	})

	t.Run("counts itself against the daily limit", func(t *testing.T) {
		f := newFixture(t)
		var first *models.Schedule
		for i, start := range []string{"06:00", "08:00", "10:00", "12:00", "14:00"} {
			s := f.schedule(t, start, 10)
			if i == 0 {
				first = s
			}
		}
		_, err := f.alloc.UpdateSchedule(ctx, f.admin, first.ID.String(), f.input("16:00"))
		requireKind(t, err, KindResourceLimit, MsgDailyLimit)
	})

	t.Run("capacity below enrolled", func(t *testing.T) {
		f := newFixture(t)
		s := f.schedule(t, "09:00", 5)
		for i := 0; i < 3; i++ {
			_, err := f.coord.Enroll(ctx, f.addUser(t, models.RoleTrainee), s.ID.String())
			require.NoError(t, err)
		}

		in := f.input("09:00")
		in.MaxParticipants = intPtr(2)
		_, err := f.alloc.UpdateSchedule(ctx, f.admin, s.ID.String(), in)
		requireKind(t, err, KindValidation, MsgBelowEnrolled)

		got := f.reload(t, s.ID)
		assert.Equal(t, 5, got.MaxParticipants)
		assert.Equal(t, 3, got.CurrentParticipants)
	})

	t.Run("missing schedule", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.alloc.UpdateSchedule(ctx, f.admin, uuid.NewString(), f.input("09:00"))
		requireKind(t, err, KindNotFound, MsgScheduleNotFound)
	})
}

func TestTrainerOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own, err := f.alloc.CreateSchedule(ctx, f.trainer, f.input("09:00"))
	require.NoError(t, err, "trainers schedule themselves")

	other := f.addUser(t, models.RoleTrainer)
	in := f.input("12:00")
	in.TrainerID = other.UserID.String()
	_, err = f.alloc.CreateSchedule(ctx, f.trainer, in)
	requireKind(t, err, KindForbidden, "")

	_, err = f.alloc.DeleteSchedule(ctx, other, own.ID.String())
	requireKind(t, err, KindForbidden, "")

	_, err = f.alloc.CreateSchedule(ctx, f.trainee, f.input("15:00"))
	requireKind(t, err, KindForbidden, "")

	mine, err := f.alloc.ListTrainerSchedules(ctx, f.trainer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.alloc.ListAllSchedules(ctx, f.trainer)
	requireKind(t, err, KindForbidden, "")

	deleted, err := f.alloc.DeleteSchedule(ctx, f.trainer, own.ID.String())
	require.NoError(t, err)
	assert.Equal(t, own.ID, deleted.ID)

	_, err = f.alloc.GetSchedule(ctx, f.trainee, own.ID.String())
	requireKind(t, err, KindNotFound, MsgScheduleNotFound)
}

func TestListAllSchedulesSorted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.schedule(t, "14:00", 5)
	f.schedule(t, "08:00", 5)
	in := f.input("06:00")
	in.Date = "2030-01-05"
	_, err := f.alloc.CreateSchedule(ctx, f.admin, in)
	require.NoError(t, err)

	all, err := f.alloc.ListAllSchedules(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "08:00", all[0].StartTime)
	assert.Equal(t, "14:00", all[1].StartTime)
	assert.Equal(t, "2030-01-05", all[2].DateString())
}
