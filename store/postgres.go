package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/gym-booking/models"
)

const uniqueViolation = "23505"

// PostgresStore keeps users, schedules and the compensation journal in Postgres.
// Participant sets are text[] columns updated with array_append/array_remove inside
// a single guarded UPDATE.
type PostgresStore struct {
	db *gorm.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---- schedules ----

func (p *PostgresStore) CreateSchedule(ctx context.Context, s *models.Schedule) error {
	s.Prepare()
	return p.db.WithContext(ctx).Create(s).Error
}

func (p *PostgresStore) GetSchedule(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	var s models.Schedule
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (p *PostgresStore) ListSchedules(ctx context.Context, f ScheduleFilter) ([]models.Schedule, error) {
	q := p.db.WithContext(ctx).Model(&models.Schedule{})
	if f.TrainerID != nil {
		q = q.Where("trainer_id = ?", *f.TrainerID)
	}
	if f.Date != nil {
		q = q.Where("date = ?", f.Date.Format(models.DateLayout))
	}
	if f.From != nil {
		q = q.Where("date >= ?", f.From.Format(models.DateLayout))
	}
	if f.To != nil {
		q = q.Where("date <= ?", f.To.Format(models.DateLayout))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}

	schedules := []models.Schedule{}
	if err := q.Order("date ASC, start_time ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (p *PostgresStore) CountSchedules(ctx context.Context, trainerID uuid.UUID, date time.Time) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("trainer_id = ? AND date = ?", trainerID, date.Format(models.DateLayout)).
		Count(&n).Error
	return n, err
}

func (p *PostgresStore) UpdateScheduleSlot(ctx context.Context, id uuid.UUID, slot models.ScheduleSlot) (*models.Schedule, error) {
	var s models.Schedule
	res := p.db.WithContext(ctx).Model(&s).Clauses(clause.Returning{}).
		Where("id = ? AND current_participants <= ?", id, slot.MaxParticipants).
		Updates(map[string]interface{}{
			"trainer_id":       slot.TrainerID,
			"class_name":       slot.ClassName,
			"description":      slot.Description,
			"date":             slot.Date.Format(models.DateLayout),
			"start_time":       slot.StartTime,
			"end_time":         slot.EndTime,
			"max_participants": slot.MaxParticipants,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetSchedule(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConditionFailed
	}
	return &s, nil
}

func (p *PostgresStore) DeleteSchedule(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	var s models.Schedule
	res := p.db.WithContext(ctx).Clauses(clause.Returning{}).Where("id = ?", id).Delete(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (p *PostgresStore) TransitionSchedules(ctx context.Context, ids []uuid.UUID, from, to models.ScheduleStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := p.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("id IN ? AND status = ?", ids, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (p *PostgresStore) AddParticipant(ctx context.Context, scheduleID, userID uuid.UUID) (*models.Schedule, error) {
	uid := userID.String()

	var s models.Schedule
	res := p.db.WithContext(ctx).Model(&s).Clauses(clause.Returning{}).
		Where("id = ? AND status = ? AND current_participants < max_participants AND NOT (? = ANY(participants))",
			scheduleID, models.StatusScheduled, uid).
		Updates(map[string]interface{}{
			"participants":         gorm.Expr("array_append(participants, ?)", uid),
			"current_participants": gorm.Expr("current_participants + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConditionFailed
	}
	return &s, nil
}

// releaseSeat keeps the counter equal to the set size after removal.
func releaseSeat(uid string) map[string]interface{} {
	return map[string]interface{}{
		"participants":         gorm.Expr("array_remove(participants, ?)", uid),
		"current_participants": gorm.Expr("cardinality(array_remove(participants, ?))", uid),
	}
}

func (p *PostgresStore) RemoveParticipant(ctx context.Context, scheduleID, userID uuid.UUID) (bool, error) {
	uid := userID.String()
	res := p.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("id = ? AND ? = ANY(participants)", scheduleID, uid).
		Updates(releaseSeat(uid))
	return res.RowsAffected > 0, res.Error
}

func (p *PostgresStore) RemoveParticipantEverywhere(ctx context.Context, userID uuid.UUID) (int64, error) {
	uid := userID.String()
	res := p.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("? = ANY(participants)", uid).
		Updates(releaseSeat(uid))
	return res.RowsAffected, res.Error
}

// ---- users ----

func (p *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	u.Prepare()
	if err := p.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (p *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := p.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (p *PostgresStore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	q := p.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	users := []models.User{}
	if err := q.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (p *PostgresStore) UpdateUser(ctx context.Context, id uuid.UUID, ch UserChanges) (*models.User, error) {
	updates := map[string]interface{}{}
	if ch.Name != nil {
		updates["name"] = *ch.Name
	}
	if ch.Email != nil {
		updates["email"] = models.NormalizeEmail(*ch.Email)
	}
	if ch.Password != nil {
		updates["password"] = *ch.Password
	}
	if ch.ProfilePicture != nil {
		updates["profile_picture"] = *ch.ProfilePicture
	}
	if len(updates) == 0 {
		return p.GetUser(ctx, id)
	}

	var u models.User
	res := p.db.WithContext(ctx).Model(&u).Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, ErrDuplicate
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (p *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) AddEnrolledSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	sid := scheduleID.String()
	res := p.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("enrolled_schedules", gorm.Expr(
			"CASE WHEN ? = ANY(enrolled_schedules) THEN enrolled_schedules ELSE array_append(enrolled_schedules, ?) END",
			sid, sid))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) RemoveEnrolledSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	res := p.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("enrolled_schedules", gorm.Expr("array_remove(enrolled_schedules, ?)", scheduleID.String()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) DetachScheduleFromUsers(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	sid := scheduleID.String()
	res := p.db.WithContext(ctx).Model(&models.User{}).
		Where("? = ANY(enrolled_schedules)", sid).
		Update("enrolled_schedules", gorm.Expr("array_remove(enrolled_schedules, ?)", sid))
	return res.RowsAffected, res.Error
}

// ---- compensation journal ----

func (p *PostgresStore) RecordCompensation(ctx context.Context, c *models.Compensation) error {
	return p.db.WithContext(ctx).Create(c).Error
}

func (p *PostgresStore) PendingCompensations(ctx context.Context, limit int) ([]models.Compensation, error) {
	pending := []models.Compensation{}
	err := p.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}

func (p *PostgresStore) ResolveCompensation(ctx context.Context, id uuid.UUID) error {
	return p.db.WithContext(ctx).Model(&models.Compensation{}).
		Where("id = ?", id).
		Update("resolved_at", time.Now()).Error
}

func (p *PostgresStore) FailCompensation(ctx context.Context, id uuid.UUID, reason string) error {
	return p.db.WithContext(ctx).Model(&models.Compensation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
