package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/meinhoongagan/gym-booking/models"
)

// MemoryStore is an in-process Store. A single mutex guards every record, which
// gives each conditional write the same all-or-nothing behaviour as the guarded
// UPDATE statements in PostgresStore.
type MemoryStore struct {
	mu            sync.RWMutex
	schedules     map[uuid.UUID]*models.Schedule
	users         map[uuid.UUID]*models.User
	compensations map[uuid.UUID]*models.Compensation
	now           func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		schedules:     make(map[uuid.UUID]*models.Schedule),
		users:         make(map[uuid.UUID]*models.User),
		compensations: make(map[uuid.UUID]*models.Compensation),
		now:           time.Now,
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func cloneStrings(a pq.StringArray) pq.StringArray {
	out := make(pq.StringArray, len(a))
	copy(out, a)
	return out
}

func cloneSchedule(s *models.Schedule) *models.Schedule {
	c := *s
	c.Participants = cloneStrings(s.Participants)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.EnrolledSchedules = cloneStrings(u.EnrolledSchedules)
	return &c
}

func removeString(a pq.StringArray, v string) (pq.StringArray, bool) {
	out := make(pq.StringArray, 0, len(a))
	removed := false
	for _, s := range a {
		if s == v {
			removed = true
			continue
		}
		out = append(out, s)
	}
	return out, removed
}

func containsString(a pq.StringArray, v string) bool {
	for _, s := range a {
		if s == v {
			return true
		}
	}
	return false
}

// ---- schedules ----

func (m *MemoryStore) CreateSchedule(_ context.Context, s *models.Schedule) error {
	s.Prepare()
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.ID] = cloneSchedule(s)
	return nil
}

func (m *MemoryStore) GetSchedule(_ context.Context, id uuid.UUID) (*models.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSchedule(s), nil
}

func (m *MemoryStore) ListSchedules(_ context.Context, f ScheduleFilter) ([]models.Schedule, error) {
	var ids map[uuid.UUID]bool
	if len(f.IDs) > 0 {
		ids = make(map[uuid.UUID]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}

	m.mu.RLock()
	out := []models.Schedule{}
	for _, s := range m.schedules {
		day := s.DateString()
		switch {
		case f.TrainerID != nil && s.TrainerID != *f.TrainerID:
			continue
		case f.Date != nil && day != f.Date.Format(models.DateLayout):
			continue
		case f.From != nil && day < f.From.Format(models.DateLayout):
			continue
		case f.To != nil && day > f.To.Format(models.DateLayout):
			continue
		case f.Status != "" && s.Status != f.Status:
			continue
		case ids != nil && !ids[s.ID]:
			continue
		}
		out = append(out, *cloneSchedule(s))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DateString(), out[j].DateString()
		if di != dj {
			return di < dj
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *MemoryStore) CountSchedules(_ context.Context, trainerID uuid.UUID, date time.Time) (int64, error) {
	day := date.Format(models.DateLayout)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, s := range m.schedules {
		if s.TrainerID == trainerID && s.DateString() == day {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) UpdateScheduleSlot(_ context.Context, id uuid.UUID, slot models.ScheduleSlot) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.CurrentParticipants > slot.MaxParticipants {
		return nil, ErrConditionFailed
	}
	slot.Apply(s)
	s.UpdatedAt = m.now()
	return cloneSchedule(s), nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id uuid.UUID) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.schedules, id)
	return s, nil
}

func (m *MemoryStore) TransitionSchedules(_ context.Context, ids []uuid.UUID, from, to models.ScheduleStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		s, ok := m.schedules[id]
		if !ok || s.Status != from {
			continue
		}
		s.Status = to
		s.UpdatedAt = m.now()
		n++
	}
	return n, nil
}

func (m *MemoryStore) AddParticipant(_ context.Context, scheduleID, userID uuid.UUID) (*models.Schedule, error) {
	uid := userID.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[scheduleID]
	if !ok || !s.CanBook() || containsString(s.Participants, uid) {
		return nil, ErrConditionFailed
	}
	s.Participants = append(s.Participants, uid)
	s.CurrentParticipants++
	s.UpdatedAt = m.now()
	return cloneSchedule(s), nil
}

// release must be called with the write lock held.
func (m *MemoryStore) release(s *models.Schedule, uid string) bool {
	rest, removed := removeString(s.Participants, uid)
	if !removed {
		return false
	}
	s.Participants = rest
	s.CurrentParticipants = len(rest)
	s.UpdatedAt = m.now()
	return true
}

func (m *MemoryStore) RemoveParticipant(_ context.Context, scheduleID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[scheduleID]
	if !ok {
		return false, nil
	}
	return m.release(s, userID.String()), nil
}

func (m *MemoryStore) RemoveParticipantEverywhere(_ context.Context, userID uuid.UUID) (int64, error) {
	uid := userID.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.schedules {
		if m.release(s, uid) {
			n++
		}
	}
	return n, nil
}

// ---- users ----

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	u.Prepare()
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListUsers(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	out := []models.User{}
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, *cloneUser(u))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, id uuid.UUID, ch UserChanges) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ch.Email != nil {
		email := models.NormalizeEmail(*ch.Email)
		for otherID, other := range m.users {
			if otherID != id && other.Email == email {
				return nil, ErrDuplicate
			}
		}
		u.Email = email
	}
	if ch.Name != nil {
		u.Name = *ch.Name
	}
	if ch.Password != nil {
		u.Password = *ch.Password
	}
	if ch.ProfilePicture != nil {
		u.ProfilePicture = *ch.ProfilePicture
	}
	u.UpdatedAt = m.now()
	return cloneUser(u), nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) AddEnrolledSchedule(_ context.Context, userID, scheduleID uuid.UUID) error {
	sid := scheduleID.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if !containsString(u.EnrolledSchedules, sid) {
		u.EnrolledSchedules = append(u.EnrolledSchedules, sid)
		u.UpdatedAt = m.now()
	}
	return nil
}

func (m *MemoryStore) RemoveEnrolledSchedule(_ context.Context, userID, scheduleID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if rest, removed := removeString(u.EnrolledSchedules, scheduleID.String()); removed {
		u.EnrolledSchedules = rest
		u.UpdatedAt = m.now()
	}
	return nil
}

func (m *MemoryStore) DetachScheduleFromUsers(_ context.Context, scheduleID uuid.UUID) (int64, error) {
	sid := scheduleID.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if rest, removed := removeString(u.EnrolledSchedules, sid); removed {
			u.EnrolledSchedules = rest
			u.UpdatedAt = m.now()
			n++
		}
	}
	return n, nil
}

// ---- compensation journal ----

func (m *MemoryStore) RecordCompensation(_ context.Context, c *models.Compensation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := m.now()
	c.CreatedAt, c.UpdatedAt = now, now

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.compensations[c.ID] = &cp
	return nil
}

func (m *MemoryStore) PendingCompensations(_ context.Context, limit int) ([]models.Compensation, error) {
	m.mu.RLock()
	out := []models.Compensation{}
	for _, c := range m.compensations {
		if c.ResolvedAt == nil {
			out = append(out, *c)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ResolveCompensation(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.compensations[id]; ok {
		now := m.now()
		c.ResolvedAt = &now
		c.UpdatedAt = now
	}
	return nil
}

func (m *MemoryStore) FailCompensation(_ context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.compensations[id]; ok {
		c.Attempts++
		c.LastError = reason
		c.UpdatedAt = m.now()
	}
	return nil
}
