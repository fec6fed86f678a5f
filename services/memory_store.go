package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studyhub/missions/models"
)

// MemoryStore keeps the whole engine state in process memory. It backs
// DB_DRIVER=memory and the test suites, and mirrors the SQL constraints the
// engine depends on: unique template slugs, the per-day mission key and
// all-or-nothing settlement transactions.
type MemoryStore struct {
	mu sync.Mutex

	templates []models.MissionTemplate
	missions  []models.DailyMission
	users     map[uint]*models.User
	logs      []models.PointLog
	rollovers map[string]models.StreakRollover

	nextTemplateID uint
	nextMissionID  uint
	nextLogID      uint
	nextRolloverID uint

	now func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     map[uint]*models.User{},
		rollovers: map[string]models.StreakRollover{},
		now:       time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// PutUser creates or replaces a user row.
func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	if u.Points != nil {
		p := *u.Points
		cp.Points = &p
	}
	s.users[u.ID] = &cp
}

func (s *MemoryStore) TemplatesFor(_ context.Context, difficulty models.Difficulty) ([]models.MissionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MissionTemplate{}
	for _, t := range s.templates {
		if t.Difficulty == difficulty {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListTemplates(_ context.Context) ([]models.MissionTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.MissionTemplate(nil), s.templates...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) AddTemplates(_ context.Context, templates []models.MissionTemplate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inserted int64
	for i := range templates {
		if s.hasSlugLocked(templates[i].Slug) {
			continue
		}
		s.nextTemplateID++
		templates[i].ID = s.nextTemplateID
		templates[i].CreatedAt = s.now()
		s.templates = append(s.templates, templates[i])
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) hasSlugLocked(slug string) bool {
	for _, t := range s.templates {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

func (s *MemoryStore) ListMissions(_ context.Context, userID uint, day time.Time) ([]models.DailyMission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := day.Format(models.DateLayout)
	out := []models.DailyMission{}
	for _, m := range s.missions {
		if m.UserID == userID && m.Day().Format(models.DateLayout) == date {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertMissions(_ context.Context, missions []models.DailyMission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range missions {
		if s.hasMissionLocked(m) {
			continue
		}
		s.nextMissionID++
		m.ID = s.nextMissionID
		m.CreatedAt = s.now()
		m.UpdatedAt = m.CreatedAt
		s.missions = append(s.missions, m)
	}
	return nil
}

func (s *MemoryStore) hasMissionLocked(m models.DailyMission) bool {
	date := m.Day().Format(models.DateLayout)
	for _, existing := range s.missions {
		if existing.UserID == m.UserID &&
			existing.TemplateID == m.TemplateID &&
			existing.Day().Format(models.DateLayout) == date {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CountMissions(_ context.Context, day time.Time) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := day.Format(models.DateLayout)
	var total, completed int64
	for _, m := range s.missions {
		if m.Day().Format(models.DateLayout) != date {
			continue
		}
		total++
		if m.IsCompleted {
			completed++
		}
	}
	return total, completed, nil
}

// WithinTx holds the store lock for the whole callback and restores the
// previous state when fn fails.
func (s *MemoryStore) WithinTx(_ context.Context, fn func(tx SettlementTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	missions := append([]models.DailyMission(nil), s.missions...)
	users := s.cloneUsersLocked()
	logs := len(s.logs)
	nextLogID := s.nextLogID

	if err := fn(&memorySettlementTx{s: s}); err != nil {
		s.missions = missions
		s.users = users
		s.logs = s.logs[:logs]
		s.nextLogID = nextLogID
		return err
	}
	return nil
}

func (s *MemoryStore) cloneUsersLocked() map[uint]*models.User {
	out := make(map[uint]*models.User, len(s.users))
	for id, u := range s.users {
		cp := *u
		if u.Points != nil {
			p := *u.Points
			cp.Points = &p
		}
		out[id] = &cp
	}
	return out
}

type memorySettlementTx struct {
	s *MemoryStore
}

func (t *memorySettlementTx) missionIndex(id uint) int {
	for i := range t.s.missions {
		if t.s.missions[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *memorySettlementTx) LockMission(missionID uint) (models.DailyMission, error) {
	i := t.missionIndex(missionID)
	if i < 0 {
		return models.DailyMission{}, ErrMissionNotFound
	}
	return t.s.missions[i], nil
}

func (t *memorySettlementTx) SetCompleted(missionID uint, completed bool) error {
	i := t.missionIndex(missionID)
	if i < 0 {
		return ErrMissionNotFound
	}
	t.s.missions[i].IsCompleted = completed
	t.s.missions[i].UpdatedAt = t.s.now()
	return nil
}

func (t *memorySettlementTx) AddPoints(userID uint, delta int) error {
	u, ok := t.s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	total := u.PointsOrZero() + delta
	u.Points = &total
	return nil
}

func (t *memorySettlementTx) AppendPointLog(entry *models.PointLog) error {
	t.s.nextLogID++
	entry.ID = t.s.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = t.s.now()
	}
	t.s.logs = append(t.s.logs, *entry)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	cp := *u
	if u.Points != nil {
		p := *u.Points
		cp.Points = &p
	}
	return cp, nil
}

func (s *MemoryStore) ListPointLogs(_ context.Context, userID uint, offset, limit int) ([]models.PointLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []models.PointLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].UserID == userID {
			mine = append(mine, s.logs[i])
		}
	}
	total := int64(len(mine))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(mine) {
		return []models.PointLog{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (s *MemoryStore) RolloverStreaks(_ context.Context, day time.Time) (models.StreakRollover, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	date := day.Format(models.DateLayout)
	if existing, ok := s.rollovers[date]; ok {
		return existing, false, nil
	}

	completers := map[uint]bool{}
	for _, m := range s.missions {
		if m.IsCompleted && m.Day().Format(models.DateLayout) == date {
			completers[m.UserID] = true
		}
	}

	s.nextRolloverID++
	marker := models.StreakRollover{ID: s.nextRolloverID, Day: models.DayOf(day), CreatedAt: s.now()}
	for id, u := range s.users {
		switch {
		case completers[id]:
			u.StreakCount++
			marker.Advanced++
		case u.StreakCount > 0:
			u.StreakCount = 0
			marker.Reset++
		}
	}
	s.rollovers[date] = marker
	return marker, true, nil
}
