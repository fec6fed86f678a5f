package services

import (
	"context"
	"time"

	"github.com/studyhub/missions/models"
)

// CatalogReader reads mission templates. Implementations never cache.
type CatalogReader interface {
	TemplatesFor(ctx context.Context, difficulty models.Difficulty) ([]models.MissionTemplate, error)
}

// CatalogWriter manages catalog entries.
type CatalogWriter interface {
	ListTemplates(ctx context.Context) ([]models.MissionTemplate, error)
	// AddTemplates inserts templates, skipping any whose slug already exists.
	// It returns the number of rows actually inserted.
	AddTemplates(ctx context.Context, templates []models.MissionTemplate) (int64, error)
}

// MissionStore persists daily mission instances.
type MissionStore interface {
	// ListMissions returns a user's missions for day ordered by id.
	ListMissions(ctx context.Context, userID uint, day time.Time) ([]models.DailyMission, error)
	// InsertMissions batch-inserts rows, ignoring ones that collide with the
	// (user_id, mission_date, template_id) unique key.
	InsertMissions(ctx context.Context, missions []models.DailyMission) error
	// CountMissions returns how many missions exist for day and how many are completed.
	CountMissions(ctx context.Context, day time.Time) (total int64, completed int64, err error)
	// WithinTx runs fn inside one transaction; any error rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx SettlementTx) error) error
}

// SettlementTx is the write surface available inside a settlement transaction.
type SettlementTx interface {
	// LockMission loads a mission and holds it until the transaction ends.
	LockMission(missionID uint) (models.DailyMission, error)
	SetCompleted(missionID uint, completed bool) error
	// AddPoints applies a relative increment, treating NULL as zero.
	AddPoints(userID uint, delta int) error
	AppendPointLog(entry *models.PointLog) error
}

// LedgerReader exposes balances and the audit log.
type LedgerReader interface {
	GetUser(ctx context.Context, userID uint) (models.User, error)
	ListPointLogs(ctx context.Context, userID uint, offset, limit int) ([]models.PointLog, int64, error)
}

// StreakStore settles streak counters for a finished day.
type StreakStore interface {
	// RolloverStreaks advances streaks for users who completed a mission on day
	// and resets the rest. A day already rolled over returns applied=false.
	RolloverStreaks(ctx context.Context, day time.Time) (result models.StreakRollover, applied bool, err error)
}

// Store is everything a single backend provides.
type Store interface {
	CatalogReader
	CatalogWriter
	MissionStore
	LedgerReader
	StreakStore
}
