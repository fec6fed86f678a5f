package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhub/missions/models"
)

// GormStore is the SQL backend (MySQL or PostgreSQL) behind the mission engine.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) TemplatesFor(ctx context.Context, difficulty models.Difficulty) ([]models.MissionTemplate, error) {
	var templates []models.MissionTemplate
	if err := s.db.WithContext(ctx).
		Where("difficulty = ?", difficulty).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("query mission templates: %w", err)
	}
	return templates, nil
}

func (s *GormStore) ListTemplates(ctx context.Context) ([]models.MissionTemplate, error) {
	var templates []models.MissionTemplate
	if err := s.db.WithContext(ctx).Order("difficulty ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list mission templates: %w", err)
	}
	return templates, nil
}

func (s *GormStore) AddTemplates(ctx context.Context, templates []models.MissionTemplate) (int64, error) {
	if len(templates) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&templates)
	if res.Error != nil {
		return 0, fmt.Errorf("insert mission templates: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) ListMissions(ctx context.Context, userID uint, day time.Time) ([]models.DailyMission, error) {
	var missions []models.DailyMission
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND mission_date = ?", userID, models.DayOf(day)).
		Order("id ASC").
		Find(&missions).Error; err != nil {
		return nil, fmt.Errorf("query daily missions: %w", err)
	}
	return missions, nil
}

func (s *GormStore) InsertMissions(ctx context.Context, missions []models.DailyMission) error {
	if len(missions) == 0 {
		return nil
	}
	// A concurrent allocator may have inserted the same rows; the unique key turns those into no-ops.
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&missions, 100).Error; err != nil {
		return fmt.Errorf("insert daily missions: %w", err)
	}
	return nil
}

func (s *GormStore) CountMissions(ctx context.Context, day time.Time) (int64, int64, error) {
	var total, completed int64
	date := models.DayOf(day)
	if err := s.db.WithContext(ctx).Model(&models.DailyMission{}).
		Where("mission_date = ?", date).
		Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count daily missions: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.DailyMission{}).
		Where("mission_date = ? AND is_completed = ?", date, true).
		Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("count completed missions: %w", err)
	}
	return total, completed, nil
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx SettlementTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormSettlementTx{tx: tx})
	})
}

type gormSettlementTx struct {
	tx *gorm.DB
}

func (t *gormSettlementTx) LockMission(missionID uint) (models.DailyMission, error) {
	var mission models.DailyMission
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&mission, missionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mission, ErrMissionNotFound
	}
	if err != nil {
		return mission, fmt.Errorf("load mission %d: %w", missionID, err)
	}
	return mission, nil
}

func (t *gormSettlementTx) SetCompleted(missionID uint, completed bool) error {
	if err := t.tx.Model(&models.DailyMission{}).
		Where("id = ?", missionID).
		Update("is_completed", completed).Error; err != nil {
		return fmt.Errorf("update mission %d: %w", missionID, err)
	}
	return nil
}

func (t *gormSettlementTx) AddPoints(userID uint, delta int) error {
	res := t.tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("COALESCE(points, 0) + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("update points for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (t *gormSettlementTx) AppendPointLog(entry *models.PointLog) error {
	if err := t.tx.Create(entry).Error; err != nil {
		return fmt.Errorf("insert point log: %w", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrUserNotFound
	}
	if err != nil {
		return user, fmt.Errorf("load user %d: %w", userID, err)
	}
	return user, nil
}

func (s *GormStore) ListPointLogs(ctx context.Context, userID uint, offset, limit int) ([]models.PointLog, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.PointLog{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count point logs: %w", err)
	}
	if offset < 0 {
		offset = 0
	}
	var logs []models.PointLog
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list point logs: %w", err)
	}
	return logs, total, nil
}

func (s *GormStore) RolloverStreaks(ctx context.Context, day time.Time) (models.StreakRollover, bool, error) {
	marker := models.StreakRollover{Day: models.DayOf(day)}
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "day"}}, DoNothing: true}).Create(&marker)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Where("day = ?", models.DayOf(day)).First(&marker).Error
		}

		completers := tx.Model(&models.DailyMission{}).
			Select("DISTINCT user_id").
			Where("mission_date = ? AND is_completed = ?", models.DayOf(day), true)

		advanced := tx.Model(&models.User{}).
			Where("id IN (?)", completers).
			Update("streak_count", gorm.Expr("streak_count + 1"))
		if advanced.Error != nil {
			return advanced.Error
		}
		reset := tx.Model(&models.User{}).
			Where("streak_count > 0 AND id NOT IN (?)", completers).
			Update("streak_count", 0)
		if reset.Error != nil {
			return reset.Error
		}

		marker.Advanced = advanced.RowsAffected
		marker.Reset = reset.RowsAffected
		applied = true
		return tx.Save(&marker).Error
	})
	if err != nil {
		return marker, false, fmt.Errorf("rollover streaks for %s: %w", day.Format(models.DateLayout), err)
	}
	return marker, applied, nil
}
