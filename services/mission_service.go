package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/studyhub/missions/models"
)

// DefaultRewardPoints is awarded for completing a mission when no reward is configured.
const DefaultRewardPoints = 50

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*LocalLocker)(nil)
)

// Settlement is the outcome of one toggle.
type Settlement struct {
	NewStatus   bool
	PointsAdded int
}

// MissionService allocates daily missions and settles their completion.
type MissionService struct {
	missions MissionStore
	catalog  CatalogReader
	locker   Locker
	reward   int
	logger   *zap.Logger
}

// Option customizes a MissionService.
type Option func(*MissionService)

// WithReward overrides the points granted per completion.
func WithReward(points int) Option {
	return func(s *MissionService) {
		if points > 0 {
			s.reward = points
		}
	}
}

// WithLocker sets the lock used to serialize allocation per user and day.
func WithLocker(l Locker) Option {
	return func(s *MissionService) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithLogger attaches a logger for allocation and settlement events.
func WithLogger(l *zap.Logger) Option {
	return func(s *MissionService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewMissionService wires a service over the given store and catalog.
func NewMissionService(missions MissionStore, catalog CatalogReader, opts ...Option) *MissionService {
	s := &MissionService{
		missions: missions,
		catalog:  catalog,
		locker:   NewLocalLocker(),
		reward:   DefaultRewardPoints,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reward returns the configured points per completion.
func (s *MissionService) Reward() int {
	return s.reward
}

// GetMissionsForToday returns the user's missions for today's calendar day,
// generating them from the catalog on the first call of the day.
func (s *MissionService) GetMissionsForToday(ctx context.Context, userID uint, today time.Time) ([]models.DailyMission, error) {
	day := time.Time(models.DayOf(today))

	existing, err := s.missions.ListMissions(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	release, err := s.locker.Acquire(ctx, allocationKey(userID, day))
	if err != nil {
		return nil, fmt.Errorf("lock allocation for user %d: %w", userID, err)
	}
	defer release()

	// Another request may have generated the rows while we waited.
	existing, err = s.missions.ListMissions(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	difficulty := DifficultyFor(today)
	templates, err := s.catalog.TemplatesFor(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w %s", ErrCatalogEmpty, difficulty)
	}

	rows := make([]models.DailyMission, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, models.DailyMission{
			UserID:        userID,
			MissionDate:   models.DayOf(today),
			TemplateID:    t.ID,
			Text:          t.Text,
			Type:          t.Type,
			TargetMinutes: t.TargetValue,
			IsCompleted:   false,
		})
	}
	if err := s.missions.InsertMissions(ctx, rows); err != nil {
		return nil, err
	}

	persisted, err := s.missions.ListMissions(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	s.logger.Info("daily missions generated",
		zap.Uint("user_id", userID),
		zap.String("date", day.Format(models.DateLayout)),
		zap.String("difficulty", string(difficulty)),
		zap.Int("count", len(persisted)),
	)
	return persisted, nil
}

// ToggleMission flips a mission's completion state and applies the matching
// point delta and ledger entry in one transaction. A non-zero actorID must
// own the mission.
func (s *MissionService) ToggleMission(ctx context.Context, missionID, actorID uint) (Settlement, error) {
	var out Settlement
	err := s.missions.WithinTx(ctx, func(tx SettlementTx) error {
		mission, err := tx.LockMission(missionID)
		if err != nil {
			return err
		}
		if actorID != 0 && mission.UserID != actorID {
			return ErrForbidden
		}

		newStatus := !mission.IsCompleted
		delta := s.reward
		reason := "Completed Mission: " + mission.Text
		if !newStatus {
			delta = -s.reward
			reason = "Undid Mission: " + mission.Text
		}

		if err := tx.SetCompleted(mission.ID, newStatus); err != nil {
			return err
		}
		if err := tx.AddPoints(mission.UserID, delta); err != nil {
			return err
		}
		if err := tx.AppendPointLog(&models.PointLog{
			UserID: mission.UserID,
			Points: delta,
			Reason: reason,
		}); err != nil {
			return err
		}

		out = Settlement{NewStatus: newStatus, PointsAdded: delta}
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			s.logger.Error("mission settlement rolled back", zap.Uint("mission_id", missionID), zap.Error(err))
		}
		return Settlement{}, err
	}
	s.logger.Info("mission toggled",
		zap.Uint("mission_id", missionID),
		zap.Bool("completed", out.NewStatus),
		zap.Int("points", out.PointsAdded),
	)
	return out, nil
}

func allocationKey(userID uint, day time.Time) string {
	return "missions:alloc:" + strconv.FormatUint(uint64(userID), 10) + ":" + day.Format(models.DateLayout)
}

func isExpected(err error) bool {
	return errors.Is(err, ErrMissionNotFound) || errors.Is(err, ErrForbidden)
}
