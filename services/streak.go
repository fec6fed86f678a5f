package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/studyhub/missions/models"
)

// StreakService settles streak counters once per finished day.
type StreakService struct {
	store  StreakStore
	loc    *time.Location
	logger *zap.Logger
	sched  gocron.Scheduler
}

func NewStreakService(store StreakStore, loc *time.Location, logger *zap.Logger) *StreakService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreakService{store: store, loc: loc, logger: logger}
}

// RolloverDay advances streaks of users who completed at least one mission on
// day and resets everyone else. Running it again for the same day is a no-op.
func (s *StreakService) RolloverDay(ctx context.Context, day time.Time) (models.StreakRollover, bool, error) {
	res, applied, err := s.store.RolloverStreaks(ctx, time.Time(models.DayOf(day)))
	if err != nil {
		return res, false, err
	}
	if applied {
		s.logger.Info("streaks rolled over",
			zap.String("date", day.Format(models.DateLayout)),
			zap.Int64("advanced", res.Advanced),
			zap.Int64("reset", res.Reset),
		)
	} else {
		s.logger.Debug("streak rollover already applied", zap.String("date", day.Format(models.DateLayout)))
	}
	return res, applied, nil
}

// Start schedules the nightly rollover at 00:05 in the service location,
// settling the day that just ended.
func (s *StreakService) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(s.loc))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			yesterday := time.Now().In(s.loc).AddDate(0, 0, -1)
			if _, _, err := s.RolloverDay(ctx, yesterday); err != nil {
				s.logger.Error("streak rollover failed", zap.Error(err))
			}
		}),
		gocron.WithName("streak-rollover"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule streak rollover: %w", err)
	}
	sched.Start()
	s.sched = sched
	return nil
}

// Shutdown stops the scheduler if it was started.
func (s *StreakService) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
