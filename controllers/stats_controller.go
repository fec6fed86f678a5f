package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/missions/models"
	"github.com/studyhub/missions/services"
	"github.com/studyhub/missions/utils"
)

const statsCacheTTL = time.Minute

// StatsController provides engine statistics for the current day.
type StatsController struct {
	missions services.MissionStore
	now      Clock
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(missions services.MissionStore, now Clock) *StatsController {
	return &StatsController{missions: missions, now: now}
}

type missionStats struct {
	Date       string            `json:"date"`
	Difficulty models.Difficulty `json:"difficulty"`
	Generated  int64             `json:"missions_generated"`
	Completed  int64             `json:"missions_completed"`
}

// GetStats returns today's tier and how many missions were generated and completed.
func (s *StatsController) GetStats(ctx *gin.Context) {
	today := s.now()
	key := statsCacheKey(today)

	var stats missionStats
	if utils.CacheGetJSON(key, &stats) {
		utils.Success(ctx, stats)
		return
	}

	total, completed, err := s.missions.CountMissions(ctx.Request.Context(), time.Time(models.DayOf(today)))
	if err != nil {
		serverError(ctx, 50050, "failed to load stats", err)
		return
	}
	stats = missionStats{
		Date:       today.Format(models.DateLayout),
		Difficulty: services.DifficultyFor(today),
		Generated:  total,
		Completed:  completed,
	}
	utils.CacheSetJSON(key, stats, statsCacheTTL)
	utils.Success(ctx, stats)
}
