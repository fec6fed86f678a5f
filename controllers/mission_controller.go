package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/missions/middleware"
	"github.com/studyhub/missions/models"
	"github.com/studyhub/missions/services"
	"github.com/studyhub/missions/utils"
)

// MissionController serves the daily mission endpoints.
type MissionController struct {
	missions *services.MissionService
	now      Clock
}

// NewMissionController creates a new controller instance.
func NewMissionController(missions *services.MissionService, now Clock) *MissionController {
	return &MissionController{missions: missions, now: now}
}

// GetTodayMissions returns the user's missions for today, generating them on first request.
func (m *MissionController) GetTodayMissions(ctx *gin.Context) {
	userID, ok := parseID(ctx, "userId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid user id")
		return
	}
	if actor, authed := middleware.CurrentUserID(ctx); authed && actor != userID && !middleware.IsAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "cannot read another user's missions")
		return
	}

	today := m.now()
	missions, err := m.missions.GetMissionsForToday(ctx.Request.Context(), userID, today)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCatalogEmpty):
		utils.Error(ctx, http.StatusNotFound, 40420, err.Error())
		return
	case errors.Is(err, services.ErrLockTimeout):
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "missions are being generated, retry shortly")
		return
	default:
		serverError(ctx, 50010, "failed to load missions", err)
		return
	}

	utils.CacheDelete(statsCacheKey(today))
	ctx.JSON(http.StatusOK, missions)
}

// ToggleMission flips a mission between pending and done and settles its points.
func (m *MissionController) ToggleMission(ctx *gin.Context) {
	missionID, ok := parseID(ctx, "missionId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid mission id")
		return
	}

	// Admins may settle any mission; everyone else only their own.
	var actor uint
	if id, authed := middleware.CurrentUserID(ctx); authed && !middleware.IsAdmin(ctx) {
		actor = id
	}

	result, err := m.missions.ToggleMission(ctx.Request.Context(), missionID, actor)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMissionNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "mission not found")
		return
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40411, "mission owner not found")
		return
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40310, "mission belongs to another user")
		return
	default:
		serverError(ctx, 50020, "failed to update mission", err)
		return
	}

	utils.CacheDelete(statsCacheKey(m.now()))
	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Mission updated successfully",
		"newStatus":   result.NewStatus,
		"pointsAdded": result.PointsAdded,
	})
}

func statsCacheKey(day time.Time) string {
	return "stats:missions:" + day.Format(models.DateLayout)
}
