package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/missions/middleware"
	"github.com/studyhub/missions/services"
	"github.com/studyhub/missions/utils"
)

// PointsController reports balances, streaks and the point ledger.
type PointsController struct {
	ledger services.LedgerReader
}

func NewPointsController(ledger services.LedgerReader) *PointsController {
	return &PointsController{ledger: ledger}
}

// GetPoints returns the user's balance, streak and most recent ledger entries.
func (p *PointsController) GetPoints(ctx *gin.Context) {
	userID, ok := parseID(ctx, "userId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid user id")
		return
	}
	if actor, authed := middleware.CurrentUserID(ctx); authed && actor != userID && !middleware.IsAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "cannot read another user's points")
		return
	}

	user, err := p.ledger.GetUser(ctx.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
		return
	}
	if err != nil {
		serverError(ctx, 50030, "failed to load user", err)
		return
	}

	page, size := parsePagination(ctx, 20, 100)
	logs, total, err := p.ledger.ListPointLogs(ctx.Request.Context(), userID, (page-1)*size, size)
	if err != nil {
		serverError(ctx, 50031, "failed to load point history", err)
		return
	}

	utils.Success(ctx, gin.H{
		"user_id":      user.ID,
		"points":       user.PointsOrZero(),
		"streak_count": user.StreakCount,
		"logs": gin.H{
			"items":     logs,
			"total":     total,
			"page":      page,
			"page_size": size,
		},
	})
}
