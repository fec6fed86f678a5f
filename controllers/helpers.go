package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/studyhub/missions/utils"
)

// maxPage bounds page so (page-1)*size cannot overflow.
const maxPage = 100000

// Clock returns the current time in the application's timezone.
type Clock func() time.Time

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads page/page_size query params with sane bounds.
func parsePagination(ctx *gin.Context, defaultSize, maxSize int) (page, size int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if size < 1 || size > maxSize {
		size = defaultSize
	}
	return page, size
}

// serverError logs the underlying error and replies with a generic message.
func serverError(ctx *gin.Context, code int, message string, err error) {
	utils.Logger.Error(message,
		zap.Error(err),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString("request_id")),
	)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}
