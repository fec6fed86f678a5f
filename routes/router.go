package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/studyhub/missions/config"
	"github.com/studyhub/missions/controllers"
	"github.com/studyhub/missions/middleware"
	"github.com/studyhub/missions/services"
	"github.com/studyhub/missions/utils"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Store    services.Store
	Missions *services.MissionService
	Now      controllers.Clock
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Now == nil {
		loc := cfg.Location()
		deps.Now = func() time.Time { return time.Now().In(loc) }
	}

	r := gin.New()
	r.Use(utils.RequestID())
	// Access log and panics go to their own rolling file.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		r.Use(utils.RecoveryWithZap(utils.Logger, true))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	missionController := controllers.NewMissionController(deps.Missions, deps.Now)
	catalogController := controllers.NewCatalogController(deps.Store)
	pointsController := controllers.NewPointsController(deps.Store)
	statsController := controllers.NewStatsController(deps.Store, deps.Now)

	api := r.Group("/api/v1")
	api.GET("/stats", statsController.GetStats)
	api.GET("/mission-types", catalogController.ListTemplates)

	protected := api.Group("")
	protected.Use(middleware.AuthIfEnabled(), middleware.RateLimitMiddleware())
	protected.GET("/missions/:userId", missionController.GetTodayMissions)
	protected.PUT("/missions/:missionId", missionController.ToggleMission)
	protected.GET("/users/:userId/points", pointsController.GetPoints)

	// Catalog writes need an identity, so they only exist with auth on.
	if cfg.AuthEnabled {
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.RateLimitMiddleware())
		admin.POST("/mission-types", catalogController.CreateTemplate)
	}

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
