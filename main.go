package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studyhub/missions/config"
	"github.com/studyhub/missions/models"
	"github.com/studyhub/missions/routes"
	"github.com/studyhub/missions/services"
	"github.com/studyhub/missions/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	store := openStore(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	seeded, err := services.SeedCatalog(ctx, store, cfg.CatalogSeedPath)
	cancel()
	if err != nil {
		utils.Sugar.Fatalf("catalog seed failed: %v", err)
	}
	utils.Sugar.Infof("catalog seed applied from %s, %d new templates", cfg.CatalogSeedPath, seeded)

	var locker services.Locker = services.NewLocalLocker()
	if rc := utils.GetRedis(); rc != nil {
		locker = services.NewRedisLocker(rc, "studyhub:")
		utils.Sugar.Info("allocation lock backed by redis")
	}

	missions := services.NewMissionService(store, store,
		services.WithReward(cfg.MissionRewardPoints),
		services.WithLocker(locker),
		services.WithLogger(utils.Logger.Named("missions")),
	)

	streaks := services.NewStreakService(store, cfg.Location(), utils.Logger.Named("streaks"))
	if cfg.StreakRolloverEnabled {
		if err := streaks.Start(); err != nil {
			utils.Sugar.Fatalf("start streak scheduler: %v", err)
		}
	}

	r := routes.SetupRouter(routes.Dependencies{Store: store, Missions: missions})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r, func() {
		if err := streaks.Shutdown(); err != nil {
			utils.Logger.Warn("streak scheduler shutdown", zap.Error(err))
		}
		if rc := utils.GetRedis(); rc != nil {
			_ = rc.Close()
		}
	})
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func openStore(cfg config.AppConfig) services.Store {
	if cfg.DBDriver == "memory" {
		store := services.NewMemoryStore()
		// Local demo account so the endpoints can be exercised without a database.
		store.PutUser(models.User{ID: 1, Username: "demo"})
		utils.Sugar.Warn("DB_DRIVER=memory: state is lost on restart")
		return store
	}
	db := config.InitDatabase(
		&models.User{},
		&models.MissionTemplate{},
		&models.DailyMission{},
		&models.PointLog{},
		&models.StreakRollover{},
	)
	return services.NewGormStore(db)
}
