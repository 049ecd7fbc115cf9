package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"puc-service/internal/config"
	"puc-service/internal/db"
	httphandler "puc-service/internal/http"
	"puc-service/internal/locator"
	"puc-service/internal/persist"
	"puc-service/internal/repository"
	"puc-service/internal/service"
	"puc-service/internal/storage"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Msg("connected to database")

	if err := db.RunMigrations(gormDB, cfg.RecordTables()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	localStore, err := storage.OpenLocalStore(cfg.Storage.FallbackPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local fallback store")
	}

	// The remote cascade, in order: primary shared table, legacy table,
	// operator-scoped table.
	targets := []storage.Target{
		storage.NewTableTarget(gormDB, cfg.Storage.PrimaryTable),
		storage.NewTableTarget(gormDB, cfg.Storage.LegacyTable),
		storage.NewTableTarget(gormDB, cfg.Storage.OperatorTable),
	}

	recordRepo := repository.NewRecordRepository(gormDB, cfg.RecordTables(), log)
	notificationRepo := repository.NewNotificationRepository(gormDB)

	coordinator := persist.NewCoordinator(targets, localStore, recordRepo, log)
	loc := locator.New(recordRepo, log)
	testService := service.NewTestService(coordinator, loc, recordRepo, notificationRepo, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	handler := httphandler.NewHandler(testService, cfg, log)
	handler.Register(r, httphandler.AuthMiddleware(cfg.Auth.JWTSecret))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
