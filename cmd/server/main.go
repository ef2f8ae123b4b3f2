package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fitkpi/challenge-app/internal/api"
	"fitkpi/challenge-app/internal/config"
	"fitkpi/challenge-app/internal/repository/mongo"
	"fitkpi/challenge-app/internal/service"
	"fitkpi/challenge-app/internal/storage"
	"fitkpi/challenge-app/internal/strava"
	"fitkpi/challenge-app/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		os.Stderr.WriteString("FATAL: could not load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
	})
	if err != nil {
		os.Stderr.WriteString("FATAL: could not init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	log.Info("starting challenge app server", "address", cfg.Server.Address)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Error("could not connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		log.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established", "database", cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureActivityIndexes(ctx, appDB.Collection("activities"))
		mongo.EnsureEventIndexes(ctx, appDB.Collection("events"))
		mongo.EnsureParticipationIndexes(ctx, appDB.Collection("participations"))
		mongo.EnsureConfigIndexes(ctx, appDB.Collection("challenge_config"))
		mongo.EnsureSummaryIndexes(ctx, appDB.Collection("monthly_summaries"))
		mongo.EnsureReportIndexes(ctx, appDB.Collection("reports"))
		log.Info("index creation process completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, log)
	if err != nil {
		log.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}

	// --- Strava Client ---
	stravaClient := strava.NewClient(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURL)

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	activityRepo := mongo.NewMongoActivityRepository(appDB)
	eventRepo := mongo.NewMongoEventRepository(appDB)
	participationRepo := mongo.NewMongoParticipationRepository(appDB)
	configRepo := mongo.NewMongoConfigRepository(appDB)
	summaryRepo := mongo.NewMongoSummaryRepository(appDB)
	reportRepo := mongo.NewMongoReportRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	challengeService := service.NewChallengeService(userRepo, activityRepo, eventRepo, participationRepo, configRepo, summaryRepo, log)
	activityService := service.NewActivityService(userRepo, activityRepo, stravaClient, log)
	eventService := service.NewEventService(eventRepo, activityRepo, participationRepo, log)
	reportService := service.NewReportService(userRepo, activityRepo, eventRepo, participationRepo, configRepo, reportRepo, fileStorage, log)

	// Seed the default challenge rules on first boot.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := challengeService.EnsureConfig(ctx); err != nil {
			log.Error("failed to seed challenge config", "error", err)
			cancel()
			os.Exit(1)
		}
		cancel()
	}

	// --- Initialize Gin Engine ---
	if cfg.Logging.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, activityService, challengeService, eventService, reportService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}
