package main

import (
	"alcyxob/fitplan/internal/api"
	"alcyxob/fitplan/internal/config"
	"alcyxob/fitplan/internal/llm"
	"alcyxob/fitplan/internal/repository/mongo"
	"alcyxob/fitplan/internal/service"
	"alcyxob/fitplan/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "fitplan").Logger()
}

// @title Workout Plan API
// @version 1.0
// @description Generates and adapts personalized workout plans.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("could not load config")
	}
	logger := newLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Info().Str("model", cfg.Model.Name).Bool("archive", cfg.S3.Enabled).Msg("configuration loaded")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		logger.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB, logger)
	}()

	// --- Initialize Storage ---
	archive := storage.NewNoopArchive()
	if cfg.S3.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		archive, err = storage.NewS3Archive(ctx, cfg.S3, logger)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize rejected-response archive")
		}
	}

	// --- Initialize Repositories ---
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	progressRepo := mongo.NewMongoProgressRepository(appDB)
	planRepo := mongo.NewMongoWorkoutPlanRepository(appDB)
	rateLimitRepo := mongo.NewMongoRateLimitRepository(appDB)

	// --- Initialize Services ---
	model := llm.NewInvoker(
		llm.NewClient(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.Timeout),
		cfg.Model.MaxTokens,
		cfg.Model.Temperature,
		logger,
	)
	workoutService := service.NewWorkoutService(
		service.NewRateLimiter(rateLimitRepo, service.PolicyFromConfig(cfg.RateLimit), time.Now),
		service.NewProfileResolver(profileRepo),
		service.NewHistorySampler(sessionRepo, progressRepo),
		planRepo,
		model,
		archive,
		cfg.Model.Timeout,
		logger,
	)

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.JWT.Issuer, workoutService)

	// --- Start HTTP Server ---
	// Generation can take as long as the model timeout, so the write timeout follows the request timeout.
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
