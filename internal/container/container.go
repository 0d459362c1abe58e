package container

import (
	"context"

	"challenge-league/internal/clock"
	"challenge-league/internal/config"
	"challenge-league/internal/repository"
	"challenge-league/internal/service"
	"challenge-league/pkg/database"
	"challenge-league/pkg/logger"
	"challenge-league/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Clock        *clock.Clock
	Repositories *repository.Repositories
	Notifier     service.Notifier
	Scheduler    service.Scheduler
	Warnings     service.Warnings
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Redis is optional: without it notifications and standings
	// caching are skipped, the state machine still runs.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	clk := clock.New(cfg.ExecutionHour)

	repos := &repository.Repositories{
		League:   repository.NewLeagueRepository(db),
		Prompt:   repository.NewPromptRepository(db),
		Response: repository.NewResponseRepository(db),
		Vote:     repository.NewVoteRepository(db),
	}

	var notifier service.Notifier
	if redisClient != nil {
		notifier = service.NewRedisNotifier(redisClient, repos.League, log)
	} else {
		notifier = service.NewNopNotifier(log)
	}

	photos := service.NewDiskPhotoStore(cfg.PhotoRoot, log)
	scheduler := service.NewSchedulerService(db, clk, repos, notifier, photos, redisClient, log, cfg.PhotoRetentionDays)
	warnings := service.NewWarningService(clk, repos, notifier, log)

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Clock:        clk,
		Repositories: repos,
		Notifier:     notifier,
		Scheduler:    scheduler,
		Warnings:     warnings,
	}, nil
}
