package container

import (
	"context"
	"fmt"

	"repvote/internal/config"
	"repvote/internal/limiter"
	"repvote/internal/notifier"
	"repvote/internal/repository"
	"repvote/internal/service"
	"repvote/internal/service/auth"
	"repvote/pkg/database"
	"repvote/pkg/logger"
	"repvote/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client

	Repositories *repository.Repositories

	AuthService     *auth.Service
	TicketService   *service.TicketService
	BallotService   *service.BallotService
	ResultService   *service.ResultService
	ElectionService *service.ElectionService
	Scheduler       *service.ElectionScheduler
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis is optional; everything that uses it degrades to direct reads
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

	repos := &repository.Repositories{
		Student:  repository.NewStudentRepository(db),
		Election: repository.NewElectionRepository(db),
		Ticket:   repository.NewTicketRepository(db),
		Ballot:   repository.NewBallotRepository(db),
	}

	var ticketNotifier notifier.Notifier
	if cfg.SMTPHost != "" {
		ticketNotifier = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log.Logger)
		log.WithField("smtp_host", cfg.SMTPHost).Info("SMTP notifier initialized")
	} else {
		ticketNotifier = notifier.NewLogNotifier(log.Logger)
		log.Warn("SMTP not configured, ticket codes will be logged instead of emailed")
	}

	var ticketLimiter limiter.Limiter
	if redisClient != nil {
		ticketLimiter = limiter.NewRedisLimiter(redisClient, cfg.TicketRateLimit, redis.TTLTicketRate, log.Logger)
	} else {
		ticketLimiter = limiter.NoopLimiter{}
	}

	eligibility := service.NewEligibilityResolver(repos.Student, log.Logger)

	c := &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,

		AuthService:     auth.NewService(cfg.JWTSecret, log.Logger),
		TicketService:   service.NewTicketService(repos.Student, repos.Election, repos.Ticket, eligibility, ticketNotifier, ticketLimiter, log.Logger),
		BallotService:   service.NewBallotService(repos.Election, repos.Ticket, repos.Ballot, redisClient, log.Logger),
		ResultService:   service.NewResultService(repos.Election, repos.Ballot, repos.Student, redisClient, log.Logger),
		ElectionService: service.NewElectionService(repos.Election, eligibility, log.Logger),
		Scheduler:       service.NewElectionScheduler(repos.Election, cfg.SchedulerInterval, log.Logger),
	}

	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetDB returns the database pool
func (c *Container) GetDB() *database.PostgresDB {
	return c.DB
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
