package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"repvote/internal/config"
	"repvote/internal/container"
	"repvote/internal/domain"
	"repvote/internal/handler"
	"repvote/internal/middleware"
	"repvote/internal/service"
	"repvote/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	scheduler *service.ElectionScheduler
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Stop the election scheduler
	if r.scheduler != nil {
		r.log.Info("Stopping election scheduler...")
		if err := r.scheduler.Stop(ctx); err != nil {
			r.log.WithError(err).Error("Failed to stop election scheduler")
			errors = append(errors, fmt.Errorf("scheduler shutdown: %w", err))
		} else {
			r.log.Info("Election scheduler stopped successfully")
		}
	}

	// Close Redis connection
	if r.container.HasRedis() {
		r.log.Info("Closing Redis connection...")
		if err := r.container.GetRedisClient().Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errors = append(errors, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	// Close database connection pool
	if db := r.container.GetDB(); db != nil {
		r.log.Info("Closing database connection pool...")
		db.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting repvote server")

	// Create dependency injection container
	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Lifecycle transitions are logged as they happen; the handler is the
	// place to hang announcement email fan-out later.
	c.Scheduler.Subscribe(func(event service.ElectionEvent) {
		log.WithFields(map[string]interface{}{
			"election_id": event.ElectionID,
			"title":       event.Title,
			"event":       string(event.Type),
		}).Info("Election lifecycle transition")

		if c.HasRedis() && event.Type == service.EventEnded {
			// Final tallies should not be served from a live-window cache
			key := c.RedisClient.KeyBuilder.KeyElectionResults(event.ElectionID)
			if err := c.RedisClient.Delete(context.Background(), key); err != nil {
				log.WithError(err).Warn("Failed to invalidate results cache on election end")
			}
		}
	})

	if err := c.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start election scheduler")
	}

	// Setup router
	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		scheduler: c.Scheduler,
		server:    server,
		log:       log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()

	r := chi.NewRouter()

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Create handlers
	healthHandler := handler.NewHealthHandler(c)
	electionHandler := handler.NewElectionHandler(c.ElectionService)
	votingHandler := handler.NewVotingHandler(c.TicketService, c.BallotService, c.ResultService)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(c.AuthService, log))

			r.Get("/elections", electionHandler.List)
			r.Get("/elections/{electionID}", electionHandler.Get)
			r.Get("/elections/{electionID}/results", votingHandler.GetResults)

			// Student routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleStudent, log))

				r.Post("/elections/{electionID}/ticket", votingHandler.RequestTicket)
				r.Post("/elections/{electionID}/vote", votingHandler.CastVote)
				r.Get("/elections/{electionID}/my-status", votingHandler.GetMyVoteStatus)
			})

			// Teacher routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleTeacher, log))

				r.Post("/elections", electionHandler.Create)
				r.Post("/elections/{electionID}/stop", electionHandler.Stop)
			})
		})
	})

	return r
}
