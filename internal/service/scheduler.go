package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"repvote/internal/repository"
)

// ElectionEventType labels lifecycle transitions
type ElectionEventType string

const (
	EventStarted ElectionEventType = "started"
	EventEnded   ElectionEventType = "ended"
)

// ElectionEvent is an advisory lifecycle notification. The authoritative
// status is always the derived time comparison; ticket issuance and ballot
// casting re-check timing themselves.
type ElectionEvent struct {
	Type       ElectionEventType `json:"type"`
	ElectionID string            `json:"election_id"`
	Title      string            `json:"title"`
	At         time.Time         `json:"at"`
}

// EventHandler receives lifecycle events. Delivery is best-effort.
type EventHandler func(event ElectionEvent)

// ElectionScheduler polls the election table on a fixed interval and emits
// started/ended events for elections whose boundary fell inside the tick.
type ElectionScheduler struct {
	electionRepo repository.ElectionRepository
	logger       *zap.Logger
	interval     time.Duration

	mu          sync.Mutex
	subscribers []EventHandler
	lastTick    time.Time
	ticker      *time.Ticker
	stopCh      chan struct{}
	isRunning   bool
}

// NewElectionScheduler creates a new scheduler ticking at interval
func NewElectionScheduler(electionRepo repository.ElectionRepository, interval time.Duration, logger *zap.Logger) *ElectionScheduler {
	return &ElectionScheduler{
		electionRepo: electionRepo,
		logger:       logger,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

// Subscribe registers a handler for lifecycle events
func (s *ElectionScheduler) Subscribe(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, handler)
}

// Start begins the polling loop
func (s *ElectionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	s.lastTick = time.Now()
	s.ticker = time.NewTicker(s.interval)
	go s.run(ctx)

	s.isRunning = true
	s.logger.Info("election scheduler started",
		zap.Duration("interval", s.interval))
	return nil
}

// Stop shuts down the polling loop
func (s *ElectionScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.ticker.Stop()
	close(s.stopCh)
	s.isRunning = false
	s.logger.Info("election scheduler stopped")
	return nil
}

func (s *ElectionScheduler) run(ctx context.Context) {
	for {
		select {
		case <-s.ticker.C:
			s.Tick(ctx, time.Now())
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick scans for boundary crossings in (lastTick, now] and emits events.
// Exported so a manual stop or a test can force a scan without waiting for
// the ticker.
func (s *ElectionScheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	from := s.lastTick
	s.lastTick = now
	s.mu.Unlock()

	started, err := s.electionRepo.FindStartedBetween(ctx, from, now)
	if err != nil {
		s.logger.Error("scheduler failed to scan for started elections", zap.Error(err))
	} else {
		for _, e := range started {
			s.emit(ElectionEvent{Type: EventStarted, ElectionID: e.ID, Title: e.Title, At: now})
		}
	}

	ended, err := s.electionRepo.FindEndedBetween(ctx, from, now)
	if err != nil {
		s.logger.Error("scheduler failed to scan for ended elections", zap.Error(err))
	} else {
		for _, e := range ended {
			s.emit(ElectionEvent{Type: EventEnded, ElectionID: e.ID, Title: e.Title, At: now})
		}
	}
}

func (s *ElectionScheduler) emit(event ElectionEvent) {
	s.mu.Lock()
	handlers := make([]EventHandler, len(s.subscribers))
	copy(handlers, s.subscribers)
	s.mu.Unlock()

	s.logger.Info("election lifecycle event",
		zap.String("type", string(event.Type)),
		zap.String("election_id", event.ElectionID))

	for _, handler := range handlers {
		handler(event)
	}
}
