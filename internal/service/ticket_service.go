package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repvote/internal/domain"
	"repvote/internal/limiter"
	"repvote/internal/notifier"
	"repvote/internal/repository"
)

// ticketCodeBytes gives 16 hex characters, 64 bits of randomness per code
const ticketCodeBytes = 8

// TicketService issues single-use voting tickets. A request replaces any
// outstanding unused ticket for the pair, and the freshly written ticket is
// deleted again if email dispatch fails, so an undeliverable ticket never
// survives.
type TicketService struct {
	studentRepo  repository.StudentRepository
	electionRepo repository.ElectionRepository
	ticketRepo   repository.TicketRepository
	eligibility  *EligibilityResolver
	notifier     notifier.Notifier
	limiter      limiter.Limiter
	logger       *zap.Logger
}

// NewTicketService creates a new ticket service
func NewTicketService(
	studentRepo repository.StudentRepository,
	electionRepo repository.ElectionRepository,
	ticketRepo repository.TicketRepository,
	eligibility *EligibilityResolver,
	n notifier.Notifier,
	l limiter.Limiter,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		studentRepo:  studentRepo,
		electionRepo: electionRepo,
		ticketRepo:   ticketRepo,
		eligibility:  eligibility,
		notifier:     n,
		limiter:      l,
		logger:       logger,
	}
}

// RequestTicket issues a new ticket for (election, student) and dispatches
// the code by email. Preconditions are checked in order; each failure is a
// distinct typed error so the caller can tell them apart.
func (s *TicketService) RequestTicket(ctx context.Context, studentID, electionID string) (*domain.TicketResponse, error) {
	blocked, err := s.limiter.IsBlocked(ctx, studentID)
	if err != nil {
		s.logger.Warn("limiter check failed, allowing request",
			zap.String("student_id", studentID),
			zap.Error(err))
	} else if blocked {
		return nil, domain.ErrRateLimited
	}

	if _, err := s.limiter.Record(ctx, studentID); err != nil {
		s.logger.Warn("failed to record ticket request",
			zap.String("student_id", studentID),
			zap.Error(err))
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve student: %w", err)
	}
	if student == nil {
		return nil, domain.ErrStudentNotFound
	}

	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve election: %w", err)
	}
	if election == nil {
		return nil, domain.ErrElectionNotFound
	}

	if !s.eligibility.IsEligible(student, election) {
		return nil, domain.ErrNotEligible
	}

	now := time.Now()
	switch election.Status(now) {
	case domain.StatusPending:
		return nil, domain.ErrElectionNotStarted
	case domain.StatusClosed:
		return nil, domain.ErrElectionEnded
	}

	used, err := s.ticketRepo.GetUsed(ctx, electionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check used ticket: %w", err)
	}
	if used != nil {
		return nil, domain.ErrAlreadyVoted
	}

	// Replace-on-request: any ticket issued earlier but not yet consumed is
	// invalidated before the new one exists.
	invalidated, err := s.ticketRepo.DeleteUnused(ctx, electionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate prior tickets: %w", err)
	}
	if invalidated > 0 {
		s.logger.Info("invalidated prior unused tickets",
			zap.String("election_id", electionID),
			zap.String("student_id", studentID),
			zap.Int64("count", invalidated))
	}

	code, err := generateTicketCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ticket code: %w", err)
	}

	ticket := &domain.Ticket{
		ID:         uuid.NewString(),
		ElectionID: electionID,
		StudentID:  studentID,
		Code:       code,
		Email:      student.Email,
		ExpiresAt:  now.Add(domain.TicketValidity),
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	// The ticket is durable before dispatch so no lock is held across the
	// network call. Dispatch failure compensates by deleting it again.
	if err := s.notifier.Send(ctx, student.Email, ticket.Code, election.Title); err != nil {
		s.logger.Error("ticket dispatch failed, deleting ticket",
			zap.String("election_id", electionID),
			zap.String("student_id", studentID),
			zap.Error(err))
		if delErr := s.ticketRepo.Delete(ctx, ticket.ID); delErr != nil {
			s.logger.Error("compensating delete failed, ticket orphaned",
				zap.String("ticket_id", ticket.ID),
				zap.Error(delErr))
		}
		return nil, domain.ErrDeliveryFailed
	}

	s.logger.Info("ticket issued",
		zap.String("election_id", electionID),
		zap.String("student_id", studentID),
		zap.Time("expires_at", ticket.ExpiresAt))

	return &domain.TicketResponse{
		ElectionID: electionID,
		Email:      student.Email,
		ExpiresAt:  ticket.ExpiresAt,
		Message:    "A voting ticket has been sent to your email",
	}, nil
}

// generateTicketCode returns a random hex code
func generateTicketCode() (string, error) {
	bytes := make([]byte, ticketCodeBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
