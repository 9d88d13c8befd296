package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repvote/internal/domain"
	"repvote/internal/repository"
	"repvote/pkg/redis"
)

// BallotService validates and commits ballots. The commit itself is a
// single repository transaction keyed on the ticket's used flag, so at most
// one of any number of concurrent submissions of the same ticket succeeds.
type BallotService struct {
	electionRepo repository.ElectionRepository
	ticketRepo   repository.TicketRepository
	ballotRepo   repository.BallotRepository
	redis        *redis.Client
	logger       *zap.Logger
}

// NewBallotService creates a new ballot service. redisClient may be nil;
// caching is best-effort only.
func NewBallotService(
	electionRepo repository.ElectionRepository,
	ticketRepo repository.TicketRepository,
	ballotRepo repository.BallotRepository,
	redisClient *redis.Client,
	logger *zap.Logger,
) *BallotService {
	return &BallotService{
		electionRepo: electionRepo,
		ticketRepo:   ticketRepo,
		ballotRepo:   ballotRepo,
		redis:        redisClient,
		logger:       logger,
	}
}

// CastVote consumes a ticket and records a ballot. Ticket states observed
// here: unused-valid (proceeds), used (AlreadyVoted), expired
// (TicketExpired), nonexistent or mismatched code (InvalidTicket). The
// election window and the expiry are re-checked at processing time; neither
// is cached from an earlier read.
func (s *BallotService) CastVote(ctx context.Context, studentID, electionID, candidateID, ticketCode string) (*domain.CastVoteResponse, error) {
	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve election: %w", err)
	}
	if election == nil {
		return nil, domain.ErrElectionNotFound
	}

	now := time.Now()
	switch election.Status(now) {
	case domain.StatusPending:
		return nil, domain.ErrElectionNotStarted
	case domain.StatusClosed:
		return nil, domain.ErrElectionEnded
	}

	if candidateID != domain.NOTACandidateID && !election.HasCandidate(candidateID) {
		return nil, domain.ErrInvalidCandidate
	}

	ticket, err := s.ticketRepo.GetByCode(ctx, electionID, studentID, ticketCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	}
	if ticket == nil {
		return nil, domain.ErrInvalidTicket
	}

	if ticket.Used {
		return nil, domain.ErrAlreadyVoted
	}

	if ticket.IsExpired(now) {
		return nil, domain.ErrTicketExpired
	}

	ballot := &domain.Ballot{
		ID:          uuid.NewString(),
		ElectionID:  electionID,
		StudentID:   studentID,
		CandidateID: candidateID,
	}

	// The conditional flip inside ConsumeAndRecord decides the race; a
	// loser that passed the checks above still comes back AlreadyVoted.
	if err := s.ballotRepo.ConsumeAndRecord(ctx, ticket, ballot); err != nil {
		if err == domain.ErrAlreadyVoted || err == domain.ErrInvalidCandidate {
			return nil, err
		}
		return nil, fmt.Errorf("failed to commit ballot: %w", err)
	}

	s.cacheCastMarkers(ctx, electionID, studentID)

	s.logger.Info("ballot recorded",
		zap.String("election_id", electionID),
		zap.String("ballot_id", ballot.ID))

	return &domain.CastVoteResponse{
		BallotID:    ballot.ID,
		ElectionID:  electionID,
		CandidateID: candidateID,
		Timestamp:   ballot.CreatedAt,
		Message:     "Vote recorded successfully",
	}, nil
}

// GetVoteStatus reports whether the student has voted in the election. The
// used ticket is the audit marker.
func (s *BallotService) GetVoteStatus(ctx context.Context, electionID, studentID string) (*domain.VoteStatus, error) {
	if s.redis != nil {
		key := s.redis.KeyBuilder.KeyStudentVoted(electionID, studentID)
		if n, err := s.redis.Exists(ctx, key); err == nil && n > 0 {
			return &domain.VoteStatus{ElectionID: electionID, HasVoted: true}, nil
		}
	}

	used, err := s.ticketRepo.GetUsed(ctx, electionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check vote status: %w", err)
	}

	status := &domain.VoteStatus{ElectionID: electionID, HasVoted: used != nil}
	if used != nil {
		status.VotedAt = used.UsedAt
	}

	return status, nil
}

// cacheCastMarkers updates the cast marker and drops the stale tally cache.
// Failures are logged and otherwise ignored; the database already holds the
// truth.
func (s *BallotService) cacheCastMarkers(ctx context.Context, electionID, studentID string) {
	if s.redis == nil {
		return
	}

	votedKey := s.redis.KeyBuilder.KeyStudentVoted(electionID, studentID)
	if err := s.redis.Set(ctx, votedKey, 1, redis.TTLStudentVoted); err != nil {
		s.logger.Warn("failed to cache cast marker",
			zap.String("election_id", electionID),
			zap.Error(err))
	}

	resultsKey := s.redis.KeyBuilder.KeyElectionResults(electionID)
	if err := s.redis.Delete(ctx, resultsKey); err != nil {
		s.logger.Warn("failed to invalidate results cache",
			zap.String("election_id", electionID),
			zap.Error(err))
	}
}
