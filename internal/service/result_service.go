package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"repvote/internal/domain"
	"repvote/internal/repository"
	"repvote/pkg/redis"
)

// ResultService builds the read-only tally projection
type ResultService struct {
	electionRepo repository.ElectionRepository
	ballotRepo   repository.BallotRepository
	studentRepo  repository.StudentRepository
	redis        *redis.Client
	logger       *zap.Logger
}

// NewResultService creates a new result service. redisClient may be nil.
func NewResultService(
	electionRepo repository.ElectionRepository,
	ballotRepo repository.BallotRepository,
	studentRepo repository.StudentRepository,
	redisClient *redis.Client,
	logger *zap.Logger,
) *ResultService {
	return &ResultService{
		electionRepo: electionRepo,
		ballotRepo:   ballotRepo,
		studentRepo:  studentRepo,
		redis:        redisClient,
		logger:       logger,
	}
}

// GetResults returns per-candidate counts, the NOTA bucket and turnout for
// an election. identity gates visibility: the creating teacher sees results
// at any time, everyone else only once the election has closed.
func (s *ResultService) GetResults(ctx context.Context, electionID string, identity *domain.Identity) (*domain.ElectionResults, error) {
	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve election: %w", err)
	}
	if election == nil {
		return nil, domain.ErrElectionNotFound
	}

	now := time.Now()
	status := election.Status(now)

	isCreator := identity != nil && identity.Role == domain.RoleTeacher && identity.Sub == election.CreatedBy
	if status != domain.StatusClosed && !isCreator {
		return nil, domain.ErrResultsNotVisible
	}

	if cached := s.cachedResults(ctx, electionID); cached != nil {
		return cached, nil
	}

	totalBallots, err := s.ballotRepo.CountByElection(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ballots: %w", err)
	}

	cohortSize, err := s.studentRepo.CountByCohort(ctx, election.Branch, election.Section, election.AdmissionYear)
	if err != nil {
		return nil, fmt.Errorf("failed to measure cohort: %w", err)
	}

	results := s.buildResults(election, status, totalBallots, cohortSize, now)

	if data, err := json.Marshal(results); err == nil {
		s.cacheResults(ctx, electionID, string(data))
	}

	return results, nil
}

// buildResults computes percentages and the winner set. Every candidate
// tied at the maximum non-zero count is a winner; ties are reported as-is.
func (s *ResultService) buildResults(election *domain.Election, status domain.ElectionStatus, totalBallots, cohortSize int, now time.Time) *domain.ElectionResults {
	maxVotes := 0
	for _, c := range election.Candidates {
		if c.VoteCount > maxVotes {
			maxVotes = c.VoteCount
		}
	}

	candidates := make([]domain.CandidateResult, 0, len(election.Candidates))
	winners := make([]string, 0, 1)
	for _, c := range election.Candidates {
		percentage := 0.0
		if totalBallots > 0 {
			percentage = float64(c.VoteCount) / float64(totalBallots) * 100
		}

		isWinner := maxVotes > 0 && c.VoteCount == maxVotes
		if isWinner {
			winners = append(winners, c.ID)
		}

		candidates = append(candidates, domain.CandidateResult{
			Candidate:  c,
			Percentage: percentage,
			IsWinner:   isWinner,
		})
	}

	turnout := 0.0
	if cohortSize > 0 {
		turnout = float64(totalBallots) / float64(cohortSize) * 100
	}

	return &domain.ElectionResults{
		ElectionID:   election.ID,
		Title:        election.Title,
		Status:       status,
		Candidates:   candidates,
		NOTACount:    election.NOTACount,
		TotalBallots: totalBallots,
		CohortSize:   cohortSize,
		Turnout:      turnout,
		Winners:      winners,
		Tie:          len(winners) > 1,
		LastUpdate:   now,
	}
}

func (s *ResultService) cachedResults(ctx context.Context, electionID string) *domain.ElectionResults {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, s.redis.KeyBuilder.KeyElectionResults(electionID))
	if err != nil || data == "" {
		return nil
	}

	var results domain.ElectionResults
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil
	}
	return &results
}

func (s *ResultService) cacheResults(ctx context.Context, electionID, data string) {
	if s.redis == nil {
		return
	}

	key := s.redis.KeyBuilder.KeyElectionResults(electionID)
	if err := s.redis.Set(ctx, key, data, redis.TTLResults); err != nil {
		s.logger.Warn("failed to cache results",
			zap.String("election_id", electionID),
			zap.Error(err))
	}
}
