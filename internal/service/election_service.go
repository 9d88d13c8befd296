package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repvote/internal/domain"
	"repvote/internal/repository"
)

// ElectionService is the teacher-facing edge around the ticket/ballot core:
// create, stop, and cohort-filtered listing.
type ElectionService struct {
	electionRepo repository.ElectionRepository
	eligibility  *EligibilityResolver
	logger       *zap.Logger
}

// NewElectionService creates a new election service
func NewElectionService(electionRepo repository.ElectionRepository, eligibility *EligibilityResolver, logger *zap.Logger) *ElectionService {
	return &ElectionService{
		electionRepo: electionRepo,
		eligibility:  eligibility,
		logger:       logger,
	}
}

// Create validates and persists a new election. Cohort and time fields are
// immutable afterwards; only an explicit stop may shorten the window.
func (s *ElectionService) Create(ctx context.Context, teacherID string, req *domain.CreateElectionRequest) (*domain.Election, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	election := &domain.Election{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Branch:        req.Branch,
		Section:       req.Section,
		AdmissionYear: req.AdmissionYear,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		CreatedBy:     teacherID,
	}

	for _, c := range req.Candidates {
		election.Candidates = append(election.Candidates, domain.Candidate{
			ID:        uuid.NewString(),
			StudentID: c.StudentID,
			Name:      c.Name,
		})
	}

	if err := s.electionRepo.Create(ctx, election); err != nil {
		return nil, fmt.Errorf("failed to create election: %w", err)
	}

	s.logger.Info("election created",
		zap.String("election_id", election.ID),
		zap.String("created_by", teacherID),
		zap.Time("start_time", election.StartTime),
		zap.Time("end_time", election.EndTime))

	return election, nil
}

// Stop closes a live election immediately by setting its end time to now.
// Ticket issuance and ballot casting observe the new window on their next
// timing re-check; the scheduler emits the ended event on its next tick.
func (s *ElectionService) Stop(ctx context.Context, teacherID, electionID string) (*domain.Election, error) {
	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve election: %w", err)
	}
	if election == nil {
		return nil, domain.ErrElectionNotFound
	}

	if election.CreatedBy != teacherID {
		return nil, domain.ErrNotEligible
	}

	now := time.Now()
	affected, err := s.electionRepo.Stop(ctx, electionID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to stop election: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrElectionEnded
	}

	election.EndTime = now

	s.logger.Info("election stopped",
		zap.String("election_id", electionID),
		zap.String("stopped_by", teacherID))

	return election, nil
}

// Get retrieves an election with derived status
func (s *ElectionService) Get(ctx context.Context, electionID string) (*domain.ElectionView, error) {
	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve election: %w", err)
	}
	if election == nil {
		return nil, domain.ErrElectionNotFound
	}

	return &domain.ElectionView{Election: *election, Status: election.Status(time.Now())}, nil
}

// ListForStudent lists the elections visible to a student: only those whose
// cohort contains them, each with derived status.
func (s *ElectionService) ListForStudent(ctx context.Context, studentID string) ([]domain.ElectionView, error) {
	student, err := s.eligibility.Resolve(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve student: %w", err)
	}
	if student == nil {
		return nil, domain.ErrStudentNotFound
	}

	elections, err := s.electionRepo.ListByCohort(ctx, student.Branch, student.Section, student.AdmissionYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}

	return toViews(s.eligibility.FilterEligible(student, elections)), nil
}

// ListForTeacher lists elections created by a teacher with derived status
func (s *ElectionService) ListForTeacher(ctx context.Context, teacherID string) ([]domain.ElectionView, error) {
	elections, err := s.electionRepo.ListByCreator(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}

	return toViews(elections), nil
}

func toViews(elections []domain.Election) []domain.ElectionView {
	now := time.Now()
	views := make([]domain.ElectionView, 0, len(elections))
	for _, e := range elections {
		views = append(views, domain.ElectionView{Election: e, Status: e.Status(now)})
	}
	return views
}

func validateCreateRequest(req *domain.CreateElectionRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if req.Branch == "" || req.Section == "" {
		return fmt.Errorf("target cohort (branch, section) is required")
	}
	if req.AdmissionYear <= 0 {
		return fmt.Errorf("admission year is required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return fmt.Errorf("start time must be before end time")
	}
	if len(req.Candidates) == 0 {
		return fmt.Errorf("at least one candidate is required")
	}
	for _, c := range req.Candidates {
		if c.StudentID == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("every candidate needs a student reference and a name")
		}
	}
	return nil
}
