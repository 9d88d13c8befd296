package service

import (
	"context"

	"go.uber.org/zap"

	"repvote/internal/domain"
	"repvote/internal/repository"
)

// EligibilityResolver decides whether a student belongs to an election's
// target cohort. Pure lookup, no mutation; unresolvable students are
// ineligible (fail closed).
type EligibilityResolver struct {
	studentRepo repository.StudentRepository
	logger      *zap.Logger
}

// NewEligibilityResolver creates a new eligibility resolver
func NewEligibilityResolver(studentRepo repository.StudentRepository, logger *zap.Logger) *EligibilityResolver {
	return &EligibilityResolver{
		studentRepo: studentRepo,
		logger:      logger,
	}
}

// Resolve loads the student record, nil when absent
func (r *EligibilityResolver) Resolve(ctx context.Context, studentID string) (*domain.Student, error) {
	return r.studentRepo.GetByID(ctx, studentID)
}

// IsEligible reports whether the student belongs to the election's cohort
func (r *EligibilityResolver) IsEligible(student *domain.Student, election *domain.Election) bool {
	if student == nil || election == nil {
		return false
	}
	return student.Branch == election.Branch &&
		student.Section == election.Section &&
		student.AdmissionYear == election.AdmissionYear
}

// FilterEligible returns the elections whose cohort contains the student
func (r *EligibilityResolver) FilterEligible(student *domain.Student, elections []domain.Election) []domain.Election {
	if student == nil {
		return nil
	}

	eligible := make([]domain.Election, 0, len(elections))
	for _, e := range elections {
		if r.IsEligible(student, &e) {
			eligible = append(eligible, e)
		}
	}
	return eligible
}
