package repository

import (
	"context"
	"time"

	"repvote/internal/domain"
)

// StudentRepository defines the interface for student data operations
type StudentRepository interface {
	// GetByID retrieves a student by ID, nil when absent
	GetByID(ctx context.Context, id string) (*domain.Student, error)

	// Create creates a new student
	Create(ctx context.Context, student *domain.Student) error

	// CountByCohort returns the number of students in a (branch, section, year) cohort
	CountByCohort(ctx context.Context, branch, section string, admissionYear int) (int, error)
}

// ElectionRepository defines the interface for election data operations
type ElectionRepository interface {
	// Create persists a new election with its candidate list
	Create(ctx context.Context, election *domain.Election) error

	// GetByID retrieves an election with candidates, nil when absent
	GetByID(ctx context.Context, id string) (*domain.Election, error)

	// ListByCohort lists elections targeting a cohort, newest first
	ListByCohort(ctx context.Context, branch, section string, admissionYear int) ([]domain.Election, error)

	// ListByCreator lists elections created by a teacher, newest first
	ListByCreator(ctx context.Context, teacherID string) ([]domain.Election, error)

	// Stop shortens the election window to end at now. Returns the number of
	// elections affected (0 when already closed or absent).
	Stop(ctx context.Context, id string, now time.Time) (int64, error)

	// FindStartedBetween lists elections whose start time falls in (from, to]
	FindStartedBetween(ctx context.Context, from, to time.Time) ([]domain.Election, error)

	// FindEndedBetween lists elections whose end time falls in (from, to]
	FindEndedBetween(ctx context.Context, from, to time.Time) ([]domain.Election, error)
}

// TicketRepository defines the interface for ticket data operations
type TicketRepository interface {
	// Create persists a new unused ticket
	Create(ctx context.Context, ticket *domain.Ticket) error

	// Delete removes a ticket by ID (compensating action on delivery failure)
	Delete(ctx context.Context, id string) error

	// DeleteUnused removes all unused tickets for a (election, student) pair
	// and returns how many were removed
	DeleteUnused(ctx context.Context, electionID, studentID string) (int64, error)

	// GetByCode retrieves the ticket matching (election, student, code)
	// exactly, nil when absent
	GetByCode(ctx context.Context, electionID, studentID, code string) (*domain.Ticket, error)

	// GetUsed retrieves the consumed ticket for a pair, nil when the pair
	// has not voted
	GetUsed(ctx context.Context, electionID, studentID string) (*domain.Ticket, error)
}

// BallotRepository defines the interface for ballot data operations
type BallotRepository interface {
	// ConsumeAndRecord atomically flips the ticket to used, inserts the
	// ballot and increments the target tally. The flip is conditional on
	// used = false; a lost race returns domain.ErrAlreadyVoted and leaves
	// every counter untouched.
	ConsumeAndRecord(ctx context.Context, ticket *domain.Ticket, ballot *domain.Ballot) error

	// GetByPair retrieves the ballot for a (election, student) pair, nil
	// when the pair has not voted
	GetByPair(ctx context.Context, electionID, studentID string) (*domain.Ballot, error)

	// CountByElection returns the number of committed ballots for an election
	CountByElection(ctx context.Context, electionID string) (int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Student  StudentRepository
	Election ElectionRepository
	Ticket   TicketRepository
	Ballot   BallotRepository
}
