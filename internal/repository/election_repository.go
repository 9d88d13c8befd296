package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"repvote/internal/domain"
	"repvote/pkg/database"
)

type electionRepository struct {
	db *database.PostgresDB
}

// NewElectionRepository creates a PostgreSQL-backed election repository
func NewElectionRepository(db *database.PostgresDB) ElectionRepository {
	return &electionRepository{db: db}
}

func (r *electionRepository) Create(ctx context.Context, election *domain.Election) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO elections (id, title, description, branch, section, admission_year, start_time, end_time, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`

		err := tx.QueryRow(ctx, query,
			election.ID,
			election.Title,
			election.Description,
			election.Branch,
			election.Section,
			election.AdmissionYear,
			election.StartTime,
			election.EndTime,
			election.CreatedBy,
		).Scan(&election.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create election: %w", err)
		}

		for i := range election.Candidates {
			c := &election.Candidates[i]
			c.ElectionID = election.ID
			_, err := tx.Exec(ctx,
				`INSERT INTO candidates (id, election_id, student_id, name) VALUES ($1, $2, $3, $4)`,
				c.ID, c.ElectionID, c.StudentID, c.Name,
			)
			if err != nil {
				return fmt.Errorf("failed to create candidate: %w", err)
			}
		}

		return nil
	})
}

func (r *electionRepository) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	var election domain.Election
	query := `
		SELECT id, title, description, branch, section, admission_year, start_time, end_time, nota_count, created_by, created_at
		FROM elections
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&election.ID,
		&election.Title,
		&election.Description,
		&election.Branch,
		&election.Section,
		&election.AdmissionYear,
		&election.StartTime,
		&election.EndTime,
		&election.NOTACount,
		&election.CreatedBy,
		&election.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get election: %w", err)
	}

	candidates, err := r.getCandidates(ctx, id)
	if err != nil {
		return nil, err
	}
	election.Candidates = candidates

	return &election, nil
}

func (r *electionRepository) getCandidates(ctx context.Context, electionID string) ([]domain.Candidate, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, election_id, student_id, name, vote_count FROM candidates WHERE election_id = $1 ORDER BY name ASC`,
		electionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.StudentID, &c.Name, &c.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

func (r *electionRepository) ListByCohort(ctx context.Context, branch, section string, admissionYear int) ([]domain.Election, error) {
	query := `
		SELECT id, title, description, branch, section, admission_year, start_time, end_time, nota_count, created_by, created_at
		FROM elections
		WHERE branch = $1 AND section = $2 AND admission_year = $3
		ORDER BY start_time DESC
	`

	return r.queryElections(ctx, query, branch, section, admissionYear)
}

func (r *electionRepository) ListByCreator(ctx context.Context, teacherID string) ([]domain.Election, error) {
	query := `
		SELECT id, title, description, branch, section, admission_year, start_time, end_time, nota_count, created_by, created_at
		FROM elections
		WHERE created_by = $1
		ORDER BY start_time DESC
	`

	return r.queryElections(ctx, query, teacherID)
}

func (r *electionRepository) queryElections(ctx context.Context, query string, args ...interface{}) ([]domain.Election, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	defer rows.Close()

	var elections []domain.Election
	for rows.Next() {
		var e domain.Election
		err := rows.Scan(
			&e.ID,
			&e.Title,
			&e.Description,
			&e.Branch,
			&e.Section,
			&e.AdmissionYear,
			&e.StartTime,
			&e.EndTime,
			&e.NOTACount,
			&e.CreatedBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, e)
	}

	return elections, nil
}

// Stop closes the election immediately by moving end_time to now. The guard
// on end_time keeps already-closed elections untouched.
func (r *electionRepository) Stop(ctx context.Context, id string, now time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE elections SET end_time = $2 WHERE id = $1 AND end_time > $2`,
		id, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to stop election: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *electionRepository) FindStartedBetween(ctx context.Context, from, to time.Time) ([]domain.Election, error) {
	query := `
		SELECT id, title, description, branch, section, admission_year, start_time, end_time, nota_count, created_by, created_at
		FROM elections
		WHERE start_time > $1 AND start_time <= $2
	`

	return r.queryElections(ctx, query, from, to)
}

func (r *electionRepository) FindEndedBetween(ctx context.Context, from, to time.Time) ([]domain.Election, error) {
	query := `
		SELECT id, title, description, branch, section, admission_year, start_time, end_time, nota_count, created_by, created_at
		FROM elections
		WHERE end_time > $1 AND end_time <= $2
	`

	return r.queryElections(ctx, query, from, to)
}
