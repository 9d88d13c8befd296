package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"repvote/internal/domain"
	"repvote/pkg/database"
)

type ballotRepository struct {
	db *database.PostgresDB
}

// NewBallotRepository creates a PostgreSQL-backed ballot repository
func NewBallotRepository(db *database.PostgresDB) BallotRepository {
	return &ballotRepository{db: db}
}

// ConsumeAndRecord performs the cast as one transaction: conditional ticket
// flip, ballot insert, tally increment. Under concurrent submissions of the
// same ticket only one caller sees rows-affected = 1 on the flip; every
// other caller gets domain.ErrAlreadyVoted and the transaction rolls back
// with no counter touched.
func (r *ballotRepository) ConsumeAndRecord(ctx context.Context, ticket *domain.Ticket, ballot *domain.Ballot) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		usedAt := time.Now()
		tag, err := tx.Exec(ctx,
			`UPDATE tickets SET used = TRUE, used_at = $2 WHERE id = $1 AND used = FALSE`,
			ticket.ID, usedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to consume ticket: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAlreadyVoted
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO ballots (id, election_id, student_id, candidate_id) VALUES ($1, $2, $3, $4) RETURNING created_at`,
			ballot.ID, ballot.ElectionID, ballot.StudentID, ballot.CandidateID,
		).Scan(&ballot.CreatedAt)
		if err != nil {
			// The unique (election_id, student_id) constraint backstops the
			// one-ballot-per-pair invariant even if a stray unused ticket slips
			// past the flip.
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return domain.ErrAlreadyVoted
			}
			return fmt.Errorf("failed to record ballot: %w", err)
		}

		if ballot.CandidateID == domain.NOTACandidateID {
			_, err = tx.Exec(ctx,
				`UPDATE elections SET nota_count = nota_count + 1 WHERE id = $1`,
				ballot.ElectionID,
			)
			if err != nil {
				return fmt.Errorf("failed to increment NOTA tally: %w", err)
			}
		} else {
			tag, err = tx.Exec(ctx,
				`UPDATE candidates SET vote_count = vote_count + 1 WHERE id = $1 AND election_id = $2`,
				ballot.CandidateID, ballot.ElectionID,
			)
			if err != nil {
				return fmt.Errorf("failed to increment tally: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return domain.ErrInvalidCandidate
			}
		}

		ticket.Used = true
		ticket.UsedAt = &usedAt
		return nil
	})
}

func (r *ballotRepository) GetByPair(ctx context.Context, electionID, studentID string) (*domain.Ballot, error) {
	var ballot domain.Ballot
	query := `
		SELECT id, election_id, student_id, candidate_id, created_at
		FROM ballots
		WHERE election_id = $1 AND student_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, electionID, studentID).Scan(
		&ballot.ID,
		&ballot.ElectionID,
		&ballot.StudentID,
		&ballot.CandidateID,
		&ballot.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ballot: %w", err)
	}

	return &ballot, nil
}

func (r *ballotRepository) CountByElection(ctx context.Context, electionID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ballots WHERE election_id = $1`,
		electionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}

	return count, nil
}
