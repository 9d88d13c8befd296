package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repvote/internal/domain"
	"repvote/pkg/database"
)

type ticketRepository struct {
	db *database.PostgresDB
}

// NewTicketRepository creates a PostgreSQL-backed ticket repository
func NewTicketRepository(db *database.PostgresDB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (id, election_id, student_id, code, email, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.ElectionID,
		ticket.StudentID,
		ticket.Code,
		ticket.Email,
		ticket.ExpiresAt,
	).Scan(&ticket.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// Delete removes a ticket by ID. Only ever called as the compensating
// action after a failed email dispatch; a delivered ticket is never deleted.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) DeleteUnused(ctx context.Context, electionID, studentID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM tickets WHERE election_id = $1 AND student_id = $2 AND used = FALSE`,
		electionID, studentID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unused tickets: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *ticketRepository) GetByCode(ctx context.Context, electionID, studentID, code string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	query := `
		SELECT id, election_id, student_id, code, email, used, expires_at, created_at, used_at
		FROM tickets
		WHERE election_id = $1 AND student_id = $2 AND code = $3
	`

	err := r.db.Pool.QueryRow(ctx, query, electionID, studentID, code).Scan(
		&ticket.ID,
		&ticket.ElectionID,
		&ticket.StudentID,
		&ticket.Code,
		&ticket.Email,
		&ticket.Used,
		&ticket.ExpiresAt,
		&ticket.CreatedAt,
		&ticket.UsedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return &ticket, nil
}

func (r *ticketRepository) GetUsed(ctx context.Context, electionID, studentID string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	query := `
		SELECT id, election_id, student_id, code, email, used, expires_at, created_at, used_at
		FROM tickets
		WHERE election_id = $1 AND student_id = $2 AND used = TRUE
	`

	err := r.db.Pool.QueryRow(ctx, query, electionID, studentID).Scan(
		&ticket.ID,
		&ticket.ElectionID,
		&ticket.StudentID,
		&ticket.Code,
		&ticket.Email,
		&ticket.Used,
		&ticket.ExpiresAt,
		&ticket.CreatedAt,
		&ticket.UsedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get used ticket: %w", err)
	}

	return &ticket, nil
}
