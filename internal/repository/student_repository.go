package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repvote/internal/domain"
	"repvote/pkg/database"
)

type studentRepository struct {
	db *database.PostgresDB
}

// NewStudentRepository creates a PostgreSQL-backed student repository
func NewStudentRepository(db *database.PostgresDB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	var student domain.Student
	query := `
		SELECT id, first_name, last_name, email, branch, section, admission_year, created_at
		FROM students
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Branch,
		&student.Section,
		&student.AdmissionYear,
		&student.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return &student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *domain.Student) error {
	query := `
		INSERT INTO students (id, first_name, last_name, email, branch, section, admission_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		student.ID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Branch,
		student.Section,
		student.AdmissionYear,
	).Scan(&student.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

func (r *studentRepository) CountByCohort(ctx context.Context, branch, section string, admissionYear int) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM students
		WHERE branch = $1 AND section = $2 AND admission_year = $3
	`

	err := r.db.Pool.QueryRow(ctx, query, branch, section, admissionYear).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cohort: %w", err)
	}

	return count, nil
}
