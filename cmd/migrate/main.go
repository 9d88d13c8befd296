package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS ballots CASCADE`,
		`DROP TABLE IF EXISTS tickets CASCADE`,
		`DROP TABLE IF EXISTS candidates CASCADE`,
		`DROP TABLE IF EXISTS elections CASCADE`,
		`DROP TABLE IF EXISTS students CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			branch TEXT NOT NULL,
			section TEXT NOT NULL,
			admission_year INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_students_cohort
			ON students (branch, section, admission_year)`,

		`CREATE TABLE IF NOT EXISTS elections (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			branch TEXT NOT NULL,
			section TEXT NOT NULL,
			admission_year INTEGER NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			nota_count BIGINT NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT elections_window_check CHECK (start_time < end_time)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_elections_cohort
			ON elections (branch, section, admission_year)`,

		`CREATE INDEX IF NOT EXISTS idx_elections_created_by
			ON elections (created_by)`,

		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			student_id TEXT NOT NULL,
			name TEXT NOT NULL,
			vote_count BIGINT NOT NULL DEFAULT 0,
			UNIQUE (election_id, student_id)
		)`,

		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			student_id TEXT NOT NULL REFERENCES students(id),
			code TEXT NOT NULL,
			email TEXT NOT NULL,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			used_at TIMESTAMPTZ
		)`,

		// At most one live ticket per student per election. Used tickets
		// stay behind as the voting record.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_one_unused
			ON tickets (election_id, student_id) WHERE NOT used`,

		`CREATE TABLE IF NOT EXISTS ballots (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			student_id TEXT NOT NULL REFERENCES students(id),
			candidate_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (election_id, student_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ballots_election
			ON ballots (election_id)`,
	}

	for i, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %d: %w", i+1, err)
		}
	}
	fmt.Printf("  Created %d tables and indexes\n", len(queries))

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	type seedStudent struct {
		firstName string
		lastName  string
		email     string
	}

	students := []seedStudent{
		{"Aarav", "Sharma", "aarav.sharma@college.example"},
		{"Diya", "Patel", "diya.patel@college.example"},
		{"Ishaan", "Reddy", "ishaan.reddy@college.example"},
		{"Meera", "Iyer", "meera.iyer@college.example"},
		{"Rohan", "Gupta", "rohan.gupta@college.example"},
		{"Sneha", "Nair", "sneha.nair@college.example"},
	}

	studentIDs := make([]string, 0, len(students))
	for _, s := range students {
		id := uuid.NewString()
		_, err := conn.Exec(ctx,
			`INSERT INTO students (id, first_name, last_name, email, branch, section, admission_year)
			 VALUES ($1, $2, $3, $4, 'CSE', 'A', 2024)
			 ON CONFLICT (email) DO NOTHING`,
			id, s.firstName, s.lastName, s.email,
		)
		if err != nil {
			return fmt.Errorf("failed to seed student %s: %w", s.email, err)
		}
		studentIDs = append(studentIDs, id)
	}
	fmt.Printf("  Seeded %d students (CSE A 2024)\n", len(students))

	// One live election with the first two students as candidates
	electionID := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(ctx,
		`INSERT INTO elections (id, title, description, branch, section, admission_year, start_time, end_time, created_by)
		 VALUES ($1, $2, $3, 'CSE', 'A', 2024, $4, $5, $6)`,
		electionID,
		"Class Representative 2024-25",
		"Vote for your class representative",
		now.Add(-time.Hour),
		now.Add(48*time.Hour),
		"teacher-seed",
	)
	if err != nil {
		return fmt.Errorf("failed to seed election: %w", err)
	}

	for i, name := range []string{"Aarav Sharma", "Diya Patel"} {
		_, err := conn.Exec(ctx,
			`INSERT INTO candidates (id, election_id, student_id, name) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), electionID, studentIDs[i], name,
		)
		if err != nil {
			return fmt.Errorf("failed to seed candidate %s: %w", name, err)
		}
	}
	fmt.Println("  Seeded 1 live election with 2 candidates")

	return nil
}
