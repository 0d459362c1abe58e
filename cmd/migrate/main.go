package main

import (
	"context"
	"fmt"
	"log"
	"os"

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
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leagues (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_started BOOLEAN NOT NULL DEFAULT false,
			submission_days INTEGER NOT NULL DEFAULT 3,
			voting_days INTEGER NOT NULL DEFAULT 2,
			votes_per_player INTEGER NOT NULL DEFAULT 3,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS league_members (
			league_id BIGINT NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT false,
			is_active BOOLEAN NOT NULL DEFAULT true,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (league_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS prompts (
			id BIGSERIAL PRIMARY KEY,
			league_id BIGINT NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
			queue_order INTEGER NOT NULL DEFAULT 0,
			phase_started_at TIMESTAMPTZ,
			submission_ended_at TIMESTAMPTZ,
			voting_ended_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			photo_cleaned_at TIMESTAMPTZ,
			submission_warning_sent BOOLEAN NOT NULL DEFAULT false,
			voting_warning_sent BOOLEAN NOT NULL DEFAULT false,
			submission_final_warning_sent BOOLEAN NOT NULL DEFAULT false,
			voting_final_warning_sent BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT chk_prompt_status CHECK (status IN ('SCHEDULED', 'ACTIVE', 'VOTING', 'COMPLETED'))
		)`,

		`CREATE TABLE IF NOT EXISTS responses (
			id BIGSERIAL PRIMARY KEY,
			prompt_id BIGINT NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
			user_id VARCHAR(255) NOT NULL,
			image_key VARCHAR(512) NOT NULL DEFAULT '',
			caption TEXT NOT NULL DEFAULT '',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_published BOOLEAN NOT NULL DEFAULT false,
			published_at TIMESTAMPTZ,
			total_votes INTEGER NOT NULL DEFAULT 0,
			final_rank INTEGER,
			UNIQUE (prompt_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS votes (
			id BIGSERIAL PRIMARY KEY,
			prompt_id BIGINT NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
			response_id BIGINT NOT NULL REFERENCES responses(id) ON DELETE CASCADE,
			voter_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (response_id, voter_id)
		)`,

		// One prompt per league may hold each in-flight status
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_prompts_league_inflight
			ON prompts(league_id, status) WHERE status IN ('ACTIVE', 'VOTING')`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_league_status ON prompts(league_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_prompts_status_completed_at ON prompts(status, completed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_prompt ON responses(prompt_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_prompt ON votes(prompt_id)`,
		`CREATE INDEX IF NOT EXISTS idx_league_members_user ON league_members(user_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS votes CASCADE`,
		`DROP TABLE IF EXISTS responses CASCADE`,
		`DROP TABLE IF EXISTS prompts CASCADE`,
		`DROP TABLE IF EXISTS league_members CASCADE`,
		`DROP TABLE IF EXISTS leagues CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	var leagueID int64
	err := conn.QueryRow(ctx, `
		INSERT INTO leagues (name, is_active, is_started, submission_days, voting_days, votes_per_player)
		VALUES ('Demo League', true, true, 3, 2, 3)
		RETURNING id
	`).Scan(&leagueID)
	if err != nil {
		return fmt.Errorf("failed to seed league: %w", err)
	}

	members := []struct {
		userID  string
		isAdmin bool
	}{
		{"user-alice", true},
		{"user-bob", false},
		{"user-carol", false},
	}
	for _, m := range members {
		if _, err := conn.Exec(ctx, `
			INSERT INTO league_members (league_id, user_id, is_admin)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, leagueID, m.userID, m.isAdmin); err != nil {
			return fmt.Errorf("failed to seed member: %w", err)
		}
	}

	prompts := []struct {
		text  string
		order int
	}{
		{"Something that made you smile today", 1},
		{"Your best golden hour shot", 2},
		{"A photo with exactly two colors", 3},
	}
	for _, p := range prompts {
		if _, err := conn.Exec(ctx, `
			INSERT INTO prompts (league_id, text, queue_order)
			VALUES ($1, $2, $3)
		`, leagueID, p.text, p.order); err != nil {
			return fmt.Errorf("failed to seed prompt: %w", err)
		}
	}

	fmt.Printf("Seeded league %d with %d members and %d prompts\n", leagueID, len(members), len(prompts))
	return nil
}
