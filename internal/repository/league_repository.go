package repository

import (
	"context"
	"fmt"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

type leagueRepository struct {
	db *database.PostgresDB
}

// NewLeagueRepository creates a pgx-backed LeagueRepository.
func NewLeagueRepository(db *database.PostgresDB) LeagueRepository {
	return &leagueRepository{db: db}
}

// ListActiveStarted retrieves the leagues eligible for scheduling.
func (r *leagueRepository) ListActiveStarted(ctx context.Context) ([]domain.League, error) {
	query := `
		SELECT id, name, is_active, is_started,
		       submission_days, voting_days, votes_per_player,
		       created_at, updated_at
		FROM leagues
		WHERE is_active = true AND is_started = true
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active leagues: %w", err)
	}
	defer rows.Close()

	var leagues []domain.League
	for rows.Next() {
		var l domain.League
		err := rows.Scan(
			&l.ID,
			&l.Name,
			&l.IsActive,
			&l.IsStarted,
			&l.Settings.SubmissionDays,
			&l.Settings.VotingDays,
			&l.Settings.VotesPerPlayer,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leagues: %w", err)
	}

	return leagues, nil
}

// GetByID retrieves a league by ID.
func (r *leagueRepository) GetByID(ctx context.Context, id int64) (*domain.League, error) {
	var l domain.League
	query := `
		SELECT id, name, is_active, is_started,
		       submission_days, voting_days, votes_per_player,
		       created_at, updated_at
		FROM leagues
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.Name,
		&l.IsActive,
		&l.IsStarted,
		&l.Settings.SubmissionDays,
		&l.Settings.VotingDays,
		&l.Settings.VotesPerPlayer,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	return &l, nil
}

// IsAdmin reports whether the user is an active admin member of the league.
func (r *leagueRepository) IsAdmin(ctx context.Context, leagueID int64, userID string) (bool, error) {
	var isAdmin bool
	query := `
		SELECT is_admin
		FROM league_members
		WHERE league_id = $1 AND user_id = $2 AND is_active = true
	`

	err := r.db.Pool.QueryRow(ctx, query, leagueID, userID).Scan(&isAdmin)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check league admin: %w", err)
	}

	return isAdmin, nil
}

// ListActiveMemberIDs retrieves the user IDs of active members.
func (r *leagueRepository) ListActiveMemberIDs(ctx context.Context, leagueID int64) ([]string, error) {
	query := `
		SELECT user_id
		FROM league_members
		WHERE league_id = $1 AND is_active = true
		ORDER BY user_id
	`

	rows, err := r.db.Pool.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list league members: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	return userIDs, nil
}
