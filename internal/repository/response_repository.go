package repository

import (
	"context"
	"fmt"
	"time"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

type responseRepository struct {
	db *database.PostgresDB
}

// NewResponseRepository creates a pgx-backed ResponseRepository.
func NewResponseRepository(db *database.PostgresDB) ResponseRepository {
	return &responseRepository{db: db}
}

// ListByPrompt retrieves a prompt's responses ordered by
// (submitted_at, id). The ordering is part of the ranking contract:
// the tally's stable sort ties back to it.
func (r *responseRepository) ListByPrompt(ctx context.Context, promptID int64) ([]domain.Response, error) {
	query := `
		SELECT id, prompt_id, user_id, image_key, caption, submitted_at,
		       is_published, published_at, total_votes, final_rank
		FROM responses
		WHERE prompt_id = $1
		ORDER BY submitted_at, id
	`

	rows, err := r.db.Pool.Query(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.Response
	for rows.Next() {
		var resp domain.Response
		err := rows.Scan(
			&resp.ID,
			&resp.PromptID,
			&resp.UserID,
			&resp.ImageKey,
			&resp.Caption,
			&resp.SubmittedAt,
			&resp.IsPublished,
			&resp.PublishedAt,
			&resp.TotalVotes,
			&resp.FinalRank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	return responses, nil
}

// PublishAll publishes every response of a prompt in one statement.
func (r *responseRepository) PublishAll(ctx context.Context, q database.Querier, promptID int64, at time.Time) (int64, error) {
	query := `
		UPDATE responses
		SET is_published = true, published_at = $1
		WHERE prompt_id = $2 AND is_published = false
	`

	tag, err := q.Exec(ctx, query, at, promptID)
	if err != nil {
		return 0, fmt.Errorf("failed to publish responses: %w", err)
	}

	return tag.RowsAffected(), nil
}

// SetResult stores a response's final vote total and rank.
func (r *responseRepository) SetResult(ctx context.Context, q database.Querier, responseID int64, totalVotes, finalRank int) error {
	query := `
		UPDATE responses
		SET total_votes = $1, final_rank = $2
		WHERE id = $3
	`

	if _, err := q.Exec(ctx, query, totalVotes, finalRank, responseID); err != nil {
		return fmt.Errorf("failed to set response result: %w", err)
	}

	return nil
}

// UserIDsWithResponse retrieves the users who already submitted.
func (r *responseRepository) UserIDsWithResponse(ctx context.Context, promptID int64) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM responses
		WHERE prompt_id = $1
	`

	rows, err := r.db.Pool.Query(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responders: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan responder: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responders: %w", err)
	}

	return userIDs, nil
}

// ImageKeys retrieves the stored photo references for a prompt.
func (r *responseRepository) ImageKeys(ctx context.Context, promptID int64) ([]string, error) {
	query := `
		SELECT image_key
		FROM responses
		WHERE prompt_id = $1 AND image_key <> ''
	`

	rows, err := r.db.Pool.Query(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan image key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image keys: %w", err)
	}

	return keys, nil
}
