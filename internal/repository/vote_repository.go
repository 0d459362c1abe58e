package repository

import (
	"context"
	"fmt"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

type voteRepository struct {
	db *database.PostgresDB
}

// NewVoteRepository creates a pgx-backed VoteRepository.
func NewVoteRepository(db *database.PostgresDB) VoteRepository {
	return &voteRepository{db: db}
}

// CountByResponse retrieves per-response vote counts for a prompt.
// Responses with no votes are absent from the map; the tally treats
// missing entries as zero.
func (r *voteRepository) CountByResponse(ctx context.Context, promptID int64) (map[int64]int, error) {
	query := `
		SELECT response_id, COUNT(*)
		FROM votes
		WHERE prompt_id = $1
		GROUP BY response_id
	`

	rows, err := r.db.Pool.Query(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes by response: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var responseID int64
		var count int
		if err := rows.Scan(&responseID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts[responseID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vote counts: %w", err)
	}

	return counts, nil
}

// CountByVoter retrieves per-voter vote counts for a prompt.
func (r *voteRepository) CountByVoter(ctx context.Context, promptID int64) ([]domain.VoterCount, error) {
	query := `
		SELECT voter_id, COUNT(*)
		FROM votes
		WHERE prompt_id = $1
		GROUP BY voter_id
	`

	rows, err := r.db.Pool.Query(ctx, query, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes by voter: %w", err)
	}
	defer rows.Close()

	var counts []domain.VoterCount
	for rows.Next() {
		var vc domain.VoterCount
		if err := rows.Scan(&vc.VoterID, &vc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan voter count: %w", err)
		}
		counts = append(counts, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read voter counts: %w", err)
	}

	return counts, nil
}
