package repository

import (
	"context"
	"fmt"
	"time"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

const promptColumns = `
	id, league_id, text, status, queue_order,
	phase_started_at, submission_ended_at, voting_ended_at, completed_at,
	photo_cleaned_at,
	submission_warning_sent, voting_warning_sent,
	submission_final_warning_sent, voting_final_warning_sent,
	created_at, updated_at`

const promptColumnsQualified = `
	p.id, p.league_id, p.text, p.status, p.queue_order,
	p.phase_started_at, p.submission_ended_at, p.voting_ended_at, p.completed_at,
	p.photo_cleaned_at,
	p.submission_warning_sent, p.voting_warning_sent,
	p.submission_final_warning_sent, p.voting_final_warning_sent,
	p.created_at, p.updated_at`

type promptRepository struct {
	db *database.PostgresDB
}

// NewPromptRepository creates a pgx-backed PromptRepository.
func NewPromptRepository(db *database.PostgresDB) PromptRepository {
	return &promptRepository{db: db}
}

func scanPrompt(row interface {
	Scan(dest ...any) error
}) (*domain.Prompt, error) {
	var p domain.Prompt
	err := row.Scan(
		&p.ID,
		&p.LeagueID,
		&p.Text,
		&p.Status,
		&p.QueueOrder,
		&p.PhaseStartedAt,
		&p.SubmissionEndedAt,
		&p.VotingEndedAt,
		&p.CompletedAt,
		&p.PhotoCleanedAt,
		&p.SubmissionWarningSent,
		&p.VotingWarningSent,
		&p.SubmissionFinalWarningSent,
		&p.VotingFinalWarningSent,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByLeagueAndStatus retrieves the league's single prompt in the
// given status, nil if none. The single in-flight invariant means at
// most one row can match for ACTIVE or VOTING.
func (r *promptRepository) GetByLeagueAndStatus(ctx context.Context, leagueID int64, status domain.PromptStatus) (*domain.Prompt, error) {
	query := `
		SELECT ` + promptColumns + `
		FROM prompts
		WHERE league_id = $1 AND status = $2
		ORDER BY queue_order
		LIMIT 1
	`

	p, err := scanPrompt(r.db.Pool.QueryRow(ctx, query, leagueID, status))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt by status: %w", err)
	}

	return p, nil
}

// NextScheduled retrieves the SCHEDULED prompt with the lowest queue order.
func (r *promptRepository) NextScheduled(ctx context.Context, leagueID int64) (*domain.Prompt, error) {
	query := `
		SELECT ` + promptColumns + `
		FROM prompts
		WHERE league_id = $1 AND status = $2
		ORDER BY queue_order, id
		LIMIT 1
	`

	p, err := scanPrompt(r.db.Pool.QueryRow(ctx, query, leagueID, domain.StatusScheduled))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next scheduled prompt: %w", err)
	}

	return p, nil
}

// MarkVoting moves an ACTIVE prompt to VOTING at the given slot.
func (r *promptRepository) MarkVoting(ctx context.Context, q database.Querier, promptID int64, at time.Time) (bool, error) {
	query := `
		UPDATE prompts
		SET status = $1, phase_started_at = $2, submission_ended_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	tag, err := q.Exec(ctx, query, domain.StatusVoting, at, promptID, domain.StatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to mark prompt voting: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkCompleted moves a VOTING prompt to COMPLETED at the given slot.
func (r *promptRepository) MarkCompleted(ctx context.Context, q database.Querier, promptID int64, at time.Time) (bool, error) {
	query := `
		UPDATE prompts
		SET status = $1, voting_ended_at = $2, completed_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	tag, err := q.Exec(ctx, query, domain.StatusCompleted, at, promptID, domain.StatusVoting)
	if err != nil {
		return false, fmt.Errorf("failed to mark prompt completed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Activate moves a SCHEDULED prompt to ACTIVE at the given slot.
func (r *promptRepository) Activate(ctx context.Context, q database.Querier, promptID int64, at time.Time) (bool, error) {
	query := `
		UPDATE prompts
		SET status = $1, phase_started_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	tag, err := q.Exec(ctx, query, domain.StatusActive, at, promptID, domain.StatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to activate prompt: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// warningColumn maps a (status, tier) pair to its one-shot flag column.
// The column names are fixed; values are never interpolated from input.
func warningColumn(status domain.PromptStatus, tier domain.WarningTier) (string, error) {
	switch {
	case status == domain.StatusActive && tier == domain.TierDayAhead:
		return "submission_warning_sent", nil
	case status == domain.StatusVoting && tier == domain.TierDayAhead:
		return "voting_warning_sent", nil
	case status == domain.StatusActive && tier == domain.TierFinal:
		return "submission_final_warning_sent", nil
	case status == domain.StatusVoting && tier == domain.TierFinal:
		return "voting_final_warning_sent", nil
	default:
		return "", fmt.Errorf("no warning flag for status %s tier %s", status, tier)
	}
}

// ListForWarning retrieves prompts in the given status whose warning
// flag for the tier is still unsent, with their league settings.
// Only active, started leagues are considered.
func (r *promptRepository) ListForWarning(ctx context.Context, status domain.PromptStatus, tier domain.WarningTier) ([]domain.PromptWithSettings, error) {
	column, err := warningColumn(status, tier)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + promptColumnsQualified + `,
		       l.submission_days, l.voting_days, l.votes_per_player
		FROM prompts p
		JOIN leagues l ON l.id = p.league_id
		WHERE p.status = $1
		  AND l.is_active = true AND l.is_started = true
		  AND p.` + column + ` = false
		ORDER BY p.id
	`

	rows, err := r.db.Pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts for warning: %w", err)
	}
	defer rows.Close()

	var out []domain.PromptWithSettings
	for rows.Next() {
		var item domain.PromptWithSettings
		p := &item.Prompt
		err := rows.Scan(
			&p.ID,
			&p.LeagueID,
			&p.Text,
			&p.Status,
			&p.QueueOrder,
			&p.PhaseStartedAt,
			&p.SubmissionEndedAt,
			&p.VotingEndedAt,
			&p.CompletedAt,
			&p.PhotoCleanedAt,
			&p.SubmissionWarningSent,
			&p.VotingWarningSent,
			&p.SubmissionFinalWarningSent,
			&p.VotingFinalWarningSent,
			&p.CreatedAt,
			&p.UpdatedAt,
			&item.Settings.SubmissionDays,
			&item.Settings.VotingDays,
			&item.Settings.VotesPerPlayer,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt for warning: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompts for warning: %w", err)
	}

	return out, nil
}

// MarkWarningSent flips the one-shot flag for (status, tier). The
// conditional WHERE clause makes the flip at-most-once: a second
// caller sees applied == false and must not notify again.
func (r *promptRepository) MarkWarningSent(ctx context.Context, promptID int64, status domain.PromptStatus, tier domain.WarningTier) (bool, error) {
	column, err := warningColumn(status, tier)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE prompts
		SET ` + column + ` = true, updated_at = NOW()
		WHERE id = $1 AND ` + column + ` = false
	`

	tag, err := r.db.Pool.Exec(ctx, query, promptID)
	if err != nil {
		return false, fmt.Errorf("failed to mark warning sent: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListCleanupCandidates retrieves prompts completed before the cutoff
// whose photos have not been cleaned yet.
func (r *promptRepository) ListCleanupCandidates(ctx context.Context, completedBefore time.Time) ([]domain.Prompt, error) {
	query := `
		SELECT ` + promptColumns + `
		FROM prompts
		WHERE status = $1
		  AND completed_at IS NOT NULL AND completed_at < $2
		  AND photo_cleaned_at IS NULL
		ORDER BY completed_at
	`

	rows, err := r.db.Pool.Query(ctx, query, domain.StatusCompleted, completedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleanup candidates: %w", err)
	}
	defer rows.Close()

	var prompts []domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cleanup candidate: %w", err)
		}
		prompts = append(prompts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cleanup candidates: %w", err)
	}

	return prompts, nil
}

// MarkPhotosCleaned records that a prompt's photos were removed.
func (r *promptRepository) MarkPhotosCleaned(ctx context.Context, promptID int64, at time.Time) error {
	query := `
		UPDATE prompts
		SET photo_cleaned_at = $1, updated_at = NOW()
		WHERE id = $2
	`

	if _, err := r.db.Pool.Exec(ctx, query, at, promptID); err != nil {
		return fmt.Errorf("failed to mark photos cleaned: %w", err)
	}

	return nil
}
