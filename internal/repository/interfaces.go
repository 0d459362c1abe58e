package repository

import (
	"context"
	"time"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

// LeagueRepository defines the interface for league data operations.
type LeagueRepository interface {
	// ListActiveStarted retrieves the leagues eligible for scheduling.
	ListActiveStarted(ctx context.Context) ([]domain.League, error)

	// GetByID retrieves a league by ID, nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.League, error)

	// IsAdmin reports whether the user is an active admin member.
	IsAdmin(ctx context.Context, leagueID int64, userID string) (bool, error)

	// ListActiveMemberIDs retrieves the user IDs of active members.
	ListActiveMemberIDs(ctx context.Context, leagueID int64) ([]string, error)
}

// PromptRepository defines the interface for prompt data operations.
// The Mark* mutations are conditional on the expected source status so
// a concurrent invocation that already applied the transition turns
// this one into a no-op (applied == false).
type PromptRepository interface {
	// GetByLeagueAndStatus retrieves the league's single prompt in the
	// given status, nil if none.
	GetByLeagueAndStatus(ctx context.Context, leagueID int64, status domain.PromptStatus) (*domain.Prompt, error)

	// NextScheduled retrieves the SCHEDULED prompt with the lowest
	// queue order, nil if none.
	NextScheduled(ctx context.Context, leagueID int64) (*domain.Prompt, error)

	// MarkVoting moves an ACTIVE prompt to VOTING at the given slot.
	MarkVoting(ctx context.Context, q database.Querier, promptID int64, at time.Time) (applied bool, err error)

	// MarkCompleted moves a VOTING prompt to COMPLETED at the given slot.
	MarkCompleted(ctx context.Context, q database.Querier, promptID int64, at time.Time) (applied bool, err error)

	// Activate moves a SCHEDULED prompt to ACTIVE at the given slot.
	Activate(ctx context.Context, q database.Querier, promptID int64, at time.Time) (applied bool, err error)

	// ListForWarning retrieves prompts in the given status whose
	// warning flag for the tier is still unsent, with league settings.
	ListForWarning(ctx context.Context, status domain.PromptStatus, tier domain.WarningTier) ([]domain.PromptWithSettings, error)

	// MarkWarningSent flips the one-shot flag for (status, tier).
	// Returns false if the flag was already set.
	MarkWarningSent(ctx context.Context, promptID int64, status domain.PromptStatus, tier domain.WarningTier) (bool, error)

	// ListCleanupCandidates retrieves prompts completed before the
	// cutoff whose photos have not been cleaned yet.
	ListCleanupCandidates(ctx context.Context, completedBefore time.Time) ([]domain.Prompt, error)

	// MarkPhotosCleaned records that a prompt's photos were removed.
	MarkPhotosCleaned(ctx context.Context, promptID int64, at time.Time) error
}

// ResponseRepository defines the interface for response data operations.
type ResponseRepository interface {
	// ListByPrompt retrieves a prompt's responses ordered by
	// (submitted_at, id) so rank computation is deterministic.
	ListByPrompt(ctx context.Context, promptID int64) ([]domain.Response, error)

	// PublishAll publishes every response of a prompt in one statement.
	PublishAll(ctx context.Context, q database.Querier, promptID int64, at time.Time) (int64, error)

	// SetResult stores a response's final vote total and rank.
	SetResult(ctx context.Context, q database.Querier, responseID int64, totalVotes, finalRank int) error

	// UserIDsWithResponse retrieves the users who already submitted.
	UserIDsWithResponse(ctx context.Context, promptID int64) ([]string, error)

	// ImageKeys retrieves the stored photo references for a prompt.
	ImageKeys(ctx context.Context, promptID int64) ([]string, error)
}

// VoteRepository defines the interface for vote data operations.
type VoteRepository interface {
	// CountByResponse retrieves per-response vote counts for a prompt.
	CountByResponse(ctx context.Context, promptID int64) (map[int64]int, error)

	// CountByVoter retrieves per-voter vote counts for a prompt.
	CountByVoter(ctx context.Context, promptID int64) ([]domain.VoterCount, error)
}

// Repositories aggregates all repository interfaces.
type Repositories struct {
	League   LeagueRepository
	Prompt   PromptRepository
	Response ResponseRepository
	Vote     VoteRepository
}
