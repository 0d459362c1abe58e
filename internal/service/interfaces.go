package service

import (
	"context"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

// Scheduler drives the prompt phase state machine.
type Scheduler interface {
	// ProcessDueTransitions runs one pass over all eligible leagues,
	// applying due phase transitions, then removes photos of prompts
	// past retention. One league's failure never blocks the others.
	ProcessDueTransitions(ctx context.Context) (*domain.BatchReport, error)

	// ForceTransition applies one manual transition for a league,
	// following the normal state-machine rules but bypassing expiry.
	// Precondition violations come back as a structured result.
	ForceTransition(ctx context.Context, leagueID int64) (*domain.TransitionResult, error)
}

// Warnings sends the advance deadline notifications.
type Warnings interface {
	// SendDeadlineWarnings runs the day-ahead tier: phases whose
	// nominal end falls within the next execution slot.
	SendDeadlineWarnings(ctx context.Context) (*domain.WarningReport, error)

	// SendFinalWarnings runs the final-hours tier: phases ending at
	// today's execution slot.
	SendFinalWarnings(ctx context.Context) (*domain.WarningReport, error)
}

// Notifier dispatches notifications to league members. Implementations
// tolerate unreachable destinations; stale endpoints are the delivery
// worker's concern, not the scheduler's.
type Notifier interface {
	// NotifyLeague notifies every active member of a league,
	// optionally excluding one user.
	NotifyLeague(ctx context.Context, leagueID int64, payload domain.NotificationPayload, excludeUserID string) (*domain.SendReport, error)

	// NotifyUsers notifies a specific set of users.
	NotifyUsers(ctx context.Context, userIDs []string, payload domain.NotificationPayload) (*domain.SendReport, error)
}

// PhotoStore removes stored submission images by reference. The
// storage backend is opaque to the scheduler.
type PhotoStore interface {
	Remove(ctx context.Context, key string) error
}

// txRunner is the slice of PostgresDB the scheduler needs to group a
// transition's writes atomically. Kept narrow so tests can fake it.
type txRunner interface {
	WithTx(ctx context.Context, fn func(q database.Querier) error) error
}
