package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"challenge-league/internal/domain"
	"challenge-league/pkg/database"
)

// fakeTxRunner executes the transaction body directly. The repositories
// are mocked, so no real transaction semantics are needed; lost-race
// rollbacks are simulated by having a repository mock return
// applied == false.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(q database.Querier) error) error {
	f.calls++
	return fn(nil)
}

type mockLeagueRepo struct {
	mock.Mock
}

func (m *mockLeagueRepo) ListActiveStarted(ctx context.Context) ([]domain.League, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.League), args.Error(1)
}

func (m *mockLeagueRepo) GetByID(ctx context.Context, id int64) (*domain.League, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.League), args.Error(1)
}

func (m *mockLeagueRepo) IsAdmin(ctx context.Context, leagueID int64, userID string) (bool, error) {
	args := m.Called(ctx, leagueID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLeagueRepo) ListActiveMemberIDs(ctx context.Context, leagueID int64) ([]string, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockPromptRepo struct {
	mock.Mock
}

func (m *mockPromptRepo) GetByLeagueAndStatus(ctx context.Context, leagueID int64, status domain.PromptStatus) (*domain.Prompt, error) {
	args := m.Called(ctx, leagueID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

func (m *mockPromptRepo) NextScheduled(ctx context.Context, leagueID int64) (*domain.Prompt, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

func (m *mockPromptRepo) MarkVoting(ctx context.Context, q database.Querier, promptID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, q, promptID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockPromptRepo) MarkCompleted(ctx context.Context, q database.Querier, promptID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, q, promptID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockPromptRepo) Activate(ctx context.Context, q database.Querier, promptID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, q, promptID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockPromptRepo) ListForWarning(ctx context.Context, status domain.PromptStatus, tier domain.WarningTier) ([]domain.PromptWithSettings, error) {
	args := m.Called(ctx, status, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PromptWithSettings), args.Error(1)
}

func (m *mockPromptRepo) MarkWarningSent(ctx context.Context, promptID int64, status domain.PromptStatus, tier domain.WarningTier) (bool, error) {
	args := m.Called(ctx, promptID, status, tier)
	return args.Bool(0), args.Error(1)
}

func (m *mockPromptRepo) ListCleanupCandidates(ctx context.Context, completedBefore time.Time) ([]domain.Prompt, error) {
	args := m.Called(ctx, completedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Prompt), args.Error(1)
}

func (m *mockPromptRepo) MarkPhotosCleaned(ctx context.Context, promptID int64, at time.Time) error {
	args := m.Called(ctx, promptID, at)
	return args.Error(0)
}

type mockResponseRepo struct {
	mock.Mock
}

func (m *mockResponseRepo) ListByPrompt(ctx context.Context, promptID int64) ([]domain.Response, error) {
	args := m.Called(ctx, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Response), args.Error(1)
}

func (m *mockResponseRepo) PublishAll(ctx context.Context, q database.Querier, promptID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, q, promptID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockResponseRepo) SetResult(ctx context.Context, q database.Querier, responseID int64, totalVotes, finalRank int) error {
	args := m.Called(ctx, q, responseID, totalVotes, finalRank)
	return args.Error(0)
}

func (m *mockResponseRepo) UserIDsWithResponse(ctx context.Context, promptID int64) ([]string, error) {
	args := m.Called(ctx, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockResponseRepo) ImageKeys(ctx context.Context, promptID int64) ([]string, error) {
	args := m.Called(ctx, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockVoteRepo struct {
	mock.Mock
}

func (m *mockVoteRepo) CountByResponse(ctx context.Context, promptID int64) (map[int64]int, error) {
	args := m.Called(ctx, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int), args.Error(1)
}

func (m *mockVoteRepo) CountByVoter(ctx context.Context, promptID int64) ([]domain.VoterCount, error) {
	args := m.Called(ctx, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VoterCount), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyLeague(ctx context.Context, leagueID int64, payload domain.NotificationPayload, excludeUserID string) (*domain.SendReport, error) {
	args := m.Called(ctx, leagueID, payload, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SendReport), args.Error(1)
}

func (m *mockNotifier) NotifyUsers(ctx context.Context, userIDs []string, payload domain.NotificationPayload) (*domain.SendReport, error) {
	args := m.Called(ctx, userIDs, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SendReport), args.Error(1)
}

type mockPhotoStore struct {
	mock.Mock
}

func (m *mockPhotoStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
