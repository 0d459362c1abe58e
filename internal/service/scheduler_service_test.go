package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"challenge-league/internal/clock"
	"challenge-league/internal/domain"
	"challenge-league/internal/repository"
	"challenge-league/pkg/logger"
)

// testNow is shortly after the execution slot, so a phase that
// nominally ends on the slot is already expired.
var testNow = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

var testSlot = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

type schedulerFixture struct {
	svc      *SchedulerService
	tx       *fakeTxRunner
	leagues  *mockLeagueRepo
	prompts  *mockPromptRepo
	resps    *mockResponseRepo
	votes    *mockVoteRepo
	notifier *mockNotifier
	photos   *mockPhotoStore
}

func newSchedulerFixture() *schedulerFixture {
	f := &schedulerFixture{
		tx:       &fakeTxRunner{},
		leagues:  &mockLeagueRepo{},
		prompts:  &mockPromptRepo{},
		resps:    &mockResponseRepo{},
		votes:    &mockVoteRepo{},
		notifier: &mockNotifier{},
		photos:   &mockPhotoStore{},
	}

	clk := clock.NewWithNow(18, func() time.Time { return testNow })
	repos := &repository.Repositories{
		League:   f.leagues,
		Prompt:   f.prompts,
		Response: f.resps,
		Vote:     f.votes,
	}

	f.svc = NewSchedulerService(f.tx, clk, repos, f.notifier, f.photos, nil, logger.NewNop(), 7)
	return f
}

func testLeague(id int64) domain.League {
	return domain.League{
		ID:        id,
		Name:      "Test League",
		IsActive:  true,
		IsStarted: true,
		Settings: domain.LeagueSettings{
			SubmissionDays: 3,
			VotingDays:     2,
			VotesPerPlayer: 3,
		},
	}
}

// startedAt picks a phase start so the phase ends exactly on testSlot.
func startedAt(days int) *time.Time {
	t := testSlot.AddDate(0, 0, -days)
	return &t
}

func (f *schedulerFixture) expectNoCleanup() {
	f.prompts.On("ListCleanupCandidates", mock.Anything, mock.Anything).Return([]domain.Prompt{}, nil)
}

func TestProcessDueTransitions_ActiveNotExpired(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	start := testSlot.AddDate(0, 0, -1) // ends in two days

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).
		Return(&domain.Prompt{ID: 10, LeagueID: 1, Status: domain.StatusActive, PhaseStartedAt: &start}, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Transitioned)
	assert.Empty(t, report.Failures)
	assert.Zero(t, f.tx.calls)
	f.prompts.AssertNotCalled(t, "MarkVoting", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDueTransitions_OpensVoting(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	prompt := &domain.Prompt{ID: 10, LeagueID: 1, Text: "Golden hour", Status: domain.StatusActive, PhaseStartedAt: startedAt(3)}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(prompt, nil)
	f.prompts.On("MarkVoting", mock.Anything, mock.Anything, int64(10), testSlot).Return(true, nil)
	f.resps.On("PublishAll", mock.Anything, mock.Anything, int64(10), testSlot).Return(int64(4), nil)
	f.notifier.On("NotifyLeague", mock.Anything, int64(1), mock.MatchedBy(func(p domain.NotificationPayload) bool {
		return p.Tag == "voting-open"
	}), "").Return(&domain.SendReport{Sent: 4}, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Transitioned)
	assert.Equal(t, 1, f.tx.calls)
	f.prompts.AssertExpectations(t)
	f.resps.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestProcessDueTransitions_VotingRaceLost(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	prompt := &domain.Prompt{ID: 10, LeagueID: 1, Status: domain.StatusActive, PhaseStartedAt: startedAt(3)}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(prompt, nil)
	f.prompts.On("MarkVoting", mock.Anything, mock.Anything, int64(10), testSlot).Return(false, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	// A lost race is not a failure, just no transition from this pass.
	require.NoError(t, err)
	assert.Equal(t, 0, report.Transitioned)
	assert.Empty(t, report.Failures)
	f.resps.AssertNotCalled(t, "PublishAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "NotifyLeague", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDueTransitions_CompletesVotingAndActivatesNext(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	voting := &domain.Prompt{ID: 10, LeagueID: 1, Text: "Golden hour", Status: domain.StatusVoting, PhaseStartedAt: startedAt(2)}
	next := &domain.Prompt{ID: 11, LeagueID: 1, Text: "Two colors", Status: domain.StatusScheduled, QueueOrder: 2}

	submitted := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	responses := []domain.Response{
		{ID: 100, PromptID: 10, UserID: "alice", SubmittedAt: submitted},
		{ID: 101, PromptID: 10, UserID: "bob", SubmittedAt: submitted.Add(time.Hour)},
	}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(nil, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusVoting).Return(voting, nil)
	f.resps.On("ListByPrompt", mock.Anything, int64(10)).Return(responses, nil)
	f.votes.On("CountByResponse", mock.Anything, int64(10)).Return(map[int64]int{100: 2, 101: 5}, nil)
	f.prompts.On("MarkCompleted", mock.Anything, mock.Anything, int64(10), testSlot).Return(true, nil)
	f.resps.On("SetResult", mock.Anything, mock.Anything, int64(101), 5, 1).Return(nil)
	f.resps.On("SetResult", mock.Anything, mock.Anything, int64(100), 2, 2).Return(nil)
	f.prompts.On("NextScheduled", mock.Anything, int64(1)).Return(next, nil)
	f.prompts.On("Activate", mock.Anything, mock.Anything, int64(11), testSlot).Return(true, nil)
	f.notifier.On("NotifyLeague", mock.Anything, int64(1), mock.MatchedBy(func(p domain.NotificationPayload) bool {
		return p.Tag == "new-challenge"
	}), "").Return(&domain.SendReport{Sent: 3}, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Transitioned)
	assert.Equal(t, 2, f.tx.calls) // completion tx + activation tx
	f.prompts.AssertExpectations(t)
	f.resps.AssertExpectations(t)
}

func TestProcessDueTransitions_ActivatesWhenIdle(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	next := &domain.Prompt{ID: 20, LeagueID: 1, Text: "Something blue", Status: domain.StatusScheduled, QueueOrder: 1}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(nil, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusVoting).Return(nil, nil)
	f.prompts.On("NextScheduled", mock.Anything, int64(1)).Return(next, nil)
	f.prompts.On("Activate", mock.Anything, mock.Anything, int64(20), testSlot).Return(true, nil)
	f.notifier.On("NotifyLeague", mock.Anything, int64(1), mock.Anything, "").Return(&domain.SendReport{Sent: 3}, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Transitioned)
}

func TestProcessDueTransitions_EmptyQueueIsNoop(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(nil, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusVoting).Return(nil, nil)
	f.prompts.On("NextScheduled", mock.Anything, int64(1)).Return(nil, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Transitioned)
	assert.Empty(t, report.Failures)
}

func TestProcessDueTransitions_LeagueFailureDoesNotBlockOthers(t *testing.T) {
	f := newSchedulerFixture()
	broken := testLeague(1)
	healthy := testLeague(2)
	next := &domain.Prompt{ID: 20, LeagueID: 2, Text: "Reflections", Status: domain.StatusScheduled}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{broken, healthy}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).
		Return(nil, errors.New("connection reset"))
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(2), domain.StatusActive).Return(nil, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(2), domain.StatusVoting).Return(nil, nil)
	f.prompts.On("NextScheduled", mock.Anything, int64(2)).Return(next, nil)
	f.prompts.On("Activate", mock.Anything, mock.Anything, int64(20), testSlot).Return(true, nil)
	f.notifier.On("NotifyLeague", mock.Anything, int64(2), mock.Anything, "").Return(&domain.SendReport{}, nil)
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Transitioned)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, int64(1), report.Failures[0].LeagueID)
	assert.Contains(t, report.Failures[0].Error, "connection reset")
}

func TestProcessDueTransitions_NotificationFailureDoesNotFailPass(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	prompt := &domain.Prompt{ID: 10, LeagueID: 1, Status: domain.StatusActive, PhaseStartedAt: startedAt(3)}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{league}, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(prompt, nil)
	f.prompts.On("MarkVoting", mock.Anything, mock.Anything, int64(10), testSlot).Return(true, nil)
	f.resps.On("PublishAll", mock.Anything, mock.Anything, int64(10), testSlot).Return(int64(2), nil)
	f.notifier.On("NotifyLeague", mock.Anything, int64(1), mock.Anything, "").
		Return(nil, errors.New("queue unreachable"))
	f.expectNoCleanup()

	report, err := f.svc.ProcessDueTransitions(context.Background())

	// The transition is durable even when its announcement is not.
	require.NoError(t, err)
	assert.Equal(t, 1, report.Transitioned)
	assert.Empty(t, report.Failures)
}

func TestProcessDueTransitions_PhotoCleanup(t *testing.T) {
	f := newSchedulerFixture()

	completed := domain.Prompt{ID: 30, LeagueID: 1, Status: domain.StatusCompleted}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{}, nil)
	f.prompts.On("ListCleanupCandidates", mock.Anything, testNow.AddDate(0, 0, -7)).
		Return([]domain.Prompt{completed}, nil)
	f.resps.On("ImageKeys", mock.Anything, int64(30)).Return([]string{"30/alice.jpg", "30/bob.jpg"}, nil)
	f.photos.On("Remove", mock.Anything, "30/alice.jpg").Return(nil)
	f.photos.On("Remove", mock.Anything, "30/bob.jpg").Return(nil)
	f.prompts.On("MarkPhotosCleaned", mock.Anything, int64(30), testNow).Return(nil)

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.PhotosRemoved)
	f.prompts.AssertExpectations(t)
	f.photos.AssertExpectations(t)
}

func TestProcessDueTransitions_PartialCleanupRetriesNextPass(t *testing.T) {
	f := newSchedulerFixture()

	completed := domain.Prompt{ID: 30, LeagueID: 1, Status: domain.StatusCompleted}

	f.leagues.On("ListActiveStarted", mock.Anything).Return([]domain.League{}, nil)
	f.prompts.On("ListCleanupCandidates", mock.Anything, mock.Anything).
		Return([]domain.Prompt{completed}, nil)
	f.resps.On("ImageKeys", mock.Anything, int64(30)).Return([]string{"30/alice.jpg", "30/bob.jpg"}, nil)
	f.photos.On("Remove", mock.Anything, "30/alice.jpg").Return(nil)
	f.photos.On("Remove", mock.Anything, "30/bob.jpg").Return(errors.New("permission denied"))

	report, err := f.svc.ProcessDueTransitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.PhotosRemoved)
	// Not marked cleaned, so the next pass picks the prompt up again.
	f.prompts.AssertNotCalled(t, "MarkPhotosCleaned", mock.Anything, mock.Anything, mock.Anything)
}

func TestForceTransition_LeagueNotFound(t *testing.T) {
	f := newSchedulerFixture()
	f.leagues.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	result, err := f.svc.ForceTransition(context.Background(), 99)

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "league not found", result.Reason)
}

func TestForceTransition_InactiveLeague(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	league.IsStarted = false
	f.leagues.On("GetByID", mock.Anything, int64(1)).Return(&league, nil)

	result, err := f.svc.ForceTransition(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.OK)
}

func TestForceTransition_BypassesExpiry(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)
	// Started today: far from expired, but a manual transition
	// advances it anyway.
	prompt := &domain.Prompt{ID: 10, LeagueID: 1, Text: "Golden hour", Status: domain.StatusActive, PhaseStartedAt: startedAt(0)}

	f.leagues.On("GetByID", mock.Anything, int64(1)).Return(&league, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(prompt, nil)
	f.prompts.On("MarkVoting", mock.Anything, mock.Anything, int64(10), testSlot).Return(true, nil)
	f.resps.On("PublishAll", mock.Anything, mock.Anything, int64(10), testSlot).Return(int64(1), nil)
	f.notifier.On("NotifyLeague", mock.Anything, int64(1), mock.Anything, "").Return(&domain.SendReport{}, nil)

	result, err := f.svc.ForceTransition(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, domain.ActionVotingOpened, result.Action)
	assert.Equal(t, "Golden hour", result.Prompt)
}

func TestForceTransition_NothingToActivate(t *testing.T) {
	f := newSchedulerFixture()
	league := testLeague(1)

	f.leagues.On("GetByID", mock.Anything, int64(1)).Return(&league, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusActive).Return(nil, nil)
	f.prompts.On("GetByLeagueAndStatus", mock.Anything, int64(1), domain.StatusVoting).Return(nil, nil)
	f.prompts.On("NextScheduled", mock.Anything, int64(1)).Return(nil, nil)

	result, err := f.svc.ForceTransition(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "no scheduled prompt to activate", result.Reason)
}
