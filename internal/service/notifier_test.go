package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"challenge-league/internal/domain"
	"challenge-league/pkg/logger"
	"challenge-league/pkg/redis"
)

func setupNotifier(t *testing.T) (*miniredis.Miniredis, *redis.Client, *mockLeagueRepo, *RedisNotifier) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	leagues := &mockLeagueRepo{}
	notifier := NewRedisNotifier(client, leagues, logger.NewNop())

	return mr, client, leagues, notifier
}

func TestNotifyUsers_EnqueuesOneJobPerUser(t *testing.T) {
	mr, client, _, notifier := setupNotifier(t)

	payload := domain.NotificationPayload{
		Title: "Voting is open!",
		Body:  `Time to vote on "Golden hour"`,
		Tag:   "voting-open",
	}

	report, err := notifier.NotifyUsers(context.Background(), []string{"alice", "bob"}, payload)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 0, report.Failed)

	jobs, err := mr.List(client.KeyBuilder.KeyNotifyQueue())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	var job deliveryJob
	require.NoError(t, json.Unmarshal([]byte(jobs[0]), &job))
	assert.Equal(t, "voting-open", job.Payload.Tag)
	assert.NotEmpty(t, job.UserID)
	assert.False(t, job.QueuedAt.IsZero())
}

func TestNotifyUsers_NoRecipients(t *testing.T) {
	_, client, _, notifier := setupNotifier(t)

	report, err := notifier.NotifyUsers(context.Background(), nil, domain.NotificationPayload{Tag: "voting-open"})

	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)

	n, err := client.LLen(context.Background(), client.KeyBuilder.KeyNotifyQueue())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotifyUsers_QueueFailureCountsPerRecipient(t *testing.T) {
	mr, _, _, notifier := setupNotifier(t)

	// Kill the server so every push fails.
	mr.Close()

	report, err := notifier.NotifyUsers(context.Background(), []string{"alice", "bob"}, domain.NotificationPayload{Tag: "voting-open"})

	// Failures are reported, never raised.
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 2, report.Failed)
}

func TestNotifyLeague_ExcludesUser(t *testing.T) {
	mr, client, leagues, notifier := setupNotifier(t)

	leagues.On("ListActiveMemberIDs", mock.Anything, int64(1)).
		Return([]string{"alice", "bob", "carol"}, nil)

	report, err := notifier.NotifyLeague(context.Background(), 1, domain.NotificationPayload{Tag: "new-challenge"}, "bob")

	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)

	jobs, err := mr.List(client.KeyBuilder.KeyNotifyQueue())
	require.NoError(t, err)

	for _, raw := range jobs {
		var job deliveryJob
		require.NoError(t, json.Unmarshal([]byte(raw), &job))
		assert.NotEqual(t, "bob", job.UserID)
	}
}

func TestNopNotifier(t *testing.T) {
	notifier := NewNopNotifier(logger.NewNop())

	report, err := notifier.NotifyUsers(context.Background(), []string{"alice"}, domain.NotificationPayload{})
	require.NoError(t, err)
	assert.Zero(t, report.Sent)

	report, err = notifier.NotifyLeague(context.Background(), 1, domain.NotificationPayload{}, "")
	require.NoError(t, err)
	assert.Zero(t, report.Sent)
}
