package service

import (
	"context"
	"encoding/json"
	"time"

	"challenge-league/internal/domain"
	"challenge-league/internal/repository"
	"challenge-league/pkg/logger"
	"challenge-league/pkg/redis"
)

// deliveryJob is one queued notification for one user. The push worker
// pops jobs off the Redis list and handles the actual web-push
// transport, including stale subscription cleanup.
type deliveryJob struct {
	UserID   string                     `json:"user_id"`
	Payload  domain.NotificationPayload `json:"payload"`
	QueuedAt time.Time                  `json:"queued_at"`
}

// RedisNotifier resolves recipients and enqueues delivery jobs onto a
// Redis list. Enqueue failures are counted per recipient and never
// raised, so a flaky queue cannot block a phase transition.
type RedisNotifier struct {
	redisClient *redis.Client
	leagueRepo  repository.LeagueRepository
	logger      *logger.Logger
}

// NewRedisNotifier creates a Redis-queue backed Notifier.
func NewRedisNotifier(redisClient *redis.Client, leagueRepo repository.LeagueRepository, logger *logger.Logger) *RedisNotifier {
	return &RedisNotifier{
		redisClient: redisClient,
		leagueRepo:  leagueRepo,
		logger:      logger,
	}
}

// NotifyLeague notifies every active member of a league, optionally
// excluding one user.
func (n *RedisNotifier) NotifyLeague(ctx context.Context, leagueID int64, payload domain.NotificationPayload, excludeUserID string) (*domain.SendReport, error) {
	memberIDs, err := n.leagueRepo.ListActiveMemberIDs(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if excludeUserID != "" && id == excludeUserID {
			continue
		}
		recipients = append(recipients, id)
	}

	return n.NotifyUsers(ctx, recipients, payload)
}

// NotifyUsers enqueues one delivery job per user.
func (n *RedisNotifier) NotifyUsers(ctx context.Context, userIDs []string, payload domain.NotificationPayload) (*domain.SendReport, error) {
	report := &domain.SendReport{}
	queueKey := n.redisClient.KeyBuilder.KeyNotifyQueue()
	now := time.Now().UTC()

	for _, userID := range userIDs {
		job := deliveryJob{UserID: userID, Payload: payload, QueuedAt: now}

		data, err := json.Marshal(job)
		if err != nil {
			n.logger.WithError(err).WithField("user_id", userID).Error("Failed to encode delivery job")
			report.Failed++
			continue
		}

		if err := n.redisClient.LPush(ctx, queueKey, data); err != nil {
			n.logger.WithError(err).WithField("user_id", userID).Error("Failed to enqueue delivery job")
			report.Failed++
			continue
		}

		report.Sent++
	}

	n.logger.WithFields(map[string]interface{}{
		"tag":    payload.Tag,
		"sent":   report.Sent,
		"failed": report.Failed,
	}).Debug("Notification jobs enqueued")

	return report, nil
}

// NopNotifier drops every notification. Used when Redis is not
// configured; phase transitions still run, announcements are skipped.
type NopNotifier struct {
	logger *logger.Logger
}

// NewNopNotifier creates a Notifier that drops everything.
func NewNopNotifier(logger *logger.Logger) *NopNotifier {
	return &NopNotifier{logger: logger}
}

func (n *NopNotifier) NotifyLeague(ctx context.Context, leagueID int64, payload domain.NotificationPayload, excludeUserID string) (*domain.SendReport, error) {
	n.logger.WithField("tag", payload.Tag).Debug("Notification dropped, no queue configured")
	return &domain.SendReport{}, nil
}

func (n *NopNotifier) NotifyUsers(ctx context.Context, userIDs []string, payload domain.NotificationPayload) (*domain.SendReport, error) {
	n.logger.WithField("tag", payload.Tag).Debug("Notification dropped, no queue configured")
	return &domain.SendReport{}, nil
}
