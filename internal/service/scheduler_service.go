package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"challenge-league/internal/clock"
	"challenge-league/internal/domain"
	"challenge-league/internal/phase"
	"challenge-league/internal/repository"
	"challenge-league/internal/tally"
	"challenge-league/pkg/database"
	"challenge-league/pkg/logger"
	"challenge-league/pkg/redis"
)

// errTransitionRaced signals that a conditional status update matched
// zero rows: another invocation already applied the transition. The
// enclosing transaction rolls back and the pass moves on.
var errTransitionRaced = errors.New("prompt transition already applied by another invocation")

// SchedulerService is the transition orchestrator. One invocation
// walks every active, started league sequentially and applies at most
// one ACTIVE-branch transition per league; a completed VOTING phase
// falls through to activating the next scheduled prompt in the same
// pass.
type SchedulerService struct {
	db            txRunner
	clk           *clock.Clock
	leagueRepo    repository.LeagueRepository
	promptRepo    repository.PromptRepository
	responseRepo  repository.ResponseRepository
	voteRepo      repository.VoteRepository
	notifier      Notifier
	photos        PhotoStore
	cache         *redis.Client // optional; nil disables standings caching
	logger        *logger.Logger
	retentionDays int
}

// NewSchedulerService creates the transition orchestrator.
func NewSchedulerService(
	db txRunner,
	clk *clock.Clock,
	repos *repository.Repositories,
	notifier Notifier,
	photos PhotoStore,
	cache *redis.Client,
	log *logger.Logger,
	retentionDays int,
) *SchedulerService {
	return &SchedulerService{
		db:            db,
		clk:           clk,
		leagueRepo:    repos.League,
		promptRepo:    repos.Prompt,
		responseRepo:  repos.Response,
		voteRepo:      repos.Vote,
		notifier:      notifier,
		photos:        photos,
		cache:         cache,
		logger:        log,
		retentionDays: retentionDays,
	}
}

// ProcessDueTransitions runs one pass over all eligible leagues.
func (s *SchedulerService) ProcessDueTransitions(ctx context.Context) (*domain.BatchReport, error) {
	report := &domain.BatchReport{StartedAt: s.clk.Now()}

	leagues, err := s.leagueRepo.ListActiveStarted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leagues: %w", err)
	}

	for _, league := range leagues {
		report.Processed++

		transitioned, err := s.processLeague(ctx, league)
		if err != nil {
			// One league's failure never blocks the rest of the pass.
			s.logger.WithError(err).WithField("league_id", league.ID).Error("League processing failed")
			report.Failures = append(report.Failures, domain.LeagueFailure{
				LeagueID: league.ID,
				Error:    err.Error(),
			})
			continue
		}
		if transitioned {
			report.Transitioned++
		}
	}

	removed := s.cleanupPhotos(ctx)
	report.PhotosRemoved = removed

	s.recordLastRun(ctx)

	s.logger.WithFields(map[string]interface{}{
		"processed":      report.Processed,
		"transitioned":   report.Transitioned,
		"photos_removed": report.PhotosRemoved,
		"failures":       len(report.Failures),
	}).Info("Scheduler pass complete")

	return report, nil
}

// processLeague decides and applies at most one transition chain for a
// league. An ACTIVE prompt, before or after its transition, always
// ends processing for the league in this pass.
func (s *SchedulerService) processLeague(ctx context.Context, league domain.League) (bool, error) {
	active, err := s.promptRepo.GetByLeagueAndStatus(ctx, league.ID, domain.StatusActive)
	if err != nil {
		return false, err
	}
	if active != nil {
		if !phase.IsExpired(s.clk, *active, league.Settings) {
			return false, nil
		}
		return s.openVoting(ctx, league, active)
	}

	voting, err := s.promptRepo.GetByLeagueAndStatus(ctx, league.ID, domain.StatusVoting)
	if err != nil {
		return false, err
	}
	if voting != nil {
		if !phase.IsExpired(s.clk, *voting, league.Settings) {
			return false, nil
		}
		if applied, err := s.completeVoting(ctx, league, voting); err != nil || !applied {
			return applied, err
		}
		// Activate the successor in the same pass; the league should
		// not sit idle until the next slot.
		if _, err := s.activateNext(ctx, league); err != nil {
			return true, err
		}
		return true, nil
	}

	return s.activateNext(ctx, league)
}

// openVoting publishes all responses and moves the prompt to VOTING in
// one transaction, then announces the voting phase to the league.
func (s *SchedulerService) openVoting(ctx context.Context, league domain.League, prompt *domain.Prompt) (bool, error) {
	now := s.clk.NormalizedNow()

	var published int64
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		applied, err := s.promptRepo.MarkVoting(ctx, q, prompt.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			return errTransitionRaced
		}

		published, err = s.responseRepo.PublishAll(ctx, q, prompt.ID, now)
		return err
	})
	if errors.Is(err, errTransitionRaced) {
		s.logger.WithField("prompt_id", prompt.ID).Warn("Voting transition lost race, skipping")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open voting for prompt %d: %w", prompt.ID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"league_id": league.ID,
		"prompt_id": prompt.ID,
		"published": published,
	}).Info("Submission phase ended, voting open")

	s.notifyLeague(ctx, league.ID, domain.NotificationPayload{
		Title: "Voting is open!",
		Body:  fmt.Sprintf("Time to vote on %q", prompt.Text),
		Tag:   "voting-open",
	})

	return true, nil
}

// completeVoting tallies votes, stores totals and ranks, and moves the
// prompt to COMPLETED in one transaction.
func (s *SchedulerService) completeVoting(ctx context.Context, league domain.League, prompt *domain.Prompt) (bool, error) {
	now := s.clk.NormalizedNow()

	responses, err := s.responseRepo.ListByPrompt(ctx, prompt.ID)
	if err != nil {
		return false, err
	}
	counts, err := s.voteRepo.CountByResponse(ctx, prompt.ID)
	if err != nil {
		return false, err
	}
	results := tally.Rank(responses, counts)

	err = s.db.WithTx(ctx, func(q database.Querier) error {
		applied, err := s.promptRepo.MarkCompleted(ctx, q, prompt.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			return errTransitionRaced
		}

		for _, result := range results {
			if err := s.responseRepo.SetResult(ctx, q, result.ResponseID, result.TotalVotes, result.FinalRank); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errTransitionRaced) {
		s.logger.WithField("prompt_id", prompt.ID).Warn("Completion transition lost race, skipping")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to complete prompt %d: %w", prompt.ID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"league_id": league.ID,
		"prompt_id": prompt.ID,
		"responses": len(results),
	}).Info("Voting phase ended, prompt completed")

	s.cacheStandings(ctx, league.ID, prompt.ID, responses, results)

	return true, nil
}

// activateNext activates the SCHEDULED prompt with the lowest queue
// order, if any, and announces the new challenge to the league.
func (s *SchedulerService) activateNext(ctx context.Context, league domain.League) (bool, error) {
	next, err := s.promptRepo.NextScheduled(ctx, league.ID)
	if err != nil {
		return false, err
	}
	if next == nil {
		return false, nil
	}

	now := s.clk.NormalizedNow()
	err = s.db.WithTx(ctx, func(q database.Querier) error {
		applied, err := s.promptRepo.Activate(ctx, q, next.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			return errTransitionRaced
		}
		return nil
	})
	if errors.Is(err, errTransitionRaced) {
		s.logger.WithField("prompt_id", next.ID).Warn("Activation lost race, skipping")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to activate prompt %d: %w", next.ID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"league_id": league.ID,
		"prompt_id": next.ID,
	}).Info("Next prompt activated")

	s.notifyLeague(ctx, league.ID, domain.NotificationPayload{
		Title: "New challenge!",
		Body:  next.Text,
		Tag:   "new-challenge",
	})

	return true, nil
}

// ForceTransition applies one manual transition for a league. Same
// state-machine rules as the scheduled pass, but expiry is bypassed.
func (s *SchedulerService) ForceTransition(ctx context.Context, leagueID int64) (*domain.TransitionResult, error) {
	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league == nil {
		return &domain.TransitionResult{OK: false, Reason: "league not found"}, nil
	}
	if !league.IsActive || !league.IsStarted {
		return &domain.TransitionResult{OK: false, Reason: "league is not active"}, nil
	}

	active, err := s.promptRepo.GetByLeagueAndStatus(ctx, leagueID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if _, err := s.openVoting(ctx, *league, active); err != nil {
			return nil, err
		}
		return &domain.TransitionResult{OK: true, Action: domain.ActionVotingOpened, Prompt: active.Text}, nil
	}

	voting, err := s.promptRepo.GetByLeagueAndStatus(ctx, leagueID, domain.StatusVoting)
	if err != nil {
		return nil, err
	}
	if voting != nil {
		if _, err := s.completeVoting(ctx, *league, voting); err != nil {
			return nil, err
		}
		if _, err := s.activateNext(ctx, *league); err != nil {
			return nil, err
		}
		return &domain.TransitionResult{OK: true, Action: domain.ActionCompleted, Prompt: voting.Text}, nil
	}

	activated, err := s.activateNext(ctx, *league)
	if err != nil {
		return nil, err
	}
	if !activated {
		return &domain.TransitionResult{OK: false, Reason: "no scheduled prompt to activate"}, nil
	}

	next, err := s.promptRepo.GetByLeagueAndStatus(ctx, leagueID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	result := &domain.TransitionResult{OK: true, Action: domain.ActionActivated}
	if next != nil {
		result.Prompt = next.Text
	}
	return result, nil
}

// cleanupPhotos removes stored photos for prompts completed past the
// retention window. Best effort: per-file failures are logged and the
// prompt stays eligible for the next pass.
func (s *SchedulerService) cleanupPhotos(ctx context.Context) int {
	cutoff := s.clk.Now().AddDate(0, 0, -s.retentionDays)

	candidates, err := s.promptRepo.ListCleanupCandidates(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list photo cleanup candidates")
		return 0
	}

	removed := 0
	for _, prompt := range candidates {
		keys, err := s.responseRepo.ImageKeys(ctx, prompt.ID)
		if err != nil {
			s.logger.WithError(err).WithField("prompt_id", prompt.ID).Error("Failed to list image keys")
			continue
		}

		failures := 0
		for _, key := range keys {
			if err := s.photos.Remove(ctx, key); err != nil {
				s.logger.WithError(err).WithFields(map[string]interface{}{
					"prompt_id": prompt.ID,
					"key":       key,
				}).Error("Failed to remove photo")
				failures++
				continue
			}
			removed++
		}

		if failures == 0 {
			if err := s.promptRepo.MarkPhotosCleaned(ctx, prompt.ID, s.clk.Now()); err != nil {
				s.logger.WithError(err).WithField("prompt_id", prompt.ID).Error("Failed to mark photos cleaned")
			}
		}
	}

	return removed
}

// notifyLeague dispatches a league-wide notification. Failures are
// logged and swallowed: a transition must persist even when its
// announcement cannot be delivered.
func (s *SchedulerService) notifyLeague(ctx context.Context, leagueID int64, payload domain.NotificationPayload) {
	report, err := s.notifier.NotifyLeague(ctx, leagueID, payload, "")
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"league_id": leagueID,
			"tag":       payload.Tag,
		}).Error("Failed to dispatch league notification")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"league_id": leagueID,
		"tag":       payload.Tag,
		"sent":      report.Sent,
		"failed":    report.Failed,
	}).Debug("League notification dispatched")
}

// standingsEntry is one row of the cached final standings.
type standingsEntry struct {
	ResponseID int64  `json:"response_id"`
	UserID     string `json:"user_id"`
	TotalVotes int    `json:"total_votes"`
	FinalRank  int    `json:"final_rank"`
}

// cacheStandings stores the final standings of a completed prompt so
// result pages don't recompute them. Best effort.
func (s *SchedulerService) cacheStandings(ctx context.Context, leagueID, promptID int64, responses []domain.Response, results []tally.Result) {
	if s.cache == nil {
		return
	}

	users := make(map[int64]string, len(responses))
	for _, r := range responses {
		users[r.ID] = r.UserID
	}

	entries := make([]standingsEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, standingsEntry{
			ResponseID: r.ResponseID,
			UserID:     users[r.ResponseID],
			TotalVotes: r.TotalVotes,
			FinalRank:  r.FinalRank,
		})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		s.logger.WithError(err).WithField("prompt_id", promptID).Error("Failed to encode standings")
		return
	}

	key := s.cache.KeyBuilder.KeyStandings(leagueID, promptID)
	if err := s.cache.Set(ctx, key, data, redis.TTLStandings); err != nil {
		s.logger.WithError(err).WithField("prompt_id", promptID).Warn("Failed to cache standings")
	}
}

// recordLastRun stores the pass timestamp for observability. Best effort.
func (s *SchedulerService) recordLastRun(ctx context.Context) {
	if s.cache == nil {
		return
	}
	key := s.cache.KeyBuilder.KeySchedulerLastRun()
	if err := s.cache.Set(ctx, key, s.clk.Now().Format(time.RFC3339), 0); err != nil {
		s.logger.WithError(err).Warn("Failed to record last run timestamp")
	}
}
