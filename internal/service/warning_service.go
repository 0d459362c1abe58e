package service

import (
	"context"
	"fmt"

	"challenge-league/internal/clock"
	"challenge-league/internal/domain"
	"challenge-league/internal/phase"
	"challenge-league/internal/repository"
	"challenge-league/pkg/logger"
)

// WarningService sends the two tiers of advance deadline notifications.
// Every send is gated by a one-shot flag flipped BEFORE dispatching, so
// a crash mid-pass can drop a warning but never duplicate one.
type WarningService struct {
	clk          *clock.Clock
	leagueRepo   repository.LeagueRepository
	promptRepo   repository.PromptRepository
	responseRepo repository.ResponseRepository
	voteRepo     repository.VoteRepository
	notifier     Notifier
	logger       *logger.Logger
}

// NewWarningService creates the deadline warning service.
func NewWarningService(
	clk *clock.Clock,
	repos *repository.Repositories,
	notifier Notifier,
	log *logger.Logger,
) *WarningService {
	return &WarningService{
		clk:          clk,
		leagueRepo:   repos.League,
		promptRepo:   repos.Prompt,
		responseRepo: repos.Response,
		voteRepo:     repos.Vote,
		notifier:     notifier,
		logger:       log,
	}
}

// SendDeadlineWarnings runs the day-ahead tier: phases whose nominal
// end falls within the next execution slot, meaning the next scheduler
// run will transition them.
func (s *WarningService) SendDeadlineWarnings(ctx context.Context) (*domain.WarningReport, error) {
	report := &domain.WarningReport{}

	for _, status := range []domain.PromptStatus{domain.StatusActive, domain.StatusVoting} {
		items, err := s.promptRepo.ListForWarning(ctx, status, domain.TierDayAhead)
		if err != nil {
			return nil, fmt.Errorf("failed to list prompts for day-ahead warning: %w", err)
		}

		for _, item := range items {
			report.PromptsChecked++

			// Single-day phases only get the final-hours tier; mark so
			// they stop appearing in the scan.
			if phase.SuppressDayAheadWarning(item.Prompt, item.Settings) {
				s.markWarning(ctx, report, item.Prompt.ID, status, domain.TierDayAhead)
				continue
			}

			// An already-expired phase is about to transition, not
			// about to warn. Retire the flag without notifying.
			if phase.IsExpired(s.clk, item.Prompt, item.Settings) {
				s.markWarning(ctx, report, item.Prompt.ID, status, domain.TierDayAhead)
				continue
			}

			if !phase.WillExpireInNextSlot(s.clk, item.Prompt, item.Settings) {
				continue
			}

			applied, err := s.promptRepo.MarkWarningSent(ctx, item.Prompt.ID, status, domain.TierDayAhead)
			if err != nil {
				s.logger.WithError(err).WithField("prompt_id", item.Prompt.ID).Error("Failed to mark day-ahead warning")
				continue
			}
			if !applied {
				continue
			}
			report.FlagsMarked++

			sent := s.notifyLaggards(ctx, item, domain.TierDayAhead)
			report.UsersNotified += sent
		}
	}

	return report, nil
}

// SendFinalWarnings runs the final-hours tier: phases whose nominal end
// falls at today's execution slot. Runs on its own cadence during the
// day, so no expiry pre-check applies; the phase is supposed to still
// be open when this fires.
func (s *WarningService) SendFinalWarnings(ctx context.Context) (*domain.WarningReport, error) {
	report := &domain.WarningReport{}

	for _, status := range []domain.PromptStatus{domain.StatusActive, domain.StatusVoting} {
		items, err := s.promptRepo.ListForWarning(ctx, status, domain.TierFinal)
		if err != nil {
			return nil, fmt.Errorf("failed to list prompts for final warning: %w", err)
		}

		for _, item := range items {
			report.PromptsChecked++

			if !phase.EndsAtTodaySlot(s.clk, item.Prompt, item.Settings) {
				continue
			}

			applied, err := s.promptRepo.MarkWarningSent(ctx, item.Prompt.ID, status, domain.TierFinal)
			if err != nil {
				s.logger.WithError(err).WithField("prompt_id", item.Prompt.ID).Error("Failed to mark final warning")
				continue
			}
			if !applied {
				continue
			}
			report.FlagsMarked++

			sent := s.notifyLaggards(ctx, item, domain.TierFinal)
			report.UsersNotified += sent
		}
	}

	return report, nil
}

// markWarning retires a warning flag without notifying anyone.
func (s *WarningService) markWarning(ctx context.Context, report *domain.WarningReport, promptID int64, status domain.PromptStatus, tier domain.WarningTier) {
	applied, err := s.promptRepo.MarkWarningSent(ctx, promptID, status, tier)
	if err != nil {
		s.logger.WithError(err).WithField("prompt_id", promptID).Error("Failed to retire warning flag")
		return
	}
	if applied {
		report.FlagsMarked++
	}
}

// notifyLaggards sends the warning to members who still have work to
// do: un-submitted members during ACTIVE, under-voted members during
// VOTING. Delivery failures are logged, never raised.
func (s *WarningService) notifyLaggards(ctx context.Context, item domain.PromptWithSettings, tier domain.WarningTier) int {
	recipients, err := s.laggards(ctx, item)
	if err != nil {
		s.logger.WithError(err).WithField("prompt_id", item.Prompt.ID).Error("Failed to resolve warning recipients")
		return 0
	}
	if len(recipients) == 0 {
		return 0
	}

	payload := warningPayload(item.Prompt, tier)
	sendReport, err := s.notifier.NotifyUsers(ctx, recipients, payload)
	if err != nil {
		s.logger.WithError(err).WithField("prompt_id", item.Prompt.ID).Error("Failed to dispatch warning")
		return 0
	}

	s.logger.WithFields(map[string]interface{}{
		"prompt_id": item.Prompt.ID,
		"tier":      string(tier),
		"sent":      sendReport.Sent,
		"failed":    sendReport.Failed,
	}).Info("Deadline warning dispatched")

	return sendReport.Sent
}

// laggards resolves the members who should receive a warning for the
// prompt's current phase.
func (s *WarningService) laggards(ctx context.Context, item domain.PromptWithSettings) ([]string, error) {
	members, err := s.leagueRepo.ListActiveMemberIDs(ctx, item.Prompt.LeagueID)
	if err != nil {
		return nil, err
	}

	switch item.Prompt.Status {
	case domain.StatusActive:
		submitted, err := s.responseRepo.UserIDsWithResponse(ctx, item.Prompt.ID)
		if err != nil {
			return nil, err
		}
		done := make(map[string]bool, len(submitted))
		for _, id := range submitted {
			done[id] = true
		}

		var out []string
		for _, id := range members {
			if !done[id] {
				out = append(out, id)
			}
		}
		return out, nil

	case domain.StatusVoting:
		counts, err := s.voteRepo.CountByVoter(ctx, item.Prompt.ID)
		if err != nil {
			return nil, err
		}
		used := make(map[string]int, len(counts))
		for _, vc := range counts {
			used[vc.VoterID] = vc.Count
		}

		var out []string
		for _, id := range members {
			if used[id] < item.Settings.VotesPerPlayer {
				out = append(out, id)
			}
		}
		return out, nil

	default:
		return nil, nil
	}
}

// warningPayload builds the notification for a phase/tier pair.
func warningPayload(p domain.Prompt, tier domain.WarningTier) domain.NotificationPayload {
	var horizon string
	if tier == domain.TierFinal {
		horizon = "in a few hours"
	} else {
		horizon = "tomorrow"
	}

	switch p.Status {
	case domain.StatusVoting:
		return domain.NotificationPayload{
			Title: "Voting closes " + horizon,
			Body:  fmt.Sprintf("You still have votes left on %q", p.Text),
			Tag:   "voting-deadline",
		}
	default:
		return domain.NotificationPayload{
			Title: "Submissions close " + horizon,
			Body:  fmt.Sprintf("You haven't submitted for %q yet", p.Text),
			Tag:   "submission-deadline",
		}
	}
}
