// Package phase holds the pure phase-timing calculations. Nothing in
// here touches the database or sends anything; the orchestrator and
// the warning passes feed it prompt/settings pairs and act on the
// answers.
package phase

import (
	"time"

	"challenge-league/internal/clock"
	"challenge-league/internal/domain"
)

// finalTolerance is the slack around the execution slot used by the
// final-hours warning check. The day-ahead check compares against the
// exact next slot instead; the two tiers run on different cadences.
const finalTolerance = time.Hour

// Duration returns the nominal length of the prompt's current phase.
// Only ACTIVE and VOTING phases have a duration.
func Duration(status domain.PromptStatus, settings domain.LeagueSettings) (time.Duration, bool) {
	switch status {
	case domain.StatusActive:
		return time.Duration(settings.SubmissionDays) * 24 * time.Hour, true
	case domain.StatusVoting:
		return time.Duration(settings.VotingDays) * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// EndTime returns when the prompt's current phase nominally ends:
// phaseStartedAt plus the phase duration. ok is false for SCHEDULED
// and COMPLETED prompts and when phaseStartedAt is unset.
func EndTime(p domain.Prompt, settings domain.LeagueSettings) (time.Time, bool) {
	d, ok := Duration(p.Status, settings)
	if !ok || p.PhaseStartedAt == nil {
		return time.Time{}, false
	}
	return p.PhaseStartedAt.Add(d), true
}

// IsExpired reports whether the phase's nominal end time has passed.
func IsExpired(clk *clock.Clock, p domain.Prompt, settings domain.LeagueSettings) bool {
	end, ok := EndTime(p, settings)
	if !ok {
		return false
	}
	return !clk.Now().Before(end)
}

// RealisticEndTime is the phase end as users will actually observe it:
// phaseStartedAt is first snapped forward to the nearest execution
// slot, since phases only advance at slot boundaries regardless of the
// nominal duration. The result always lands exactly on a slot.
func RealisticEndTime(clk *clock.Clock, p domain.Prompt, settings domain.LeagueSettings) (time.Time, bool) {
	d, ok := Duration(p.Status, settings)
	if !ok || p.PhaseStartedAt == nil {
		return time.Time{}, false
	}
	return clk.SnapForward(*p.PhaseStartedAt).Add(d), true
}

// WillExpireInNextSlot reports whether the phase's nominal end falls
// at or before the next execution slot, i.e. the next scheduler run
// will transition it. Used by the day-ahead warning tier.
func WillExpireInNextSlot(clk *clock.Clock, p domain.Prompt, settings domain.LeagueSettings) bool {
	end, ok := EndTime(p, settings)
	if !ok {
		return false
	}
	return !end.After(clk.NextSlotAfter(clk.Now()))
}

// EndsAtTodaySlot reports whether the phase's nominal end falls within
// an hour of today's execution slot. Used by the final-hours warning
// tier, which runs on its own cadence during the day the phase ends.
func EndsAtTodaySlot(clk *clock.Clock, p domain.Prompt, settings domain.LeagueSettings) bool {
	end, ok := EndTime(p, settings)
	if !ok {
		return false
	}
	slot := clk.SlotOnDay(clk.Now())
	diff := end.Sub(slot)
	if diff < 0 {
		diff = -diff
	}
	return diff <= finalTolerance
}

// SuppressDayAheadWarning reports whether the day-ahead tier should be
// skipped outright for this phase. Phases lasting a single day (or
// less) would fire the warning at the same run that started the phase,
// so only the final-hours tier applies to them.
func SuppressDayAheadWarning(p domain.Prompt, settings domain.LeagueSettings) bool {
	switch p.Status {
	case domain.StatusActive:
		return settings.SubmissionDays <= 1
	case domain.StatusVoting:
		return settings.VotingDays <= 1
	default:
		return false
	}
}
