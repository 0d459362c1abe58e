package domain

import "time"

// PromptStatus is the lifecycle state of a challenge prompt. The order
// is strict and one-directional; a prompt never regresses.
type PromptStatus string

const (
	StatusScheduled PromptStatus = "SCHEDULED"
	StatusActive    PromptStatus = "ACTIVE"
	StatusVoting    PromptStatus = "VOTING"
	StatusCompleted PromptStatus = "COMPLETED"
)

// WarningTier identifies one of the two advance-warning passes.
type WarningTier string

const (
	TierDayAhead WarningTier = "day_ahead" // fires one execution slot before the phase ends
	TierFinal    WarningTier = "final"     // fires on the day the phase ends, hours before the slot
)

// Prompt is one round of competition within a league.
//
// PhaseStartedAt marks the start of the current status and is reset on
// every transition. The four warning flags are one-shot: they only
// ever go false -> true, guaranteeing at most one notification per
// phase per tier.
type Prompt struct {
	ID         int64        `json:"id"`
	LeagueID   int64        `json:"league_id"`
	Text       string       `json:"text"`
	Status     PromptStatus `json:"status"`
	QueueOrder int          `json:"queue_order"`

	PhaseStartedAt     *time.Time `json:"phase_started_at,omitempty"`
	SubmissionEndedAt  *time.Time `json:"submission_ended_at,omitempty"`
	VotingEndedAt      *time.Time `json:"voting_ended_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	PhotoCleanedAt     *time.Time `json:"photo_cleaned_at,omitempty"`

	SubmissionWarningSent      bool `json:"submission_warning_sent"`
	VotingWarningSent          bool `json:"voting_warning_sent"`
	SubmissionFinalWarningSent bool `json:"submission_final_warning_sent"`
	VotingFinalWarningSent     bool `json:"voting_final_warning_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NextStatus returns the status that follows s. COMPLETED is absorbing.
func NextStatus(s PromptStatus) PromptStatus {
	switch s {
	case StatusScheduled:
		return StatusActive
	case StatusActive:
		return StatusVoting
	case StatusVoting:
		return StatusCompleted
	default:
		return StatusCompleted
	}
}

// PromptWithSettings pairs a prompt with its league's timing settings.
// The warning passes scan prompts across all leagues, so each row
// carries the settings it should be evaluated against.
type PromptWithSettings struct {
	Prompt   Prompt
	Settings LeagueSettings
}
