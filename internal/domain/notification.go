package domain

import "time"

// NotificationPayload is the message handed to the notification
// dispatcher. Transport is the push worker's concern, not ours.
type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	URL   string `json:"url,omitempty"`
}

// SendReport counts the outcome of a dispatch attempt. Unreachable
// destinations are tolerated; the scheduler only logs the counts.
type SendReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// TransitionResult is the structured outcome of a manual transition
// request. Precondition violations (nothing to transition, prompt
// already completed) are reported here rather than as errors, since an
// admin-facing caller surfaces the reason directly.
type TransitionResult struct {
	OK     bool   `json:"ok"`
	Action string `json:"action,omitempty"` // voting_opened | completed | activated
	Prompt string `json:"prompt,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Manual transition actions.
const (
	ActionVotingOpened = "voting_opened"
	ActionCompleted    = "completed"
	ActionActivated    = "activated"
)

// LeagueFailure records one league's processing error in a batch pass.
// One league's failure never blocks the others.
type LeagueFailure struct {
	LeagueID int64  `json:"league_id"`
	Error    string `json:"error"`
}

// BatchReport summarizes one scheduler pass across all leagues.
type BatchReport struct {
	StartedAt     time.Time       `json:"started_at"`
	Processed     int             `json:"processed"`
	Transitioned  int             `json:"transitioned"`
	PhotosRemoved int             `json:"photos_removed"`
	Failures      []LeagueFailure `json:"failures,omitempty"`
}

// WarningReport summarizes one warning pass.
type WarningReport struct {
	PromptsChecked int `json:"prompts_checked"`
	UsersNotified  int `json:"users_notified"`
	FlagsMarked    int `json:"flags_marked"`
}
