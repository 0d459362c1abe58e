package domain

import "time"

// Response is one member's photo submission for a prompt. Responses
// stay hidden until the prompt moves to VOTING; publication is batched
// at the transition, never per submission.
type Response struct {
	ID          int64      `json:"id"`
	PromptID    int64      `json:"prompt_id"`
	UserID      string     `json:"user_id"`
	ImageKey    string     `json:"image_key"`
	Caption     string     `json:"caption"`
	SubmittedAt time.Time  `json:"submitted_at"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	TotalVotes  int        `json:"total_votes"`
	FinalRank   *int       `json:"final_rank,omitempty"`
}

// Vote is one member's vote for one response. Each (voter, response)
// pair is unique; a voter's total for a prompt is capped by the
// league's VotesPerPlayer.
type Vote struct {
	ID         int64     `json:"id"`
	PromptID   int64     `json:"prompt_id"`
	ResponseID int64     `json:"response_id"`
	VoterID    string    `json:"voter_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// VoterCount is a per-voter vote total for one prompt, used to decide
// which members still have votes left to cast.
type VoterCount struct {
	VoterID string `json:"voter_id"`
	Count   int    `json:"count"`
}
