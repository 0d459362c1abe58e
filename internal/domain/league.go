package domain

import "time"

// LeagueSettings are the per-league timing knobs the scheduler reads.
type LeagueSettings struct {
	SubmissionDays int `json:"submission_days"`
	VotingDays     int `json:"voting_days"`
	VotesPerPlayer int `json:"votes_per_player"`
}

// League is a group of members competing together. The scheduler only
// touches leagues that are both active and started.
type League struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	IsActive  bool           `json:"is_active"`
	IsStarted bool           `json:"is_started"`
	Settings  LeagueSettings `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LeagueMember links a user to a league. IsActive distinguishes
// current members from those who left; inactive members are never
// counted when computing who still needs to act.
type LeagueMember struct {
	LeagueID int64     `json:"league_id"`
	UserID   string    `json:"user_id"`
	IsAdmin  bool      `json:"is_admin"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}
