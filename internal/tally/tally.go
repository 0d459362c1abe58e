// Package tally computes final vote totals and rankings for a
// completed voting phase.
package tally

import (
	"sort"

	"challenge-league/internal/domain"
)

// Result is one response's final placement.
type Result struct {
	ResponseID int64
	TotalVotes int
	FinalRank  int
}

// Rank assigns every response its vote total and a distinct 1-based
// rank. Vote count is the primary key, descending; earlier submission
// time breaks ties, favoring members who submitted promptly. The sort
// is stable over the caller's ordering, so recomputing with the same
// inputs yields the same ranks.
func Rank(responses []domain.Response, votesByResponse map[int64]int) []Result {
	ranked := make([]domain.Response, len(responses))
	copy(ranked, responses)

	for i := range ranked {
		ranked[i].TotalVotes = votesByResponse[ranked[i].ID]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalVotes != ranked[j].TotalVotes {
			return ranked[i].TotalVotes > ranked[j].TotalVotes
		}
		return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
	})

	results := make([]Result, len(ranked))
	for i, r := range ranked {
		results[i] = Result{
			ResponseID: r.ID,
			TotalVotes: r.TotalVotes,
			FinalRank:  i + 1,
		}
	}
	return results
}
