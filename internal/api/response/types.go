package response

import (
	"time"

	"github.com/mcoot/worduel/internal/model"
)

// Accepted acknowledges a command whose results arrive on the event stream
type Accepted struct {
	Status string `json:"status"`
}

// Health is the response for the health endpoint
type Health struct {
	Status        string `json:"status"`
	UsersOnline   int    `json:"users_online"`
	ActiveMatches int    `json:"active_matches"`
	QueueSize     int    `json:"queue_size"`
}

// MatchSummary is one settled match from the caller's perspective
type MatchSummary struct {
	ID           string         `json:"id"`
	Mode         string         `json:"mode"`
	Opponent     string         `json:"opponent"`
	Won          bool           `json:"won"`
	Reason       string         `json:"reason"`
	Stake        int            `json:"stake"`
	RatingChange int            `json:"rating_change"`
	Word         string         `json:"word"`
	Scores       map[string]int `json:"scores"`
	EndedAt      time.Time      `json:"ended_at"`
}

// MatchSummaryFromModel converts a record for the given player
func MatchSummaryFromModel(r *model.MatchRecord, username string) MatchSummary {
	won := r.Winner == username
	opponent := r.Winner
	stake := -r.Stake
	delta := -r.RatingDelta
	if won {
		opponent = r.Loser
		stake = r.Stake
		delta = r.RatingDelta
	}
	return MatchSummary{
		ID:           string(r.ID),
		Mode:         string(r.Mode),
		Opponent:     opponent,
		Won:          won,
		Reason:       string(r.Reason),
		Stake:        stake,
		RatingChange: delta,
		Word:         r.Secrets[username],
		Scores:       r.Scores,
		EndedAt:      r.EndedAt,
	}
}

// MatchHistory is the response for the match history endpoint
type MatchHistory struct {
	Matches []MatchSummary `json:"matches"`
}
