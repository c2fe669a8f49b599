package model

import (
	"fmt"
	"time"
)

// MatchID uniquely identifies a match
type MatchID string

// Word and round limits
const (
	WordLength      = 5
	MaxGuesses      = 6
	RoundsToWin     = 2
	PlayersPerMatch = 2
)

// Status represents the lifecycle state of a match
type Status string

const (
	StatusActive        Status = "active"
	StatusBetweenRounds Status = "between_rounds"
	StatusEnded         Status = "ended"
)

// allowedTransitions lists the legal status edges per mode.
// Sprint never pauses between rounds.
var allowedTransitions = map[Mode]map[Status][]Status{
	ModeDuel: {
		StatusActive:        {StatusBetweenRounds, StatusEnded},
		StatusBetweenRounds: {StatusActive, StatusEnded},
	},
	ModeSprint: {
		StatusActive: {StatusEnded},
	},
}

// Verdict is the per-letter result of evaluating a guess
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictPresent Verdict = "present"
	VerdictAbsent  Verdict = "absent"
)

// Guess is one evaluated guess
type Guess struct {
	Word     string    `json:"word"`
	Verdicts []Verdict `json:"verdicts"`
}

// EndReason records how a match finished
type EndReason string

const (
	EndReasonRounds  EndReason = "rounds"
	EndReasonTimeout EndReason = "timeout"
	EndReasonForfeit EndReason = "forfeit"
)

// Player is one side of a match
type Player struct {
	Username string  `json:"username"`
	ConnID   ConnID  `json:"conn_id"`
	Stake    int     `json:"stake"`
	Rating   int     `json:"rating"`
	Guesses  []Guess `json:"guesses"`
	Solved   bool    `json:"solved"`
	// SolveTime is the elapsed time from match start to the solving guess
	SolveTime time.Duration `json:"solve_time"`

	// Duel
	RoundScore int `json:"round_score"`

	// Sprint
	Solves int    `json:"solves"`
	Secret string `json:"-"`
}

// ResetRound clears per-word guess state
func (p *Player) ResetRound() {
	p.Guesses = nil
	p.Solved = false
	p.SolveTime = 0
}

// Exhausted reports whether the player has used every guess without solving
func (p *Player) Exhausted() bool {
	return !p.Solved && len(p.Guesses) >= MaxGuesses
}

// Finished reports whether the player can no longer guess this round
func (p *Player) Finished() bool {
	return p.Solved || len(p.Guesses) >= MaxGuesses
}

// Match is a single wagered contest between two players
type Match struct {
	ID        MatchID                  `json:"id"`
	Mode      Mode                     `json:"mode"`
	Players   [PlayersPerMatch]*Player `json:"players"`
	Pot       int                      `json:"pot"`
	Status    Status                   `json:"status"`
	StartedAt time.Time                `json:"started_at"`
	// Generation increments on every status change so that deferred actions
	// scheduled under an earlier state can detect they are stale.
	Generation uint64 `json:"generation"`

	// Duel
	Round  int    `json:"round"`
	Secret string `json:"-"`

	// Set once the match ends
	Winner    string    `json:"winner,omitempty"`
	EndReason EndReason `json:"end_reason,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Transition moves the match to a new status and bumps the generation.
// Illegal edges leave the match untouched.
func (m *Match) Transition(to Status) error {
	for _, next := range allowedTransitions[m.Mode][m.Status] {
		if next == to {
			m.Status = to
			m.Generation++
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.Status, to)
}

// Live reports whether the match has not yet ended
func (m *Match) Live() bool {
	return m.Status == StatusActive || m.Status == StatusBetweenRounds
}

// Player returns the player with the given username
func (m *Match) Player(username string) (*Player, bool) {
	for _, p := range m.Players {
		if p.Username == username {
			return p, true
		}
	}
	return nil, false
}

// Opponent returns the other player
func (m *Match) Opponent(username string) *Player {
	if m.Players[0].Username == username {
		return m.Players[1]
	}
	return m.Players[0]
}

// SecretFor returns the word the given player is currently guessing
func (m *Match) SecretFor(p *Player) string {
	if m.Mode == ModeSprint {
		return p.Secret
	}
	return m.Secret
}

// MatchRecord is the settled summary of a finished match
type MatchRecord struct {
	ID          MatchID           `json:"id"`
	Mode        Mode              `json:"mode"`
	Winner      string            `json:"winner"`
	Loser       string            `json:"loser"`
	Stake       int               `json:"stake"`
	RatingDelta int               `json:"rating_delta"`
	Reason      EndReason         `json:"reason"`
	Secrets     map[string]string `json:"secrets"`
	Scores      map[string]int    `json:"scores"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at"`
}

// Involves reports whether username played in the match
func (r *MatchRecord) Involves(username string) bool {
	return r.Winner == username || r.Loser == username
}

// WordList names one of the dictionary lists
type WordList string

const (
	WordListTargets WordList = "targets"
	WordListAllowed WordList = "allowed"
)
