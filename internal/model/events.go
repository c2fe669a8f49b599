package model

// Outbound event names delivered on a player's event stream
const (
	EventConnected            = "connected"
	EventAuthenticated        = "authenticated"
	EventAuthError            = "auth_error"
	EventSearching            = "searching"
	EventSearchCancelled      = "search_cancelled"
	EventMatchFound           = "match_found"
	EventMatchStart           = "match_start"
	EventGuessResult          = "guess_result"
	EventOpponentGuess        = "opponent_guess"
	EventInvalidWord          = "invalid_word"
	EventRoundEnd             = "round_end"
	EventRoundStart           = "round_start"
	EventSprintWordSolved     = "sprint_word_solved"
	EventSprintWordFailed     = "sprint_word_failed"
	EventSprintOpponentSolved = "sprint_opponent_solved"
	EventMatchEnd             = "match_end"
	EventError                = "error"
)

// ConnectedPayload is sent when a stream opens
type ConnectedPayload struct {
	ConnectionID ConnID `json:"connection_id"`
}

// ProfileView is a profile as shown to clients
type ProfileView struct {
	Username    string `json:"username"`
	Balance     int    `json:"balance"`
	Rating      int    `json:"rating"`
	Rank        Rank   `json:"rank"`
	GamesPlayed int    `json:"games_played"`
	GamesWon    int    `json:"games_won"`
}

// AuthenticatedPayload confirms the stream is bound to a profile
type AuthenticatedPayload struct {
	Profile ProfileView `json:"profile"`
}

// AuthErrorPayload reports a failed authentication
type AuthErrorPayload struct {
	Message string `json:"message"`
}

// SearchingPayload acknowledges a queued match request
type SearchingPayload struct {
	Stake     int  `json:"stake"`
	Mode      Mode `json:"mode"`
	QueueSize int  `json:"queue_size"`
}

// SearchCancelledPayload acknowledges a cancelled search
type SearchCancelledPayload struct{}

// OpponentView describes the other player
type OpponentView struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Rank     Rank   `json:"rank"`
}

// MatchFoundPayload announces a new match
type MatchFoundPayload struct {
	MatchID  MatchID      `json:"match_id"`
	Mode     Mode         `json:"mode"`
	Stake    int          `json:"stake"`
	Pot      int          `json:"pot"`
	Opponent OpponentView `json:"opponent"`
}

// MatchStartPayload reveals the recipient's word
type MatchStartPayload struct {
	MatchID    MatchID `json:"match_id"`
	Mode       Mode    `json:"mode"`
	Word       string  `json:"word"`
	Round      int     `json:"round,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
}

// GuessResultPayload is the submitter's view of an evaluated guess
type GuessResultPayload struct {
	Word        string    `json:"word"`
	Verdicts    []Verdict `json:"verdicts"`
	Solved      bool      `json:"solved"`
	GuessNumber int       `json:"guess_number"`
}

// OpponentGuessPayload is the opponent's view of an evaluated guess.
// It never carries the guessed letters.
type OpponentGuessPayload struct {
	Verdicts    []Verdict `json:"verdicts"`
	Solved      bool      `json:"solved"`
	GuessNumber int       `json:"guess_number"`
}

// InvalidWordPayload reports a guess missing from the dictionary
type InvalidWordPayload struct {
	Word string `json:"word"`
}

// Scoreboard is a duel score from the recipient's perspective
type Scoreboard struct {
	You      int `json:"you"`
	Opponent int `json:"opponent"`
}

// RoundEndPayload closes a duel round
type RoundEndPayload struct {
	Round      int        `json:"round"`
	Won        bool       `json:"won"`
	Draw       bool       `json:"draw"`
	Scores     Scoreboard `json:"scores"`
	TargetWord string     `json:"target_word"`
}

// RoundStartPayload opens the next duel round
type RoundStartPayload struct {
	Round  int        `json:"round"`
	Word   string     `json:"word"`
	Scores Scoreboard `json:"scores"`
}

// SprintWordSolvedPayload is sent to a sprint player who solved their word
type SprintWordSolvedPayload struct {
	SolvedWord     string `json:"solved_word"`
	Word           string `json:"word"`
	Solves         int    `json:"solves"`
	OpponentSolves int    `json:"opponent_solves"`
}

// SprintWordFailedPayload is sent when a sprint word is exhausted unsolved
type SprintWordFailedPayload struct {
	FailedWord string `json:"failed_word"`
	Word       string `json:"word"`
}

// SprintOpponentSolvedPayload tells a sprint player their opponent solved a word
type SprintOpponentSolvedPayload struct {
	Solves         int `json:"solves"`
	OpponentSolves int `json:"opponent_solves"`
}

// MatchEndPayload reports the settled outcome to one player
type MatchEndPayload struct {
	MatchID      MatchID     `json:"match_id"`
	Won          bool        `json:"won"`
	Reason       EndReason   `json:"reason"`
	TargetWord   string      `json:"target_word"`
	Winnings     int         `json:"winnings"`
	RatingChange int         `json:"rating_change"`
	NewRating    int         `json:"new_rating"`
	NewRank      Rank        `json:"new_rank"`
	NewBalance   int         `json:"new_balance"`
	Solves       int         `json:"solves,omitempty"`
	Scores       *Scoreboard `json:"scores,omitempty"`
}

// ErrorPayload reports an asynchronous failure
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
