package request

// ConnectionHeader names the event stream a command is issued for
const ConnectionHeader = "X-Connection-ID"

// FindMatchRequest is the request body for starting a search
type FindMatchRequest struct {
	Stake int    `json:"stake"`
	Mode  string `json:"mode"`
}

// GuessRequest is the request body for submitting a guess
type GuessRequest struct {
	Word string `json:"word"`
}
