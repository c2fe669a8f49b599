package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotConnected     = errors.New("connection not found")
	ErrAlreadyConnected = errors.New("connection is bound to another player")
	ErrProfileNotFound  = errors.New("profile not found")

	// Matchmaking errors
	ErrInvalidStake        = errors.New("stake must be between 10 and 500")
	ErrInvalidMode         = errors.New("mode must be duel or sprint")
	ErrAlreadyQueued       = errors.New("player is already searching")
	ErrAlreadyInMatch      = errors.New("player is already in a match")
	ErrInsufficientBalance = errors.New("insufficient balance for stake")

	// Match errors
	ErrNoActiveMatch       = errors.New("no active match")
	ErrMatchNotActive      = errors.New("match is not accepting guesses")
	ErrAlreadySolved       = errors.New("word already solved")
	ErrNoGuessesLeft       = errors.New("no guesses left this round")
	ErrInvalidGuessLength  = errors.New("guess must be 5 letters")
	ErrUnknownWord         = errors.New("word not in dictionary")
	ErrIllegalTransition   = errors.New("illegal match status transition")
	ErrMatchRecordNotFound = errors.New("match record not found")

	// Dictionary errors
	ErrDictionaryNotLoaded = errors.New("dictionary not loaded")
	ErrEmptyTargetPool     = errors.New("target word pool is empty")

	// Process errors
	ErrInternal     = errors.New("internal error")
	ErrShuttingDown = errors.New("server is shutting down")
)

// IsValidation reports whether err is a rejection of client input that
// leaves all state unchanged.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidStake, ErrInvalidMode, ErrAlreadyQueued, ErrAlreadyInMatch,
		ErrInsufficientBalance, ErrInvalidGuessLength, ErrUnknownWord,
		ErrNoGuessesLeft, ErrAlreadyConnected,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsStaleMatch reports whether err means the command raced with a match
// that already ended or moved on. Such commands are dropped silently.
func IsStaleMatch(err error) bool {
	return errors.Is(err, ErrNoActiveMatch) ||
		errors.Is(err, ErrMatchNotActive) ||
		errors.Is(err, ErrAlreadySolved)
}
