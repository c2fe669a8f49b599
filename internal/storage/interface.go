package storage

import (
	"context"

	"github.com/mcoot/worduel/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, username string) (*model.Profile, error)

	// Match history operations
	SaveMatchRecord(ctx context.Context, record *model.MatchRecord) error
	GetMatchRecord(ctx context.Context, id model.MatchID) (*model.MatchRecord, error)
	// ListMatchRecords returns the most recent records involving username, newest first
	ListMatchRecords(ctx context.Context, username string, limit int) ([]*model.MatchRecord, error)

	// SettleMatch writes both settled profiles and the match record
	// together. On error none of them are written.
	SettleMatch(ctx context.Context, winner, loser *model.Profile, record *model.MatchRecord) error

	// Dictionary operations
	GetDictionaryWords(ctx context.Context, list model.WordList) ([]string, error)
	SaveDictionaryWords(ctx context.Context, list model.WordList, words []string) error

	Close() error
}
