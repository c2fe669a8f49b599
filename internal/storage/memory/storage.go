package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state
// with the store.
type Storage struct {
	mu sync.RWMutex

	profiles        map[string]model.Profile
	records         map[model.MatchID]*model.MatchRecord
	history         map[string][]model.MatchID
	dictionaryWords map[model.WordList][]string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles:        make(map[string]model.Profile),
		records:         make(map[model.MatchID]*model.MatchRecord),
		history:         make(map[string][]model.MatchID),
		dictionaryWords: make(map[model.WordList][]string),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Username] = *profile
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[username]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return &profile, nil
}

// Match history operations

func (s *Storage) SaveMatchRecord(ctx context.Context, record *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putRecord(record)
	return nil
}

func (s *Storage) SettleMatch(ctx context.Context, winner, loser *model.Profile, record *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[winner.Username] = *winner
	s.profiles[loser.Username] = *loser
	s.putRecord(record)
	return nil
}

// putRecord stores record and indexes it for both players. Callers hold mu.
func (s *Storage) putRecord(record *model.MatchRecord) {
	if _, exists := s.records[record.ID]; !exists {
		for _, username := range []string{record.Winner, record.Loser} {
			s.history[username] = append(s.history[username], record.ID)
		}
	}
	s.records[record.ID] = copyRecord(record)
}

func (s *Storage) GetMatchRecord(ctx context.Context, id model.MatchID) (*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, model.ErrMatchRecordNotFound
	}
	return copyRecord(record), nil
}

func (s *Storage) ListMatchRecords(ctx context.Context, username string, limit int) ([]*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.history[username]
	records := make([]*model.MatchRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, copyRecord(s.records[id]))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EndedAt.After(records[j].EndedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Dictionary operations

func (s *Storage) GetDictionaryWords(ctx context.Context, list model.WordList) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words, ok := s.dictionaryWords[list]
	if !ok {
		return nil, model.ErrDictionaryNotLoaded
	}
	return append([]string(nil), words...), nil
}

func (s *Storage) SaveDictionaryWords(ctx context.Context, list model.WordList, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dictionaryWords[list] = append([]string(nil), words...)
	return nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

func copyRecord(r *model.MatchRecord) *model.MatchRecord {
	c := *r
	c.Secrets = make(map[string]string, len(r.Secrets))
	for k, v := range r.Secrets {
		c.Secrets[k] = v
	}
	c.Scores = make(map[string]int, len(r.Scores))
	for k, v := range r.Scores {
		c.Scores[k] = v
	}
	return &c
}
