package matchmaking

import "github.com/mcoot/worduel/internal/model"

// Store holds waiting entries in insertion order
type Store interface {
	// Insert places entry after every entry enqueued no later than it
	Insert(entry *model.QueueEntry)
	// Remove deletes the entry for username, reporting whether one existed
	Remove(username string) bool
	Get(username string) (*model.QueueEntry, bool)
	// Entries returns the waiting entries oldest first
	Entries() []*model.QueueEntry
	Len() int
}

// MemoryStore is a slice-backed Store. It is not safe for concurrent use.
type MemoryStore struct {
	entries []*model.QueueEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Insert(entry *model.QueueEntry) {
	i := len(s.entries)
	for i > 0 && s.entries[i-1].EnqueuedAt.After(entry.EnqueuedAt) {
		i--
	}
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = entry
}

func (s *MemoryStore) Remove(username string) bool {
	for i, e := range s.entries {
		if e.Username == username {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *MemoryStore) Get(username string) (*model.QueueEntry, bool) {
	for _, e := range s.entries {
		if e.Username == username {
			return e, true
		}
	}
	return nil, false
}

func (s *MemoryStore) Entries() []*model.QueueEntry {
	return append([]*model.QueueEntry(nil), s.entries...)
}

func (s *MemoryStore) Len() int {
	return len(s.entries)
}
