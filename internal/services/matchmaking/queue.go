// Package matchmaking pairs players who want the same stake and mode and
// whose ratings are close enough.
package matchmaking

import (
	"log/slog"

	"github.com/mcoot/worduel/internal/model"
)

// Queue pairs entries first-fit in arrival order
type Queue struct {
	store  Store
	logger *slog.Logger
}

// New creates a Queue over the given store
func New(store Store, logger *slog.Logger) *Queue {
	return &Queue{
		store:  store,
		logger: logger.With(slog.String("component", "matchmaking")),
	}
}

// Validate checks the stake and mode of a request
func Validate(stake int, mode model.Mode) error {
	if stake < model.MinStake || stake > model.MaxStake {
		return model.ErrInvalidStake
	}
	if !mode.Valid() {
		return model.ErrInvalidMode
	}
	return nil
}

// Enqueue pairs entry with the oldest compatible waiting entry, or appends it
// to the queue if there is none. A candidate is compatible when it has the
// same stake and mode and its rating lies within entry's band; the
// candidate's own band is not consulted.
//
// On a pairing both entries are out of the queue when Enqueue returns.
func (q *Queue) Enqueue(entry *model.QueueEntry) (*model.Pairing, error) {
	if err := Validate(entry.Stake, entry.Mode); err != nil {
		return nil, err
	}
	if _, queued := q.store.Get(entry.Username); queued {
		return nil, model.ErrAlreadyQueued
	}

	for _, candidate := range q.store.Entries() {
		if candidate.Stake != entry.Stake || candidate.Mode != entry.Mode {
			continue
		}
		if !entry.Accepts(candidate) {
			continue
		}

		q.store.Remove(candidate.Username)
		q.logger.Info("players paired",
			slog.String("waiting", candidate.Username),
			slog.String("requester", entry.Username),
			slog.String("mode", string(entry.Mode)),
			slog.Int("stake", entry.Stake),
		)
		return &model.Pairing{First: entry, Second: candidate}, nil
	}

	q.store.Insert(entry)
	q.logger.Info("player queued",
		slog.String("username", entry.Username),
		slog.String("mode", string(entry.Mode)),
		slog.Int("stake", entry.Stake),
		slog.Int("rating", entry.Rating),
		slog.Int("queue_size", q.store.Len()),
	)
	return nil, nil
}

// Restore puts a waiting entry taken by a pairing back in its original place
func (q *Queue) Restore(entry *model.QueueEntry) {
	if _, queued := q.store.Get(entry.Username); queued {
		return
	}
	q.store.Insert(entry)
	q.logger.Info("player requeued", slog.String("username", entry.Username))
}

// Rebind points username's waiting entry at conn
func (q *Queue) Rebind(username string, conn model.ConnID) {
	if entry, ok := q.store.Get(username); ok {
		entry.ConnID = conn
	}
}

// Cancel removes username from the queue. It is a no-op if absent.
func (q *Queue) Cancel(username string) bool {
	removed := q.store.Remove(username)
	if removed {
		q.logger.Info("search cancelled", slog.String("username", username))
	}
	return removed
}

// Contains reports whether username is waiting
func (q *Queue) Contains(username string) bool {
	_, ok := q.store.Get(username)
	return ok
}

// Len returns the number of waiting players
func (q *Queue) Len() int {
	return q.store.Len()
}
