package model

import "time"

// Mode selects the match rules
type Mode string

const (
	ModeDuel   Mode = "duel"
	ModeSprint Mode = "sprint"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeDuel || m == ModeSprint
}

// Stake bounds and the matchmaking rating band
const (
	MinStake   = 10
	MaxStake   = 500
	RatingBand = 200
)

// ConnID identifies one open event stream
type ConnID string

// QueueEntry is a player waiting for an opponent
type QueueEntry struct {
	Username   string    `json:"username"`
	ConnID     ConnID    `json:"conn_id"`
	Stake      int       `json:"stake"`
	Mode       Mode      `json:"mode"`
	Rating     int       `json:"rating"`
	MinRating  int       `json:"min_rating"`
	MaxRating  int       `json:"max_rating"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewQueueEntry builds an entry with the band centred on rating
func NewQueueEntry(username string, conn ConnID, stake int, mode Mode, rating int, now time.Time) *QueueEntry {
	return &QueueEntry{
		Username:   username,
		ConnID:     conn,
		Stake:      stake,
		Mode:       mode,
		Rating:     rating,
		MinRating:  rating - RatingBand,
		MaxRating:  rating + RatingBand,
		EnqueuedAt: now,
	}
}

// Accepts reports whether other's rating falls within this entry's band
func (e *QueueEntry) Accepts(other *QueueEntry) bool {
	return other.Rating >= e.MinRating && other.Rating <= e.MaxRating
}

// Pairing is two queue entries removed from the queue together.
// First is the requester whose search completed the pairing and Second is
// the player who was already waiting. First is the first-listed player of
// the resulting match.
type Pairing struct {
	First  *QueueEntry
	Second *QueueEntry
}
