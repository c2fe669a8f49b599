// Package match runs duel and sprint matches from creation to settlement.
//
// An Engine is not safe for concurrent use. Every method, and every deferred
// action it schedules, must run on the same goroutine; Dispatcher is how
// timer callbacks get back onto it.
package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/worduel/internal/dependencies/clock"
	"github.com/mcoot/worduel/internal/dependencies/random"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/services/rating"
	"github.com/mcoot/worduel/internal/storage"
)

// Notifier delivers an event to one connection without blocking
type Notifier interface {
	Notify(conn model.ConnID, event string, payload any)
}

// Words is the slice of the dictionary the engine needs
type Words interface {
	IsValidWord(word string) bool
	RandomTarget(rnd random.Random) (string, error)
}

// Dispatcher runs fn on the engine's goroutine
type Dispatcher func(fn func())

// Config holds match timings
type Config struct {
	RevealDelay       time.Duration
	IntermissionDelay time.Duration
	DecisiveDelay     time.Duration
	SprintDuration    time.Duration
	Retention         time.Duration
	StoreTimeout      time.Duration
}

// DefaultConfig returns the standard timings
func DefaultConfig() Config {
	return Config{
		RevealDelay:       time.Second,
		IntermissionDelay: 3500 * time.Millisecond,
		DecisiveDelay:     4 * time.Second,
		SprintDuration:    5 * time.Minute,
		Retention:         5 * time.Second,
		StoreTimeout:      5 * time.Second,
	}
}

// Engine owns the match table and all match timers
type Engine struct {
	storage  storage.Storage
	words    Words
	notifier Notifier
	clock    clock.Clock
	random   random.Random
	cfg      Config
	logger   *slog.Logger

	dispatch Dispatcher
	table    *Table
	timers   map[model.MatchID][]clock.Timer
	// sprint deadlines, for reporting remaining time
	deadlines map[model.MatchID]time.Time
}

// NewEngine creates an Engine. Timer callbacks run inline until
// SetDispatcher is called.
func NewEngine(
	store storage.Storage,
	words Words,
	notifier Notifier,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		storage:   store,
		words:     words,
		notifier:  notifier,
		clock:     clk,
		random:    rnd,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "match")),
		dispatch:  func(fn func()) { fn() },
		table:     NewTable(),
		timers:    make(map[model.MatchID][]clock.Timer),
		deadlines: make(map[model.MatchID]time.Time),
	}
}

// SetDispatcher routes timer callbacks through d
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatch = d
}

// CreateMatch starts a match for a pairing. Both entries must already be out
// of the matchmaking queue.
func (e *Engine) CreateMatch(ctx context.Context, pairing *model.Pairing) (*model.Match, error) {
	now := e.clock.Now()
	first, second := pairing.First, pairing.Second

	m := &model.Match{
		ID:        model.MatchID(e.random.UUID()),
		Mode:      first.Mode,
		Pot:       first.Stake + second.Stake,
		Status:    model.StatusActive,
		StartedAt: now,
		Round:     1,
	}
	for i, entry := range []*model.QueueEntry{first, second} {
		m.Players[i] = &model.Player{
			Username: entry.Username,
			ConnID:   entry.ConnID,
			Stake:    entry.Stake,
			Rating:   entry.Rating,
		}
	}

	if m.Mode == model.ModeSprint {
		for _, p := range m.Players {
			secret, err := e.words.RandomTarget(e.random)
			if err != nil {
				return nil, err
			}
			p.Secret = secret
		}
	} else {
		secret, err := e.words.RandomTarget(e.random)
		if err != nil {
			return nil, err
		}
		m.Secret = secret
	}

	e.table.Put(m)

	for _, p := range m.Players {
		opp := m.Opponent(p.Username)
		e.notify(p, model.EventMatchFound, model.MatchFoundPayload{
			MatchID: m.ID,
			Mode:    m.Mode,
			Stake:   p.Stake,
			Pot:     m.Pot,
			Opponent: model.OpponentView{
				Username: opp.Username,
				Rating:   opp.Rating,
				Rank:     rating.RankFor(opp.Rating),
			},
		})
	}

	e.schedule(m, e.cfg.RevealDelay, e.reveal)
	if m.Mode == model.ModeSprint {
		e.deadlines[m.ID] = now.Add(e.cfg.SprintDuration)
		e.schedule(m, e.cfg.SprintDuration, e.sprintTimeout)
	}

	e.logger.Info("match created",
		slog.String("match_id", string(m.ID)),
		slog.String("mode", string(m.Mode)),
		slog.String("player_one", first.Username),
		slog.String("player_two", second.Username),
		slog.Int("pot", m.Pot),
	)

	return m, nil
}

// MatchFor returns the live match username is playing in
func (e *Engine) MatchFor(username string) (*model.Match, bool) {
	m, ok := e.table.ForUser(username)
	if !ok || !m.Live() {
		return nil, false
	}
	return m, true
}

// Rebind points username's seat in their live match at conn
func (e *Engine) Rebind(username string, conn model.ConnID) {
	m, ok := e.MatchFor(username)
	if !ok {
		return
	}
	if p, ok := m.Player(username); ok {
		p.ConnID = conn
	}
}

// Get returns a held match by id, including ended matches awaiting purge
func (e *Engine) Get(id model.MatchID) (*model.Match, bool) {
	return e.table.Get(id)
}

// ActiveCount returns the number of live matches
func (e *Engine) ActiveCount() int {
	return e.table.Live()
}

// Forfeit ends username's live match in favour of the opponent
func (e *Engine) Forfeit(ctx context.Context, username string) error {
	m, ok := e.table.ForUser(username)
	if !ok {
		return model.ErrNoActiveMatch
	}
	if !m.Live() {
		return model.ErrMatchNotActive
	}

	e.logger.Info("player forfeited",
		slog.String("match_id", string(m.ID)),
		slog.String("username", username),
	)
	return e.end(ctx, m, m.Opponent(username).Username, model.EndReasonForfeit)
}

// schedule arms a deferred action bound to m's current generation. When it
// fires the action runs through the dispatcher, and only if the match is
// still held and its generation is unchanged.
func (e *Engine) schedule(m *model.Match, d time.Duration, action func(context.Context, *model.Match)) {
	id, gen := m.ID, m.Generation
	timer := e.clock.AfterFunc(d, func() {
		e.dispatch(func() {
			current, ok := e.table.Get(id)
			if !ok || current.Generation != gen {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StoreTimeout)
			defer cancel()
			action(ctx, current)
		})
	})
	e.timers[id] = append(e.timers[id], timer)
}

// disarm stops every pending timer for the match
func (e *Engine) disarm(id model.MatchID) {
	for _, t := range e.timers[id] {
		t.Stop()
	}
	delete(e.timers, id)
}

func (e *Engine) reveal(_ context.Context, m *model.Match) {
	if m.Status != model.StatusActive {
		return
	}
	for _, p := range m.Players {
		payload := model.MatchStartPayload{
			MatchID: m.ID,
			Mode:    m.Mode,
			Word:    m.SecretFor(p),
		}
		if m.Mode == model.ModeSprint {
			payload.DurationMs = e.deadlines[m.ID].Sub(e.clock.Now()).Milliseconds()
		} else {
			payload.Round = m.Round
		}
		e.notify(p, model.EventMatchStart, payload)
	}
}

func (e *Engine) sprintTimeout(ctx context.Context, m *model.Match) {
	if !m.Live() {
		return
	}
	if err := e.end(ctx, m, "", model.EndReasonTimeout); err != nil {
		e.logger.Error("failed to end sprint",
			slog.String("match_id", string(m.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) purge(_ context.Context, m *model.Match) {
	e.table.Delete(m.ID)
	delete(e.timers, m.ID)
	delete(e.deadlines, m.ID)
	e.logger.Debug("match purged", slog.String("match_id", string(m.ID)))
}

func (e *Engine) notify(p *model.Player, event string, payload any) {
	e.notifier.Notify(p.ConnID, event, payload)
}

// drawSecret picks a new word, keeping current if the pool cannot supply one
func (e *Engine) drawSecret(m *model.Match, current string) string {
	secret, err := e.words.RandomTarget(e.random)
	if err != nil {
		e.logger.Warn("failed to draw word, reusing previous",
			slog.String("match_id", string(m.ID)),
			slog.String("error", err.Error()),
		)
		return current
	}
	return secret
}

func scoreboard(m *model.Match, p *model.Player) model.Scoreboard {
	return model.Scoreboard{
		You:      p.RoundScore,
		Opponent: m.Opponent(p.Username).RoundScore,
	}
}
