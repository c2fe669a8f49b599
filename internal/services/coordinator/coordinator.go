// Package coordinator serialises every player command and match timer onto
// a single goroutine that owns the queue, the match engine and the
// connection table.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/worduel/internal/dependencies/clock"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/services/match"
	"github.com/mcoot/worduel/internal/services/matchmaking"
	"github.com/mcoot/worduel/internal/services/rating"
	"github.com/mcoot/worduel/internal/services/session"
	"github.com/mcoot/worduel/internal/storage"
)

const tracerName = "github.com/mcoot/worduel/internal/services/coordinator"

// Config holds configuration for the coordinator
type Config struct {
	// CommandBuffer is the capacity of the inbound command channel
	CommandBuffer int
	// StoreTimeout bounds each command's storage calls
	StoreTimeout time.Duration
}

// DefaultConfig returns default coordinator configuration
func DefaultConfig() Config {
	return Config{
		CommandBuffer: 256,
		StoreTimeout:  5 * time.Second,
	}
}

// Caller identifies who issued a command. Conn may be empty, in which case
// the connection registered for Username is used.
type Caller struct {
	Conn     model.ConnID
	Username string
}

// Stats is a snapshot for health reporting
type Stats struct {
	UsersOnline   int `json:"users_online"`
	ActiveMatches int `json:"active_matches"`
	QueueSize     int `json:"queue_size"`
}

// Coordinator runs the event loop
type Coordinator struct {
	sessions *session.Directory
	queue    *matchmaking.Queue
	engine   *match.Engine
	storage  storage.Storage
	notifier match.Notifier
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer

	cmds chan func()
	done chan struct{}

	// conn id -> username, empty until authenticated. Loop only.
	conns map[model.ConnID]string
}

// New creates a Coordinator and routes the engine's timers through it
func New(
	sessions *session.Directory,
	queue *matchmaking.Queue,
	engine *match.Engine,
	storage storage.Storage,
	notifier match.Notifier,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultConfig().CommandBuffer
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}
	c := &Coordinator{
		sessions: sessions,
		queue:    queue,
		engine:   engine,
		storage:  storage,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "coordinator")),
		tracer:   otel.Tracer(tracerName),
		cmds:     make(chan func(), cfg.CommandBuffer),
		done:     make(chan struct{}),
		conns:    make(map[model.ConnID]string),
	}
	engine.SetDispatcher(c.post)
	return c
}

// Run processes commands until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("coordinator started")
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped")
			return
		case cmd := <-c.cmds:
			cmd()
		}
	}
}

// Done is closed once Run has returned
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// post queues fn from outside a command, such as a timer goroutine
func (c *Coordinator) post(fn func()) {
	task := func() {
		if err := c.safely("timer", func() error { fn(); return nil }); err != nil {
			c.logger.Error("timer task failed", slog.String("error", err.Error()))
		}
	}
	select {
	case c.cmds <- task:
	case <-c.done:
	}
}

// do runs fn on the loop and waits for its result. Errors from commands that
// raced with a finished match are dropped.
func (c *Coordinator) do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "coordinator."+name)
	defer span.End()

	reply := make(chan error, 1)
	cmd := func() {
		// Commands always run to completion once started
		cmdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.StoreTimeout)
		defer cancel()
		reply <- c.safely(name, func() error { return fn(cmdCtx) })
	}

	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return model.ErrShuttingDown
	}

	var err error
	select {
	case err = <-reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return model.ErrShuttingDown
	}

	if model.IsStaleMatch(err) {
		c.logger.Debug("stale command dropped",
			slog.String("command", name),
			slog.String("reason", err.Error()),
		)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		if !model.IsValidation(err) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	return err
}

// safely runs fn, converting a panic into ErrInternal
func (c *Coordinator) safely(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in coordinator",
				slog.String("command", name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = model.ErrInternal
		}
	}()
	return fn()
}

// resolve finds the caller's authenticated connection. Loop only.
func (c *Coordinator) resolve(caller Caller) (model.ConnID, string, error) {
	conn := caller.Conn
	if conn == "" {
		registered, ok := c.sessions.Lookup(caller.Username)
		if !ok {
			return "", "", model.ErrNotConnected
		}
		conn = registered
	}

	username, ok := c.conns[conn]
	if !ok {
		return "", "", model.ErrNotConnected
	}
	if username == "" {
		return "", "", model.ErrNotAuthenticated
	}
	if caller.Username != "" && caller.Username != username {
		return "", "", model.ErrNotConnected
	}
	return conn, username, nil
}

// Connect records a new, unauthenticated connection and greets it
func (c *Coordinator) Connect(ctx context.Context, conn model.ConnID) error {
	return c.do(ctx, "connect", func(ctx context.Context) error {
		if _, ok := c.conns[conn]; !ok {
			c.conns[conn] = ""
		}
		c.notifier.Notify(conn, model.EventConnected, model.ConnectedPayload{ConnectionID: conn})
		return nil
	})
}

// Authenticate binds conn to the player named in token
func (c *Coordinator) Authenticate(ctx context.Context, conn model.ConnID, token string) (*model.ProfileView, error) {
	var view *model.ProfileView
	err := c.do(ctx, "authenticate", func(ctx context.Context) error {
		current, ok := c.conns[conn]
		if !ok {
			return model.ErrNotConnected
		}

		profile, err := c.sessions.Authenticate(ctx, token)
		if err != nil {
			c.notifier.Notify(conn, model.EventAuthError, model.AuthErrorPayload{Message: authMessage(err)})
			return err
		}
		if current != "" && current != profile.Username {
			c.notifier.Notify(conn, model.EventAuthError, model.AuthErrorPayload{Message: "connection already authenticated"})
			return model.ErrAlreadyConnected
		}
		if replaced := c.sessions.Register(profile.Username, conn); replaced != "" {
			c.takeOver(profile.Username, replaced, conn)
		}
		c.conns[conn] = profile.Username

		v := rating.View(profile)
		view = &v
		c.notifier.Notify(conn, model.EventAuthenticated, model.AuthenticatedPayload{Profile: v})
		c.logger.Info("player authenticated",
			slog.String("username", profile.Username),
			slog.String("conn_id", string(conn)),
		)
		return nil
	})
	return view, err
}

// takeOver moves username's queue entry and match seat from the replaced
// connection to conn. The replaced connection stays open but unbound.
func (c *Coordinator) takeOver(username string, replaced, conn model.ConnID) {
	delete(c.conns, replaced)
	c.queue.Rebind(username, conn)
	c.engine.Rebind(username, conn)
	c.notifier.Notify(replaced, model.EventError, model.ErrorPayload{
		Code:    "SESSION_REPLACED",
		Message: "signed in from another connection",
	})
	c.logger.Info("connection replaced",
		slog.String("username", username),
		slog.String("old_conn_id", string(replaced)),
		slog.String("conn_id", string(conn)),
	)
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return "invalid or expired token"
	default:
		return "authentication failed"
	}
}

// FindMatch queues the caller, starting a match if an opponent is waiting
func (c *Coordinator) FindMatch(ctx context.Context, caller Caller, stake int, mode model.Mode) error {
	return c.do(ctx, "find_match", func(ctx context.Context) error {
		conn, username, err := c.resolve(caller)
		if err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("username", username),
			attribute.String("mode", string(mode)),
			attribute.Int("stake", stake),
		)

		if err := matchmaking.Validate(stake, mode); err != nil {
			return err
		}
		if c.queue.Contains(username) {
			return model.ErrAlreadyQueued
		}
		if _, inMatch := c.engine.MatchFor(username); inMatch {
			return model.ErrAlreadyInMatch
		}

		profile, err := c.sessions.Profile(ctx, username)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		if profile.Balance < stake {
			return model.ErrInsufficientBalance
		}

		entry := model.NewQueueEntry(username, conn, stake, mode, profile.Rating, c.clock.Now())
		pairing, err := c.queue.Enqueue(entry)
		if err != nil {
			return err
		}
		if pairing == nil {
			c.notifier.Notify(conn, model.EventSearching, model.SearchingPayload{
				Stake:     stake,
				Mode:      mode,
				QueueSize: c.queue.Len(),
			})
			return nil
		}

		if _, err := c.engine.CreateMatch(ctx, pairing); err != nil {
			c.queue.Restore(pairing.Second)
			c.notifier.Notify(pairing.First.ConnID, model.EventError, model.ErrorPayload{
				Code:    "MATCH_CREATE_FAILED",
				Message: "could not start match",
			})
			return fmt.Errorf("creating match: %w", err)
		}
		return nil
	})
}

// SubmitGuess forwards a guess to the caller's match
func (c *Coordinator) SubmitGuess(ctx context.Context, caller Caller, word string) error {
	return c.do(ctx, "submit_guess", func(ctx context.Context) error {
		_, username, err := c.resolve(caller)
		if err != nil {
			return err
		}
		return c.engine.SubmitGuess(ctx, username, word)
	})
}

// CancelSearch takes the caller out of the queue. It is a no-op if they are
// not searching.
func (c *Coordinator) CancelSearch(ctx context.Context, caller Caller) error {
	return c.do(ctx, "cancel_search", func(ctx context.Context) error {
		conn, username, err := c.resolve(caller)
		if err != nil {
			return err
		}
		if c.queue.Cancel(username) {
			c.notifier.Notify(conn, model.EventSearchCancelled, model.SearchCancelledPayload{})
		}
		return nil
	})
}

// Disconnect tears down conn: the player leaves the queue and forfeits any
// live match
func (c *Coordinator) Disconnect(ctx context.Context, conn model.ConnID) error {
	return c.do(ctx, "disconnect", func(ctx context.Context) error {
		username, ok := c.conns[conn]
		delete(c.conns, conn)
		if !ok || username == "" {
			return nil
		}
		if owner, ok := c.sessions.Lookup(username); !ok || owner != conn {
			return nil
		}

		c.queue.Cancel(username)
		if err := c.engine.Forfeit(ctx, username); err != nil && !model.IsStaleMatch(err) {
			c.logger.Error("forfeit on disconnect failed",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		c.sessions.Deregister(username, conn)

		c.logger.Info("player disconnected",
			slog.String("username", username),
			slog.String("conn_id", string(conn)),
		)
		return nil
	})
}

// Profile returns a player's profile as the loop currently sees it
func (c *Coordinator) Profile(ctx context.Context, username string) (*model.ProfileView, error) {
	var view *model.ProfileView
	err := c.do(ctx, "profile", func(ctx context.Context) error {
		profile, err := c.sessions.Profile(ctx, username)
		if err != nil {
			return err
		}
		v := rating.View(profile)
		view = &v
		return nil
	})
	return view, err
}

// MatchHistory returns username's most recent settled matches, newest first.
// Records are immutable once written so this does not use the loop.
func (c *Coordinator) MatchHistory(ctx context.Context, username string, limit int) ([]*model.MatchRecord, error) {
	return c.storage.ListMatchRecords(ctx, username, limit)
}

// Stats reports online players, live matches and queue length
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.do(ctx, "stats", func(context.Context) error {
		stats = Stats{
			UsersOnline:   c.sessions.Online(),
			ActiveMatches: c.engine.ActiveCount(),
			QueueSize:     c.queue.Len(),
		}
		return nil
	})
	return stats, err
}
