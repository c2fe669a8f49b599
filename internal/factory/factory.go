package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/worduel/internal/api"
	"github.com/mcoot/worduel/internal/api/sse"
	"github.com/mcoot/worduel/internal/dependencies/clock"
	"github.com/mcoot/worduel/internal/dependencies/random"
	"github.com/mcoot/worduel/internal/services/coordinator"
	"github.com/mcoot/worduel/internal/services/dictionary"
	"github.com/mcoot/worduel/internal/services/match"
	"github.com/mcoot/worduel/internal/services/matchmaking"
	"github.com/mcoot/worduel/internal/services/session"
	"github.com/mcoot/worduel/internal/storage"
	"github.com/mcoot/worduel/internal/storage/memory"
	pgstorage "github.com/mcoot/worduel/internal/storage/postgres"
	redisstorage "github.com/mcoot/worduel/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Dictionary  *dictionary.Service
	Sessions    *session.Directory
	Queue       *matchmaking.Queue
	Engine      *match.Engine
	Coordinator *coordinator.Coordinator

	// Transport
	Hub    *sse.Hub
	Router http.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *pgstorage.Config

	// Session configures token verification. Secret is required.
	Session session.Config
	// Match holds match timings (optional)
	// If zero value, defaults to match.DefaultConfig()
	Match match.Config
	// Coordinator tunes the command loop (optional)
	Coordinator coordinator.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.Session.Secret == "" {
		return nil, errors.New("session secret is required")
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	matchCfg := cfg.Match
	if matchCfg == (match.Config{}) {
		matchCfg = match.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg.Session, matchCfg, cfg.Coordinator, logger), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		return pgstorage.New(ctx, *cfg.PostgresConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sessionCfg session.Config,
	matchCfg match.Config,
	coordinatorCfg coordinator.Config,
	logger *slog.Logger,
) *App {
	hub := sse.NewHub(logger)
	dict := dictionary.New(store, logger)
	sessions := session.New(store, clk, sessionCfg, logger)
	queue := matchmaking.New(matchmaking.NewMemoryStore(), logger)
	engine := match.NewEngine(store, dict, hub, clk, rnd, matchCfg, logger)
	coord := coordinator.New(sessions, queue, engine, store, hub, clk, coordinatorCfg, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Coordinator: coord,
		Sessions:    sessions,
		Hub:         hub,
		Random:      rnd,
	})

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Dictionary:  dict,
		Sessions:    sessions,
		Queue:       queue,
		Engine:      engine,
		Coordinator: coord,
		Hub:         hub,
		Router:      router,
		logger:      logger,
	}
}

// LoadDictionary loads the word lists from the configured files, storage or
// the embedded defaults, in that order
func (a *App) LoadDictionary(ctx context.Context, targetsPath, allowedPath string) error {
	return a.Dictionary.Load(ctx, targetsPath, allowedPath)
}

// Run processes coordinator commands until ctx is cancelled
func (a *App) Run(ctx context.Context) {
	a.Coordinator.Run(ctx)
}

// Close ends open event streams and releases storage. Streams are closed
// first so that HTTP shutdown does not wait on them.
func (a *App) Close() error {
	a.Hub.Close()
	if err := a.Storage.Close(); err != nil {
		a.logger.Warn("failed to close storage", slog.String("error", err.Error()))
		return err
	}
	return nil
}
