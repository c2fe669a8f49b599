// Package session verifies player tokens and tracks which connection each
// player is using.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/worduel/internal/dependencies/clock"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/storage"
)

// Claims carried by a player token
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Config holds configuration for the session directory
type Config struct {
	// Secret is the HS256 signing key for player tokens
	Secret string
	// AutoProvision creates a default profile for unknown usernames
	AutoProvision bool
}

// Directory maps tokens to profiles and players to connections
type Directory struct {
	storage       storage.Storage
	clock         clock.Clock
	secret        []byte
	autoProvision bool
	logger        *slog.Logger

	mu    sync.RWMutex
	conns map[string]model.ConnID
}

// New creates a Directory
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Directory {
	return &Directory{
		storage:       storage,
		clock:         clock,
		secret:        []byte(cfg.Secret),
		autoProvision: cfg.AutoProvision,
		logger:        logger.With(slog.String("component", "session")),
		conns:         make(map[string]model.ConnID),
	}
}

// VerifyToken checks the signature and expiry of token and returns its username
func (d *Directory) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", model.ErrNotAuthenticated
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return d.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(d.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrNotAuthenticated, err)
	}
	if claims.Username == "" {
		return "", fmt.Errorf("%w: token has no username", model.ErrNotAuthenticated)
	}
	return claims.Username, nil
}

// Authenticate verifies token and loads the player's profile, creating it if
// auto-provisioning is enabled
func (d *Directory) Authenticate(ctx context.Context, token string) (*model.Profile, error) {
	username, err := d.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	profile, err := d.Profile(ctx, username)
	if errors.Is(err, model.ErrProfileNotFound) {
		return nil, fmt.Errorf("%w: unknown player %q", model.ErrNotAuthenticated, username)
	}
	return profile, err
}

// Profile loads a player's profile. Unknown players get a default profile
// when auto-provisioning is enabled.
func (d *Directory) Profile(ctx context.Context, username string) (*model.Profile, error) {
	profile, err := d.storage.GetProfile(ctx, username)
	if err == nil || !errors.Is(err, model.ErrProfileNotFound) || !d.autoProvision {
		return profile, err
	}

	profile = model.NewProfile(username, d.clock.Now())
	if err := d.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	d.logger.Info("profile provisioned", slog.String("username", username))
	return profile, nil
}

// Register binds username to conn. A player holds one connection at a time;
// a newer connection takes over and the one it replaced is returned.
func (d *Directory) Register(username string, conn model.ConnID) (replaced model.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.conns[username]; ok && existing != conn {
		replaced = existing
	}
	d.conns[username] = conn
	return replaced
}

// Deregister unbinds username if conn still holds the slot
func (d *Directory) Deregister(username string, conn model.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conns[username] == conn {
		delete(d.conns, username)
	}
}

// Lookup returns the connection registered for username
func (d *Directory) Lookup(username string) (model.ConnID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.conns[username]
	return conn, ok
}

// Online returns the number of registered players
func (d *Directory) Online() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}
