package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/storage"
)

// Config holds Postgres connection settings
type Config struct {
	// URL is a postgres:// connection string
	URL string
	// Migrate applies embedded schema migrations on startup
	Migrate bool
}

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to Postgres, optionally migrating the schema first
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Migrate {
		if err := RunMigrations(cfg.URL); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// Close closes the connection pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.Storage = (*Storage)(nil)

// withTransaction runs fn in a transaction, rolling back if it fails
func (s *Storage) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, p *model.Profile) error {
	return upsertProfile(ctx, s.pool, p)
}

func upsertProfile(ctx context.Context, db execer, p *model.Profile) error {
	const query = `
		INSERT INTO profiles (username, balance, rating, games_played, games_won, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO UPDATE SET
			balance = EXCLUDED.balance,
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			games_won = EXCLUDED.games_won,
			updated_at = EXCLUDED.updated_at`

	_, err := db.Exec(ctx, query,
		p.Username, p.Balance, p.Rating, p.GamesPlayed, p.GamesWon, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	const query = `
		SELECT username, balance, rating, games_played, games_won, created_at, updated_at
		FROM profiles
		WHERE username = $1`

	var p model.Profile
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&p.Username, &p.Balance, &p.Rating, &p.GamesPlayed, &p.GamesWon, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// Match history operations

const recordColumns = `id, mode, winner, loser, stake, rating_delta, reason, secrets, scores, started_at, ended_at`

func (s *Storage) SaveMatchRecord(ctx context.Context, r *model.MatchRecord) error {
	return upsertRecord(ctx, s.pool, r)
}

// SettleMatch writes both profiles and the record in one transaction
func (s *Storage) SettleMatch(ctx context.Context, winner, loser *model.Profile, record *model.MatchRecord) error {
	return s.withTransaction(ctx, func(tx pgx.Tx) error {
		if err := upsertProfile(ctx, tx, winner); err != nil {
			return err
		}
		if err := upsertProfile(ctx, tx, loser); err != nil {
			return err
		}
		return upsertRecord(ctx, tx, record)
	})
}

func upsertRecord(ctx context.Context, db execer, r *model.MatchRecord) error {
	secrets, err := json.Marshal(r.Secrets)
	if err != nil {
		return err
	}
	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO match_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			winner = EXCLUDED.winner,
			loser = EXCLUDED.loser,
			stake = EXCLUDED.stake,
			rating_delta = EXCLUDED.rating_delta,
			reason = EXCLUDED.reason,
			secrets = EXCLUDED.secrets,
			scores = EXCLUDED.scores,
			ended_at = EXCLUDED.ended_at`

	_, err = db.Exec(ctx, query,
		string(r.ID), string(r.Mode), r.Winner, r.Loser, r.Stake, r.RatingDelta, string(r.Reason),
		secrets, scores, r.StartedAt, r.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to save match record: %w", err)
	}
	return nil
}

func (s *Storage) GetMatchRecord(ctx context.Context, id model.MatchID) (*model.MatchRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM match_records WHERE id = $1`

	record, err := scanRecord(s.pool.QueryRow(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMatchRecordNotFound
		}
		return nil, fmt.Errorf("failed to get match record: %w", err)
	}
	return record, nil
}

func (s *Storage) ListMatchRecords(ctx context.Context, username string, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}

	query := `
		SELECT ` + recordColumns + `
		FROM match_records
		WHERE winner = $1 OR loser = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match records: %w", err)
	}
	defer rows.Close()

	records := []*model.MatchRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*model.MatchRecord, error) {
	var (
		r                model.MatchRecord
		id, mode, reason string
		secrets, scores  []byte
	)
	err := row.Scan(&id, &mode, &r.Winner, &r.Loser, &r.Stake, &r.RatingDelta, &reason,
		&secrets, &scores, &r.StartedAt, &r.EndedAt)
	if err != nil {
		return nil, err
	}

	r.ID = model.MatchID(id)
	r.Mode = model.Mode(mode)
	r.Reason = model.EndReason(reason)
	if err := json.Unmarshal(secrets, &r.Secrets); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scores, &r.Scores); err != nil {
		return nil, err
	}
	return &r, nil
}

// Dictionary operations

func (s *Storage) GetDictionaryWords(ctx context.Context, list model.WordList) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT word FROM dictionary_words WHERE list = $1 ORDER BY word`, string(list))
	if err != nil {
		return nil, fmt.Errorf("failed to get dictionary words: %w", err)
	}

	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to get dictionary words: %w", err)
	}
	if len(words) == 0 {
		return nil, model.ErrDictionaryNotLoaded
	}
	return words, nil
}

func (s *Storage) SaveDictionaryWords(ctx context.Context, list model.WordList, words []string) error {
	return s.withTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM dictionary_words WHERE list = $1`, string(list)); err != nil {
			return fmt.Errorf("failed to clear dictionary: %w", err)
		}

		seen := make(map[string]struct{}, len(words))
		rows := make([][]any, 0, len(words))
		for _, w := range words {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			rows = append(rows, []any{string(list), w})
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"dictionary_words"},
			[]string{"list", "word"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy dictionary words: %w", err)
		}
		return nil
	})
}
