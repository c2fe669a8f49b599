package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, profileKey(profile.Username), data, 0).Err()
}

func (s *Storage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Match history operations

func (s *Storage) SaveMatchRecord(ctx context.Context, record *model.MatchRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := matchKey(record.ID)
	created, err := s.client.SetNX(ctx, key, data, s.cfg.MatchRecordTTL).Result()
	if err != nil {
		return err
	}
	if !created {
		return s.client.Set(ctx, key, data, s.cfg.MatchRecordTTL).Err()
	}

	// Index the record for both players in one pipeline
	pipe := s.client.Pipeline()
	s.indexRecord(ctx, pipe, record)
	_, err = pipe.Exec(ctx)
	return err
}

// indexRecord queues the history index updates for both players of record
func (s *Storage) indexRecord(ctx context.Context, pipe redis.Pipeliner, record *model.MatchRecord) {
	for _, username := range []string{record.Winner, record.Loser} {
		idx := historyIndexKey(username)
		pipe.LPush(ctx, idx, string(record.ID))
		if s.cfg.HistoryLength > 0 {
			pipe.LTrim(ctx, idx, 0, int64(s.cfg.HistoryLength-1))
		}
		if s.cfg.MatchRecordTTL > 0 {
			pipe.Expire(ctx, idx, s.cfg.MatchRecordTTL)
		}
	}
}

// SettleMatch writes both profiles, the record and its history entries in
// one MULTI/EXEC block
func (s *Storage) SettleMatch(ctx context.Context, winner, loser *model.Profile, record *model.MatchRecord) error {
	w, err := json.Marshal(winner)
	if err != nil {
		return err
	}
	l, err := json.Marshal(loser)
	if err != nil {
		return err
	}
	r, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, profileKey(winner.Username), w, 0)
		pipe.Set(ctx, profileKey(loser.Username), l, 0)
		pipe.Set(ctx, matchKey(record.ID), r, s.cfg.MatchRecordTTL)
		s.indexRecord(ctx, pipe, record)
		return nil
	})
	return err
}

func (s *Storage) GetMatchRecord(ctx context.Context, id model.MatchID) (*model.MatchRecord, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchRecordNotFound
		}
		return nil, err
	}

	var record model.MatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListMatchRecords(ctx context.Context, username string, limit int) ([]*model.MatchRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := s.client.LRange(ctx, historyIndexKey(username), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.MatchRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKey(model.MatchID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.MatchRecord, 0, len(values))
	for i, v := range values {
		// Expired records leave dangling ids in the index
		str, ok := v.(string)
		if !ok {
			continue
		}
		var record model.MatchRecord
		if err := json.Unmarshal([]byte(str), &record); err != nil {
			return nil, fmt.Errorf("decode match %s: %w", ids[i], err)
		}
		records = append(records, &record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EndedAt.After(records[j].EndedAt)
	})
	return records, nil
}

// Dictionary operations

func (s *Storage) GetDictionaryWords(ctx context.Context, list model.WordList) ([]string, error) {
	key := dictionaryKey(list)

	// Check if dictionary exists
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, model.ErrDictionaryNotLoaded
	}

	return s.client.SMembers(ctx, key).Result()
}

func (s *Storage) SaveDictionaryWords(ctx context.Context, list model.WordList, words []string) error {
	key := dictionaryKey(list)

	// Replace the existing list atomically
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)

	if len(words) > 0 {
		members := make([]interface{}, len(words))
		for i, w := range words {
			members[i] = w
		}
		pipe.SAdd(ctx, key, members...)
	}

	_, err := pipe.Exec(ctx)
	return err
}
