package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/worduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.MatchRecordTTL = time.Hour
	cfg.HistoryLength = 3

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Profile tests

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := model.NewProfile("alice", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	profile.Balance = 1250
	profile.GamesWon = 3

	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	retrieved, err := s.storage.GetProfile(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1250, retrieved.Balance)
	s.Equal(3, retrieved.GamesWon)
	s.True(profile.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *StorageSuite) TestGetProfileNotFound() {
	_, err := s.storage.GetProfile(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestProfileHasNoTTL() {
	_ = s.storage.SaveProfile(s.ctx, model.NewProfile("alice", time.Now()))
	s.Equal(time.Duration(0), s.mini.TTL(profileKey("alice")))
}

// Match record tests

func (s *StorageSuite) record(id, winner, loser string, endedAt time.Time) *model.MatchRecord {
	return &model.MatchRecord{
		ID:      model.MatchID(id),
		Mode:    model.ModeSprint,
		Winner:  winner,
		Loser:   loser,
		Stake:   25,
		Reason:  model.EndReasonTimeout,
		Secrets: map[string]string{winner: "CRANE", loser: "SLATE"},
		Scores:  map[string]int{winner: 4, loser: 2},
		EndedAt: endedAt,
	}
}

func (s *StorageSuite) TestSaveAndGetMatchRecord() {
	s.Require().NoError(s.storage.SaveMatchRecord(s.ctx, s.record("m1", "alice", "bob", time.Now())))

	got, err := s.storage.GetMatchRecord(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal("bob", got.Loser)
	s.Equal("SLATE", got.Secrets["bob"])
	s.Equal(4, got.Scores["alice"])
}

func (s *StorageSuite) TestGetMatchRecordNotFound() {
	_, err := s.storage.GetMatchRecord(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMatchRecordNotFound)
}

func (s *StorageSuite) TestMatchRecordTTL() {
	_ = s.storage.SaveMatchRecord(s.ctx, s.record("m1", "alice", "bob", time.Now()))

	s.True(s.mini.TTL(matchKey("m1")) > 0, "match record should have TTL")
	s.True(s.mini.TTL(historyIndexKey("alice")) > 0, "history index should have TTL")
}

func (s *StorageSuite) TestListMatchRecordsNewestFirst() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveMatchRecord(s.ctx, s.record("m1", "alice", "bob", base))
	_ = s.storage.SaveMatchRecord(s.ctx, s.record("m2", "carol", "alice", base.Add(time.Minute)))
	_ = s.storage.SaveMatchRecord(s.ctx, s.record("m3", "bob", "carol", base.Add(2*time.Minute)))

	records, err := s.storage.ListMatchRecords(s.ctx, "alice", 10)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(model.MatchID("m2"), records[0].ID)
	s.Equal(model.MatchID("m1"), records[1].ID)
}

func (s *StorageSuite) TestListMatchRecordsLimit() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		_ = s.storage.SaveMatchRecord(s.ctx, s.record(id, "alice", "bob", base.Add(time.Duration(i)*time.Minute)))
	}

	records, err := s.storage.ListMatchRecords(s.ctx, "bob", 2)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(model.MatchID("m3"), records[0].ID)
	s.Equal(model.MatchID("m2"), records[1].ID)
}

func (s *StorageSuite) TestHistoryIsTrimmed() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3", "m4"} {
		_ = s.storage.SaveMatchRecord(s.ctx, s.record(id, "alice", "bob", base.Add(time.Duration(i)*time.Minute)))
	}

	records, err := s.storage.ListMatchRecords(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(model.MatchID("m4"), records[0].ID)
	s.Equal(model.MatchID("m2"), records[2].ID)
}

func (s *StorageSuite) TestResavingRecordDoesNotDuplicateHistory() {
	rec := s.record("m1", "alice", "bob", time.Now())
	_ = s.storage.SaveMatchRecord(s.ctx, rec)
	_ = s.storage.SaveMatchRecord(s.ctx, rec)

	records, err := s.storage.ListMatchRecords(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *StorageSuite) TestListSkipsExpiredRecords() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveMatchRecord(s.ctx, s.record("m1", "alice", "bob", base))
	_ = s.storage.SaveMatchRecord(s.ctx, s.record("m2", "alice", "bob", base.Add(time.Minute)))
	s.mini.Del(matchKey("m1"))

	records, err := s.storage.ListMatchRecords(s.ctx, "alice", 10)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(model.MatchID("m2"), records[0].ID)
}

func (s *StorageSuite) TestSettleMatch() {
	winner := model.NewProfile("alice", time.Now())
	winner.Balance = 1025
	loser := model.NewProfile("bob", time.Now())
	loser.Balance = 975

	s.Require().NoError(s.storage.SettleMatch(s.ctx, winner, loser, s.record("m1", "alice", "bob", time.Now())))

	got, err := s.storage.GetProfile(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(975, got.Balance)
	s.Equal(time.Duration(0), s.mini.TTL(profileKey("bob")))
	s.Equal(time.Hour, s.mini.TTL(matchKey("m1")))

	for _, username := range []string{"alice", "bob"} {
		history, err := s.storage.ListMatchRecords(s.ctx, username, 0)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(model.MatchID("m1"), history[0].ID)
	}
}

func (s *StorageSuite) TestSettleMatchFailureWritesNothing() {
	winner := model.NewProfile("alice", time.Now())
	loser := model.NewProfile("bob", time.Now())

	s.mini.SetError("server unavailable")
	s.Error(s.storage.SettleMatch(s.ctx, winner, loser, s.record("m1", "alice", "bob", time.Now())))
	s.mini.SetError("")

	s.False(s.mini.Exists(profileKey("alice")))
	s.False(s.mini.Exists(profileKey("bob")))
	s.False(s.mini.Exists(matchKey("m1")))
}

func (s *StorageSuite) TestListMatchRecordsEmpty() {
	records, err := s.storage.ListMatchRecords(s.ctx, "nobody", 10)
	s.Require().NoError(err)
	s.Empty(records)
}

// Dictionary tests

func (s *StorageSuite) TestDictionaryNotLoaded() {
	_, err := s.storage.GetDictionaryWords(s.ctx, model.WordListTargets)
	s.ErrorIs(err, model.ErrDictionaryNotLoaded)
}

func (s *StorageSuite) TestSaveAndGetDictionaryWords() {
	s.Require().NoError(s.storage.SaveDictionaryWords(s.ctx, model.WordListTargets, []string{"CRANE", "SLATE"}))
	s.Require().NoError(s.storage.SaveDictionaryWords(s.ctx, model.WordListAllowed, []string{"ABBEY"}))

	targets, err := s.storage.GetDictionaryWords(s.ctx, model.WordListTargets)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"CRANE", "SLATE"}, targets)

	allowed, err := s.storage.GetDictionaryWords(s.ctx, model.WordListAllowed)
	s.Require().NoError(err)
	s.Equal([]string{"ABBEY"}, allowed)
}

func (s *StorageSuite) TestSaveDictionaryWordsReplaces() {
	_ = s.storage.SaveDictionaryWords(s.ctx, model.WordListTargets, []string{"CRANE"})
	_ = s.storage.SaveDictionaryWords(s.ctx, model.WordListTargets, []string{"SLATE"})

	words, err := s.storage.GetDictionaryWords(s.ctx, model.WordListTargets)
	s.Require().NoError(err)
	s.Equal([]string{"SLATE"}, words)
}
