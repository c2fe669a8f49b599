package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/worduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Profile tests

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := model.NewProfile("alice", time.Now())

	err := s.storage.SaveProfile(s.ctx, profile)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetProfile(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)
	s.Equal(model.DefaultBalance, retrieved.Balance)
	s.Equal(model.DefaultRating, retrieved.Rating)
}

func (s *StorageSuite) TestGetProfileNotFound() {
	_, err := s.storage.GetProfile(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestProfileIsCopied() {
	profile := model.NewProfile("alice", time.Now())
	_ = s.storage.SaveProfile(s.ctx, profile)

	profile.Balance = 1
	retrieved, _ := s.storage.GetProfile(s.ctx, "alice")
	s.Equal(model.DefaultBalance, retrieved.Balance)

	retrieved.Balance = 2
	again, _ := s.storage.GetProfile(s.ctx, "alice")
	s.Equal(model.DefaultBalance, again.Balance)
}

// Match record tests

func (s *StorageSuite) record(id, winner, loser string, endedAt time.Time) *model.MatchRecord {
	return &model.MatchRecord{
		ID:      model.MatchID(id),
		Mode:    model.ModeDuel,
		Winner:  winner,
		Loser:   loser,
		Stake:   50,
		Reason:  model.EndReasonRounds,
		Secrets: map[string]string{winner: "CRANE", loser: "CRANE"},
		Scores:  map[string]int{winner: 2, loser: 1},
		EndedAt: endedAt,
	}
}

func (s *StorageSuite) TestSaveAndGetMatchRecord() {
	rec := s.record("m1", "alice", "bob", time.Now())
	s.Require().NoError(s.storage.SaveMatchRecord(s.ctx, rec))

	got, err := s.storage.GetMatchRecord(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal("alice", got.Winner)
	s.Equal(2, got.Scores["alice"])
}

func (s *StorageSuite) TestGetMatchRecordNotFound() {
	_, err := s.storage.GetMatchRecord(s.ctx, "missing")
	s.ErrorIs(err, model.ErrMatchRecordNotFound)
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
}

func (s *StorageSuite) TestResavingRecordDoesNotDuplicateHistory() {
	rec := s.record("m1", "alice", "bob", time.Now())
	_ = s.storage.SaveMatchRecord(s.ctx, rec)
	_ = s.storage.SaveMatchRecord(s.ctx, rec)

	records, err := s.storage.ListMatchRecords(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *StorageSuite) TestSettleMatch() {
	winner := model.NewProfile("alice", time.Now())
	winner.Balance = 1050
	loser := model.NewProfile("bob", time.Now())
	loser.Balance = 950

	s.Require().NoError(s.storage.SettleMatch(s.ctx, winner, loser, s.record("m1", "alice", "bob", time.Now())))

	got, err := s.storage.GetProfile(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1050, got.Balance)
	got, err = s.storage.GetProfile(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(950, got.Balance)

	history, err := s.storage.ListMatchRecords(s.ctx, "bob", 0)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(model.MatchID("m1"), history[0].ID)
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
	err := s.storage.SaveDictionaryWords(s.ctx, model.WordListTargets, []string{"CRANE", "SLATE"})
	s.Require().NoError(err)
	err = s.storage.SaveDictionaryWords(s.ctx, model.WordListAllowed, []string{"ABBEY"})
	s.Require().NoError(err)

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
