package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/worduel/internal/dependencies/mocks"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/storage/memory"
	"github.com/mcoot/worduel/internal/testutil"
)

type DirectorySuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *mocks.MockClock
	directory *Directory
	ctx       context.Context
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.directory = New(s.storage, s.clock, Config{
		Secret:        testutil.TestJWTSecret,
		AutoProvision: true,
	}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *DirectorySuite) token(username string) string {
	return testutil.SignTokenAt(s.T(), testutil.TestJWTSecret, username, s.clock.Now().Add(time.Hour))
}

func (s *DirectorySuite) TestVerifyToken() {
	username, err := s.directory.VerifyToken(s.token("alice"))
	s.Require().NoError(err)
	s.Equal("alice", username)
}

func (s *DirectorySuite) TestVerifyRejectsEmpty() {
	_, err := s.directory.VerifyToken("")
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *DirectorySuite) TestVerifyRejectsWrongSecret() {
	token := testutil.SignTokenAt(s.T(), "other-secret", "alice", s.clock.Now().Add(time.Hour))
	_, err := s.directory.VerifyToken(token)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *DirectorySuite) TestVerifyRejectsExpired() {
	token := s.token("alice")
	s.clock.Advance(2 * time.Hour)

	_, err := s.directory.VerifyToken(token)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *DirectorySuite) TestVerifyRejectsMissingExpiry() {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "alice"}).
		SignedString([]byte(testutil.TestJWTSecret))
	s.Require().NoError(err)

	_, err = s.directory.VerifyToken(token)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *DirectorySuite) TestVerifyRejectsOtherAlgorithms() {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"username": "alice",
		"exp":      s.clock.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testutil.TestJWTSecret))
	s.Require().NoError(err)

	_, err = s.directory.VerifyToken(token)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *DirectorySuite) TestVerifyRejectsMissingUsername() {
	token := testutil.SignTokenAt(s.T(), testutil.TestJWTSecret, "", s.clock.Now().Add(time.Hour))
	_, err := s.directory.VerifyToken(token)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *DirectorySuite) TestAuthenticateProvisionsProfile() {
	profile, err := s.directory.Authenticate(s.ctx, s.token("alice"))
	s.Require().NoError(err)
	s.Equal("alice", profile.Username)
	s.Equal(model.DefaultBalance, profile.Balance)
	s.Equal(model.DefaultRating, profile.Rating)

	stored, err := s.storage.GetProfile(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(profile.CreatedAt, stored.CreatedAt)
}

func (s *DirectorySuite) TestAuthenticateLoadsExistingProfile() {
	existing := model.NewProfile("alice", s.clock.Now())
	existing.Balance = 420
	s.Require().NoError(s.storage.SaveProfile(s.ctx, existing))

	profile, err := s.directory.Authenticate(s.ctx, s.token("alice"))
	s.Require().NoError(err)
	s.Equal(420, profile.Balance)
}

func (s *DirectorySuite) TestAuthenticateWithoutProvisioning() {
	directory := New(s.storage, s.clock, Config{Secret: testutil.TestJWTSecret}, testutil.NopLogger())

	_, err := directory.Authenticate(s.ctx, s.token("alice"))
	s.ErrorIs(err, model.ErrNotAuthenticated)

	_, err = s.storage.GetProfile(s.ctx, "alice")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *DirectorySuite) TestRegisterReplacesConnection() {
	s.Empty(s.directory.Register("alice", "c1"))
	s.Empty(s.directory.Register("alice", "c1"))
	s.Equal(model.ConnID("c1"), s.directory.Register("alice", "c2"))

	conn, ok := s.directory.Lookup("alice")
	s.True(ok)
	s.Equal(model.ConnID("c2"), conn)
	s.Equal(1, s.directory.Online())

	// The replaced connection no longer owns the slot
	s.directory.Deregister("alice", "c1")
	conn, ok = s.directory.Lookup("alice")
	s.True(ok)
	s.Equal(model.ConnID("c2"), conn)
}

func (s *DirectorySuite) TestProfileProvisionsUnknownPlayer() {
	profile, err := s.directory.Profile(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal("carol", profile.Username)
	s.Equal(model.DefaultBalance, profile.Balance)

	stored, err := s.storage.GetProfile(s.ctx, "carol")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, stored.Rating)
}

func (s *DirectorySuite) TestProfileWithoutProvisioning() {
	directory := New(s.storage, s.clock, Config{Secret: testutil.TestJWTSecret}, testutil.NopLogger())

	_, err := directory.Profile(s.ctx, "carol")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *DirectorySuite) TestDeregisterRequiresOwnership() {
	s.directory.Register("alice", "c1")

	s.directory.Deregister("alice", "c2")
	_, ok := s.directory.Lookup("alice")
	s.True(ok)

	s.directory.Deregister("alice", "c1")
	_, ok = s.directory.Lookup("alice")
	s.False(ok)
	s.Equal(0, s.directory.Online())

	s.Empty(s.directory.Register("alice", "c2"))
}
