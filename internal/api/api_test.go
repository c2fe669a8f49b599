package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/worduel/internal/api/apierr"
	"github.com/mcoot/worduel/internal/api/request"
	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/api/sse"
	"github.com/mcoot/worduel/internal/factory"
	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/testutil"
)

// testServer wraps a running test app and its router
type testServer struct {
	t       *testing.T
	app     *factory.TestApp
	handler http.Handler
	clients map[string]*sse.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	require.NoError(t, app.LoadTestDictionary())

	ctx, cancel := context.WithCancel(context.Background())
	go app.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-app.Coordinator.Done()
		_ = app.Close()
	})

	return &testServer{
		t:       t,
		app:     app,
		handler: app.Router,
		clients: make(map[string]*sse.Client),
	}
}

func (ts *testServer) token(username string) string {
	return testutil.SignToken(ts.t, testutil.TestJWTSecret, username)
}

// connect opens an in-process event stream for username
func (ts *testServer) connect(username string) model.ConnID {
	ts.t.Helper()

	conn := model.ConnID("conn-" + username)
	client := sse.NewClient(conn)
	ts.app.Hub.Register(client)
	ts.clients[username] = client

	ctx := context.Background()
	require.NoError(ts.t, ts.app.Coordinator.Connect(ctx, conn))
	_, err := ts.app.Coordinator.Authenticate(ctx, conn, ts.token(username))
	require.NoError(ts.t, err)
	return conn
}

// events returns the event names buffered for username
func (ts *testServer) events(username string) []string {
	var names []string
	for {
		select {
		case msg := <-ts.clients[username].Messages():
			event, err := sse.ParseMessage(msg)
			require.NoError(ts.t, err)
			names = append(names, event.Name)
		default:
			return names
		}
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	return ts.requestConn(method, path, body, token, "")
}

func (ts *testServer) requestConn(method, path string, body any, token string, conn model.ConnID) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	if b, ok := body.(string); ok {
		reqBody = bytes.NewBufferString(b)
	} else if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if conn != "" {
		req.Header.Set(request.ConnectionHeader, string(conn))
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	ts.connect("alice")

	rec := ts.request(http.MethodGet, "/api/v1/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp response.Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.UsersOnline)
	assert.Equal(t, 0, resp.ActiveMatches)
}

func TestGetMe_Unauthorized(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-token"},
		{"wrong secret", testutil.SignToken(t, "other-secret", "alice")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.request(http.MethodGet, "/api/v1/players/me", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rec).Code)
		})
	}
}

func TestGetMe_AutoProvisions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/api/v1/players/me", nil, ts.token("alice"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var view model.ProfileView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, model.DefaultBalance, view.Balance)
	assert.Equal(t, model.DefaultRating, view.Rating)
	assert.Equal(t, model.RankBronze, view.Rank)
}

func TestSearch_RequiresStream(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/v1/match/search", request.FindMatchRequest{Stake: 50, Mode: "duel"}, ts.token("alice"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierr.CodeNotConnected, decodeError(t, rec).Code)
}

func TestSearch_Rejections(t *testing.T) {
	ts := newTestServer(t)
	ts.connect("alice")
	require.NoError(t, ts.app.Storage.SaveProfile(context.Background(), &model.Profile{
		Username: "alice", Balance: 20, Rating: model.DefaultRating,
	}))

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed body", "{", http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"stake too low", request.FindMatchRequest{Stake: 5, Mode: "duel"}, http.StatusBadRequest, apierr.CodeInvalidStake},
		{"stake too high", request.FindMatchRequest{Stake: 501, Mode: "duel"}, http.StatusBadRequest, apierr.CodeInvalidStake},
		{"unknown mode", request.FindMatchRequest{Stake: 10, Mode: "blitz"}, http.StatusBadRequest, apierr.CodeInvalidMode},
		{"stake above balance", request.FindMatchRequest{Stake: 50, Mode: "duel"}, http.StatusConflict, apierr.CodeInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.request(http.MethodPost, "/api/v1/match/search", tt.body, ts.token("alice"))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	// Nothing was queued
	assert.NotContains(t, ts.events("alice"), model.EventSearching)
}

func TestSearch_QueuesAndCancels(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.connect("alice")
	token := ts.token("alice")
	ts.events("alice")

	rec := ts.requestConn(http.MethodPost, "/api/v1/match/search", request.FindMatchRequest{Stake: 50, Mode: "SPRINT"}, token, conn)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{model.EventSearching}, ts.events("alice"))

	rec = ts.request(http.MethodPost, "/api/v1/match/search", request.FindMatchRequest{Stake: 50, Mode: "duel"}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierr.CodeAlreadyQueued, decodeError(t, rec).Code)

	rec = ts.request(http.MethodDelete, "/api/v1/match/search", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{model.EventSearchCancelled}, ts.events("alice"))

	// Cancelling again is a no-op
	rec = ts.request(http.MethodDelete, "/api/v1/match/search", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, ts.events("alice"))
}

func TestSearch_ForeignConnection(t *testing.T) {
	ts := newTestServer(t)
	ts.connect("alice")
	bobConn := ts.connect("bob")

	rec := ts.requestConn(http.MethodPost, "/api/v1/match/search", request.FindMatchRequest{Stake: 50, Mode: "duel"}, ts.token("alice"), bobConn)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierr.CodeNotConnected, decodeError(t, rec).Code)
}

func TestGuess(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueUUID("match-1")
	ts.app.MockRandom.QueueIntn(0) // CRANE
	ts.connect("alice")
	ts.connect("bob")
	aliceToken := ts.token("alice")

	// No match yet: the guess is dropped
	rec := ts.request(http.MethodPost, "/api/v1/match/guess", request.GuessRequest{Word: "react"}, aliceToken)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	search := request.FindMatchRequest{Stake: 50, Mode: "duel"}
	require.Equal(t, http.StatusAccepted, ts.request(http.MethodPost, "/api/v1/match/search", search, aliceToken).Code)
	require.Equal(t, http.StatusAccepted, ts.request(http.MethodPost, "/api/v1/match/search", search, ts.token("bob")).Code)
	ts.events("alice")
	ts.events("bob")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed body", "[", http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"empty word", request.GuessRequest{}, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"short word", request.GuessRequest{Word: "abc"}, http.StatusBadRequest, apierr.CodeInvalidGuess},
		{"unknown word", request.GuessRequest{Word: "zzzzz"}, http.StatusBadRequest, apierr.CodeUnknownWord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.request(http.MethodPost, "/api/v1/match/guess", tt.body, aliceToken)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
	assert.Equal(t, []string{model.EventInvalidWord}, ts.events("alice"))

	rec = ts.request(http.MethodPost, "/api/v1/match/guess", request.GuessRequest{Word: "react"}, aliceToken)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{model.EventGuessResult}, ts.events("alice"))
	assert.Equal(t, []string{model.EventOpponentGuess}, ts.events("bob"))
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token("alice")

	for _, limit := range []string{"0", "101", "ten"} {
		rec := ts.request(http.MethodGet, "/api/v1/players/me/matches?limit="+limit, nil, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}

	ctx := context.Background()
	for _, id := range []model.MatchID{"m1", "m2"} {
		require.NoError(t, ts.app.Storage.SaveMatchRecord(ctx, &model.MatchRecord{
			ID:          id,
			Mode:        model.ModeDuel,
			Winner:      "alice",
			Loser:       "bob",
			Stake:       50,
			RatingDelta: 16,
			Reason:      model.EndReasonRounds,
			Secrets:     map[string]string{"alice": "CRANE", "bob": "CRANE"},
			Scores:      map[string]int{"alice": 2, "bob": 0},
			EndedAt:     ts.app.MockClock.Now(),
		}))
	}

	rec := ts.request(http.MethodGet, "/api/v1/players/me/matches?limit=1", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	var history response.MatchHistory
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history.Matches, 1)
	assert.Equal(t, "bob", history.Matches[0].Opponent)
	assert.True(t, history.Matches[0].Won)
	assert.Equal(t, 50, history.Matches[0].Stake)
	assert.Equal(t, "CRANE", history.Matches[0].Word)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	open := func(t *testing.T, token string) (*sse.Reader, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?token="+token, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		t.Cleanup(func() { _ = resp.Body.Close() })
		return sse.NewReader(resp.Body), cancel
	}

	t.Run("authenticates", func(t *testing.T) {
		reader, cancel := open(t, ts.token("alice"))
		defer cancel()

		event, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, model.EventConnected, event.Name)

		event, err = reader.Next()
		require.NoError(t, err)
		require.Equal(t, model.EventAuthenticated, event.Name)
		var payload model.AuthenticatedPayload
		require.NoError(t, event.Decode(&payload))
		assert.Equal(t, "alice", payload.Profile.Username)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		reader, cancel := open(t, "not-a-token")
		defer cancel()

		_, err := reader.Next()
		require.NoError(t, err)

		event, err := reader.Next()
		require.NoError(t, err)
		require.Equal(t, model.EventAuthError, event.Name)

		_, err = reader.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("newer stream replaces older", func(t *testing.T) {
		first, cancelFirst := open(t, ts.token("bob"))
		defer cancelFirst()
		for _, name := range []string{model.EventConnected, model.EventAuthenticated} {
			event, err := first.Next()
			require.NoError(t, err)
			require.Equal(t, name, event.Name)
		}

		second, cancelSecond := open(t, ts.token("bob"))
		defer cancelSecond()
		for _, name := range []string{model.EventConnected, model.EventAuthenticated} {
			event, err := second.Next()
			require.NoError(t, err)
			require.Equal(t, name, event.Name)
		}

		event, err := first.Next()
		require.NoError(t, err)
		require.Equal(t, model.EventError, event.Name)
		var payload model.ErrorPayload
		require.NoError(t, event.Decode(&payload))
		assert.Equal(t, "SESSION_REPLACED", payload.Code)
	})
}
