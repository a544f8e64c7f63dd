package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/numberguess/internal/api"
	"github.com/mcoot/numberguess/internal/api/apierr"
	"github.com/mcoot/numberguess/internal/api/response"
	"github.com/mcoot/numberguess/internal/factory"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/testutil"
)

// testServer wires the API router to a test application
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp(42)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		GameController: app.GameController,
		Hub:            app.Hub,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) join(t *testing.T, id, name string) *testutil.RecordingPeer {
	t.Helper()
	peer := testutil.NewRecordingPeer(model.PlayerID(id))
	_, err := ts.app.GameController.Join(context.Background(), peer, name)
	require.NoError(t, err)
	return peer
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
}

func TestGetRound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/round")
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	round := decode[response.Round](t, rr)
	assert.Equal(t, response.Round{Number: 1, Min: 1, Max: 100, Active: true}, round)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestGetRanking(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/ranking")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.Ranking](t, rr).Players)

	ts.join(t, "p1", "alice")
	ts.join(t, "p2", "bob")

	rr = ts.request(http.MethodGet, "/api/v1/ranking")
	require.Equal(t, http.StatusOK, rr.Code)

	ranking := decode[response.Ranking](t, rr)
	require.Len(t, ranking.Players, 2)
	assert.Equal(t, response.RankEntry{Position: 1, Name: "alice", Score: 0}, ranking.Players[0])
	assert.Equal(t, response.RankEntry{Position: 2, Name: "bob", Score: 0}, ranking.Players[1])
}

func TestGetHistory(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueBetween(5)

	alice := ts.join(t, "p1", "alice")
	require.NoError(t, ts.app.GameController.Guess(context.Background(), alice, "42"))
	require.NoError(t, ts.app.GameController.Guess(context.Background(), alice, "5"))

	rr := ts.request(http.MethodGet, "/api/v1/history")
	require.Equal(t, http.StatusOK, rr.Code)

	history := decode[response.History](t, rr)
	require.Len(t, history.Rounds, 2)
	assert.Equal(t, 2, history.Total)
	assert.Equal(t, 2, history.Rounds[0].Round)
	assert.Equal(t, 5, history.Rounds[0].Secret)
	assert.Equal(t, 1, history.Rounds[1].Round)
	assert.Equal(t, "alice", history.Rounds[1].Winner)
	assert.Equal(t, 9, history.Rounds[1].Points)

	rr = ts.request(http.MethodGet, "/api/v1/history?limit=1")
	require.Equal(t, http.StatusOK, rr.Code)
	limited := decode[response.History](t, rr)
	assert.Len(t, limited.Rounds, 1)
	assert.Equal(t, 2, limited.Total)
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	ts := newTestServer(t)

	for _, limit := range []string{"abc", "0", "-3"} {
		rr := ts.request(http.MethodGet, "/api/v1/history?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", limit)

		body := decode[apierr.ErrorResponse](t, rr)
		assert.Equal(t, apierr.CodeInvalidRequest, body.Error.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/round")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var events []string
	for len(events) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"connected", "round-start", "ranking"}, events)

	require.Eventually(t, func() bool {
		return ts.app.Hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	ts.join(t, "p1", "alice")

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) == "event: player-joined" {
			data, err := reader.ReadString('\n')
			require.NoError(t, err)
			assert.Contains(t, data, `"name":"alice"`)
			break
		}
	}
}

func TestEventsStream_HubClosed(t *testing.T) {
	ts := newTestServer(t)
	ts.app.Hub.Close()

	require.Eventually(t, func() bool {
		rr := ts.request(http.MethodGet, "/api/v1/events")
		return rr.Code == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)
}
