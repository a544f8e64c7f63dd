package cli

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/numberguess/internal/api"
	"github.com/mcoot/numberguess/internal/factory"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/testutil"
)

// syncBuffer is a bytes.Buffer safe for a writer and a polling reader
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newAPIServer(t *testing.T) (*httptest.Server, *factory.TestApp) {
	t.Helper()
	app := factory.NewTestApp(42)
	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		GameController: app.GameController,
		Hub:            app.Hub,
	}))
	// Hub first so open event streams end before the server waits on them
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = app.Close() })
	return srv, app
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("GUESS_PORT", "6000")
	t.Setenv("GUESS_MIN", "5")
	t.Setenv("GUESS_MAX", "not-a-number")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	c := DefaultConfig()
	assert.Equal(t, 6000, c.Port)
	assert.Equal(t, 5, c.Min)
	assert.Equal(t, 100, c.Max)
	assert.Equal(t, 5556, c.ChatPort)
	assert.Equal(t, "redis", c.StorageType)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisURL)

	_, err := c.FactoryConfig(testutil.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid GUESS_MAX "not-a-number"`)
}

func TestDefaultConfig_EnvErrorsAreJoined(t *testing.T) {
	t.Setenv("GUESS_PORT", "65k")
	t.Setenv("GUESS_CHAT_PORT", "chat")

	c := DefaultConfig()
	_, err := c.FactoryConfig(testutil.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GUESS_PORT")
	assert.Contains(t, err.Error(), "GUESS_CHAT_PORT")
	assert.NotContains(t, err.Error(), "GUESS_MIN")
}

func TestFactoryConfig(t *testing.T) {
	c := DefaultConfig()
	c.Min, c.Max = 10, 20
	c.Port = 7000
	c.ChatPort = 7001
	c.StorageType = factory.StorageTypeMemory

	fc, err := c.FactoryConfig(testutil.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, model.Range{Min: 10, Max: 20}, fc.Game.Range)
	assert.Equal(t, 7000, fc.Server.Port)
	assert.Equal(t, 7001, fc.Chat.Port)
	assert.Nil(t, fc.RedisConfig)
}

func TestFactoryConfig_Errors(t *testing.T) {
	c := DefaultConfig()
	c.Min, c.Max = 50, 10
	_, err := c.FactoryConfig(testutil.NopLogger())
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	c.Min, c.Max = -1, math.MaxInt
	_, err = c.FactoryConfig(testutil.NopLogger())
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	c = DefaultConfig()
	c.StorageType = factory.StorageTypeRedis
	c.RedisURL = ""
	_, err = c.FactoryConfig(testutil.NopLogger())
	assert.Error(t, err)

	c.RedisURL = "redis://localhost:6379/1"
	fc, err := c.FactoryConfig(testutil.NopLogger())
	require.NoError(t, err)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://localhost:6379/1", fc.RedisConfig.URL)
}

func TestSlogLevel(t *testing.T) {
	c := DefaultConfig()
	for level, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	} {
		c.LogLevel = level
		assert.Equal(t, want, c.SlogLevel(), level)
	}
}

func TestHealthCommand(t *testing.T) {
	srv, _ := newAPIServer(t)

	out, err := runCmd(t, "--api", srv.URL, "health")
	require.NoError(t, err)
	assert.Equal(t, "Status: ok\n", out)
}

func TestRoundCommand(t *testing.T) {
	srv, _ := newAPIServer(t)

	out, err := runCmd(t, "--api", srv.URL, "round")
	require.NoError(t, err)
	assert.Contains(t, out, "Round: 1")
	assert.Contains(t, out, "Range: 1-100")
	assert.Contains(t, out, "State: active")
}

func TestRankingCommand(t *testing.T) {
	srv, app := newAPIServer(t)

	out, err := runCmd(t, "--api", srv.URL, "ranking")
	require.NoError(t, err)
	assert.Contains(t, out, "No players connected")

	peer := testutil.NewRecordingPeer("p1")
	_, err = app.GameController.Join(context.Background(), peer, "alice")
	require.NoError(t, err)
	require.NoError(t, app.GameController.Guess(context.Background(), peer, "42"))

	out, err = runCmd(t, "--api", srv.URL, "ranking")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"1", "alice", "9"}, strings.Fields(lines[1]))
}

func TestHistoryCommand(t *testing.T) {
	srv, app := newAPIServer(t)

	peer := testutil.NewRecordingPeer("p1")
	_, err := app.GameController.Join(context.Background(), peer, "alice")
	require.NoError(t, err)
	require.NoError(t, app.GameController.Guess(context.Background(), peer, "42"))

	out, err := runCmd(t, "--api", srv.URL, "-o", "json", "history")
	require.NoError(t, err)
	assert.Contains(t, out, `"winner": "alice"`)
	assert.Contains(t, out, `"secret": 42`)
	assert.Contains(t, out, `"total": 1`)

	require.NoError(t, app.GameController.Guess(context.Background(), peer, "1"))
	out, err = runCmd(t, "--api", srv.URL, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 1 of 2 rounds")

	_, err = runCmd(t, "--api", srv.URL, "history", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestStreamEvents(t *testing.T) {
	srv, _ := newAPIServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, streamEvents(ctx, srv.URL+"/api/v1/events", &out, false))

	text := out.String()
	assert.Contains(t, text, "Connected\n")
	assert.Contains(t, text, "connected: ")
	assert.Contains(t, text, "round-start: ")
	assert.Contains(t, text, "ranking: ")
	assert.Contains(t, text, "Disconnected\n")
}

func TestStreamEvents_BadStatus(t *testing.T) {
	srv, _ := newAPIServer(t)

	err := streamEvents(context.Background(), srv.URL+"/api/v1/nope", &bytes.Buffer{}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRunServe(t *testing.T) {
	c := DefaultConfig()
	c.Host = "127.0.0.1"
	c.Port = 0
	c.HTTPPort = 0
	c.ChatPort = 0
	c.StorageType = factory.StorageTypeMemory
	c.LogLevel = "error"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, c, out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "MYSTERY NUMBER SERVER")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "1-100")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
