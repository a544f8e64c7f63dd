package factory

import (
	"time"

	"github.com/mcoot/numberguess/internal/dependencies/mocks"
	"github.com/mcoot/numberguess/internal/storage/memory"
	"github.com/mcoot/numberguess/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The first round's secret is secret; later secrets come from MockRandom's queue.
func NewTestApp(secret int) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockRandom.QueueBetween(secret)

	cfg := withDefaults(Config{})
	cfg.Game.RoundDelay = 0
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Chat.Host = "127.0.0.1"
	cfg.Chat.Port = 0

	app, err := newWithDependencies(store, mockClock, mockRandom, cfg, "test-run", testutil.NopLogger())
	if err != nil {
		// Only an invalid default range can fail here
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
