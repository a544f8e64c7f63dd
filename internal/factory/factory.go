package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/numberguess/internal/chat"
	"github.com/mcoot/numberguess/internal/dependencies/clock"
	"github.com/mcoot/numberguess/internal/dependencies/random"
	"github.com/mcoot/numberguess/internal/dispatch"
	"github.com/mcoot/numberguess/internal/server"
	"github.com/mcoot/numberguess/internal/services/game"
	"github.com/mcoot/numberguess/internal/services/guess"
	"github.com/mcoot/numberguess/internal/services/registry"
	"github.com/mcoot/numberguess/internal/services/round"
	"github.com/mcoot/numberguess/internal/storage"
	"github.com/mcoot/numberguess/internal/storage/memory"
	redisstorage "github.com/mcoot/numberguess/internal/storage/redis"
	"github.com/mcoot/numberguess/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// RunID identifies this server process; history keys are scoped to it
	RunID string

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry       *registry.Registry
	RoundState     *round.State
	Evaluator      *guess.Evaluator
	Dispatcher     *dispatch.Dispatcher
	GameController *game.Controller
	Hub            *sse.Hub

	// Listeners
	GameServer *server.Server
	ChatServer *chat.Server

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the round history backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Game holds gameplay settings; zero value means game.DefaultConfig()
	Game game.Config
	// Server holds game listener settings; zero value means server.DefaultConfig()
	Server server.Config
	// Chat holds chat listener settings; zero value means chat.DefaultConfig()
	Chat chat.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	runID := uuid.NewString()

	var store storage.Storage
	var closers []io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisCfg := *cfg.RedisConfig
		redisCfg.RunID = runID
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), withDefaults(cfg), runID, logger)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}
	app.closers = append(app.closers, closers...)

	logger.Info("application wired",
		slog.String("run_id", runID),
		slog.String("storage_type", storageType))

	return app, nil
}

// withDefaults fills zero-valued sections with their defaults
func withDefaults(cfg Config) Config {
	if cfg.Game == (game.Config{}) {
		cfg.Game = game.DefaultConfig()
	}
	if cfg.Server == (server.Config{}) {
		cfg.Server = server.DefaultConfig()
	}
	if cfg.Chat == (chat.Config{}) {
		cfg.Chat = chat.DefaultConfig()
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, runID string, logger *slog.Logger) (*App, error) {
	evaluator, err := guess.New(cfg.Game.Range)
	if err != nil {
		return nil, err
	}
	roundState, err := round.New(cfg.Game.Range, rnd, clk, logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.Game.MaxPlayers, clk, logger)
	dispatcher := dispatch.New(reg, logger)

	hub := sse.NewHub(logger)
	go hub.Run()
	broadcaster := sse.NewBroadcaster(hub, logger)

	gameController := game.NewController(cfg.Game, reg, roundState, evaluator, dispatcher, store, broadcaster, clk, logger)

	return &App{
		RunID:          runID,
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Registry:       reg,
		RoundState:     roundState,
		Evaluator:      evaluator,
		Dispatcher:     dispatcher,
		GameController: gameController,
		Hub:            hub,
		GameServer:     server.New(cfg.Server, gameController, logger),
		ChatServer:     chat.New(cfg.Chat, gameController, clk, logger),
	}, nil
}

// Close releases resources that outlive the listeners: the SSE hub and the storage client
func (a *App) Close() error {
	a.Hub.Close()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
