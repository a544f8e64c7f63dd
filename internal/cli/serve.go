package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/numberguess/internal/api"
	"github.com/mcoot/numberguess/internal/factory"
	"github.com/mcoot/numberguess/internal/server"
)

// shutdownTimeout bounds the graceful stop of all listeners
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "Listen host (env: GUESS_HOST)")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Game TCP port (env: GUESS_PORT)")
	flags.IntVar(&cfg.Min, "min", cfg.Min, "Smallest secret number (env: GUESS_MIN)")
	flags.IntVar(&cfg.Max, "max", cfg.Max, "Largest secret number (env: GUESS_MAX)")
	flags.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "HTTP API port (env: GUESS_HTTP_PORT)")
	flags.IntVar(&cfg.ChatPort, "chat-port", cfg.ChatPort, "UDP chat port (env: GUESS_CHAT_PORT)")
	flags.StringVar(&cfg.StorageType, "storage", cfg.StorageType, "History storage: memory, redis (env: STORAGE_TYPE)")
	flags.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL (env: REDIS_URL)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (env: GUESS_LOG_LEVEL)")
	flags.BoolVar(&cfg.NoBanner, "no-banner", cfg.NoBanner, "Skip the startup banner")
}

// runServe starts every listener and blocks until ctx is done, a signal arrives or a listener fails
func runServe(ctx context.Context, c *Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.SlogLevel(),
	}))
	slog.SetDefault(logger)

	factoryCfg, err := c.FactoryConfig(logger)
	if err != nil {
		return err
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", slog.Any("error", err))
		}
	}()

	apiCfg := api.DefaultServerConfig()
	apiCfg.Host = c.Host
	apiCfg.Port = c.HTTPPort
	apiServer := api.NewServer(api.NewRouter(api.RouterConfig{
		Logger:         logger,
		GameController: app.GameController,
		Hub:            app.Hub,
	}), apiCfg, logger)

	if err := app.GameServer.Listen(); err != nil {
		return err
	}
	if err := app.ChatServer.Listen(); err != nil {
		_ = app.GameServer.Shutdown(context.Background())
		return err
	}
	apiLn, err := net.Listen("tcp", net.JoinHostPort(apiCfg.Host, strconv.Itoa(apiCfg.Port)))
	if err != nil {
		_ = app.ChatServer.Close()
		_ = app.GameServer.Shutdown(context.Background())
		return fmt.Errorf("listen on %s: %w", apiServer.Addr(), err)
	}

	errCh := make(chan error, 3)
	go func() {
		if err := app.GameServer.Serve(); err != nil && !errors.Is(err, server.ErrServerClosed) {
			errCh <- fmt.Errorf("game server: %w", err)
		}
	}()
	go func() {
		if err := app.ChatServer.Serve(ctx); err != nil {
			errCh <- fmt.Errorf("chat server: %w", err)
		}
	}()
	go func() {
		if err := apiServer.Serve(apiLn); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if !c.NoBanner {
		printBanner(out, bannerInfo{
			Game:    app.GameServer.Addr().String(),
			HTTP:    apiLn.Addr().String(),
			Chat:    app.ChatServer.Addr().String(),
			Range:   factoryCfg.Game.Range,
			Storage: factoryCfg.StorageType,
			RunID:   app.RunID,
		})
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("listener failed", slog.Any("error", serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Game peers first so they get SHUTDOWN, then the SSE hub so the API can drain
	if err := app.GameServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("game server shutdown incomplete", slog.Any("error", err))
	}
	_ = app.ChatServer.Close()
	app.Hub.Close()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown incomplete", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return serveErr
}
