// Package server accepts game connections and runs one session per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/numberguess/internal/dispatch"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/services/game"
)

// ErrServerClosed is returned by Serve after Shutdown
var ErrServerClosed = errors.New("server closed")

// Server is the TCP listener for game clients
type Server struct {
	cfg        Config
	controller *game.Controller
	logger     *slog.Logger

	// ctx is cancelled on shutdown and bounds work started by sessions
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	peers    map[*dispatch.ConnPeer]struct{}
	closed   bool

	wg sync.WaitGroup
}

// New creates a new Server
func New(cfg Config, controller *game.Controller, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		controller: controller,
		logger:     logger.With(slog.String("component", "server")),
		ctx:        ctx,
		cancel:     cancel,
		peers:      make(map[*dispatch.ConnPeer]struct{}),
	}
}

// Listen binds the configured address without accepting yet
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe binds the address and runs the accept loop until Shutdown
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve accepts connections until Shutdown. Each connection gets its own goroutine.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed, retrying",
					slog.Any("error", err),
					slog.Duration("backoff", backoff))
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

// track wraps conn in a peer and starts its session unless the server is closing
func (s *Server) track(conn net.Conn) bool {
	id := model.PlayerID(uuid.NewString())
	peer := dispatch.NewConnPeer(id, conn, s.logger)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = peer.Close()
		return false
	}
	s.peers[peer] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.untrack(peer)
		newSession(s, peer, conn).run()
	}()
	return true
}

func (s *Server) untrack(peer *dispatch.ConnPeer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, peer)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ConnectionCount returns the number of open connections, registered or not
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Shutdown stops accepting, warns every player, closes all connections and waits
// for their sessions to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	peers := make([]*dispatch.ConnPeer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	s.logger.Info("shutting down game server", slog.Int("connections", len(peers)))

	if ln != nil {
		_ = ln.Close()
	}
	s.cancel()
	s.controller.Shutdown()

	for _, p := range peers {
		go func(p *dispatch.ConnPeer) {
			_ = p.CloseGracefully(s.cfg.CloseTimeout)
		}(p)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("game server stopped")
		return nil
	case <-ctx.Done():
		for _, p := range peers {
			_ = p.Close()
		}
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}
