package server

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mcoot/numberguess/internal/dispatch"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/protocol"
)

type sessionState int

const (
	stateConnecting sessionState = iota
	stateAwaitingName
	statePlaying
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAwaitingName:
		return "awaiting_name"
	case statePlaying:
		return "playing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// session is the per-connection read loop
type session struct {
	server  *Server
	peer    *dispatch.ConnPeer
	conn    net.Conn
	scanner *bufio.Scanner
	state   sessionState
	player  model.Player
	logger  *slog.Logger
}

func newSession(srv *Server, peer *dispatch.ConnPeer, conn net.Conn) *session {
	scanner := bufio.NewScanner(conn)
	// room for the line plus a CRLF terminator
	maxToken := srv.cfg.MaxLineLength + 2
	scanner.Buffer(make([]byte, 0, min(maxToken, 4096)), maxToken)

	return &session{
		server:  srv,
		peer:    peer,
		conn:    conn,
		scanner: scanner,
		state:   stateConnecting,
		logger: srv.logger.With(
			slog.String("player_id", string(peer.ID())),
			slog.String("remote_addr", conn.RemoteAddr().String())),
	}
}

func (s *session) run() {
	start := time.Now()
	s.logger.Info("connection accepted")

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("state", s.state.String()))
		}
		s.close()
		s.logger.Info("connection closed", slog.Duration("connection_duration", time.Since(start)))
	}()

	if !s.register() {
		return
	}
	s.play()
}

// register runs the name handshake and reports whether the player joined
func (s *session) register() bool {
	s.state = stateAwaitingName
	controller := s.server.controller
	limit := controller.Config().MaxNameAttempts
	if limit <= 0 {
		limit = 1
	}

	for attempt := 1; attempt <= limit; attempt++ {
		s.peer.Send(protocol.NameRequest())

		line, err := s.readLine()
		if err != nil {
			s.logReadError(err)
			return false
		}

		name := strings.TrimSpace(line)
		if protocol.IsQuit(name) {
			s.peer.Send(protocol.Bye())
			return false
		}
		if name == "" {
			name = defaultName(s.conn.RemoteAddr(), s.peer.ID())
		}

		player, err := controller.Join(s.server.ctx, s.peer, name)
		if err == nil {
			s.player = player
			s.state = statePlaying
			s.logger = s.logger.With(slog.String("name", player.Name))
			return true
		}

		s.peer.Send(protocol.ErrorFor(err))
		s.logger.Info("registration rejected",
			slog.String("requested_name", name),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		if !errors.Is(err, model.ErrInvalidName) && !errors.Is(err, model.ErrDuplicateName) {
			return false
		}
	}

	s.peer.Send(protocol.TooManyTries(limit))
	return false
}

func (s *session) play() {
	controller := s.server.controller
	for {
		line, err := s.readLine()
		if err != nil {
			s.logReadError(err)
			return
		}

		text := strings.TrimSpace(line)
		switch {
		case protocol.IsQuit(text):
			s.peer.Send(protocol.Bye())
			return
		case protocol.IsRankingRequest(text):
			controller.SendRanking(s.peer)
		default:
			if err := controller.Guess(s.server.ctx, s.peer, text); err != nil {
				s.logger.Warn("guess failed", slog.Any("error", err))
				return
			}
		}
	}
}

// close deregisters the player, announces the departure and flushes the connection
func (s *session) close() {
	if s.state == statePlaying {
		s.server.controller.Leave(s.peer.ID())
	}
	s.state = stateClosed
	_ = s.peer.CloseGracefully(s.server.cfg.CloseTimeout)
}

func (s *session) readLine() (string, error) {
	if timeout := s.server.cfg.IdleTimeout; timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	}
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *session) logReadError(err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.logger.Debug("connection ended", slog.String("state", s.state.String()))
	case errors.Is(err, bufio.ErrTooLong):
		s.logger.Warn("line too long",
			slog.Int("max_line_length", s.server.cfg.MaxLineLength))
	case errors.Is(err, os.ErrDeadlineExceeded):
		s.logger.Info("idle timeout", slog.String("state", s.state.String()))
	default:
		s.logger.Warn("read failed", slog.Any("error", err))
	}
}

// defaultName derives player_<remote port> for clients that send an empty name
func defaultName(addr net.Addr, id model.PlayerID) string {
	if addr != nil {
		if _, port, err := net.SplitHostPort(addr.String()); err == nil && port != "" {
			return "player_" + port
		}
	}
	suffix := strings.ReplaceAll(string(id), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "player_" + suffix
}
