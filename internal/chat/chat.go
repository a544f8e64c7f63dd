// Package chat runs the UDP chat side channel for connected players.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/mcoot/numberguess/internal/dependencies/clock"
)

// Datagram types
const (
	TypeRegister = "register"
	TypeMessage  = "message"
	TypeAck      = "ack"
	TypeChat     = "chat"
	TypeError    = "error"
)

// timestampLayout is the wall-clock format stamped on relayed messages
const timestampLayout = "15:04:05"

// Message is the JSON body of every chat datagram
type Message struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NameChecker reports whether a name belongs to a player connected to the game
type NameChecker interface {
	IsRegisteredName(name string) bool
}

// Config holds settings for the chat listener
type Config struct {
	Host string
	Port int
	// MaxDatagramSize bounds inbound datagrams; larger ones are dropped
	MaxDatagramSize int
	// MaxTextLength bounds the text of one chat message
	MaxTextLength int
}

// DefaultConfig returns sensible defaults for the chat listener
func DefaultConfig() Config {
	return Config{
		Host:            "",
		Port:            5556,
		MaxDatagramSize: 4096,
		MaxTextLength:   280,
	}
}

type member struct {
	name string
	addr net.Addr
}

// Server relays chat datagrams between players registered in the game
type Server struct {
	cfg    Config
	names  NameChecker
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	conn    net.PacketConn
	members map[string]member // keyed by remote address
	closed  bool
}

// New creates a new chat Server
func New(cfg Config, names NameChecker, clock clock.Clock, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		names:   names,
		clock:   clock,
		logger:  logger.With(slog.String("component", "chat")),
		members: make(map[string]member),
	}
}

// Listen binds the UDP socket
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = conn.Close()
		return net.ErrClosed
	}
	s.conn = conn
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Serve reads datagrams until ctx is cancelled or Close is called
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("chat server is not listening")
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	s.logger.Info("chat server listening", slog.String("addr", conn.LocalAddr().String()))

	// one spare byte detects oversized datagrams
	buf := make([]byte, s.cfg.MaxDatagramSize+1)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("chat read failed", slog.Any("error", err))
			continue
		}
		if n > s.cfg.MaxDatagramSize {
			s.logger.Warn("chat datagram too large - dropped",
				slog.String("remote_addr", addr.String()),
				slog.Int("size", n))
			continue
		}
		s.handle(conn, buf[:n], addr)
	}
}

// Close stops the server
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// MemberCount returns the number of registered chat addresses
func (s *Server) MemberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

func (s *Server) handle(conn net.PacketConn, data []byte, addr net.Addr) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("malformed chat datagram - dropped",
			slog.String("remote_addr", addr.String()),
			slog.Any("error", err))
		return
	}

	switch msg.Type {
	case TypeRegister:
		s.register(conn, msg, addr)
	case TypeMessage:
		s.relay(conn, msg, addr)
	default:
		s.logger.Warn("unknown chat datagram type - dropped",
			slog.String("remote_addr", addr.String()),
			slog.String("type", msg.Type))
	}
}

func (s *Server) register(conn net.PacketConn, msg Message, addr net.Addr) {
	name := strings.TrimSpace(msg.Name)
	if !s.names.IsRegisteredName(name) {
		s.reply(conn, addr, Message{Type: TypeError, Text: "join the game before chatting"})
		return
	}

	s.mu.Lock()
	s.members[addr.String()] = member{name: name, addr: addr}
	count := len(s.members)
	s.mu.Unlock()

	s.logger.Info("chat member registered",
		slog.String("name", name),
		slog.String("remote_addr", addr.String()),
		slog.Int("total_members", count))
	s.reply(conn, addr, Message{Type: TypeAck, Name: name})
}

func (s *Server) relay(conn net.PacketConn, msg Message, addr net.Addr) {
	s.mu.Lock()
	sender, ok := s.members[addr.String()]
	s.mu.Unlock()

	if !ok || !strings.EqualFold(sender.name, strings.TrimSpace(msg.Name)) {
		s.reply(conn, addr, Message{Type: TypeError, Text: "register before sending messages"})
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if len(text) > s.cfg.MaxTextLength {
		s.reply(conn, addr, Message{Type: TypeError, Text: fmt.Sprintf("message longer than %d bytes", s.cfg.MaxTextLength)})
		return
	}

	out, err := json.Marshal(Message{
		Type:      TypeChat,
		Name:      sender.name,
		Text:      text,
		Timestamp: s.clock.Now().Format(timestampLayout),
	})
	if err != nil {
		s.logger.Error("failed to encode chat message", slog.Any("error", err))
		return
	}

	sent := 0
	for _, m := range s.activeMembers() {
		if _, err := conn.WriteTo(out, m.addr); err != nil {
			s.logger.Warn("chat send failed",
				slog.String("remote_addr", m.addr.String()),
				slog.Any("error", err))
			continue
		}
		sent++
	}

	s.logger.Debug("chat message relayed",
		slog.String("name", sender.name),
		slog.Int("recipients", sent))
}

// activeMembers drops members who left the game and returns a copy of the rest
func (s *Server) activeMembers() []member {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]member, 0, len(s.members))
	for key, m := range s.members {
		if !s.names.IsRegisteredName(m.name) {
			delete(s.members, key)
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *Server) reply(conn net.PacketConn, addr net.Addr, msg Message) {
	out, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if _, err := conn.WriteTo(out, addr); err != nil {
		s.logger.Warn("chat reply failed",
			slog.String("remote_addr", addr.String()),
			slog.Any("error", err))
	}
}
