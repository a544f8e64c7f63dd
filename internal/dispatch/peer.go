package dispatch

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mcoot/numberguess/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Peer is a registered connection that can receive protocol lines
type Peer interface {
	ID() model.PlayerID
	// Send queues a message without blocking; false means it was dropped
	Send(msg string) bool
	// Close tears the connection down immediately
	Close() error
}

// ConnPeer is a Peer backed by a stream connection.
// Writes happen on a dedicated goroutine so a slow reader never blocks a broadcaster.
type ConnPeer struct {
	id     model.PlayerID
	conn   net.Conn
	send   chan []byte
	logger *slog.Logger

	closing    chan struct{} // drain the queue, then close
	done       chan struct{} // stop immediately
	writerDone chan struct{}

	closingOnce sync.Once
	closeOnce   sync.Once
}

// NewConnPeer wraps conn and starts its writer goroutine
func NewConnPeer(id model.PlayerID, conn net.Conn, logger *slog.Logger) *ConnPeer {
	p := &ConnPeer{
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		logger:     logger.With(slog.String("player_id", string(id))),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	go p.writePump()
	return p
}

// ID returns the connection's player id
func (p *ConnPeer) ID() model.PlayerID {
	return p.id
}

// RemoteAddr returns the remote network address
func (p *ConnPeer) RemoteAddr() net.Addr {
	return p.conn.RemoteAddr()
}

// Send frames msg and queues it for the writer goroutine.
// Messages sent while a graceful close is draining are discarded but reported as
// delivered, so a dispatcher never cuts that flush short.
func (p *ConnPeer) Send(msg string) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case <-p.closing:
		return true
	default:
	}

	select {
	case p.send <- Frame(msg):
		return true
	default:
		return false
	}
}

// Close stops the writer and closes the connection. Queued messages are discarded.
func (p *ConnPeer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close()
	})
	return err
}

// CloseGracefully flushes queued messages (bounded by timeout) and closes the connection
func (p *ConnPeer) CloseGracefully(timeout time.Duration) error {
	p.closingOnce.Do(func() {
		close(p.closing)
	})

	select {
	case <-p.writerDone:
	case <-time.After(timeout):
		p.logger.Warn("peer flush timed out")
	}
	return p.Close()
}

func (p *ConnPeer) writePump() {
	defer close(p.writerDone)

	for {
		select {
		case msg := <-p.send:
			if !p.write(msg) {
				return
			}

		case <-p.closing:
			// Drain whatever was queued before the close request
			for {
				select {
				case msg := <-p.send:
					if !p.write(msg) {
						return
					}
				default:
					return
				}
			}

		case <-p.done:
			return
		}
	}
}

func (p *ConnPeer) write(msg []byte) bool {
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if _, err := p.conn.Write(msg); err != nil {
		p.logger.Warn("peer write failed", slog.String("error", err.Error()))
		// Closing the socket makes the owning handler's read fail, which starts teardown
		_ = p.Close()
		return false
	}
	return true
}
