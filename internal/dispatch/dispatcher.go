package dispatch

import (
	"log/slog"

	"github.com/mcoot/numberguess/internal/model"
)

// PeerSource provides a point-in-time copy of the registered peers.
// Implementations take their own lock to build the copy and release it before returning.
type PeerSource interface {
	Peers(exclude model.PlayerID) []Peer
}

// Dispatcher delivers protocol messages to one or all registered peers.
// A failed delivery tears that peer down and never reaches the caller.
type Dispatcher struct {
	source PeerSource
	logger *slog.Logger
}

// New creates a new Dispatcher
func New(source PeerSource, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		source: source,
		logger: logger.With(slog.String("component", "dispatch")),
	}
}

// SendTo delivers msg to a single peer
func (d *Dispatcher) SendTo(peer Peer, msg string) bool {
	if peer.Send(msg) {
		return true
	}

	d.logger.Warn("message dropped - closing peer",
		slog.String("player_id", string(peer.ID())))
	_ = peer.Close()
	return false
}

// BroadcastAll delivers msg to every registered peer except exclude ("" for none)
func (d *Dispatcher) BroadcastAll(msg string, exclude model.PlayerID) (sent, dropped int) {
	for _, peer := range d.source.Peers(exclude) {
		if d.SendTo(peer, msg) {
			sent++
		} else {
			dropped++
		}
	}

	if dropped > 0 {
		d.logger.Warn("broadcast partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
	return sent, dropped
}
