package sse

import (
	"log/slog"

	"github.com/mcoot/numberguess/internal/model"
)

// Broadcaster publishes game events to SSE spectators
type Broadcaster struct {
	hub      *Hub
	renderer *Renderer
	logger   *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:      hub,
		renderer: NewRenderer(),
		logger:   logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Publish renders event and sends it to every spectator
func (b *Broadcaster) Publish(event model.Event) {
	if b.hub == nil {
		return
	}

	data, err := b.renderer.RenderEvent(event)
	if err != nil {
		b.logger.Error("sse failed to render event",
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	b.hub.BroadcastEvent(data.EventName, data.Data)
}
