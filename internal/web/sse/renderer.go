package sse

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/numberguess/internal/model"
)

// SSE event names
const (
	EventNameRoundStart   = "round-start"
	EventNameWin          = "win"
	EventNameRanking      = "ranking"
	EventNamePlayerJoined = "player-joined"
	EventNamePlayerLeft   = "player-left"
)

// EventData is a rendered SSE event
type EventData struct {
	EventName string
	Data      string
}

// Renderer converts model events to SSE payloads
type Renderer struct{}

// NewRenderer creates a new Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderEvent converts a game event to its SSE name and JSON data
func (r *Renderer) RenderEvent(event model.Event) (EventData, error) {
	name, err := eventName(event.Type)
	if err != nil {
		return EventData{}, err
	}

	data, err := json.Marshal(event.Payload)
	if err != nil {
		return EventData{}, err
	}

	return EventData{EventName: name, Data: string(data)}, nil
}

func eventName(t model.EventType) (string, error) {
	switch t {
	case model.EventRoundStarted:
		return EventNameRoundStart, nil
	case model.EventRoundWon:
		return EventNameWin, nil
	case model.EventRanking:
		return EventNameRanking, nil
	case model.EventPlayerJoined:
		return EventNamePlayerJoined, nil
	case model.EventPlayerLeft:
		return EventNamePlayerLeft, nil
	default:
		return "", fmt.Errorf("unknown event type %q", t)
	}
}
