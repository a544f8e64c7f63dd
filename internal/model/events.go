package model

import "time"

// EventType identifies the type of game event
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventRoundStarted EventType = "round_started"
	EventRoundWon     EventType = "round_won"
	EventRanking      EventType = "ranking"
)

// Event is the base structure for all game events fanned out to spectators
type Event struct {
	Type      EventType
	Timestamp time.Time
	PlayerID  PlayerID // The player who triggered the event, if any
	Payload   any      // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Name string `json:"name"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	Name string `json:"name"`
}

// RoundStartedPayload contains data for round started events
type RoundStartedPayload struct {
	Round int `json:"round"`
	Min   int `json:"min"`
	Max   int `json:"max"`
}

// RoundWonPayload contains data for round won events
type RoundWonPayload struct {
	Round    int    `json:"round"`
	Winner   string `json:"winner"`
	Secret   int    `json:"secret"`
	Attempts int    `json:"attempts"`
	Points   int    `json:"points"`
}

// RankingPayload contains the ranking table
type RankingPayload struct {
	Players []RankEntry `json:"players"`
}
