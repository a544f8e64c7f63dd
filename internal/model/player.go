package model

import "time"

// PlayerID identifies a player by the connection it arrived on
type PlayerID string

// Player represents a connected participant
type Player struct {
	ID       PlayerID
	Name     string // assigned once at registration (immutable)
	Score    int    // cumulative, never decreases
	Seq      uint64 // registration order, used to break ranking ties
	JoinedAt time.Time
}

// RankEntry is one row of the ranking table
type RankEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}
