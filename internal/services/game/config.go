package game

import (
	"time"

	"github.com/mcoot/numberguess/internal/model"
)

// Config holds gameplay settings
type Config struct {
	// Range is the closed interval secrets are drawn from
	Range model.Range
	// MaxPlayers caps concurrent registered players; 0 means unlimited
	MaxPlayers int
	// RoundDelay is the pause between a win and the next round
	RoundDelay time.Duration
	// MaxNameAttempts is how many names a connection may try before it is dropped
	MaxNameAttempts int
	// HistoryTimeout bounds each round history write
	HistoryTimeout time.Duration
}

// DefaultConfig returns the standard game settings
func DefaultConfig() Config {
	return Config{
		Range:           model.DefaultRange(),
		MaxPlayers:      10,
		RoundDelay:      3 * time.Second,
		MaxNameAttempts: 3,
		HistoryTimeout:  2 * time.Second,
	}
}
