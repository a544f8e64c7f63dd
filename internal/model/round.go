package model

import (
	"fmt"
	"math"
	"time"
)

// Range is a closed interval of valid guesses
type Range struct {
	Min int
	Max int
}

// DefaultRange returns the classic 1-100 range
func DefaultRange() Range {
	return Range{Min: 1, Max: 100}
}

// Contains returns true if n lies within the range (inclusive)
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Valid returns true if the range holds at least one value and its size fits in an int
func (r Range) Valid() bool {
	return r.Validate() == nil
}

// Validate explains why a range is unusable, wrapping ErrInvalidRange
func (r Range) Validate() error {
	if r.Max < r.Min {
		return fmt.Errorf("%w: min %d is greater than max %d", ErrInvalidRange, r.Min, r.Max)
	}
	// Max-Min is exact in uint64 once Max >= Min
	if uint64(r.Max)-uint64(r.Min) >= math.MaxInt {
		return fmt.Errorf("%w: %d-%d spans too many values", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// RoundPhase is the state of the round state machine
type RoundPhase string

const (
	RoundPhaseActive        RoundPhase = "active"        // Accepting guesses
	RoundPhaseTransitioning RoundPhase = "transitioning" // Won, waiting for the next round
)

// Round is one instance of the guessing game
type Round struct {
	Number    int
	Secret    int
	Phase     RoundPhase
	Attempts  map[PlayerID]int // this round only
	StartedAt time.Time
}

// Active returns true while nobody has guessed the secret
func (r *Round) Active() bool {
	return r.Phase == RoundPhaseActive
}

// RoundView is the public projection of a round. It never carries the secret.
type RoundView struct {
	Number int
	Range  Range
	Active bool
}

// Outcome classifies a parsed guess against the secret
type Outcome string

const (
	OutcomeTooLow  Outcome = "too_low"
	OutcomeTooHigh Outcome = "too_high"
	OutcomeCorrect Outcome = "correct"
)

// GuessResult is what Round State reports back for a submitted guess
type GuessResult struct {
	Round    int
	Guess    int
	Outcome  Outcome
	Attempts int // including this guess
	Points   int // only set when Outcome is correct
	Secret   int // only set when Outcome is correct
}

// RoundResult is a history record of a won round
type RoundResult struct {
	Round    int       `json:"round"`
	Secret   int       `json:"secret"`
	Winner   string    `json:"winner"`
	Attempts int       `json:"attempts"`
	Points   int       `json:"points"`
	WonAt    time.Time `json:"won_at"`
}
