package round

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/mcoot/numberguess/internal/dependencies/clock"
	"github.com/mcoot/numberguess/internal/dependencies/random"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/services/guess"
)

// State owns the active round and serializes every mutation of it.
//
// A round is Active until a correct guess flips it to Transitioning inside Submit.
// Only the caller whose submission performed that flip advances the round with
// NewRound, so two correct guesses can never both win the same round. The new
// round stays Transitioning until the same caller announces it and calls Open.
type State struct {
	mu     sync.Mutex
	round  model.Round
	rng    model.Range
	random random.Random
	clock  clock.Clock
	logger *slog.Logger
}

// New creates the round state and draws the first round
func New(rng model.Range, random random.Random, clock clock.Clock, logger *slog.Logger) (*State, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	s := &State{
		rng:    rng,
		random: random,
		clock:  clock,
		logger: logger.With(slog.String("component", "round")),
	}
	s.startLocked(model.RoundPhaseActive)
	return s, nil
}

// NewRound replaces the current round with a fresh one and returns a copy of it.
// The new round refuses guesses until Open is called.
func (s *State) NewRound() model.Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startLocked(model.RoundPhaseTransitioning)
	return s.copyLocked()
}

// Open starts accepting guesses for the current round.
// It reports false when the round was already open.
func (s *State) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.Active() {
		return false
	}
	s.round.Phase = model.RoundPhaseActive
	s.logger.Info("round opened", slog.Int("round", s.round.Number))
	return true
}

// startLocked draws a new secret and resets attempts. Caller holds mu.
func (s *State) startLocked(phase model.RoundPhase) {
	s.round = model.Round{
		Number:    s.round.Number + 1,
		Secret:    s.random.IntBetween(s.rng.Min, s.rng.Max),
		Phase:     phase,
		Attempts:  make(map[model.PlayerID]int),
		StartedAt: s.clock.Now(),
	}

	s.logger.Info("round started", slog.Int("round", s.round.Number))
	s.logger.Debug("round secret drawn",
		slog.Int("round", s.round.Number),
		slog.Int("secret", s.round.Secret))
}

// RecordAttempt increments and returns the attempt count for a player this round
func (s *State) RecordAttempt(id model.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round.Attempts[id]++
	return s.round.Attempts[id]
}

// Submit evaluates a parsed guess against the current round as one atomic step.
// It returns ErrRoundTransitioning, without counting the attempt, when the round
// has already been won and the next one has not been opened.
func (s *State) Submit(id model.PlayerID, n int) (model.GuessResult, error) {
	if !s.rng.Contains(n) {
		return model.GuessResult{}, fmt.Errorf("%w: %d is outside %d-%d", model.ErrInvalidGuess, n, s.rng.Min, s.rng.Max)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.round.Active() {
		return model.GuessResult{}, model.ErrRoundTransitioning
	}

	s.round.Attempts[id]++
	result := model.GuessResult{
		Round:    s.round.Number,
		Guess:    n,
		Outcome:  guess.Classify(n, s.round.Secret),
		Attempts: s.round.Attempts[id],
	}

	if result.Outcome == model.OutcomeCorrect {
		s.round.Phase = model.RoundPhaseTransitioning
		result.Points = guess.Points(result.Attempts)
		result.Secret = s.round.Secret
		s.logger.Info("round won",
			slog.Int("round", s.round.Number),
			slog.String("player_id", string(id)),
			slog.Int("attempts", result.Attempts),
			slog.Int("points", result.Points))
	}

	return result, nil
}

// Attempts returns a player's attempt count in the current round
func (s *State) Attempts(id model.PlayerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Attempts[id]
}

// CurrentSecret returns the current round's secret
func (s *State) CurrentSecret() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Secret
}

// CurrentRoundNumber returns the current round's sequence number
func (s *State) CurrentRoundNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Number
}

// Phase returns the current phase of the round state machine
func (s *State) Phase() model.RoundPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.Phase
}

// Range returns the configured guess range
func (s *State) Range() model.Range {
	return s.rng
}

// View returns the public view of the current round
func (s *State) View() model.RoundView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.RoundView{
		Number: s.round.Number,
		Range:  s.rng,
		Active: s.round.Active(),
	}
}

// Snapshot returns a copy of the current round, secret included
func (s *State) Snapshot() model.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *State) copyLocked() model.Round {
	r := s.round
	r.Attempts = maps.Clone(s.round.Attempts)
	return r
}
