package guess

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/numberguess/internal/model"
)

const (
	// MaxPoints is the score ceiling; a first-try win scores MaxPoints - 1
	MaxPoints = 10
	// MinPoints is awarded for any win, however many attempts it took
	MinPoints = 1
)

// Evaluator parses and classifies guesses against a fixed range.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	rng model.Range
}

// New creates an Evaluator for the given range
func New(rng model.Range) (*Evaluator, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{rng: rng}, nil
}

// Range returns the configured range
func (e *Evaluator) Range() model.Range {
	return e.rng
}

// Parse converts guess text into an integer within the range
func (e *Evaluator) Parse(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty guess", model.ErrInvalidGuess)
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", model.ErrInvalidGuess, trimmed)
	}

	if !e.rng.Contains(n) {
		return 0, fmt.Errorf("%w: %d is outside %d-%d", model.ErrInvalidGuess, n, e.rng.Min, e.rng.Max)
	}

	return n, nil
}

// Evaluate parses the guess text and classifies it against the secret
func (e *Evaluator) Evaluate(text string, secret int) (model.Outcome, error) {
	n, err := e.Parse(text)
	if err != nil {
		return "", err
	}
	return Classify(n, secret), nil
}

// Classify compares a parsed guess with the secret
func Classify(guess, secret int) model.Outcome {
	switch {
	case guess < secret:
		return model.OutcomeTooLow
	case guess > secret:
		return model.OutcomeTooHigh
	default:
		return model.OutcomeCorrect
	}
}

// Points returns the score delta for a win on the given attempt (1-based)
func Points(attempts int) int {
	return max(MaxPoints-attempts, MinPoints)
}
