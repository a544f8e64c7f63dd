package random

import (
	"crypto/rand"
	"math/big"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// IntBetween returns a random int in the closed interval [min, max]
	IntBetween(min, max int) int
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a uniformly distributed int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		return 0
	}
	return int(result.Int64())
}

// IntBetween returns a uniformly distributed int in [min, max]
func (r *CryptoRandom) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	// max-min+1 can overflow int, so the span is computed in big.Int
	span := new(big.Int).Sub(big.NewInt(int64(max)), big.NewInt(int64(min)))
	span.Add(span, big.NewInt(1))
	result, err := rand.Int(rand.Reader, span)
	if err != nil {
		return min
	}
	return int(result.Add(result, big.NewInt(int64(min))).Int64())
}
