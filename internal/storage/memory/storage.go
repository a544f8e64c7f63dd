package memory

import (
	"context"
	"sync"

	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/storage"
)

// DefaultMaxResults bounds how many round results are retained
const DefaultMaxResults = 1000

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	// results is kept oldest first
	results    []*model.RoundResult
	maxResults int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLimit(DefaultMaxResults)
}

// NewWithLimit creates an in-memory storage retaining at most maxResults entries
func NewWithLimit(maxResults int) *Storage {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Storage{
		maxResults: maxResults,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRoundResult(ctx context.Context, result *model.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *result
	s.results = append(s.results, &stored)
	if overflow := len(s.results) - s.maxResults; overflow > 0 {
		s.results = append([]*model.RoundResult(nil), s.results[overflow:]...)
	}
	return nil
}

func (s *Storage) ListRoundResults(ctx context.Context, limit int) ([]*model.RoundResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.results) {
		limit = len(s.results)
	}

	out := make([]*model.RoundResult, 0, limit)
	for i := len(s.results) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *s.results[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Storage) CountRoundResults(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results), nil
}
