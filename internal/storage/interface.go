package storage

import (
	"context"

	"github.com/mcoot/numberguess/internal/model"
)

// Storage defines the interface for the round history log.
// Live game state never goes through it.
type Storage interface {
	// SaveRoundResult appends a won round to the history
	SaveRoundResult(ctx context.Context, result *model.RoundResult) error
	// ListRoundResults returns up to limit results, newest first
	ListRoundResults(ctx context.Context, limit int) ([]*model.RoundResult, error)
	// CountRoundResults returns how many results are currently retained
	CountRoundResults(ctx context.Context) (int, error)
}
