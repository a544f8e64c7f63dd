package request

import (
	"errors"
	"net/http"
	"strconv"
)

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// ErrInvalidLimit is returned for a limit that is not a positive integer
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// HistoryQuery is the parsed query of a history request
type HistoryQuery struct {
	Limit int
}

// ParseHistoryQuery reads ?limit=N, defaulting to DefaultHistoryLimit and capping at MaxHistoryLimit
func ParseHistoryQuery(r *http.Request) (HistoryQuery, error) {
	q := HistoryQuery{Limit: DefaultHistoryLimit}

	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return q, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return HistoryQuery{}, ErrInvalidLimit
	}
	q.Limit = min(n, MaxHistoryLimit)
	return q, nil
}
