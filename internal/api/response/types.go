package response

import (
	"time"

	"github.com/mcoot/numberguess/internal/model"
)

// Health is the health check body
type Health struct {
	Status string `json:"status"`
}

// Round represents the public view of the current round
type Round struct {
	Number int  `json:"number"`
	Min    int  `json:"min"`
	Max    int  `json:"max"`
	Active bool `json:"active"`
}

// RoundFromModel converts model.RoundView
func RoundFromModel(v model.RoundView) Round {
	return Round{
		Number: v.Number,
		Min:    v.Range.Min,
		Max:    v.Range.Max,
		Active: v.Active,
	}
}

// RankEntry is one row of the ranking table
type RankEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Ranking is the ranking table
type Ranking struct {
	Players []RankEntry `json:"players"`
}

// RankingFromModel converts a ranking snapshot
func RankingFromModel(entries []model.RankEntry) Ranking {
	players := make([]RankEntry, len(entries))
	for i, e := range entries {
		players[i] = RankEntry{Position: e.Position, Name: e.Name, Score: e.Score}
	}
	return Ranking{Players: players}
}

// RoundResult is a won round in the history
type RoundResult struct {
	Round    int       `json:"round"`
	Secret   int       `json:"secret"`
	Winner   string    `json:"winner"`
	Attempts int       `json:"attempts"`
	Points   int       `json:"points"`
	WonAt    time.Time `json:"won_at"`
}

// History is the list of recent round results, newest first
type History struct {
	Rounds []RoundResult `json:"rounds"`
	Total  int           `json:"total"` // results retained, regardless of limit
}

// HistoryFromModel converts stored round results
func HistoryFromModel(results []*model.RoundResult, total int) History {
	rounds := make([]RoundResult, len(results))
	for i, r := range results {
		rounds[i] = RoundResult{
			Round:    r.Round,
			Secret:   r.Secret,
			Winner:   r.Winner,
			Attempts: r.Attempts,
			Points:   r.Points,
			WonAt:    r.WonAt,
		}
	}
	return History{Rounds: rounds, Total: total}
}
