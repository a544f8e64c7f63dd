package redis

import "fmt"

// Key prefix for all game-related data
const keyPrefix = "guess"

// roundsKey returns the Redis key for the LIST of round results of a run
func roundsKey(runID string) string {
	return fmt.Sprintf("%s:%s:rounds", keyPrefix, runID)
}
