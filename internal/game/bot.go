package game

import (
	"fmt"
	"math/rand"
	"time"

	"codeclash/internal/protocol"
)

// BotPassRate is the probability a bot's submit passes.
const BotPassRate = 0.8

var botNames = []string{
	"turing", "hopper", "lovelace", "dijkstra", "knuth",
	"ritchie", "hamilton", "torvalds", "liskov", "lamport",
}

// BotName returns the nth bot name for a room. Names cycle with a numeric
// suffix once the pool is exhausted.
func BotName(n int) string {
	name := botNames[n%len(botNames)]
	if round := n / len(botNames); round > 0 {
		return fmt.Sprintf("%s-%d", name, round+1)
	}
	return name
}

// BotPasses draws whether a bot attempt succeeds.
func BotPasses(rng *rand.Rand) bool {
	return rng.Float64() < BotPassRate
}

// BotSolveTime draws how long a bot takes on a problem of the given
// difficulty. Uniform within a difficulty-scaled band.
func BotSolveTime(d protocol.Difficulty, rng *rand.Rand) time.Duration {
	var lo, hi time.Duration
	switch d {
	case protocol.DifficultyEasy:
		lo, hi = 15*time.Second, 35*time.Second
	case protocol.DifficultyMedium:
		lo, hi = 30*time.Second, 70*time.Second
	default:
		lo, hi = 50*time.Second, 110*time.Second
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)))
}
