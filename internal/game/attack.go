package game

import (
	"math/rand"
	"time"

	"codeclash/internal/protocol"
)

const (
	// GracePeriod is the post-debuff immunity window.
	GracePeriod = 5 * time.Second
	// AttackerWindow is how far back the attackers targeting mode looks.
	AttackerWindow = 20 * time.Second
	// highIntensityScale stretches debuff durations on high attack intensity.
	highIntensityScale = 1.3
)

// ScoreValue returns the points awarded for a passing submit. Garbage
// problems are worthless.
func ScoreValue(d protocol.Difficulty, isGarbage bool) int {
	if isGarbage {
		return 0
	}
	switch d {
	case protocol.DifficultyEasy:
		return 5
	case protocol.DifficultyMedium:
		return 10
	default:
		return 20
	}
}

// DetermineAttackType chooses the attack emitted by a passing submit.
// Every third streak step fires a memoryLeak regardless of difficulty;
// otherwise the difficulty decides.
func DetermineAttackType(streak int, d protocol.Difficulty, rng *rand.Rand) protocol.AttackType {
	if streak > 0 && streak%3 == 0 {
		return protocol.AttackMemoryLeak
	}
	switch d {
	case protocol.DifficultyEasy:
		return protocol.AttackGarbageDrop
	case protocol.DifficultyMedium:
		if rng.Intn(2) == 0 {
			return protocol.AttackFlashbang
		}
		return protocol.AttackVimLock
	default:
		return protocol.AttackDDoS
	}
}

// DebuffDuration returns how long a debuff lasts under the given intensity.
func DebuffDuration(t protocol.DebuffType, intensity protocol.AttackIntensity) time.Duration {
	var base time.Duration
	switch t {
	case protocol.DebuffDDoS:
		base = 12 * time.Second
	case protocol.DebuffFlashbang:
		base = 25 * time.Second
	case protocol.DebuffVimLock:
		base = 12 * time.Second
	case protocol.DebuffMemoryLeak:
		base = 30 * time.Second
	}
	if intensity == protocol.IntensityHigh {
		return time.Duration(float64(base) * highIntensityScale)
	}
	return base
}

// Overflows reports whether adding one more problem to a stack of the given
// size eliminates the player.
func Overflows(stackSize, stackLimit int) bool {
	return stackSize >= stackLimit
}
