package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeclash/internal/protocol"
)

func TestScoreValue(t *testing.T) {
	assert.Equal(t, 5, ScoreValue(protocol.DifficultyEasy, false))
	assert.Equal(t, 10, ScoreValue(protocol.DifficultyMedium, false))
	assert.Equal(t, 20, ScoreValue(protocol.DifficultyHard, false))
	assert.Equal(t, 0, ScoreValue(protocol.DifficultyHard, true), "garbage awards nothing")
}

func TestDetermineAttackType_StreakOverride(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Every third streak step is memoryLeak regardless of difficulty.
	for _, d := range []protocol.Difficulty{protocol.DifficultyEasy, protocol.DifficultyMedium, protocol.DifficultyHard} {
		assert.Equal(t, protocol.AttackMemoryLeak, DetermineAttackType(3, d, rng))
		assert.Equal(t, protocol.AttackMemoryLeak, DetermineAttackType(6, d, rng))
	}

	// Streak 0 ignores the divisibility rule.
	assert.Equal(t, protocol.AttackGarbageDrop, DetermineAttackType(0, protocol.DifficultyEasy, rng))
}

func TestDetermineAttackType_ByDifficulty(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	assert.Equal(t, protocol.AttackGarbageDrop, DetermineAttackType(1, protocol.DifficultyEasy, rng))
	assert.Equal(t, protocol.AttackDDoS, DetermineAttackType(1, protocol.DifficultyHard, rng))

	sawFlash, sawVim := false, false
	for i := 0; i < 100; i++ {
		switch DetermineAttackType(1, protocol.DifficultyMedium, rng) {
		case protocol.AttackFlashbang:
			sawFlash = true
		case protocol.AttackVimLock:
			sawVim = true
		default:
			t.Fatal("medium difficulty must emit flashbang or vimLock")
		}
	}
	assert.True(t, sawFlash)
	assert.True(t, sawVim)
}

func TestDetermineAttackType_Deterministic(t *testing.T) {
	a := DetermineAttackType(1, protocol.DifficultyMedium, rand.New(rand.NewSource(7)))
	b := DetermineAttackType(1, protocol.DifficultyMedium, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestDebuffDuration(t *testing.T) {
	assert.Equal(t, 12*time.Second, DebuffDuration(protocol.DebuffDDoS, protocol.IntensityLow))
	assert.Equal(t, 25*time.Second, DebuffDuration(protocol.DebuffFlashbang, protocol.IntensityLow))
	assert.Equal(t, 12*time.Second, DebuffDuration(protocol.DebuffVimLock, protocol.IntensityLow))
	assert.Equal(t, 30*time.Second, DebuffDuration(protocol.DebuffMemoryLeak, protocol.IntensityLow))

	// High intensity scales by 1.3.
	assert.Equal(t, time.Duration(float64(30*time.Second)*1.3), DebuffDuration(protocol.DebuffMemoryLeak, protocol.IntensityHigh))
}

func TestOverflows(t *testing.T) {
	assert.False(t, Overflows(4, 5))
	assert.True(t, Overflows(5, 5))
	assert.True(t, Overflows(6, 5))
}

func TestRecordIncomingAttack_PrunesOldEntries(t *testing.T) {
	now := time.Unix(1700000000, 0)
	p := NewPlayer("p1", "", "alice", protocol.RolePlayer, 0)

	p.RecordIncomingAttack("old", now.Add(-30*time.Second))
	p.RecordIncomingAttack("recent", now)

	ids := p.AttackersWithin(AttackerWindow, now)
	assert.Equal(t, []string{"recent"}, ids)
}

func TestAttackersWithin_WindowEdgeInclusive(t *testing.T) {
	now := time.Unix(1700000000, 0)
	p := NewPlayer("p1", "", "alice", protocol.RolePlayer, 0)

	p.RecentAttacks = []AttackRecord{
		{AttackerID: "edge", At: now.Add(-20000 * time.Millisecond)},
		{AttackerID: "out", At: now.Add(-20001 * time.Millisecond)},
	}

	ids := p.AttackersWithin(AttackerWindow, now)
	assert.Equal(t, []string{"edge"}, ids)
}
