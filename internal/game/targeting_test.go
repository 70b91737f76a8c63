package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclash/internal/protocol"
)

func mkPlayer(id string, score, stack int) *Player {
	p := NewPlayer(id, "", id, protocol.RolePlayer, 0)
	p.Status = protocol.StatusCoding
	p.Score = score
	for i := 0; i < stack; i++ {
		p.Queue = append(p.Queue, &protocol.Problem{ProblemID: "q"})
	}
	return p
}

func TestSelectTarget_Empty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	attacker := mkPlayer("a", 0, 0)

	assert.Nil(t, SelectTarget(protocol.TargetRandom, attacker, nil, 10, time.Now(), rng))
}

func TestSelectTarget_Random_Deterministic(t *testing.T) {
	attacker := mkPlayer("a", 0, 0)
	candidates := []*Player{mkPlayer("b", 0, 0), mkPlayer("c", 0, 0), mkPlayer("d", 0, 0)}
	now := time.Now()

	x := SelectTarget(protocol.TargetRandom, attacker, candidates, 10, now, rand.New(rand.NewSource(42)))
	y := SelectTarget(protocol.TargetRandom, attacker, candidates, 10, now, rand.New(rand.NewSource(42)))
	assert.Equal(t, x.PlayerID, y.PlayerID)
}

func TestSelectTarget_TopScore(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	attacker := mkPlayer("a", 0, 0)
	candidates := []*Player{mkPlayer("b", 10, 0), mkPlayer("c", 30, 0), mkPlayer("d", 20, 0)}

	got := SelectTarget(protocol.TargetTopScore, attacker, candidates, 10, time.Now(), rng)
	assert.Equal(t, "c", got.PlayerID)
}

func TestSelectTarget_TopScore_TiesUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	attacker := mkPlayer("a", 0, 0)
	candidates := []*Player{mkPlayer("b", 30, 0), mkPlayer("c", 30, 0), mkPlayer("d", 10, 0)}

	picked := map[string]bool{}
	for i := 0; i < 50; i++ {
		got := SelectTarget(protocol.TargetTopScore, attacker, candidates, 10, time.Now(), rng)
		picked[got.PlayerID] = true
	}
	assert.True(t, picked["b"] && picked["c"], "both tied leaders should be picked over many draws")
	assert.False(t, picked["d"])
}

func TestSelectTarget_NearDeath(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	attacker := mkPlayer("a", 0, 0)
	candidates := []*Player{mkPlayer("b", 0, 2), mkPlayer("c", 0, 7), mkPlayer("d", 0, 4)}

	got := SelectTarget(protocol.TargetNearDeath, attacker, candidates, 10, time.Now(), rng)
	assert.Equal(t, "c", got.PlayerID)
}

func TestSelectTarget_Attackers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Unix(1700000000, 0)
	attacker := mkPlayer("a", 0, 0)
	attacker.RecordIncomingAttack("c", now.Add(-5*time.Second))

	candidates := []*Player{mkPlayer("b", 0, 0), mkPlayer("c", 0, 0)}
	got := SelectTarget(protocol.TargetAttackers, attacker, candidates, 10, now, rng)
	assert.Equal(t, "c", got.PlayerID)
}

func TestSelectTarget_Attackers_FallbackToRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Unix(1700000000, 0)
	attacker := mkPlayer("a", 0, 0)
	// Only attack is outside the 20s window.
	attacker.RecentAttacks = []AttackRecord{{AttackerID: "c", At: now.Add(-20001 * time.Millisecond)}}

	candidates := []*Player{mkPlayer("b", 0, 0), mkPlayer("c", 0, 0)}
	got := SelectTarget(protocol.TargetAttackers, attacker, candidates, 10, now, rng)
	require.NotNil(t, got, "must fall back to random")
}

func TestSelectTarget_RankAbove(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	attacker := mkPlayer("a", 20, 0)
	candidates := []*Player{mkPlayer("b", 10, 0), mkPlayer("c", 30, 0), mkPlayer("d", 50, 0)}

	// Ranking: d(50), c(30), a(20), b(10). Immediately above a is c.
	got := SelectTarget(protocol.TargetRankAbove, attacker, candidates, 10, time.Now(), rng)
	assert.Equal(t, "c", got.PlayerID)
}

func TestSelectTarget_RankAbove_TopFallsBack(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	attacker := mkPlayer("a", 99, 0)
	candidates := []*Player{mkPlayer("b", 10, 0)}

	got := SelectTarget(protocol.TargetRankAbove, attacker, candidates, 10, time.Now(), rng)
	assert.Equal(t, "b", got.PlayerID, "top-ranked attacker falls back to random")
}
