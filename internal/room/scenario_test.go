package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclash/internal/game"
	"codeclash/internal/judge"
	"codeclash/internal/protocol"
)

// Two players; repeated garbage drops overflow the victim's stack and end the
// match by last-alive.
func TestScenarioLastAliveWin(t *testing.T) {
	f := newFixture(t)
	f.room.settings.StackLimit = 5
	f.room.settings.StartingQueued = 3
	aliceConn, _ := f.startDuel(t)

	alice := f.player("alice")
	bob := f.player("bob")
	require.Equal(t, 3, bob.StackSize())

	// Two easy solves drop garbage on Bob (streaks 1 and 2), a failed
	// submit resets the streak, and the next solve drops the garbage that
	// overflows him.
	f.judge.result = protocol.JudgeResult{Passed: true}
	for i := 0; i < 2; i++ {
		alice.CurrentProblem = easyProblem("warm")
		f.room.settleSubmit(alice, alice.CurrentProblem, true)
	}
	assert.Equal(t, 5, bob.StackSize())
	assert.Equal(t, 2, alice.Streak)

	f.room.settleSubmit(alice, easyProblem("fail"), false)
	assert.Zero(t, alice.Streak)

	aliceConn.reset()
	alice.CurrentProblem = easyProblem("final")
	f.room.settleSubmit(alice, alice.CurrentProblem, true)

	assert.Equal(t, protocol.StatusEliminated, bob.Status)
	assert.Equal(t, protocol.PhaseEnded, f.room.match.Phase)

	end := decodePayload[protocol.MatchEndPayload](t, aliceConn.last(t, protocol.EvtMatchEnd))
	assert.Equal(t, protocol.EndLastAlive, end.Reason)
	assert.Equal(t, "alice", end.WinnerID)
	require.Len(t, end.Standings, 2)
	assert.Equal(t, "alice", end.Standings[0].PlayerID)
	assert.Equal(t, 1, end.Standings[0].Rank)
	assert.Equal(t, "bob", end.Standings[1].PlayerID)
	assert.Equal(t, 2, end.Standings[1].Rank)

	// MATCH_END is the final event on the stream.
	assert.Equal(t, protocol.EvtMatchEnd, aliceConn.sent[len(aliceConn.sent)-1].Type)
}

// Three consecutive easy solves: garbageDrop, garbageDrop, then the streak-3
// memoryLeak, which halves the victim's arrival interval.
func TestScenarioStreakMemoryLeak(t *testing.T) {
	f := newFixture(t)
	_, bobConn := f.startDuel(t)

	// Move into main phase so the base interval is 60s.
	f.clock.Advance(31 * time.Second)
	f.alarm()
	require.Equal(t, protocol.PhaseMain, f.room.match.Phase)

	alice := f.player("alice")
	bob := f.player("bob")
	bobConn.reset()

	var types []protocol.AttackType
	for i := 0; i < 3; i++ {
		alice.CurrentProblem = easyProblem("streak")
		f.room.settleSubmit(alice, alice.CurrentProblem, true)
	}
	for _, env := range bobConn.byType(protocol.EvtAttackReceived) {
		types = append(types, decodePayload[protocol.AttackReceivedPayload](t, env).Type)
	}
	require.Equal(t, []protocol.AttackType{
		protocol.AttackGarbageDrop,
		protocol.AttackGarbageDrop,
		protocol.AttackMemoryLeak,
	}, types)

	require.NotNil(t, bob.ActiveDebuff)
	assert.Equal(t, protocol.DebuffMemoryLeak, bob.ActiveDebuff.Type)

	now := f.clock.Now()
	next := game.NextArrival(bob, f.room.match.Phase, now)
	assert.Equal(t, bob.LastArrivalAt.Add(30*time.Second), next, "memoryLeak halves the 60s main interval")
}

// The rateLimiter buff doubles the arrival interval and sits on a 60s item
// cooldown.
func TestScenarioShopRateLimiter(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)

	f.clock.Advance(31 * time.Second)
	f.alarm()
	require.Equal(t, protocol.PhaseMain, f.room.match.Phase)

	alice := f.player("alice")
	alice.Score = 10
	require.Nil(t, alice.ActiveBuff)

	f.command(aliceConn, protocol.CmdSpendPoints, "rq1", protocol.SpendPointsPayload{Item: protocol.ItemRateLimiter})

	require.NotNil(t, alice.ActiveBuff)
	assert.Equal(t, protocol.BuffRateLimiter, alice.ActiveBuff.Type)
	assert.Zero(t, alice.Score)

	now := f.clock.Now()
	next := game.NextArrival(alice, f.room.match.Phase, now)
	assert.Equal(t, alice.LastArrivalAt.Add(120*time.Second), next, "buff doubles the 60s main interval")

	// A second purchase inside the 60s cooldown is refused with the
	// remaining wait.
	f.clock.Advance(10 * time.Second)
	alice.Score = 10
	f.command(aliceConn, protocol.CmdSpendPoints, "rq2", protocol.SpendPointsPayload{Item: protocol.ItemRateLimiter})
	payload := decodePayload[protocol.ErrorPayload](t, aliceConn.last(t, protocol.EvtError))
	assert.Equal(t, protocol.ErrItemOnCooldown, payload.Code)
	assert.LessOrEqual(t, payload.RetryAfterMs, int64(60000))
	assert.Greater(t, payload.RetryAfterMs, int64(0))
}

// A mid-match reconnect delivers the same snapshot shape as a fresh join,
// with the player's private state intact.
func TestScenarioReconnectWithinMatch(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)

	alice := f.player("alice")
	alice.Score = 15
	alice.Code = "let answer = 42"
	alice.CodeVersion = 7

	f.room.handleEvent(connClosed{conn: aliceConn})
	require.False(t, alice.Connected)

	f.clock.Advance(5 * time.Second)
	fresh := f.join(t, "alice")

	snap := decodePayload[protocol.RoomSnapshot](t, fresh.last(t, protocol.EvtRoomSnapshot))
	assert.Equal(t, "ROOM1", snap.RoomID)
	assert.Equal(t, "alice", snap.Me.PlayerID)
	require.NotNil(t, snap.Self)
	assert.Equal(t, "let answer = 42", snap.Self.Code)
	assert.Equal(t, 7, snap.Self.CodeVersion)
	assert.Len(t, snap.Self.Queued, alice.StackSize())
	require.NotNil(t, snap.Self.CurrentProblem)
	assert.Equal(t, alice.CurrentProblem.ProblemID, snap.Self.CurrentProblem.ProblemID)

	var self protocol.PlayerPublic
	for _, p := range snap.Players {
		if p.PlayerID == "alice" {
			self = p
		}
	}
	assert.Equal(t, 15, self.Score)
	assert.True(t, self.Connected)
}

// A judge outage surfaces as JUDGE_UNAVAILABLE and mutates nothing.
func TestScenarioJudgeUnavailable(t *testing.T) {
	f := newFixture(t)
	aliceConn, bobConn := f.startDuel(t)

	alice := f.player("alice")
	alice.CurrentProblem = easyProblem("offline")
	alice.Score = 5
	alice.Streak = 1
	bobConn.reset()

	f.judge.err = &judge.UnavailableError{RetryAfter: 7 * time.Second}
	f.command(aliceConn, protocol.CmdSubmitCode, "rq-sub", protocol.SubmitCodePayload{
		ProblemID: "offline",
		Code:      "whatever",
	})
	f.pumpOne(t)

	env := aliceConn.last(t, protocol.EvtError)
	payload := decodePayload[protocol.ErrorPayload](t, env)
	assert.Equal(t, protocol.ErrJudgeUnavailable, payload.Code)
	assert.Equal(t, "rq-sub", env.RequestID)
	assert.Equal(t, int64(7000), payload.RetryAfterMs)

	assert.Equal(t, 5, alice.Score)
	assert.Equal(t, 1, alice.Streak)
	assert.Equal(t, "offline", alice.CurrentProblem.ProblemID)
	assert.Empty(t, bobConn.byType(protocol.EvtAttackReceived), "no attack may be emitted")

	// The player may retry once the judge recovers.
	f.judge.err = nil
	f.judge.result = protocol.JudgeResult{Passed: true}
	f.clock.Advance(5 * time.Second)
	f.command(aliceConn, protocol.CmdSubmitCode, "rq-retry", protocol.SubmitCodePayload{
		ProblemID: "offline",
		Code:      "whatever",
	})
	f.pumpOne(t)
	assert.Equal(t, 10, alice.Score)
	assert.Equal(t, 2, alice.Streak)
}

// Time expiry ranks by score, then lower stack, among the alive.
func TestScenarioTimeExpiredOrdering(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "Alice", protocol.RolePlayer)
	f.register(t, "bob", "Bob", protocol.RolePlayer)
	f.register(t, "carol", "Carol", protocol.RolePlayer)
	aliceConn := f.join(t, "alice")
	f.join(t, "bob")
	f.join(t, "carol")

	short := 3
	f.command(aliceConn, protocol.CmdUpdateSettings, "", protocol.UpdateSettingsPayload{
		Patch: protocol.SettingsPatch{MatchDurationSec: &short},
	})
	f.command(aliceConn, protocol.CmdStartMatch, "", nil)
	require.Equal(t, protocol.PhaseWarmup, f.room.match.Phase)

	setStack := func(id string, score, stack int) {
		p := f.player(id)
		p.Score = score
		p.Queue = nil
		for i := 0; i < stack; i++ {
			p.Queue = append(p.Queue, easyProblem("pad"))
		}
	}
	setStack("alice", 30, 2)
	setStack("bob", 30, 5)
	setStack("carol", 20, 3)

	aliceConn.reset()
	f.clock.Advance(4 * time.Second)
	f.alarm()

	require.Equal(t, protocol.PhaseEnded, f.room.match.Phase)
	end := decodePayload[protocol.MatchEndPayload](t, aliceConn.last(t, protocol.EvtMatchEnd))
	assert.Equal(t, protocol.EndTimeExpired, end.Reason)
	assert.Equal(t, "alice", end.WinnerID)
	require.Len(t, end.Standings, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{
		end.Standings[0].PlayerID,
		end.Standings[1].PlayerID,
		end.Standings[2].PlayerID,
	})

	// The results sink receives the final standings.
	require.Eventually(t, func() bool {
		return f.results.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
