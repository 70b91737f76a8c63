package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclash/internal/game"
	"codeclash/internal/protocol"
)

func mcqProblem(id string) *protocol.Problem {
	return &protocol.Problem{
		ProblemID:     id,
		Title:         "Quiz " + id,
		Difficulty:    protocol.DifficultyMedium,
		ProblemType:   protocol.ProblemMCQ,
		Prompt:        "pick one",
		TimeLimitMs:   3000,
		Options:       []string{"a", "b", "c"},
		CorrectAnswer: "b",
	}
}

func TestRunCodeBlockedByDDoS(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)

	alice := f.player("alice")
	alice.CurrentProblem = easyProblem("p1")
	alice.ActiveDebuff = &game.Debuff{
		Type:   protocol.DebuffDDoS,
		EndsAt: f.clock.Now().Add(10 * time.Second),
	}

	f.command(aliceConn, protocol.CmdRunCode, "rq", protocol.RunCodePayload{ProblemID: "p1", Code: "x"})
	payload := decodePayload[protocol.ErrorPayload](t, aliceConn.last(t, protocol.EvtError))
	assert.Equal(t, protocol.ErrForbidden, payload.Code)
	assert.Zero(t, f.judge.calls.Load())
}

func TestRunCodeWrongProblemRejected(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	f.player("alice").CurrentProblem = easyProblem("p1")

	f.command(aliceConn, protocol.CmdRunCode, "rq", protocol.RunCodePayload{ProblemID: "other", Code: "x"})
	payload := decodePayload[protocol.ErrorPayload](t, aliceConn.last(t, protocol.EvtError))
	assert.Equal(t, protocol.ErrBadRequest, payload.Code)
}

func TestRunCodeRateLimited(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	f.player("alice").CurrentProblem = easyProblem("p1")
	f.judge.result = protocol.JudgeResult{Passed: false}

	f.command(aliceConn, protocol.CmdRunCode, "rq1", protocol.RunCodePayload{ProblemID: "p1", Code: "x"})
	f.pumpOne(t)
	f.command(aliceConn, protocol.CmdRunCode, "rq2", protocol.RunCodePayload{ProblemID: "p1", Code: "x"})

	payload := decodePayload[protocol.ErrorPayload](t, aliceConn.last(t, protocol.EvtError))
	assert.Equal(t, protocol.ErrRateLimited, payload.Code)
	assert.Greater(t, payload.RetryAfterMs, int64(0))
	assert.Equal(t, int32(1), f.judge.calls.Load())
}

func TestSubmitMCQJudgedLocally(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.CurrentProblem = mcqProblem("q1")

	// Wrong option: fail, streak reset, no judge call.
	alice.Streak = 2
	f.command(aliceConn, protocol.CmdSubmitCode, "rq1", protocol.SubmitCodePayload{ProblemID: "q1", OptionID: "a"})
	result := decodePayload[protocol.JudgeResult](t, aliceConn.last(t, protocol.EvtJudgeResult))
	assert.False(t, result.Passed)
	assert.Zero(t, alice.Streak)
	assert.Zero(t, f.judge.calls.Load())

	// Right option scores medium points and advances.
	f.clock.Advance(5 * time.Second)
	alice.CurrentProblem = mcqProblem("q2")
	f.command(aliceConn, protocol.CmdSubmitCode, "rq2", protocol.SubmitCodePayload{ProblemID: "q2", OptionID: "b"})
	result = decodePayload[protocol.JudgeResult](t, aliceConn.last(t, protocol.EvtJudgeResult))
	assert.True(t, result.Passed)
	assert.Equal(t, 10, alice.Score)
	assert.Equal(t, 1, alice.Streak)
	assert.NotEqual(t, "q2", alice.CurrentProblem.ProblemID)
	assert.Zero(t, f.judge.calls.Load())
}

func TestSubmitCachedResultSkipsJudge(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.CurrentProblem = easyProblem("p1")
	f.judge.result = protocol.JudgeResult{Passed: true}

	f.command(aliceConn, protocol.CmdSubmitCode, "rq1", protocol.SubmitCodePayload{ProblemID: "p1", Code: "same"})
	f.pumpOne(t)
	require.Equal(t, int32(1), f.judge.calls.Load())
	assert.Equal(t, 5, alice.Score)

	// The same code against the same problem replays from cache.
	f.clock.Advance(5 * time.Second)
	alice.CurrentProblem = easyProblem("p1")
	f.command(aliceConn, protocol.CmdSubmitCode, "rq2", protocol.SubmitCodePayload{ProblemID: "p1", Code: "same"})

	assert.Equal(t, int32(1), f.judge.calls.Load(), "cache must satisfy the replay")
	assert.Equal(t, 10, alice.Score)

	// After the TTL the cache entry is gone.
	f.clock.Advance(31 * time.Second)
	alice.CurrentProblem = easyProblem("p1")
	f.command(aliceConn, protocol.CmdSubmitCode, "rq3", protocol.SubmitCodePayload{ProblemID: "p1", Code: "same"})
	f.pumpOne(t)
	assert.Equal(t, int32(2), f.judge.calls.Load())
}

func TestFailingSubmitFlickersErrorStatus(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.CurrentProblem = easyProblem("p1")
	alice.Streak = 4
	f.judge.result = protocol.JudgeResult{Passed: false}

	aliceConn.reset()
	f.command(aliceConn, protocol.CmdSubmitCode, "rq", protocol.SubmitCodePayload{ProblemID: "p1", Code: "bad"})
	f.pumpOne(t)

	updates := aliceConn.byType(protocol.EvtPlayerUpdate)
	require.NotEmpty(t, updates)
	var sawError bool
	for _, env := range updates {
		if decodePayload[protocol.PlayerPublic](t, env).Status == protocol.StatusError {
			sawError = true
		}
	}
	assert.True(t, sawError, "the error status must be observable")
	assert.Equal(t, protocol.StatusCoding, alice.Status)
	assert.Zero(t, alice.Streak)
	assert.Equal(t, "p1", alice.CurrentProblem.ProblemID, "a failing submit does not advance")
}

func TestShopClearDebuffGrantsGrace(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.Score = 10
	alice.Status = protocol.StatusUnderAttack
	alice.ActiveDebuff = &game.Debuff{
		Type:   protocol.DebuffVimLock,
		EndsAt: f.clock.Now().Add(10 * time.Second),
	}

	f.command(aliceConn, protocol.CmdSpendPoints, "rq", protocol.SpendPointsPayload{Item: protocol.ItemClearDebuff})

	assert.Nil(t, alice.ActiveDebuff)
	assert.Equal(t, protocol.StatusCoding, alice.Status)
	assert.Zero(t, alice.Score)
	assert.True(t, alice.InGrace(f.clock.Now()))

	cleared := decodePayload[protocol.AttackReceivedPayload](t, aliceConn.last(t, protocol.EvtAttackReceived))
	assert.True(t, cleared.Cleared)
}

func TestShopMemoryDefragDropsGarbageOnly(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.Score = 10
	garbage := &protocol.Problem{ProblemID: "junk", Title: "Junk", Difficulty: protocol.DifficultyEasy,
		ProblemType: protocol.ProblemCode, Prompt: "x", TimeLimitMs: 1000, IsGarbage: true}
	alice.Queue = []*protocol.Problem{garbage, easyProblem("keep"), garbage}

	f.command(aliceConn, protocol.CmdSpendPoints, "rq", protocol.SpendPointsPayload{Item: protocol.ItemMemoryDefrag})

	require.Len(t, alice.Queue, 1)
	assert.Equal(t, "keep", alice.Queue[0].ProblemID)
	assert.Zero(t, alice.Score)
}

func TestShopSkipProblemNegativeScoreFlag(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.Score = 5
	alice.Streak = 3

	// Default: no negative scores.
	f.command(aliceConn, protocol.CmdSpendPoints, "rq1", protocol.SpendPointsPayload{Item: protocol.ItemSkipProblem})
	payload := decodePayload[protocol.ErrorPayload](t, aliceConn.last(t, protocol.EvtError))
	assert.Equal(t, protocol.ErrInsufficientScore, payload.Code)
	assert.Equal(t, 5, alice.Score)

	// With the escape hatch the skip goes through and the score dips below
	// zero.
	f.room.opts.AllowNegativeSkip = true
	before := alice.CurrentProblem.ProblemID
	f.command(aliceConn, protocol.CmdSpendPoints, "rq2", protocol.SpendPointsPayload{Item: protocol.ItemSkipProblem})
	assert.Equal(t, -10, alice.Score)
	assert.Zero(t, alice.Streak)
	assert.NotEqual(t, before, alice.CurrentProblem.ProblemID)
}

func TestShopHintRevealsAndNoOpsWhenExhausted(t *testing.T) {
	f := newFixture(t)
	aliceConn, _ := f.startDuel(t)
	alice := f.player("alice")
	alice.Score = 20
	problem := easyProblem("hinted")
	problem.Hints = []string{"first hint"}
	alice.CurrentProblem = problem

	f.command(aliceConn, protocol.CmdSpendPoints, "rq1", protocol.SpendPointsPayload{Item: protocol.ItemHint})
	assert.Equal(t, 1, alice.RevealedHints)
	assert.Equal(t, 15, alice.Score)

	snap := decodePayload[protocol.RoomSnapshot](t, aliceConn.last(t, protocol.EvtRoomSnapshot))
	require.NotNil(t, snap.Self)
	assert.Equal(t, []string{"first hint"}, snap.Self.RevealedHints)

	// Nothing left to reveal: free no-op.
	f.command(aliceConn, protocol.CmdSpendPoints, "rq2", protocol.SpendPointsPayload{Item: protocol.ItemHint})
	assert.Equal(t, 1, alice.RevealedHints)
	assert.Equal(t, 15, alice.Score)
}

func TestShopRequiresRunningMatch(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "Alice", protocol.RolePlayer)
	alice := f.join(t, "alice")
	f.player("alice").Score = 100

	f.command(alice, protocol.CmdSpendPoints, "rq", protocol.SpendPointsPayload{Item: protocol.ItemHint})
	payload := decodePayload[protocol.ErrorPayload](t, alice.last(t, protocol.EvtError))
	assert.Equal(t, protocol.ErrMatchNotStarted, payload.Code)
}

func TestBotsSolveAndAttack(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "Alice", protocol.RolePlayer)
	alice := f.join(t, "alice")
	long := 600
	f.command(alice, protocol.CmdUpdateSettings, "", protocol.UpdateSettingsPayload{
		Patch: protocol.SettingsPatch{MatchDurationSec: &long},
	})
	f.command(alice, protocol.CmdAddBots, "", protocol.AddBotsPayload{Count: 1})
	f.command(alice, protocol.CmdStartMatch, "", nil)
	require.Equal(t, protocol.PhaseWarmup, f.room.match.Phase)

	var bot *game.Player
	for _, p := range f.room.players {
		if p.Role == protocol.RoleBot {
			bot = p
		}
	}
	require.NotNil(t, bot)
	require.False(t, bot.NextBotActionAt.IsZero(), "bots must be scheduled at match start")

	// A bot attempts a solve every 15..110s; across nine minutes at least
	// one pass lands, which scores and attacks the only rival.
	for i := 0; i < 9 && bot.Score == 0 && f.room.match.InProgress(); i++ {
		f.clock.Advance(time.Minute)
		f.alarm()
	}
	assert.Positive(t, bot.Score, "the bot should have solved something")
}
