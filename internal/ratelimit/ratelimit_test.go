package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_FirstRequestAllowed(t *testing.T) {
	now := time.Now()

	res := Check(ActionRunCode, State{}, now)

	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.State.Count)
	assert.Equal(t, now, res.State.WindowStart)
}

func TestCheck_SecondRequestWithinWindowRefused(t *testing.T) {
	now := time.Now()

	first := Check(ActionRunCode, State{}, now)
	second := Check(ActionRunCode, first.State, now.Add(500*time.Millisecond))

	assert.False(t, second.Allowed)
	// retryAfterMs = interval - elapsed
	assert.Equal(t, 1500*time.Millisecond, second.RetryAfter)
}

func TestCheck_WindowExpiryResets(t *testing.T) {
	now := time.Now()

	first := Check(ActionSubmitCode, State{}, now)
	second := Check(ActionSubmitCode, first.State, now.Add(3*time.Second))

	assert.True(t, second.Allowed)
	assert.Equal(t, 1, second.State.Count)
}

func TestCheck_BurstActionsExactLimit(t *testing.T) {
	now := time.Now()
	limit, ok := LimitFor(ActionCodeUpdate)
	require.True(t, ok)

	st := State{}
	for i := 0; i < limit.Max; i++ {
		res := Check(ActionCodeUpdate, st, now.Add(time.Duration(i)*time.Millisecond))
		require.True(t, res.Allowed, "request %d should be allowed", i+1)
		st = res.State
	}

	// The (max+1)th request inside the window is refused.
	res := Check(ActionCodeUpdate, st, now.Add(50*time.Millisecond))
	assert.False(t, res.Allowed)
	assert.Equal(t, limit.Interval-50*time.Millisecond, res.RetryAfter)
}

func TestCheck_ChatAllowsTwoPerWindow(t *testing.T) {
	now := time.Now()

	first := Check(ActionSendChat, State{}, now)
	second := Check(ActionSendChat, first.State, now.Add(100*time.Millisecond))
	third := Check(ActionSendChat, second.State, now.Add(200*time.Millisecond))

	assert.True(t, first.Allowed)
	assert.True(t, second.Allowed)
	assert.False(t, third.Allowed)
}

func TestCheck_UnknownActionPasses(t *testing.T) {
	st := State{WindowStart: time.Now(), Count: 99}

	res := Check(Action("SOMETHING_ELSE"), st, time.Now())

	assert.True(t, res.Allowed)
	assert.Equal(t, st, res.State)
}

func TestCheck_Deterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := State{WindowStart: now.Add(-time.Second), Count: 1}

	a := Check(ActionRunCode, st, now)
	b := Check(ActionRunCode, st, now)

	assert.Equal(t, a, b)
}
