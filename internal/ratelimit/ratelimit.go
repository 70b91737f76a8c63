// Package ratelimit implements the per-player per-action sliding window.
// Check is a pure function over (action, state, now) so the room actor can
// keep the window state inside each player record.
package ratelimit

import "time"

// Action names a rate-limited command.
type Action string

const (
	ActionRunCode        Action = "RUN_CODE"
	ActionSubmitCode     Action = "SUBMIT_CODE"
	ActionCodeUpdate     Action = "CODE_UPDATE"
	ActionSpectatePlayer Action = "SPECTATE_PLAYER"
	ActionSendChat       Action = "SEND_CHAT"
)

// Limit is a window length and the number of requests it admits.
type Limit struct {
	Interval time.Duration
	Max      int
}

var limits = map[Action]Limit{
	ActionRunCode:        {Interval: 2000 * time.Millisecond, Max: 1},
	ActionSubmitCode:     {Interval: 3000 * time.Millisecond, Max: 1},
	ActionCodeUpdate:     {Interval: 100 * time.Millisecond, Max: 10},
	ActionSpectatePlayer: {Interval: 1000 * time.Millisecond, Max: 1},
	ActionSendChat:       {Interval: 500 * time.Millisecond, Max: 2},
}

// LimitFor returns the configured limit for an action.
func LimitFor(action Action) (Limit, bool) {
	l, ok := limits[action]
	return l, ok
}

// State is the per-(player, action) window.
type State struct {
	WindowStart time.Time `json:"windowStart"`
	Count       int       `json:"count"`
}

// Result of a rate-limit check.
type Result struct {
	Allowed    bool
	State      State
	RetryAfter time.Duration
}

// Check applies the window for action to the given state. Unknown actions
// always pass with the state unchanged.
func Check(action Action, st State, now time.Time) Result {
	limit, ok := limits[action]
	if !ok {
		return Result{Allowed: true, State: st}
	}

	elapsed := now.Sub(st.WindowStart)
	if st.WindowStart.IsZero() || elapsed >= limit.Interval {
		return Result{Allowed: true, State: State{WindowStart: now, Count: 1}}
	}
	if st.Count < limit.Max {
		st.Count++
		return Result{Allowed: true, State: st}
	}
	return Result{
		Allowed:    false,
		State:      st,
		RetryAfter: limit.Interval - elapsed,
	}
}
