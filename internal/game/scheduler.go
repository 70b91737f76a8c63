package game

import (
	"time"

	"codeclash/internal/protocol"
)

const (
	// WarmupArrivalInterval is the base problem arrival interval in warmup.
	WarmupArrivalInterval = 90 * time.Second
	// MainArrivalInterval is the base problem arrival interval in main.
	MainArrivalInterval = 60 * time.Second
	// MinAlarmDelay is the busy-loop floor on the room's single alarm.
	MinAlarmDelay = time.Second

	// RateLimiterBuffDuration is how long the shop rateLimiter buff holds.
	RateLimiterBuffDuration = 30 * time.Second
)

// EffectiveInterval computes a player's problem arrival interval:
// base(phase) halved under memoryLeak, doubled under the rateLimiter buff.
func EffectiveInterval(phase protocol.MatchPhase, hasMemoryLeak, hasRateLimiter bool) time.Duration {
	base := MainArrivalInterval
	if phase == protocol.PhaseWarmup {
		base = WarmupArrivalInterval
	}
	if hasMemoryLeak {
		base /= 2
	}
	if hasRateLimiter {
		base *= 2
	}
	return base
}

// NextArrival returns when the player's next problem is due, given their
// last arrival and current modifiers.
func NextArrival(p *Player, phase protocol.MatchPhase, now time.Time) time.Time {
	interval := EffectiveInterval(phase,
		p.HasDebuff(protocol.DebuffMemoryLeak, now),
		p.HasBuff(protocol.BuffRateLimiter, now))
	return p.LastArrivalAt.Add(interval)
}

// NextWakeup folds a set of pending absolute instants (per-player arrivals,
// debuff/buff expiries, bot actions, phase boundaries) into the single alarm
// the room arms, clamped to the MinAlarmDelay floor. Zero instants are
// ignored; returns the zero time when nothing is pending.
func NextWakeup(now time.Time, instants ...time.Time) time.Time {
	var min time.Time
	for _, t := range instants {
		if t.IsZero() {
			continue
		}
		if min.IsZero() || t.Before(min) {
			min = t
		}
	}
	if min.IsZero() {
		return time.Time{}
	}
	if floor := now.Add(MinAlarmDelay); min.Before(floor) {
		return floor
	}
	return min
}
