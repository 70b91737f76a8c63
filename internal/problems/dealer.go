package problems

import (
	"math/rand"

	"codeclash/internal/protocol"
)

// Dealer deals problems to players, tracking per-player seen sets so a player
// never repeats a problem until the pool is exhausted. One Dealer belongs to
// one room; the underlying Library is shared.
type Dealer struct {
	lib  *Library
	rng  *rand.Rand
	seen map[string]map[string]bool // playerID -> problemID set
}

// NewDealer creates a dealer with a seedable randomness source.
func NewDealer(lib *Library, rng *rand.Rand) *Dealer {
	return &Dealer{
		lib:  lib,
		rng:  rng,
		seen: make(map[string]map[string]bool),
	}
}

// Sample draws one problem for the player, weighted by the difficulty
// profile. With excludeGarbage the candidate pool contains only scoring
// problems; otherwise garbage problems are candidates too. When every
// candidate has been seen, the player's seen set is reset and the pool
// refilled.
func (d *Dealer) Sample(playerID string, profile protocol.DifficultyProfile, excludeGarbage bool) *protocol.Problem {
	seen := d.seen[playerID]
	if seen == nil {
		seen = make(map[string]bool)
		d.seen[playerID] = seen
	}

	pool := d.candidates(seen, excludeGarbage)
	if len(pool) == 0 {
		// Exhausted: reset and refill.
		clear(seen)
		pool = d.candidates(seen, excludeGarbage)
	}

	p := d.weightedPick(pool, profile)
	seen[p.ProblemID] = true
	return p
}

// Garbage draws a random garbage problem. Garbage is exempt from seen-set
// tracking; the same junk can land on a player twice.
func (d *Dealer) Garbage() *protocol.Problem {
	if len(d.lib.garbage) == 0 {
		return nil
	}
	return d.lib.garbage[d.rng.Intn(len(d.lib.garbage))]
}

// Seen returns a copy of the player's seen set, for snapshotting.
func (d *Dealer) Seen(playerID string) []string {
	ids := make([]string, 0, len(d.seen[playerID]))
	for id := range d.seen[playerID] {
		ids = append(ids, id)
	}
	return ids
}

// RestoreSeen reinstalls a seen set from a snapshot.
func (d *Dealer) RestoreSeen(playerID string, ids []string) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	d.seen[playerID] = seen
}

// Forget drops the player's seen set (on return to lobby or elimination
// cleanup).
func (d *Dealer) Forget(playerID string) {
	delete(d.seen, playerID)
}

func (d *Dealer) candidates(seen map[string]bool, excludeGarbage bool) []*protocol.Problem {
	pool := make([]*protocol.Problem, 0, len(d.lib.all)+len(d.lib.garbage))
	for _, p := range d.lib.all {
		if !seen[p.ProblemID] {
			pool = append(pool, p)
		}
	}
	if !excludeGarbage {
		for _, p := range d.lib.garbage {
			if !seen[p.ProblemID] {
				pool = append(pool, p)
			}
		}
	}
	return pool
}

func (d *Dealer) weightedPick(pool []*protocol.Problem, profile protocol.DifficultyProfile) *protocol.Problem {
	easy, medium, hard := Weights(profile)

	total := 0
	for _, p := range pool {
		total += weightOf(p.Difficulty, easy, medium, hard)
	}
	if total <= 0 {
		return pool[d.rng.Intn(len(pool))]
	}

	pick := d.rng.Intn(total)
	for _, p := range pool {
		pick -= weightOf(p.Difficulty, easy, medium, hard)
		if pick < 0 {
			return p
		}
	}
	return pool[len(pool)-1]
}
