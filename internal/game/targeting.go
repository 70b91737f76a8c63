package game

import (
	"math/rand"
	"sort"
	"time"

	"codeclash/internal/protocol"
)

// SelectTarget picks a victim among the eligible candidates under the
// attacker's targeting mode. Candidates must already be filtered for
// eligibility (alive, not the attacker, not a spectator, and not in grace
// when the attack applies a debuff). Returns nil when there is no candidate.
func SelectTarget(mode protocol.TargetingMode, attacker *Player, candidates []*Player, stackLimit int, now time.Time, rng *rand.Rand) *Player {
	if len(candidates) == 0 {
		return nil
	}

	switch mode {
	case protocol.TargetTopScore:
		return pickUniform(maxBy(candidates, func(p *Player) int { return p.Score }), rng)

	case protocol.TargetNearDeath:
		// Same stackLimit for everyone, so the max fill ratio is the max
		// stack size.
		return pickUniform(maxBy(candidates, func(p *Player) int { return p.StackSize() }), rng)

	case protocol.TargetAttackers:
		recent := attacker.AttackersWithin(AttackerWindow, now)
		var pool []*Player
		for _, c := range candidates {
			for _, id := range recent {
				if c.PlayerID == id {
					pool = append(pool, c)
					break
				}
			}
		}
		if len(pool) == 0 {
			return pickUniform(candidates, rng)
		}
		return pickUniform(pool, rng)

	case protocol.TargetRankAbove:
		if t := rankAbove(attacker, candidates); t != nil {
			return t
		}
		return pickUniform(candidates, rng)

	default: // random
		return pickUniform(candidates, rng)
	}
}

// rankAbove finds the candidate immediately above the attacker in the score
// ranking of attacker+candidates. Nil when the attacker is ranked first.
func rankAbove(attacker *Player, candidates []*Player) *Player {
	ranking := make([]*Player, 0, len(candidates)+1)
	ranking = append(ranking, candidates...)
	ranking = append(ranking, attacker)
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].PlayerID < ranking[j].PlayerID
	})

	for i, p := range ranking {
		if p.PlayerID == attacker.PlayerID {
			if i == 0 {
				return nil
			}
			return ranking[i-1]
		}
	}
	return nil
}

func maxBy(players []*Player, key func(*Player) int) []*Player {
	best := key(players[0])
	for _, p := range players[1:] {
		if v := key(p); v > best {
			best = v
		}
	}
	var out []*Player
	for _, p := range players {
		if key(p) == best {
			out = append(out, p)
		}
	}
	return out
}

func pickUniform(players []*Player, rng *rand.Rand) *Player {
	if len(players) == 0 {
		return nil
	}
	return players[rng.Intn(len(players))]
}
