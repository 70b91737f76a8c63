package room

import (
	"time"

	"codeclash/internal/game"
	"codeclash/internal/protocol"
)

// runBots lets every due bot take its shot at its current problem. Bots never
// touch the judge: a pass/fail draw stands in for a real evaluation, and a
// passing attempt feeds the same settle path a human submit does.
func (r *Room) runBots(now time.Time) {
	for _, pl := range r.players {
		if pl.Role != protocol.RoleBot || !pl.IsAlive() {
			continue
		}
		if pl.NextBotActionAt.IsZero() || pl.NextBotActionAt.After(now) {
			continue
		}
		if pl.CurrentProblem == nil {
			continue
		}
		// ddos blocks bots from submitting just like humans.
		if pl.HasDebuff(protocol.DebuffDDoS, now) {
			pl.NextBotActionAt = pl.ActiveDebuff.EndsAt
			continue
		}
		if !r.match.InProgress() {
			return
		}

		problem := pl.CurrentProblem
		if game.BotPasses(r.rng) {
			r.settleSubmit(pl, problem, true)
		} else {
			r.settleSubmit(pl, problem, false)
			// Failed attempt; the bot regroups and tries the same problem.
			pl.NextBotActionAt = now.Add(game.BotSolveTime(problem.Difficulty, r.rng))
		}
		r.dirty = true
	}
}
