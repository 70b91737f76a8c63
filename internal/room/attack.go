package room

import (
	"time"

	"codeclash/internal/game"
	"codeclash/internal/protocol"
)

// emitAttack routes an attack from a passing submit to a victim under the
// attacker's targeting mode. No eligible target makes the attack fizzle.
func (r *Room) emitAttack(attacker *game.Player, attackType protocol.AttackType, now time.Time) {
	candidates := r.eligibleTargets(attacker, attackType, now)
	target := game.SelectTarget(attacker.TargetingMode, attacker, candidates, r.match.Settings.StackLimit, now, r.rng)
	if target == nil {
		return
	}
	r.metrics.AttacksEmitted.WithLabelValues(string(attackType)).Inc()
	r.applyAttack(attacker, target, attackType, now)
}

// eligibleTargets filters for alive non-spectators other than the attacker.
// Grace shields against debuffs but not against garbage drops.
func (r *Room) eligibleTargets(attacker *game.Player, attackType protocol.AttackType, now time.Time) []*game.Player {
	var out []*game.Player
	for _, p := range r.players {
		if p.PlayerID == attacker.PlayerID || !p.IsAlive() {
			continue
		}
		if attackType.IsDebuff() && p.InGrace(now) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *Room) applyAttack(attacker, target *game.Player, attackType protocol.AttackType, now time.Time) {
	target.RecordIncomingAttack(attacker.PlayerID, now)

	received := protocol.AttackReceivedPayload{
		AttackerID: attacker.PlayerID,
		Attacker:   attacker.Username,
		Type:       attackType,
	}

	if attackType == protocol.AttackGarbageDrop {
		r.send(target.PlayerID, protocol.Encode(protocol.EvtAttackReceived, "", received))
		r.logEvent("info", attacker.Username+" dropped garbage on "+target.Username)
		r.pushProblem(target, r.dealer.Garbage(), true, now)
		r.dirty = true
		return
	}

	duration := game.DebuffDuration(attackType.Debuff(), r.match.Settings.AttackIntensity)
	target.ActiveDebuff = &game.Debuff{
		Type:   attackType.Debuff(),
		EndsAt: now.Add(duration),
	}
	target.Status = protocol.StatusUnderAttack
	received.EndsAt = target.ActiveDebuff.EndsAt.UnixMilli()

	r.send(target.PlayerID, protocol.Encode(protocol.EvtAttackReceived, "", received))
	r.logEvent("info", attacker.Username+" hit "+target.Username+" with "+string(attackType))
	r.broadcastPlayerUpdate(target)
	r.dirty = true
}
