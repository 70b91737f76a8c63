package room

import (
	"time"

	"codeclash/internal/game"
	"codeclash/internal/protocol"
)

func (r *Room) handleSpendPoints(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.SpendPointsPayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	if p.Role != protocol.RolePlayer {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "spectators cannot buy items", 0)
		return
	}
	if !r.match.InProgress() {
		r.sendError(conn, env.RequestID, protocol.ErrMatchNotStarted, "the shop opens when the match starts", 0)
		return
	}
	item, ok := protocol.ShopItemByID(payload.Item)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "unknown item "+payload.Item, 0)
		return
	}

	now := r.now()
	if denial := game.CanPurchase(p, item, now, r.opts.AllowNegativeSkip); denial != nil {
		r.sendError(conn, env.RequestID, denial.Code, denial.Message, denial.RetryAfter)
		return
	}

	switch item.ID {
	case protocol.ItemClearDebuff:
		r.applyClearDebuff(p, item, now)
	case protocol.ItemMemoryDefrag:
		r.applyMemoryDefrag(p, item)
	case protocol.ItemSkipProblem:
		r.applySkipProblem(p, item)
	case protocol.ItemRateLimiter:
		r.applyRateLimiter(p, item, now)
	case protocol.ItemHint:
		r.applyHint(p, item, env.RequestID)
	}

	if item.CooldownSec > 0 {
		p.ShopCooldowns[item.ID] = now.Add(time.Duration(item.CooldownSec) * time.Second)
	}
	r.broadcastPlayerUpdate(p)
	r.dirty = true
}

func (r *Room) applyClearDebuff(p *game.Player, item protocol.ShopItem, now time.Time) {
	p.Score -= item.Cost
	if p.ActiveDebuff == nil {
		return
	}
	p.ActiveDebuff = nil
	p.GraceUntil = now.Add(game.GracePeriod)
	if p.Status == protocol.StatusUnderAttack {
		p.Status = protocol.StatusCoding
	}
	r.send(p.PlayerID, protocol.Encode(protocol.EvtAttackReceived, "", protocol.AttackReceivedPayload{
		Cleared: true,
	}))
}

func (r *Room) applyMemoryDefrag(p *game.Player, item protocol.ShopItem) {
	p.Score -= item.Cost
	kept := p.Queue[:0]
	for _, q := range p.Queue {
		if !q.IsGarbage {
			kept = append(kept, q)
		}
	}
	p.Queue = kept
	r.sendStackUpdate(p)
}

func (r *Room) applySkipProblem(p *game.Player, item protocol.ShopItem) {
	p.Score -= item.Cost
	p.Streak = 0
	r.advanceToNextProblem(p)
}

func (r *Room) applyRateLimiter(p *game.Player, item protocol.ShopItem, now time.Time) {
	p.Score -= item.Cost
	p.ActiveBuff = &game.Buff{
		Type:   protocol.BuffRateLimiter,
		EndsAt: now.Add(game.RateLimiterBuffDuration),
	}
}

// applyHint reveals the next hint of the current problem. With no hint left
// the purchase is a free no-op. The revealed hints travel inside the owner's
// self state, so a full snapshot re-syncs the buyer.
func (r *Room) applyHint(p *game.Player, item protocol.ShopItem, requestID string) {
	if p.CurrentProblem == nil || p.RevealedHints >= len(p.CurrentProblem.Hints) {
		return
	}
	p.Score -= item.Cost
	p.RevealedHints++
	r.send(p.PlayerID, protocol.Encode(protocol.EvtRoomSnapshot, requestID, r.buildSnapshot(p)))
}
