package game

import (
	"time"

	"codeclash/internal/protocol"
)

// PurchaseDenial explains a refused purchase in wire terms.
type PurchaseDenial struct {
	Code       protocol.ErrorCode
	Message    string
	RetryAfter time.Duration
}

// CanPurchase decides whether the player may buy the item at now. A nil
// result means the purchase is allowed. The skipProblem item may drive the
// score negative when allowNegativeSkip is set, mirroring the original
// game's escape hatch.
func CanPurchase(p *Player, item protocol.ShopItem, now time.Time, allowNegativeSkip bool) *PurchaseDenial {
	if p.Status == protocol.StatusEliminated {
		return &PurchaseDenial{Code: protocol.ErrPlayerEliminated, Message: "eliminated players cannot buy items"}
	}
	if until, ok := p.ShopCooldowns[item.ID]; ok && until.After(now) {
		return &PurchaseDenial{
			Code:       protocol.ErrItemOnCooldown,
			Message:    "item is on cooldown",
			RetryAfter: until.Sub(now),
		}
	}
	if p.Score < item.Cost {
		if item.ID == protocol.ItemSkipProblem && allowNegativeSkip {
			return nil
		}
		return &PurchaseDenial{Code: protocol.ErrInsufficientScore, Message: "not enough points"}
	}
	return nil
}
