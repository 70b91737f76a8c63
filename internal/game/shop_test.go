package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeclash/internal/protocol"
)

func shopItem(t *testing.T, id string) protocol.ShopItem {
	t.Helper()
	item, ok := protocol.ShopItemByID(id)
	require.True(t, ok)
	return item
}

func TestCanPurchase_Allowed(t *testing.T) {
	p := mkPlayer("alice", 10, 0)

	denial := CanPurchase(p, shopItem(t, protocol.ItemClearDebuff), time.Now(), false)
	assert.Nil(t, denial)
}

func TestCanPurchase_Eliminated(t *testing.T) {
	p := mkPlayer("alice", 100, 0)
	p.Status = protocol.StatusEliminated

	denial := CanPurchase(p, shopItem(t, protocol.ItemHint), time.Now(), false)
	require.NotNil(t, denial)
	assert.Equal(t, protocol.ErrPlayerEliminated, denial.Code)
}

func TestCanPurchase_InsufficientScore(t *testing.T) {
	p := mkPlayer("alice", 4, 0)

	denial := CanPurchase(p, shopItem(t, protocol.ItemHint), time.Now(), false)
	require.NotNil(t, denial)
	assert.Equal(t, protocol.ErrInsufficientScore, denial.Code)
}

func TestCanPurchase_NegativeSkipEscapeHatch(t *testing.T) {
	p := mkPlayer("alice", 0, 0)
	item := shopItem(t, protocol.ItemSkipProblem)

	// Flag off: refused like any other item.
	denial := CanPurchase(p, item, time.Now(), false)
	require.NotNil(t, denial)
	assert.Equal(t, protocol.ErrInsufficientScore, denial.Code)

	// Flag on: skipProblem may drive the score negative.
	assert.Nil(t, CanPurchase(p, item, time.Now(), true))
}

func TestCanPurchase_Cooldown(t *testing.T) {
	now := time.Unix(1700000000, 0)
	p := mkPlayer("alice", 100, 0)
	p.ShopCooldowns[protocol.ItemRateLimiter] = now.Add(45 * time.Second)

	denial := CanPurchase(p, shopItem(t, protocol.ItemRateLimiter), now, false)
	require.NotNil(t, denial)
	assert.Equal(t, protocol.ErrItemOnCooldown, denial.Code)
	assert.Equal(t, 45*time.Second, denial.RetryAfter)
	assert.LessOrEqual(t, denial.RetryAfter, 60*time.Second)

	// Expired cooldown no longer blocks.
	assert.Nil(t, CanPurchase(p, shopItem(t, protocol.ItemRateLimiter), now.Add(time.Minute), false))
}

func TestPublic_NeverReportsExpiredEffects(t *testing.T) {
	now := time.Unix(1700000000, 0)
	p := mkPlayer("alice", 0, 0)
	p.ActiveDebuff = &Debuff{Type: protocol.DebuffDDoS, EndsAt: now.Add(-time.Second)}
	p.ActiveBuff = &Buff{Type: protocol.BuffRateLimiter, EndsAt: now.Add(time.Second)}

	pub := p.Public(now)
	assert.Nil(t, pub.ActiveDebuff, "expired debuff must not be visible")
	require.NotNil(t, pub.ActiveBuff)
	assert.Equal(t, protocol.BuffRateLimiter, pub.ActiveBuff.Type)
}

func TestBotName(t *testing.T) {
	assert.Equal(t, "turing", BotName(0))
	assert.NotEqual(t, BotName(0), BotName(1))
	// Wraps with a suffix after the pool is exhausted.
	assert.Equal(t, "turing-2", BotName(len(botNames)))
}
