package protocol

// Shop item identifiers.
const (
	ItemClearDebuff  = "clearDebuff"
	ItemMemoryDefrag = "memoryDefrag"
	ItemSkipProblem  = "skipProblem"
	ItemRateLimiter  = "rateLimiter"
	ItemHint         = "hint"
)

// ShopItem is one catalog entry.
type ShopItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	CooldownSec int    `json:"cooldownSec,omitempty"`
}

// ShopCatalog returns the fixed item catalog.
func ShopCatalog() []ShopItem {
	return []ShopItem{
		{ID: ItemClearDebuff, Name: "Clear Debuff", Description: "Remove your active debuff and gain 5s of immunity.", Cost: 10},
		{ID: ItemMemoryDefrag, Name: "Memory Defrag", Description: "Drop every garbage problem from your queue.", Cost: 10},
		{ID: ItemSkipProblem, Name: "Skip Problem", Description: "Discard your current problem. Resets your streak.", Cost: 15},
		{ID: ItemRateLimiter, Name: "Rate Limiter", Description: "Halve your problem arrival rate for 30s.", Cost: 10, CooldownSec: 60},
		{ID: ItemHint, Name: "Hint", Description: "Reveal the next hint for your current problem.", Cost: 5},
	}
}

// ShopItemByID looks up a catalog entry.
func ShopItemByID(id string) (ShopItem, bool) {
	for _, it := range ShopCatalog() {
		if it.ID == id {
			return it, true
		}
	}
	return ShopItem{}, false
}
