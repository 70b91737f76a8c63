package game

import (
	"time"

	"codeclash/internal/protocol"
	"codeclash/internal/ratelimit"
)

// recentAttackCap bounds the per-player ring of incoming attacks.
const recentAttackCap = 32

// Debuff is an active negative effect with an absolute expiry.
type Debuff struct {
	Type   protocol.DebuffType `json:"type"`
	EndsAt time.Time           `json:"endsAt"`
}

// Buff is an active positive effect with an absolute expiry.
type Buff struct {
	Type   protocol.BuffType `json:"type"`
	EndsAt time.Time         `json:"endsAt"`
}

// AttackRecord is one timestamped incoming attack, kept for the attackers
// targeting mode.
type AttackRecord struct {
	AttackerID string    `json:"attackerId"`
	At         time.Time `json:"at"`
}

// Player is the full server-side record for one participant, human or bot.
// The room actor is its single writer.
type Player struct {
	// Identity.
	PlayerID  string        `json:"playerId"`
	AuthToken string        `json:"authToken,omitempty"` // empty for bots
	Username  string        `json:"username"`
	Role      protocol.Role `json:"role"`
	IsHost    bool          `json:"isHost"`
	JoinOrder int           `json:"joinOrder"`

	// Public state.
	Status        protocol.PlayerStatus  `json:"status"`
	Score         int                    `json:"score"`
	Streak        int                    `json:"streak"`
	TargetingMode protocol.TargetingMode `json:"targetingMode"`
	ActiveDebuff  *Debuff                `json:"activeDebuff,omitempty"`
	ActiveBuff    *Buff                  `json:"activeBuff,omitempty"`

	// Connection state is tracked by the room; bots are never connected.
	Connected bool `json:"connected"`

	// Private match state, revealed only to the owner.
	CurrentProblem *protocol.Problem                    `json:"currentProblem,omitempty"`
	Queue          []*protocol.Problem                  `json:"queue,omitempty"`
	Code           string                               `json:"code,omitempty"`
	CodeVersion    int                                  `json:"codeVersion,omitempty"`
	RevealedHints  int                                  `json:"revealedHints,omitempty"`
	ShopCooldowns  map[string]time.Time                 `json:"shopCooldowns,omitempty"`
	LastArrivalAt  time.Time                            `json:"lastArrivalAt,omitzero"`
	GraceUntil     time.Time                            `json:"graceUntil,omitzero"`
	RateLimits     map[ratelimit.Action]ratelimit.State `json:"rateLimits,omitempty"`
	RecentAttacks  []AttackRecord                       `json:"recentAttacks,omitempty"`
	EliminatedAt   time.Time                            `json:"eliminatedAt,omitzero"`
	SpectatingID   string                               `json:"spectatingId,omitempty"`

	// Bot pacing: when the bot next attempts a solve.
	NextBotActionAt time.Time `json:"nextBotActionAt,omitzero"`
}

// NewPlayer creates a participant in lobby state.
func NewPlayer(id, token, username string, role protocol.Role, joinOrder int) *Player {
	return &Player{
		PlayerID:      id,
		AuthToken:     token,
		Username:      username,
		Role:          role,
		JoinOrder:     joinOrder,
		Status:        protocol.StatusLobby,
		TargetingMode: protocol.TargetRandom,
		ShopCooldowns: make(map[string]time.Time),
		RateLimits:    make(map[ratelimit.Action]ratelimit.State),
	}
}

// StackSize is the number of queued problems; currentProblem is not counted.
func (p *Player) StackSize() int { return len(p.Queue) }

// IsParticipant reports whether the player competes (not a spectator).
func (p *Player) IsParticipant() bool { return p.Role != protocol.RoleSpectator }

// IsAlive reports whether the player is a non-eliminated participant.
func (p *Player) IsAlive() bool {
	return p.IsParticipant() && p.Status != protocol.StatusEliminated
}

// HasDebuff reports whether the named debuff is active at now.
func (p *Player) HasDebuff(t protocol.DebuffType, now time.Time) bool {
	return p.ActiveDebuff != nil && p.ActiveDebuff.Type == t && p.ActiveDebuff.EndsAt.After(now)
}

// HasBuff reports whether the named buff is active at now.
func (p *Player) HasBuff(t protocol.BuffType, now time.Time) bool {
	return p.ActiveBuff != nil && p.ActiveBuff.Type == t && p.ActiveBuff.EndsAt.After(now)
}

// InGrace reports whether the player is inside the post-debuff immunity
// window.
func (p *Player) InGrace(now time.Time) bool {
	return p.GraceUntil.After(now)
}

// RecordIncomingAttack appends to the recent-attack ring, pruning entries
// older than the attackers-mode window.
func (p *Player) RecordIncomingAttack(attackerID string, now time.Time) {
	cutoff := now.Add(-AttackerWindow)
	kept := p.RecentAttacks[:0]
	for _, r := range p.RecentAttacks {
		if !r.At.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	p.RecentAttacks = append(kept, AttackRecord{AttackerID: attackerID, At: now})
	if len(p.RecentAttacks) > recentAttackCap {
		p.RecentAttacks = p.RecentAttacks[len(p.RecentAttacks)-recentAttackCap:]
	}
}

// AttackersWithin returns the ids of players who attacked p within the
// window ending at now. The window edge is inclusive.
func (p *Player) AttackersWithin(window time.Duration, now time.Time) []string {
	cutoff := now.Add(-window)
	seen := make(map[string]bool)
	var out []string
	for _, r := range p.RecentAttacks {
		if r.At.Before(cutoff) {
			continue
		}
		if !seen[r.AttackerID] {
			seen[r.AttackerID] = true
			out = append(out, r.AttackerID)
		}
	}
	return out
}

// Public projects the player into its wire-visible form. Expired effects are
// never reported as active.
func (p *Player) Public(now time.Time) protocol.PlayerPublic {
	pub := protocol.PlayerPublic{
		PlayerID:      p.PlayerID,
		Username:      p.Username,
		Role:          p.Role,
		IsHost:        p.IsHost,
		Status:        p.Status,
		Score:         p.Score,
		Streak:        p.Streak,
		TargetingMode: p.TargetingMode,
		StackSize:     p.StackSize(),
		Connected:     p.Connected,
	}
	if p.ActiveDebuff != nil && p.ActiveDebuff.EndsAt.After(now) {
		pub.ActiveDebuff = &protocol.DebuffState{
			Type:   p.ActiveDebuff.Type,
			EndsAt: p.ActiveDebuff.EndsAt.UnixMilli(),
		}
	}
	if p.ActiveBuff != nil && p.ActiveBuff.EndsAt.After(now) {
		pub.ActiveBuff = &protocol.BuffState{
			Type:   p.ActiveBuff.Type,
			EndsAt: p.ActiveBuff.EndsAt.UnixMilli(),
		}
	}
	return pub
}

// QueueSummaries returns the queued problems in wire summary form.
func (p *Player) QueueSummaries() []protocol.ProblemSummary {
	out := make([]protocol.ProblemSummary, len(p.Queue))
	for i, q := range p.Queue {
		out[i] = q.Summary()
	}
	return out
}

// ResetForLobby clears all match state, returning the player to the lobby.
func (p *Player) ResetForLobby() {
	p.Status = protocol.StatusLobby
	p.Score = 0
	p.Streak = 0
	p.ActiveDebuff = nil
	p.ActiveBuff = nil
	p.CurrentProblem = nil
	p.Queue = nil
	p.Code = ""
	p.CodeVersion = 0
	p.RevealedHints = 0
	p.ShopCooldowns = make(map[string]time.Time)
	p.LastArrivalAt = time.Time{}
	p.GraceUntil = time.Time{}
	p.RecentAttacks = nil
	p.EliminatedAt = time.Time{}
	p.SpectatingID = ""
	p.NextBotActionAt = time.Time{}
}
