package protocol

// DebuffState is an active debuff as seen on the wire.
type DebuffState struct {
	Type   DebuffType `json:"type"`
	EndsAt int64      `json:"endsAt"` // unix millis
}

// BuffState is an active buff as seen on the wire.
type BuffState struct {
	Type   BuffType `json:"type"`
	EndsAt int64    `json:"endsAt"`
}

// PlayerPublic is the portion of a player record visible to everyone.
type PlayerPublic struct {
	PlayerID      string        `json:"playerId"`
	Username      string        `json:"username"`
	Role          Role          `json:"role"`
	IsHost        bool          `json:"isHost"`
	Status        PlayerStatus  `json:"status"`
	Score         int           `json:"score"`
	Streak        int           `json:"streak"`
	TargetingMode TargetingMode `json:"targetingMode"`
	StackSize     int           `json:"stackSize"`
	ActiveDebuff  *DebuffState  `json:"activeDebuff"`
	ActiveBuff    *BuffState    `json:"activeBuff"`
	Connected     bool          `json:"connected"`
}

// SelfState is the private portion revealed only to its owner during a match.
type SelfState struct {
	CurrentProblem *ClientProblemView `json:"currentProblem"`
	Queued         []ProblemSummary   `json:"queued"`
	Code           string             `json:"code"`
	CodeVersion    int                `json:"codeVersion"`
	RevealedHints  []string           `json:"revealedHints"`
	ShopCooldowns  map[string]int64   `json:"shopCooldowns"` // item -> cooldown end, unix millis
}

// SpectateView is what a spectator sees of their target.
type SpectateView struct {
	PlayerID    string             `json:"playerId"`
	Username    string             `json:"username"`
	Code        string             `json:"code"`
	CodeVersion int                `json:"codeVersion"`
	Problem     *ClientProblemView `json:"problem"`
}

// ChatMessage is one entry in the room chat.
type ChatMessage struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Sender    string `json:"sender,omitempty"`
	Text      string `json:"text"`
}

// EventLogEntry is one entry in the room event log.
type EventLogEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Level     string `json:"level"`
	Text      string `json:"text"`
}

// StandingEntry is one row of the final standings.
type StandingEntry struct {
	Rank         int    `json:"rank"`
	PlayerID     string `json:"playerId"`
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	Score        int    `json:"score"`
	StackSize    int    `json:"stackSize"`
	Eliminated   bool   `json:"eliminated"`
	EliminatedAt int64  `json:"eliminatedAt,omitempty"`
}

// MatchInfo is the match portion of a room snapshot.
type MatchInfo struct {
	MatchID   string          `json:"matchId,omitempty"`
	Phase     MatchPhase      `json:"phase"`
	StartAt   int64           `json:"startAt,omitempty"`
	EndAt     int64           `json:"endAt,omitempty"`
	EndReason MatchEndReason  `json:"endReason,omitempty"`
	Settings  Settings        `json:"settings"`
	Standings []StandingEntry `json:"standings,omitempty"`
}

// SelfIdentity is the viewer's own identity block in a snapshot.
type SelfIdentity struct {
	PlayerID string       `json:"playerId"`
	Username string       `json:"username"`
	Role     Role         `json:"role"`
	IsHost   bool         `json:"isHost"`
	Status   PlayerStatus `json:"status"`
}

// RoomSnapshot is the full per-viewer room state, sent on join, reconnect,
// and whenever the whole room needs to be re-synced.
type RoomSnapshot struct {
	RoomID      string          `json:"roomId"`
	ServerTime  int64           `json:"serverTime"`
	Me          SelfIdentity    `json:"me"`
	Players     []PlayerPublic  `json:"players"`
	Match       MatchInfo       `json:"match"`
	ShopCatalog []ShopItem      `json:"shopCatalog"`
	Self        *SelfState      `json:"self,omitempty"`
	Spectating  *SpectateView   `json:"spectating"`
	Chat        []ChatMessage   `json:"chat"`
	EventLog    []EventLogEntry `json:"eventLog"`
}
