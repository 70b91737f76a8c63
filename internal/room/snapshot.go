package room

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"codeclash/internal/game"
	"codeclash/internal/protocol"
	"codeclash/internal/ratelimit"
	"codeclash/internal/store"
)

// buildSnapshot assembles the per-viewer room state sent on join, reconnect,
// and full re-syncs. Private fields appear only in the viewer's own block.
func (r *Room) buildSnapshot(viewer *game.Player) protocol.RoomSnapshot {
	now := r.now()

	players := make([]*game.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].JoinOrder < players[j].JoinOrder })

	publics := make([]protocol.PlayerPublic, len(players))
	for i, p := range players {
		publics[i] = p.Public(now)
	}

	snap := protocol.RoomSnapshot{
		RoomID:     r.ID,
		ServerTime: now.UnixMilli(),
		Me: protocol.SelfIdentity{
			PlayerID: viewer.PlayerID,
			Username: viewer.Username,
			Role:     viewer.Role,
			IsHost:   viewer.IsHost,
			Status:   viewer.Status,
		},
		Players:     publics,
		Match:       r.matchInfo(),
		ShopCatalog: protocol.ShopCatalog(),
		Chat:        append([]protocol.ChatMessage(nil), r.chat...),
		EventLog:    append([]protocol.EventLogEntry(nil), r.eventLog...),
	}

	if r.match.MatchID != "" && viewer.IsParticipant() {
		snap.Self = r.selfState(viewer)
	}
	if viewer.SpectatingID != "" {
		if target := r.players[viewer.SpectatingID]; target != nil {
			snap.Spectating = r.spectateView(target)
		}
	}
	return snap
}

func (r *Room) matchInfo() protocol.MatchInfo {
	info := protocol.MatchInfo{
		MatchID:   r.match.MatchID,
		Phase:     r.match.Phase,
		EndReason: r.match.EndReason,
		Settings:  r.settings,
		Standings: r.match.Standings,
	}
	if r.match.MatchID != "" {
		info.Settings = r.match.Settings
		info.StartAt = r.match.StartAt.UnixMilli()
		info.EndAt = r.match.EndAt.UnixMilli()
	}
	return info
}

func (r *Room) selfState(p *game.Player) *protocol.SelfState {
	self := &protocol.SelfState{
		Queued:        p.QueueSummaries(),
		Code:          p.Code,
		CodeVersion:   p.CodeVersion,
		ShopCooldowns: make(map[string]int64, len(p.ShopCooldowns)),
	}
	if p.CurrentProblem != nil {
		self.CurrentProblem = p.CurrentProblem.ClientView()
		if p.RevealedHints > 0 && p.RevealedHints <= len(p.CurrentProblem.Hints) {
			self.RevealedHints = append([]string(nil), p.CurrentProblem.Hints[:p.RevealedHints]...)
		}
	}
	for item, until := range p.ShopCooldowns {
		self.ShopCooldowns[item] = until.UnixMilli()
	}
	return self
}

func (r *Room) spectateView(target *game.Player) *protocol.SpectateView {
	view := &protocol.SpectateView{
		PlayerID:    target.PlayerID,
		Username:    target.Username,
		Code:        target.Code,
		CodeVersion: target.CodeVersion,
	}
	if target.CurrentProblem != nil {
		view.Problem = target.CurrentProblem.ClientView()
	}
	return view
}

// broadcastSnapshots re-syncs every connection with its own view.
func (r *Room) broadcastSnapshots() {
	for playerID, conn := range r.conns {
		if p := r.players[playerID]; p != nil {
			conn.Send(protocol.Encode(protocol.EvtRoomSnapshot, "", r.buildSnapshot(p)))
		}
	}
}

// persistedState is the durable image of a room, written after every
// state-modifying event and read once on cold start.
type persistedState struct {
	RoomID      string                   `json:"roomId"`
	Created     bool                     `json:"created"`
	Settings    protocol.Settings        `json:"settings"`
	Match       *game.Match              `json:"match"`
	Players     []*game.Player           `json:"players"`
	Chat        []protocol.ChatMessage   `json:"chat,omitempty"`
	EventLog    []protocol.EventLogEntry `json:"eventLog,omitempty"`
	BotCounter  int                      `json:"botCounter"`
	JoinCounter int                      `json:"joinCounter"`
	SeenSets    map[string][]string      `json:"seenSets,omitempty"`
}

func (r *Room) persist() {
	if r.snapshots == nil {
		return
	}

	state := persistedState{
		RoomID:      r.ID,
		Created:     r.created,
		Settings:    r.settings,
		Match:       r.match,
		Chat:        r.chat,
		EventLog:    r.eventLog,
		BotCounter:  r.botCounter,
		JoinCounter: r.joinCounter,
		SeenSets:    make(map[string][]string, len(r.players)),
	}
	for _, p := range r.players {
		state.Players = append(state.Players, p)
		state.SeenSets[p.PlayerID] = r.dealer.Seen(p.PlayerID)
	}
	sort.Slice(state.Players, func(i, j int) bool {
		return state.Players[i].JoinOrder < state.Players[j].JoinOrder
	})

	data, err := json.Marshal(state)
	if err != nil {
		r.logger.Error("marshal room snapshot", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.snapshots.Save(ctx, r.ID, data); err != nil {
		r.logger.Error("persist room snapshot", zap.Error(err))
	}
}

// restore rebuilds the room from its persisted image, if one exists. All
// connections start detached; a restored in-progress match resumes on the
// next alarm.
func (r *Room) restore() {
	if r.snapshots == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	data, err := r.snapshots.Load(ctx, r.ID)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		r.logger.Error("load room snapshot", zap.Error(err))
		return
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Error("unmarshal room snapshot", zap.Error(err))
		return
	}

	r.created = state.Created
	r.settings = state.Settings
	if state.Match != nil {
		r.match = state.Match
	}
	r.chat = state.Chat
	r.eventLog = state.EventLog
	r.botCounter = state.BotCounter
	r.joinCounter = state.JoinCounter

	now := r.now()
	for _, p := range state.Players {
		p.Connected = false
		if p.ShopCooldowns == nil {
			p.ShopCooldowns = make(map[string]time.Time)
		}
		if p.RateLimits == nil {
			p.RateLimits = make(map[ratelimit.Action]ratelimit.State)
		}
		// Arrival clocks missing from older snapshots restart at the
		// match start.
		if r.match.InProgress() && p.IsParticipant() && p.LastArrivalAt.IsZero() {
			p.LastArrivalAt = r.match.StartAt
		}
		if p.Role == protocol.RoleBot && r.match.InProgress() && p.IsAlive() && p.NextBotActionAt.IsZero() && p.CurrentProblem != nil {
			p.NextBotActionAt = now.Add(game.BotSolveTime(p.CurrentProblem.Difficulty, r.rng))
		}
		r.players[p.PlayerID] = p
		if seen, ok := state.SeenSets[p.PlayerID]; ok {
			r.dealer.RestoreSeen(p.PlayerID, seen)
		}
	}

	r.logger.Info("room restored from snapshot",
		zap.Int("players", len(r.players)),
		zap.String("phase", string(r.match.Phase)))
	r.rearmAlarm()
}
