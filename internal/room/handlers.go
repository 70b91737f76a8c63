package room

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeclash/internal/game"
	"codeclash/internal/judge"
	"codeclash/internal/protocol"
	"codeclash/internal/ratelimit"
)

// RegisterRequest is the gateway's registration of a player into a room,
// performed over HTTP before the websocket is opened.
type RegisterRequest struct {
	PlayerID string                  `json:"playerId"`
	Token    string                  `json:"playerToken"`
	Username string                  `json:"username"`
	Role     protocol.Role           `json:"role"`
	IsHost   bool                    `json:"isHost"`
	Settings *protocol.SettingsPatch `json:"settings,omitempty"`
}

// Counts summarizes room occupancy.
type Counts struct {
	Players    int `json:"players"`
	Spectators int `json:"spectators"`
}

// RegisterResult is returned on successful registration and by State.
type RegisterResult struct {
	RoomID   string              `json:"roomId"`
	Settings protocol.Settings   `json:"settings"`
	Phase    protocol.MatchPhase `json:"phase"`
	Counts   Counts              `json:"counts"`
}

// RegisterError carries a wire error code across the HTTP side channel.
type RegisterError struct {
	Code    protocol.ErrorCode
	Message string
}

func (e *RegisterError) Error() string { return string(e.Code) + ": " + e.Message }

// Register adds a player record to the room. The first registration creates
// the room; registering an existing playerId again is idempotent.
func (r *Room) Register(req RegisterRequest) (RegisterResult, error) {
	var (
		result RegisterResult
		rerr   *RegisterError
	)
	ok := r.call(func() {
		rerr = r.register(req)
		result = r.stateLocked()
	})
	if !ok {
		return RegisterResult{}, &RegisterError{Code: protocol.ErrInternal, Message: "room is shutting down"}
	}
	if rerr != nil {
		return RegisterResult{}, rerr
	}
	return result, nil
}

// State reports occupancy and phase for the gateway's state endpoint. The
// second return is false when nobody ever registered here.
func (r *Room) State() (RegisterResult, bool) {
	var (
		result  RegisterResult
		created bool
	)
	ok := r.call(func() {
		created = r.created
		result = r.stateLocked()
	})
	return result, ok && created
}

func (r *Room) stateLocked() RegisterResult {
	return RegisterResult{
		RoomID:   r.ID,
		Settings: r.settings,
		Phase:    r.match.Phase,
		Counts:   r.counts(),
	}
}

func (r *Room) counts() Counts {
	var c Counts
	for _, p := range r.players {
		if p.IsParticipant() {
			c.Players++
		} else {
			c.Spectators++
		}
	}
	return c
}

func (r *Room) register(req RegisterRequest) *RegisterError {
	if existing, ok := r.players[req.PlayerID]; ok {
		if existing.AuthToken != req.Token {
			return &RegisterError{Code: protocol.ErrUnauthorized, Message: "playerId is already registered with a different token"}
		}
		return nil
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < protocol.MinUsernameLen || len(username) > protocol.MaxUsernameLen {
		return &RegisterError{Code: protocol.ErrBadRequest, Message: "username must be 1..16 characters"}
	}
	if req.PlayerID == "" || req.Token == "" {
		return &RegisterError{Code: protocol.ErrBadRequest, Message: "playerId and playerToken are required"}
	}
	switch req.Role {
	case protocol.RolePlayer, protocol.RoleSpectator:
	default:
		return &RegisterError{Code: protocol.ErrBadRequest, Message: "role must be player or spectator"}
	}
	for _, p := range r.players {
		if strings.EqualFold(p.Username, username) {
			return &RegisterError{Code: protocol.ErrUsernameTaken, Message: "username is taken"}
		}
	}
	if req.Role == protocol.RolePlayer {
		if r.match.Phase != protocol.PhaseLobby {
			return &RegisterError{Code: protocol.ErrMatchAlreadyStarted, Message: "match already started; join as spectator"}
		}
		if r.counts().Players >= r.settings.PlayerCap {
			return &RegisterError{Code: protocol.ErrRoomFull, Message: "room is full"}
		}
	}

	r.joinCounter++
	p := game.NewPlayer(req.PlayerID, req.Token, username, req.Role, r.joinCounter)
	if req.Role == protocol.RolePlayer && !r.hasHost() {
		p.IsHost = true
	}
	r.players[p.PlayerID] = p

	if p.IsHost && req.Settings != nil && r.match.Phase == protocol.PhaseLobby {
		if applied, err := r.settings.Apply(*req.Settings); err == nil {
			r.settings = applied
		}
	}

	r.created = true
	r.dirty = true
	r.broadcastPlayerUpdate(p)
	r.logger.Info("player registered",
		zap.String("player_id", p.PlayerID),
		zap.String("username", p.Username),
		zap.String("role", string(p.Role)))
	return nil
}

func (r *Room) hasHost() bool {
	for _, p := range r.players {
		if p.IsHost {
			return true
		}
	}
	return false
}

// decode unmarshals an envelope payload.
func decode[T any](env protocol.Envelope) (T, bool) {
	var v T
	if len(env.Payload) == 0 {
		return v, true
	}
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return v, false
	}
	return v, true
}

func (r *Room) handleEnvelope(conn Conn, env protocol.Envelope) {
	r.metrics.CommandsTotal.WithLabelValues(env.Type).Inc()

	if len(env.Payload) > protocol.MaxMessageBytes {
		r.sendError(conn, env.RequestID, protocol.ErrPayloadTooLarge, "message too large", 0)
		return
	}

	if env.Type == protocol.CmdJoinRoom {
		r.handleJoin(conn, env)
		return
	}

	playerID, bound := r.connPlayers[conn]
	if !bound {
		r.sendError(conn, env.RequestID, protocol.ErrUnauthorized, "join the room first", 0)
		return
	}
	p := r.players[playerID]
	if p == nil {
		r.sendError(conn, env.RequestID, protocol.ErrUnauthorized, "unknown player", 0)
		return
	}

	switch env.Type {
	case protocol.CmdSendChat:
		r.handleSendChat(conn, env, p)
	case protocol.CmdUpdateSettings:
		r.handleUpdateSettings(conn, env, p)
	case protocol.CmdAddBots:
		r.handleAddBots(conn, env, p)
	case protocol.CmdStartMatch:
		r.handleStartMatch(conn, env, p)
	case protocol.CmdSetTargetMode:
		r.handleSetTargetMode(conn, env, p)
	case protocol.CmdRunCode:
		r.handleRunCode(conn, env, p)
	case protocol.CmdSubmitCode:
		r.handleSubmitCode(conn, env, p)
	case protocol.CmdSpendPoints:
		r.handleSpendPoints(conn, env, p)
	case protocol.CmdSpectatePlayer:
		r.handleSpectatePlayer(conn, env, p)
	case protocol.CmdStopSpectate:
		r.handleStopSpectate(conn, env, p)
	case protocol.CmdCodeUpdate:
		r.handleCodeUpdate(conn, env, p)
	case protocol.CmdReturnToLobby:
		r.handleReturnToLobby(conn, env, p)
	default:
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "unknown command "+env.Type, 0)
	}
}

func (r *Room) handleJoin(conn Conn, env protocol.Envelope) {
	payload, ok := decode[protocol.JoinRoomPayload](env)
	if !ok || payload.Token == "" {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "token is required", 0)
		return
	}

	var target *game.Player
	for _, p := range r.players {
		if p.Role != protocol.RoleBot && p.AuthToken == payload.Token {
			target = p
			break
		}
	}
	if target == nil {
		r.sendError(conn, env.RequestID, protocol.ErrUnauthorized, "unknown token", 0)
		return
	}

	// A reconnect replaces any stale connection for the same player.
	if old, ok := r.conns[target.PlayerID]; ok && old != conn {
		r.unbind(old)
		old.Close()
	}
	if prev, ok := r.connPlayers[conn]; ok && prev != target.PlayerID {
		r.unbind(conn)
	}

	r.conns[target.PlayerID] = conn
	r.connPlayers[conn] = target.PlayerID
	r.connCount.Store(int32(len(r.conns)))
	r.metrics.ClientsConnected.Inc()
	target.Connected = true

	conn.Send(protocol.Encode(protocol.EvtRoomSnapshot, env.RequestID, r.buildSnapshot(target)))
	r.broadcastPlayerUpdate(target)
	r.dirty = true
}

func (r *Room) unbind(conn Conn) {
	if playerID, ok := r.connPlayers[conn]; ok {
		delete(r.connPlayers, conn)
		if r.conns[playerID] == conn {
			delete(r.conns, playerID)
		}
		r.connCount.Store(int32(len(r.conns)))
		r.metrics.ClientsConnected.Dec()
	}
}

func (r *Room) handleConnClosed(conn Conn) {
	playerID, ok := r.connPlayers[conn]
	if !ok {
		return
	}
	r.unbind(conn)

	p := r.players[playerID]
	if p == nil {
		return
	}
	p.Connected = false
	r.broadcastPlayerUpdate(p)
	r.dirty = true

	if p.IsHost {
		r.transferHost(p)
	}
}

// transferHost hands the host role to the earliest-joined connected human.
// If nobody is connected the flag stays with the leaver for their return.
func (r *Room) transferHost(from *game.Player) {
	var next *game.Player
	for _, p := range r.players {
		if p.PlayerID == from.PlayerID || p.Role == protocol.RoleBot || !p.Connected {
			continue
		}
		if next == nil || p.JoinOrder < next.JoinOrder {
			next = p
		}
	}
	if next == nil {
		return
	}
	from.IsHost = false
	next.IsHost = true
	r.broadcastPlayerUpdate(from)
	r.broadcastPlayerUpdate(next)
	r.logEvent("info", next.Username+" is now the host")
}

// allowAction applies the per-player sliding window for a command.
func (r *Room) allowAction(conn Conn, requestID string, p *game.Player, action ratelimit.Action) bool {
	res := ratelimit.Check(action, p.RateLimits[action], r.now())
	p.RateLimits[action] = res.State
	if !res.Allowed {
		r.sendError(conn, requestID, protocol.ErrRateLimited, "slow down", res.RetryAfter)
		return false
	}
	return true
}

func (r *Room) handleSendChat(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.SendChatPayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	if r.match.Phase != protocol.PhaseLobby {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "chat is available in the lobby only", 0)
		return
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "empty message", 0)
		return
	}
	if len(text) > protocol.MaxChatLen {
		r.sendError(conn, env.RequestID, protocol.ErrPayloadTooLarge, "message too long", 0)
		return
	}
	if !r.allowAction(conn, env.RequestID, p, ratelimit.ActionSendChat) {
		return
	}

	msg := protocol.ChatMessage{
		ID:        r.nextID(),
		Timestamp: r.now().UnixMilli(),
		Sender:    p.Username,
		Text:      text,
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > maxChatHistory {
		r.chat = r.chat[len(r.chat)-maxChatHistory:]
	}
	r.broadcast(protocol.Encode(protocol.EvtChatAppend, "", msg))
	r.dirty = true
}

func (r *Room) handleUpdateSettings(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.UpdateSettingsPayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	if !p.IsHost {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "only the host can change settings", 0)
		return
	}
	if r.match.Phase != protocol.PhaseLobby {
		r.sendError(conn, env.RequestID, protocol.ErrMatchAlreadyStarted, "settings are locked once the match starts", 0)
		return
	}

	applied, err := r.settings.Apply(payload.Patch)
	if err != nil {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, err.Error(), 0)
		return
	}
	r.settings = applied
	r.broadcast(protocol.Encode(protocol.EvtSettingsUpdate, env.RequestID, protocol.SettingsUpdatePayload{Settings: applied}))
	r.dirty = true
}

func (r *Room) handleAddBots(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.AddBotsPayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	if !p.IsHost {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "only the host can add bots", 0)
		return
	}
	if r.match.Phase != protocol.PhaseLobby {
		r.sendError(conn, env.RequestID, protocol.ErrMatchAlreadyStarted, "bots can only be added in the lobby", 0)
		return
	}
	if payload.Count < 1 || payload.Count > 20 {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "count must be in 1..20", 0)
		return
	}
	if r.counts().Players+payload.Count > r.settings.PlayerCap {
		r.sendError(conn, env.RequestID, protocol.ErrRoomFull, "not enough seats for that many bots", 0)
		return
	}

	for i := 0; i < payload.Count; i++ {
		name := game.BotName(r.botCounter)
		r.botCounter++
		r.joinCounter++
		bot := game.NewPlayer(uuid.NewString(), "", name, protocol.RoleBot, r.joinCounter)
		r.players[bot.PlayerID] = bot
	}
	r.broadcastSnapshots()
	r.dirty = true
}

func (r *Room) handleSetTargetMode(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.SetTargetModePayload](env)
	if !ok || !protocol.ValidTargetingMode(payload.Mode) {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "unknown targeting mode", 0)
		return
	}
	if !p.IsParticipant() {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "spectators have no targeting mode", 0)
		return
	}
	// MATCH_END closes the stream until RETURN_TO_LOBBY.
	if r.match.Phase == protocol.PhaseEnded {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "match has ended", 0)
		return
	}
	p.TargetingMode = payload.Mode
	r.broadcastPlayerUpdate(p)
	r.dirty = true
}

func (r *Room) handleSpectatePlayer(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.SpectatePlayerPayload](env)
	if !ok || payload.PlayerID == "" {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "playerId is required", 0)
		return
	}
	if p.Role != protocol.RoleSpectator && p.Status != protocol.StatusEliminated {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "only spectators and eliminated players can spectate", 0)
		return
	}
	if r.match.Phase == protocol.PhaseEnded {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "match has ended", 0)
		return
	}
	if !r.allowAction(conn, env.RequestID, p, ratelimit.ActionSpectatePlayer) {
		return
	}
	target := r.players[payload.PlayerID]
	if target == nil || !target.IsParticipant() || target.PlayerID == p.PlayerID {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "not a spectatable player", 0)
		return
	}

	p.SpectatingID = target.PlayerID
	conn.Send(protocol.Encode(protocol.EvtSpectateState, env.RequestID, protocol.SpectateStatePayload{
		Spectating: r.spectateView(target),
	}))
	r.dirty = true
}

func (r *Room) handleStopSpectate(conn Conn, env protocol.Envelope, p *game.Player) {
	if p.Role != protocol.RoleSpectator && p.Status != protocol.StatusEliminated {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "only spectators and eliminated players can spectate", 0)
		return
	}
	if r.match.Phase == protocol.PhaseEnded {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "match has ended", 0)
		return
	}
	p.SpectatingID = ""
	conn.Send(protocol.Encode(protocol.EvtSpectateState, env.RequestID, protocol.SpectateStatePayload{}))
	r.dirty = true
}

func (r *Room) handleCodeUpdate(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.CodeUpdatePayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	if p.Role != protocol.RolePlayer && p.Role != protocol.RoleBot {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "spectators cannot edit code", 0)
		return
	}
	if !r.match.InProgress() {
		r.sendError(conn, env.RequestID, protocol.ErrMatchNotStarted, "no match in progress", 0)
		return
	}
	if p.Status == protocol.StatusEliminated {
		r.sendError(conn, env.RequestID, protocol.ErrPlayerEliminated, "eliminated players cannot edit code", 0)
		return
	}
	if len(payload.Code) > protocol.MaxCodeBytes {
		r.sendError(conn, env.RequestID, protocol.ErrPayloadTooLarge, "code exceeds the size limit", 0)
		return
	}
	if !r.allowAction(conn, env.RequestID, p, ratelimit.ActionCodeUpdate) {
		return
	}
	// Stale or replayed versions are dropped without an error.
	if payload.Version <= p.CodeVersion {
		return
	}

	p.Code = payload.Code
	p.CodeVersion = payload.Version
	r.relayCodeToSpectators(p)
	r.dirty = true
}

// relayCodeToSpectators pushes a player's latest code to everyone watching
// them.
func (r *Room) relayCodeToSpectators(target *game.Player) {
	env := protocol.Encode(protocol.EvtCodeUpdate, "", protocol.CodeUpdateEventPayload{
		PlayerID: target.PlayerID,
		Code:     target.Code,
		Version:  target.CodeVersion,
	})
	for _, watcher := range r.players {
		if watcher.SpectatingID == target.PlayerID {
			r.send(watcher.PlayerID, env)
		}
	}
}

func (r *Room) handleReturnToLobby(conn Conn, env protocol.Envelope, p *game.Player) {
	if !p.IsHost {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "only the host can return the room to the lobby", 0)
		return
	}
	if r.match.Phase != protocol.PhaseEnded {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "match has not ended", 0)
		return
	}

	for _, pl := range r.players {
		pl.ResetForLobby()
		r.dealer.Forget(pl.PlayerID)
	}
	r.eventLog = nil
	r.match = game.NewLobbyMatch()
	r.resultCache = judge.NewCache(judge.CacheTTL)
	r.broadcastSnapshots()
	r.dirty = true
}
