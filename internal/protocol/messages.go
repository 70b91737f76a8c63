package protocol

import "encoding/json"

// Payload size caps enforced before any command handling.
const (
	MaxCodeBytes    = 50000
	MaxChatLen      = 200
	MinUsernameLen  = 1
	MaxUsernameLen  = 16
	MaxMessageBytes = 64 * 1024
)

// Envelope frames every message on the duplex stream, in both directions.
// RequestID, when present on a client message, is echoed on the response.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Client message types.
const (
	CmdJoinRoom       = "JOIN_ROOM"
	CmdSendChat       = "SEND_CHAT"
	CmdUpdateSettings = "UPDATE_SETTINGS"
	CmdAddBots        = "ADD_BOTS"
	CmdStartMatch     = "START_MATCH"
	CmdSetTargetMode  = "SET_TARGET_MODE"
	CmdRunCode        = "RUN_CODE"
	CmdSubmitCode     = "SUBMIT_CODE"
	CmdSpendPoints    = "SPEND_POINTS"
	CmdSpectatePlayer = "SPECTATE_PLAYER"
	CmdStopSpectate   = "STOP_SPECTATE"
	CmdCodeUpdate     = "CODE_UPDATE"
	CmdReturnToLobby  = "RETURN_TO_LOBBY"
)

// Server event types.
const (
	EvtRoomSnapshot     = "ROOM_SNAPSHOT"
	EvtSettingsUpdate   = "SETTINGS_UPDATE"
	EvtMatchStarted     = "MATCH_STARTED"
	EvtMatchPhaseUpdate = "MATCH_PHASE_UPDATE"
	EvtPlayerUpdate     = "PLAYER_UPDATE"
	EvtJudgeResult      = "JUDGE_RESULT"
	EvtStackUpdate      = "STACK_UPDATE"
	EvtChatAppend       = "CHAT_APPEND"
	EvtAttackReceived   = "ATTACK_RECEIVED"
	EvtEventLogAppend   = "EVENT_LOG_APPEND"
	EvtSpectateState    = "SPECTATE_STATE"
	EvtCodeUpdate       = "CODE_UPDATE"
	EvtMatchEnd         = "MATCH_END"
	EvtError            = "ERROR"
)

// Client command payloads.

type JoinRoomPayload struct {
	Token string `json:"token"`
}

type SendChatPayload struct {
	Text string `json:"text"`
}

type UpdateSettingsPayload struct {
	Patch SettingsPatch `json:"patch"`
}

type AddBotsPayload struct {
	Count int `json:"count"`
}

type SetTargetModePayload struct {
	Mode TargetingMode `json:"mode"`
}

type RunCodePayload struct {
	ProblemID string `json:"problemId"`
	Code      string `json:"code"`
}

type SubmitCodePayload struct {
	ProblemID string `json:"problemId"`
	Code      string `json:"code,omitempty"`
	OptionID  string `json:"optionId,omitempty"`
}

type SpendPointsPayload struct {
	Item string `json:"item"`
}

type SpectatePlayerPayload struct {
	PlayerID string `json:"playerId"`
}

type CodeUpdatePayload struct {
	Code    string `json:"code"`
	Version int    `json:"version"`
}

// Server event payloads.

type SettingsUpdatePayload struct {
	Settings Settings `json:"settings"`
}

type MatchStartedPayload struct {
	MatchID string     `json:"matchId"`
	Phase   MatchPhase `json:"phase"`
	StartAt int64      `json:"startAt"`
	EndAt   int64      `json:"endAt"`
}

type MatchPhaseUpdatePayload struct {
	Phase MatchPhase `json:"phase"`
}

type AttackReceivedPayload struct {
	AttackerID string     `json:"attackerId"`
	Attacker   string     `json:"attacker"`
	Type       AttackType `json:"type"`
	EndsAt     int64      `json:"endsAt,omitempty"`
	Cleared    bool       `json:"cleared,omitempty"`
}

// StackUpdatePayload is sent to a queue's owner. Current and CodeVersion are
// set when the update accompanies an advance to a new problem.
type StackUpdatePayload struct {
	PlayerID    string             `json:"playerId"`
	StackSize   int                `json:"stackSize"`
	Queued      []ProblemSummary   `json:"queued,omitempty"`
	Current     *ClientProblemView `json:"current,omitempty"`
	CodeVersion int                `json:"codeVersion,omitempty"`
}

type SpectateStatePayload struct {
	Spectating *SpectateView `json:"spectating"`
}

type CodeUpdateEventPayload struct {
	PlayerID string `json:"playerId"`
	Code     string `json:"code"`
	Version  int    `json:"version"`
}

type MatchEndPayload struct {
	Reason    MatchEndReason  `json:"reason"`
	WinnerID  string          `json:"winnerId"`
	Standings []StandingEntry `json:"standings"`
}

// Encode marshals a typed payload into an envelope. Marshal failures are
// programming errors and yield an INTERNAL_ERROR envelope instead.
func Encode(typ, requestID string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(ErrorPayload{Code: ErrInternal, Message: "encoding failure"})
		return Envelope{Type: EvtError, RequestID: requestID, Payload: raw}
	}
	return Envelope{Type: typ, RequestID: requestID, Payload: raw}
}
