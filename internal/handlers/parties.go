package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"codeclash/internal/protocol"
	"codeclash/internal/room"
)

// stateResponse is the diagnostic shape of the party state endpoint.
type stateResponse struct {
	RoomID      string              `json:"roomId"`
	Phase       protocol.MatchPhase `json:"phase"`
	PlayerCount int                 `json:"playerCount"`
	Settings    protocol.Settings   `json:"settings"`
}

// RegisterPlayer is the party side channel used by external gateways that
// mint their own tokens: it adds a player record ahead of the websocket join.
// The first registration creates the room.
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req room.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, protocol.ErrBadRequest, "invalid request body")
		return
	}

	rm := h.rooms.GetOrCreate(roomID)
	result, err := rm.Register(req)
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RoomState reports occupancy and phase for one room.
func (h *Handler) RoomState(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	rm, ok := h.liveRoom(roomID)
	if !ok {
		writeError(w, protocol.ErrRoomNotFound, "room not found")
		return
	}

	state, ok := rm.State()
	if !ok {
		writeError(w, protocol.ErrRoomNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		RoomID:      state.RoomID,
		Phase:       state.Phase,
		PlayerCount: state.Counts.Players,
		Settings:    state.Settings,
	})
}
