// Package handlers is the HTTP gateway in front of the room actors: room
// creation and joining, the party register/state side channel, the websocket
// upgrade, and join QR codes.
package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"codeclash/internal/config"
	"codeclash/internal/protocol"
	"codeclash/internal/room"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	logger *zap.Logger
	rooms  *room.Manager
	cfg    *config.ServerConfig
}

// New creates a new handler
func New(logger *zap.Logger, rooms *room.Manager, cfg *config.ServerConfig) *Handler {
	return &Handler{
		logger: logger,
		rooms:  rooms,
		cfg:    cfg,
	}
}

// newRoomCode generates a 5-character alphanumeric code
func newRoomCode() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 5)
	rand.Read(b)
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}

// liveRoom returns the actor for a room that has at least one registered
// player, reviving it from its snapshot when needed.
func (h *Handler) liveRoom(roomID string) (*room.Room, bool) {
	rm := h.rooms.GetOrCreate(roomID)
	if _, created := rm.State(); !created {
		return nil, false
	}
	return rm, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code protocol.ErrorCode, message string) {
	writeJSON(w, code.HTTPStatus(), protocol.ErrorPayload{Code: code, Message: message})
}

// writeRegisterError maps a room registration failure onto the HTTP side
// channel's status codes.
func (h *Handler) writeRegisterError(w http.ResponseWriter, err error) {
	var rerr *room.RegisterError
	if errors.As(err, &rerr) {
		writeError(w, rerr.Code, rerr.Message)
		return
	}
	h.logger.Error("registration failed", zap.Error(err))
	writeError(w, protocol.ErrInternal, "internal error")
}
