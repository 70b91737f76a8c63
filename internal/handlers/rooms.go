package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"go.uber.org/zap"

	"codeclash/internal/auth"
	"codeclash/internal/network"
	"codeclash/internal/protocol"
	"codeclash/internal/room"
)

type createRoomRequest struct {
	Username string                  `json:"username"`
	Settings *protocol.SettingsPatch `json:"settings,omitempty"`
}

type joinRoomRequest struct {
	Username string        `json:"username"`
	Role     protocol.Role `json:"role,omitempty"`
}

// roomTokenResponse is the answer to both create and join: the caller's
// identity plus the room's current shape.
type roomTokenResponse struct {
	RoomID      string              `json:"roomId"`
	PlayerID    string              `json:"playerId"`
	PlayerToken string              `json:"playerToken"`
	JoinURL     string              `json:"joinUrl,omitempty"`
	Settings    protocol.Settings   `json:"settings"`
	Phase       protocol.MatchPhase `json:"phase"`
	Counts      room.Counts         `json:"counts"`
}

func (h *Handler) joinURL(roomID string) string {
	if h.cfg.Server.PublicBaseURL == "" {
		return ""
	}
	return h.cfg.Server.PublicBaseURL + "/rooms/" + roomID
}

// CreateRoom mints a fresh room code, registers the caller as its host, and
// returns the player token for the websocket join.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, protocol.ErrBadRequest, "invalid request body")
		return
	}

	// Collisions on a 5-char code are rare; retry a few times anyway.
	var roomID string
	for i := 0; i < 5; i++ {
		roomID = newRoomCode()
		if _, taken := h.liveRoom(roomID); !taken {
			break
		}
	}

	playerID := uuid.NewString()
	token, err := auth.Mint([]byte(h.cfg.Server.TokenSecret), roomID, playerID, h.cfg.Server.TokenTTL)
	if err != nil {
		h.logger.Error("token mint failed", zap.Error(err))
		writeError(w, protocol.ErrInternal, "internal error")
		return
	}

	rm := h.rooms.GetOrCreate(roomID)
	result, err := rm.Register(room.RegisterRequest{
		PlayerID: playerID,
		Token:    token,
		Username: req.Username,
		Role:     protocol.RolePlayer,
		IsHost:   true,
		Settings: req.Settings,
	})
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}

	h.logger.Info("room created",
		zap.String("room_id", roomID),
		zap.String("player_id", playerID))

	writeJSON(w, http.StatusCreated, roomTokenResponse{
		RoomID:      result.RoomID,
		PlayerID:    playerID,
		PlayerToken: token,
		JoinURL:     h.joinURL(roomID),
		Settings:    result.Settings,
		Phase:       result.Phase,
		Counts:      result.Counts,
	})
}

// JoinRoom registers the caller into an existing room and mints their token.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	rm, ok := h.liveRoom(roomID)
	if !ok {
		writeError(w, protocol.ErrRoomNotFound, "room not found")
		return
	}

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, protocol.ErrBadRequest, "invalid request body")
		return
	}
	role := req.Role
	if role == "" {
		role = protocol.RolePlayer
	}

	playerID := uuid.NewString()
	token, err := auth.Mint([]byte(h.cfg.Server.TokenSecret), roomID, playerID, h.cfg.Server.TokenTTL)
	if err != nil {
		h.logger.Error("token mint failed", zap.Error(err))
		writeError(w, protocol.ErrInternal, "internal error")
		return
	}

	result, err := rm.Register(room.RegisterRequest{
		PlayerID: playerID,
		Token:    token,
		Username: req.Username,
		Role:     role,
	})
	if err != nil {
		h.writeRegisterError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roomTokenResponse{
		RoomID:      result.RoomID,
		PlayerID:    playerID,
		PlayerToken: token,
		JoinURL:     h.joinURL(roomID),
		Settings:    result.Settings,
		Phase:       result.Phase,
		Counts:      result.Counts,
	})
}

// ServeWS upgrades the duplex stream for a room. The token is pre-checked
// here so obviously bad connections never reach the actor; JOIN_ROOM still
// authorizes against the room's own player table.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	token := r.URL.Query().Get("token")
	tokenRoom, _, err := auth.Verify([]byte(h.cfg.Server.TokenSecret), token)
	if err != nil || tokenRoom != roomID {
		writeError(w, protocol.ErrUnauthorized, "invalid player token")
		return
	}

	rm, ok := h.liveRoom(roomID)
	if !ok {
		writeError(w, protocol.ErrRoomNotFound, "room not found")
		return
	}

	ws, err := network.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	network.Serve(ws, rm, h.logger.With(zap.String("room_id", roomID)))
}

// nopWriteCloser adapts the response writer for the QR encoder.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// RoomQR renders the room's join link as a PNG QR code.
func (h *Handler) RoomQR(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if _, ok := h.liveRoom(roomID); !ok {
		writeError(w, protocol.ErrRoomNotFound, "room not found")
		return
	}
	url := h.joinURL(roomID)
	if url == "" {
		writeError(w, protocol.ErrBadRequest, "no public base url configured")
		return
	}

	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		h.logger.Error("qr encode failed", zap.Error(err))
		writeError(w, protocol.ErrInternal, "internal error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writer := standard.NewWithWriter(nopWriteCloser{w},
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8),
	)
	if err := qrc.Save(writer); err != nil {
		h.logger.Error("qr render failed", zap.Error(err))
	}
}
