package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codeclash/internal/observability"
	"codeclash/internal/problems"
	"codeclash/internal/protocol"
	"codeclash/internal/room"
	"codeclash/internal/store"
)

// startRoomServer runs a real room behind a websocket endpoint.
func startRoomServer(t *testing.T) (*httptest.Server, *room.Room) {
	t.Helper()

	rm := room.New(context.Background(), "NETTEST", room.Deps{
		Logger:    zap.NewNop(),
		Metrics:   observability.NopMetrics(),
		Library:   problems.Default(),
		Snapshots: store.NewMemoryStore(),
		Results:   &store.MemoryResults{},
	})
	t.Cleanup(rm.Stop)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(ws, rm, zap.NewNop())
	}))
	t.Cleanup(srv.Close)
	return srv, rm
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, ws *websocket.Conn, typ string) protocol.Envelope {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env protocol.Envelope
		require.NoError(t, ws.ReadJSON(&env), "waiting for %s", typ)
		if env.Type == typ {
			return env
		}
	}
}

func TestJoinOverWebsocket(t *testing.T) {
	srv, rm := startRoomServer(t)

	_, err := rm.Register(room.RegisterRequest{
		PlayerID: "p1",
		Token:    "tok-p1",
		Username: "Alice",
		Role:     protocol.RolePlayer,
	})
	require.NoError(t, err)

	ws := dial(t, srv)
	require.NoError(t, ws.WriteJSON(protocol.Encode(protocol.CmdJoinRoom, "rq1", protocol.JoinRoomPayload{Token: "tok-p1"})))

	env := readUntil(t, ws, protocol.EvtRoomSnapshot)
	require.Equal(t, "rq1", env.RequestID)
}

func TestMalformedFrameAnsweredWithError(t *testing.T) {
	srv, _ := startRoomServer(t)
	ws := dial(t, srv)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{not json")))

	env := readUntil(t, ws, protocol.EvtError)
	require.Contains(t, string(env.Payload), string(protocol.ErrBadRequest))
}

func TestCommandBeforeJoinRejected(t *testing.T) {
	srv, _ := startRoomServer(t)
	ws := dial(t, srv)

	require.NoError(t, ws.WriteJSON(protocol.Encode(protocol.CmdSendChat, "rq2", protocol.SendChatPayload{Text: "hi"})))

	env := readUntil(t, ws, protocol.EvtError)
	require.Equal(t, "rq2", env.RequestID)
	require.Contains(t, string(env.Payload), string(protocol.ErrUnauthorized))
}

func TestDisconnectReachesRoom(t *testing.T) {
	srv, rm := startRoomServer(t)

	_, err := rm.Register(room.RegisterRequest{
		PlayerID: "p1",
		Token:    "tok-p1",
		Username: "Alice",
		Role:     protocol.RolePlayer,
	})
	require.NoError(t, err)

	ws := dial(t, srv)
	require.NoError(t, ws.WriteJSON(protocol.Encode(protocol.CmdJoinRoom, "", protocol.JoinRoomPayload{Token: "tok-p1"})))
	readUntil(t, ws, protocol.EvtRoomSnapshot)
	require.Eventually(t, func() bool { return rm.ConnCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	ws.Close()
	require.Eventually(t, func() bool { return rm.ConnCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
