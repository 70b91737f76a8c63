// Package network binds websocket connections to room actors. Each client
// runs the usual gorilla read/write pump pair; the room only ever sees the
// Conn interface.
package network

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codeclash/internal/protocol"
	"codeclash/internal/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// A stalled reader gets this much backlog before the connection is
	// dropped rather than blocking the room actor.
	sendQueueDepth = 256
)

// Upgrader is shared by the gateway's websocket endpoint. Origin checks are
// delegated to the reverse proxy in front of the gateway.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection attached to a room.
type Client struct {
	ws     *websocket.Conn
	room   *room.Room
	logger *zap.Logger

	send      chan protocol.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// Serve wraps an upgraded websocket connection and starts its pumps. The
// returned client is already registered with the room for disconnect
// notification; the caller does not hold on to it.
func Serve(ws *websocket.Conn, rm *room.Room, logger *zap.Logger) *Client {
	c := &Client{
		ws:     ws,
		room:   rm,
		logger: logger,
		send:   make(chan protocol.Envelope, sendQueueDepth),
		done:   make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c
}

// Send queues an envelope for delivery. A full queue means the reader is not
// keeping up; the connection is closed and false returned so the room can
// treat the client as gone.
func (c *Client) Send(env protocol.Envelope) bool {
	select {
	case c.send <- env:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("send queue overflow, dropping connection")
		c.Close()
		return false
	}
}

// Close tears the connection down. Safe to call from any goroutine and more
// than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

func (c *Client) readPump() {
	defer func() {
		c.room.HandleDisconnect(c)
		c.Close()
	}()

	// Generous limit; the room enforces the protocol cap per message and
	// answers with PAYLOAD_TOO_LARGE instead of a hard disconnect.
	c.ws.SetReadLimit(protocol.MaxMessageBytes * 2)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.Send(protocol.Encode(protocol.EvtError, "", protocol.ErrorPayload{
				Code:    protocol.ErrBadRequest,
				Message: "malformed message frame",
			}))
			continue
		}
		c.room.HandleMessage(c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
