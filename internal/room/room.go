// Package room hosts the per-match authoritative state. Each Room is a
// single-writer actor: one goroutine consumes a merged queue of connection
// messages, alarm fires, and judge completions, so handlers never run
// concurrently for one room.
package room

import (
	"context"
	"math/rand"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"codeclash/internal/game"
	"codeclash/internal/judge"
	"codeclash/internal/observability"
	"codeclash/internal/problems"
	"codeclash/internal/protocol"
	"codeclash/internal/store"
)

// Conn is the opaque handle a room holds for a connected client. Sends may
// fail silently; failures never roll back room state.
type Conn interface {
	Send(env protocol.Envelope) bool
	Close()
}

// JudgeCaller abstracts the judge client for tests.
type JudgeCaller interface {
	Evaluate(ctx context.Context, problem *protocol.Problem, code string, kind protocol.JudgeKind) (*protocol.JudgeResult, error)
}

// Options tunes a room beyond its match settings.
type Options struct {
	// AllowNegativeSkip replicates the original game's quirk of letting
	// skipProblem purchases drive the score negative.
	AllowNegativeSkip bool
}

const (
	maxChatHistory  = 100
	maxEventLog     = 200
	persistTimeout  = 3 * time.Second
	eventQueueDepth = 256
)

// Inbound actor events.
type event interface{}

type connMessage struct {
	conn Conn
	env  protocol.Envelope
}

type connClosed struct {
	conn Conn
}

type alarmFired struct{}

type judgeDone struct {
	playerID  string
	problemID string
	requestID string
	kind      protocol.JudgeKind
	cacheKey  string
	result    *protocol.JudgeResult
	err       error
}

// funcEvent runs a closure on the actor goroutine; used by the gateway's
// synchronous HTTP operations.
type funcEvent struct {
	fn func()
}

// Room owns the full authoritative state of one match.
type Room struct {
	ID string

	logger  *zap.Logger
	metrics *observability.Metrics
	opts    Options

	events chan event
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	rng    *rand.Rand

	judge     JudgeCaller
	snapshots store.SnapshotStore
	results   store.ResultsStore

	// Actor-owned state. Only the loop goroutine touches anything below.
	created     bool
	settings    protocol.Settings
	match       *game.Match
	players     map[string]*game.Player
	conns       map[string]Conn
	connPlayers map[Conn]string
	chat        []protocol.ChatMessage
	eventLog    []protocol.EventLogEntry
	botCounter  int
	joinCounter int
	dealer      *problems.Dealer
	resultCache *judge.Cache

	alarm   *time.Timer
	alarmAt time.Time
	dirty   bool

	// Read from outside the loop by the manager's janitor.
	lastActivity atomic.Int64
	connCount    atomic.Int32
}

// Deps bundles the collaborators a room needs.
type Deps struct {
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Library   *problems.Library
	Judge     JudgeCaller
	Snapshots store.SnapshotStore
	Results   store.ResultsStore
	Options   Options

	// Settings seeds a fresh room's match settings. The zero value falls
	// back to protocol.DefaultSettings.
	Settings protocol.Settings

	// Now and Seed make time and randomness injectable for tests.
	Now  func() time.Time
	Seed int64
}

// New creates a room, restores any persisted snapshot, and starts its loop.
func New(parent context.Context, roomID string, deps Deps) *Room {
	r := newRoom(parent, roomID, deps)
	go r.loop()
	return r
}

// newRoom builds the actor without starting the loop; tests drive handleEvent
// directly.
func newRoom(parent context.Context, roomID string, deps Deps) *Room {
	ctx, cancel := context.WithCancel(parent)
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	settings := deps.Settings
	if settings.MatchDurationSec == 0 {
		settings = protocol.DefaultSettings()
	}

	r := &Room{
		ID:          roomID,
		logger:      deps.Logger.With(zap.String("room_id", roomID)),
		metrics:     deps.Metrics,
		opts:        deps.Options,
		events:      make(chan event, eventQueueDepth),
		ctx:         ctx,
		cancel:      cancel,
		now:         now,
		rng:         rand.New(rand.NewSource(seed)),
		judge:       deps.Judge,
		snapshots:   deps.Snapshots,
		results:     deps.Results,
		settings:    settings,
		match:       game.NewLobbyMatch(),
		players:     make(map[string]*game.Player),
		conns:       make(map[string]Conn),
		connPlayers: make(map[Conn]string),
		dealer:      problems.NewDealer(deps.Library, rand.New(rand.NewSource(seed+1))),
		resultCache: judge.NewCache(judge.CacheTTL),
	}
	r.lastActivity.Store(now().UnixMilli())

	r.restore()
	return r
}

// Stop tears the room down. Pending events are dropped.
func (r *Room) Stop() {
	r.cancel()
}

// HandleMessage enqueues an inbound envelope from a connection.
func (r *Room) HandleMessage(conn Conn, env protocol.Envelope) {
	select {
	case r.events <- connMessage{conn: conn, env: env}:
	case <-r.ctx.Done():
	}
}

// HandleDisconnect enqueues a connection closure.
func (r *Room) HandleDisconnect(conn Conn) {
	select {
	case r.events <- connClosed{conn: conn}:
	case <-r.ctx.Done():
	}
}

// call runs fn on the actor goroutine and waits for it.
func (r *Room) call(fn func()) bool {
	done := make(chan struct{})
	select {
	case r.events <- funcEvent{fn: func() { fn(); close(done) }}:
	case <-r.ctx.Done():
		return false
	}
	select {
	case <-done:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// ConnCount reports open connections; used by the manager's janitor.
func (r *Room) ConnCount() int { return int(r.connCount.Load()) }

// IdleSince reports the last event-processing instant.
func (r *Room) IdleSince() time.Time {
	return time.UnixMilli(r.lastActivity.Load())
}

func (r *Room) loop() {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("room actor crashed",
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()))
		}
		if r.alarm != nil {
			r.alarm.Stop()
		}
	}()

	for {
		select {
		case <-r.ctx.Done():
			return
		case ev := <-r.events:
			r.handleEvent(ev)
		}
	}
}

// handleEvent processes one inbound event atomically: mutate, emit, persist,
// rearm the alarm. A panic in a single handler is contained so one faulty
// command cannot tear the room down.
func (r *Room) handleEvent(ev event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("handler panic",
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()))
			if msg, ok := ev.(connMessage); ok {
				r.sendError(msg.conn, msg.env.RequestID, protocol.ErrInternal, "internal error", 0)
			}
		}
	}()

	r.lastActivity.Store(r.now().UnixMilli())
	r.dirty = false

	switch e := ev.(type) {
	case connMessage:
		r.handleEnvelope(e.conn, e.env)
	case connClosed:
		r.handleConnClosed(e.conn)
	case alarmFired:
		r.alarmAt = time.Time{}
		r.onAlarm()
	case judgeDone:
		r.onJudgeDone(e)
	case funcEvent:
		e.fn()
	}

	if r.dirty {
		r.persist()
	}
	r.rearmAlarm()
}

// send delivers an envelope to one player's connection, if any.
func (r *Room) send(playerID string, env protocol.Envelope) {
	if conn, ok := r.conns[playerID]; ok {
		conn.Send(env)
	}
}

// broadcast delivers an envelope to every connection. Individual failures
// are dropped silently and do not block other recipients.
func (r *Room) broadcast(env protocol.Envelope) {
	for _, conn := range r.conns {
		conn.Send(env)
	}
	r.metrics.BroadcastsTotal.Inc()
}

func (r *Room) sendError(conn Conn, requestID string, code protocol.ErrorCode, message string, retryAfter time.Duration) {
	payload := protocol.ErrorPayload{Code: code, Message: message}
	if retryAfter > 0 {
		payload.RetryAfterMs = retryAfter.Milliseconds()
	}
	conn.Send(protocol.Encode(protocol.EvtError, requestID, payload))
	r.metrics.CommandErrors.WithLabelValues(string(code)).Inc()
}

func (r *Room) broadcastPlayerUpdate(p *game.Player) {
	r.broadcast(protocol.Encode(protocol.EvtPlayerUpdate, "", p.Public(r.now())))
}

func (r *Room) sendStackUpdate(p *game.Player) {
	// Full queue contents are private; everyone else gets the size via
	// PLAYER_UPDATE.
	r.send(p.PlayerID, protocol.Encode(protocol.EvtStackUpdate, "", protocol.StackUpdatePayload{
		PlayerID:  p.PlayerID,
		StackSize: p.StackSize(),
		Queued:    p.QueueSummaries(),
	}))
}

func (r *Room) logEvent(level, text string) {
	entry := protocol.EventLogEntry{
		ID:        r.nextID(),
		Timestamp: r.now().UnixMilli(),
		Level:     level,
		Text:      text,
	}
	r.eventLog = append(r.eventLog, entry)
	if len(r.eventLog) > maxEventLog {
		r.eventLog = r.eventLog[len(r.eventLog)-maxEventLog:]
	}
	r.broadcast(protocol.Encode(protocol.EvtEventLogAppend, "", entry))
}

// nextID mints a short room-local id for chat and log entries.
func (r *Room) nextID() string {
	r.joinCounter++ // shared counter is fine for log ids
	return r.ID[:min(8, len(r.ID))] + "-" + itoa(r.joinCounter)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// alarm management

// rearmAlarm computes the earliest pending instant across all timed
// obligations and installs the single absolute alarm. Alarms are idempotent:
// handlers always compare against absolute instants.
func (r *Room) rearmAlarm() {
	now := r.now()
	var instants []time.Time

	if r.match.InProgress() {
		if r.match.Phase == protocol.PhaseWarmup {
			instants = append(instants, r.match.WarmupEndsAt)
		}
		instants = append(instants, r.match.EndAt)

		for _, p := range r.players {
			if !p.IsAlive() {
				continue
			}
			if p.ActiveDebuff != nil {
				instants = append(instants, p.ActiveDebuff.EndsAt)
			}
			if p.ActiveBuff != nil {
				instants = append(instants, p.ActiveBuff.EndsAt)
			}
			if !p.LastArrivalAt.IsZero() {
				instants = append(instants, game.NextArrival(p, r.match.Phase, now))
			}
			if p.Role == protocol.RoleBot && !p.NextBotActionAt.IsZero() {
				instants = append(instants, p.NextBotActionAt)
			}
		}
	}

	wake := game.NextWakeup(now, instants...)
	r.updateNextArrival(now)

	if wake.IsZero() {
		if r.alarm != nil {
			r.alarm.Stop()
		}
		r.alarmAt = time.Time{}
		return
	}
	if wake.Equal(r.alarmAt) && r.alarm != nil {
		return
	}

	if r.alarm != nil {
		r.alarm.Stop()
	}
	r.alarmAt = wake
	delay := wake.Sub(now)
	r.alarm = time.AfterFunc(delay, func() {
		select {
		case r.events <- alarmFired{}:
		case <-r.ctx.Done():
		}
	})
}

// updateNextArrival tracks the earliest pending per-player arrival for the
// persisted snapshot.
func (r *Room) updateNextArrival(now time.Time) {
	if !r.match.InProgress() {
		r.match.NextArrivalAt = nil
		return
	}
	var earliest time.Time
	for _, p := range r.players {
		if !p.IsAlive() || !p.IsParticipant() || p.LastArrivalAt.IsZero() {
			continue
		}
		next := game.NextArrival(p, r.match.Phase, now)
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	if earliest.IsZero() {
		r.match.NextArrivalAt = nil
	} else {
		r.match.NextArrivalAt = &earliest
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
