package room

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"codeclash/internal/observability"
	"codeclash/internal/problems"
	"codeclash/internal/protocol"
	"codeclash/internal/store"
)

// ManagerConfig tunes room lifecycle housekeeping.
type ManagerConfig struct {
	// RoomTimeout is how long an empty lobby-phase room lingers before the
	// janitor reclaims it.
	RoomTimeout time.Duration
	// SweepInterval is how often the janitor runs.
	SweepInterval time.Duration
	// Settings is the default match settings handed to fresh rooms.
	Settings protocol.Settings
}

// Manager owns the live room actors, creating them on demand and reclaiming
// abandoned ones.
type Manager struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	library *problems.Library
	judges  JudgeCaller
	snaps   store.SnapshotStore
	results store.ResultsStore
	opts    Options
	cfg     ManagerConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewManager creates a manager and starts its janitor.
func NewManager(parent context.Context, logger *zap.Logger, metrics *observability.Metrics,
	library *problems.Library, judges JudgeCaller, snaps store.SnapshotStore,
	results store.ResultsStore, opts Options, cfg ManagerConfig) *Manager {

	if cfg.RoomTimeout <= 0 {
		cfg.RoomTimeout = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(parent)
	m := &Manager{
		logger:  logger,
		metrics: metrics,
		library: library,
		judges:  judges,
		snaps:   snaps,
		results: results,
		opts:    opts,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		rooms:   make(map[string]*Room),
	}
	go m.janitor()
	return m
}

// GetOrCreate returns the live actor for a room id, reviving it from its
// snapshot when the process restarted since the room was last active.
func (m *Manager) GetOrCreate(roomID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[roomID]; ok {
		return r
	}
	r := New(m.ctx, roomID, Deps{
		Logger:    m.logger,
		Metrics:   m.metrics,
		Library:   m.library,
		Judge:     m.judges,
		Snapshots: m.snaps,
		Results:   m.results,
		Options:   m.opts,
		Settings:  m.cfg.Settings,
	})
	m.rooms[roomID] = r
	m.metrics.RoomsActive.Set(float64(len(m.rooms)))
	return r
}

// Get returns a live actor without creating one.
func (m *Manager) Get(roomID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// Close stops the janitor and every room actor.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Stop()
	}
	m.rooms = make(map[string]*Room)
	m.metrics.RoomsActive.Set(0)
}

// janitor reclaims rooms that sit empty in the lobby past the timeout. Rooms
// with a running match are left alone regardless of connections, so players
// can reconnect.
func (m *Manager) janitor() {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.cfg.RoomTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		if r.ConnCount() > 0 || !r.IdleSince().Before(cutoff) {
			continue
		}
		if state, ok := r.State(); ok && state.Phase != protocol.PhaseLobby && state.Phase != protocol.PhaseEnded {
			continue
		}
		m.logger.Info("reclaiming idle room", zap.String("room_id", id))
		r.Stop()
		delete(m.rooms, id)
	}
	m.metrics.RoomsActive.Set(float64(len(m.rooms)))
}
