// Package store persists room snapshots and final match results.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no snapshot exists for a room.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore persists one opaque snapshot blob per room. The room actor
// writes after every state-modifying event and reads once on cold start.
type SnapshotStore interface {
	Save(ctx context.Context, roomID string, data []byte) error
	Load(ctx context.Context, roomID string) ([]byte, error)
	Delete(ctx context.Context, roomID string) error
}

// snapshotTTL keeps abandoned room snapshots from accumulating.
const snapshotTTL = 24 * time.Hour

func snapshotKey(roomID string) string {
	return fmt.Sprintf("room:%s:snapshot", roomID)
}

// RedisStore keeps snapshots in redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Save(ctx context.Context, roomID string, data []byte) error {
	if err := s.rdb.Set(ctx, snapshotKey(roomID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("save snapshot for room %s: %w", roomID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, roomID string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for room %s: %w", roomID, err)
	}
	return data, nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	return s.rdb.Del(ctx, snapshotKey(roomID)).Err()
}

// Close releases the redis connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }

// MemoryStore is an in-process SnapshotStore for tests and single-node
// development runs.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, roomID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.snapshots[roomID] = cp
	return nil
}

func (s *MemoryStore) Load(_ context.Context, roomID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.snapshots[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, roomID)
	return nil
}
