package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"codeclash/internal/protocol"
)

// MatchRecord is the row written to `matches` when a match ends.
type MatchRecord struct {
	MatchID   string
	RoomID    string
	StartedAt time.Time
	EndedAt   time.Time
	EndReason protocol.MatchEndReason
	Settings  protocol.Settings
}

// PlayerRecord is one row of `match_players`, written for each non-spectator.
type PlayerRecord struct {
	MatchID      string
	PlayerID     string
	Username     string
	Role         protocol.Role
	Score        int
	Rank         int
	EliminatedAt *time.Time
}

// ResultsStore is the write-only sink for final standings.
type ResultsStore interface {
	WriteResult(ctx context.Context, match MatchRecord, players []PlayerRecord) error
}

// MySQLResults writes match results to mysql.
type MySQLResults struct {
	db *sql.DB
}

// NewMySQLResults opens the results database and verifies the connection.
func NewMySQLResults(ctx context.Context, dsn string) (*MySQLResults, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("results db unreachable: %w", err)
	}
	return &MySQLResults{db: db}, nil
}

// WriteResult inserts the match and its player rows in one transaction.
func (s *MySQLResults) WriteResult(ctx context.Context, match MatchRecord, players []PlayerRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer tx.Rollback()

	settingsJSON, err := marshalSettings(match.Settings)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matches (id, room_id, started_at, ended_at, end_reason, settings)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		match.MatchID, match.RoomID, match.StartedAt, match.EndedAt, string(match.EndReason), settingsJSON)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", match.MatchID, err)
	}

	for _, p := range players {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO match_players (match_id, player_id, username, role, score, rank, eliminated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.MatchID, p.PlayerID, p.Username, string(p.Role), p.Score, p.Rank, p.EliminatedAt)
		if err != nil {
			return fmt.Errorf("insert match player %s: %w", p.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results tx: %w", err)
	}
	return nil
}

// Close releases the database pool.
func (s *MySQLResults) Close() error { return s.db.Close() }

// MemoryResults collects results in memory for tests.
type MemoryResults struct {
	mu      sync.Mutex
	Matches []MatchRecord
	Players [][]PlayerRecord
}

func (s *MemoryResults) WriteResult(_ context.Context, match MatchRecord, players []PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Matches = append(s.Matches, match)
	s.Players = append(s.Players, players)
	return nil
}

// Len reports the number of recorded matches.
func (s *MemoryResults) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Matches)
}
