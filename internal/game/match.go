package game

import (
	"sort"
	"time"

	"codeclash/internal/protocol"
)

// Match is the timed bout inside a room. A non-empty MatchID implies the
// phase is not lobby.
type Match struct {
	MatchID      string                  `json:"matchId,omitempty"`
	Phase        protocol.MatchPhase     `json:"phase"`
	StartAt      time.Time               `json:"startAt,omitzero"`
	EndAt        time.Time               `json:"endAt,omitzero"`
	WarmupEndsAt time.Time               `json:"warmupEndsAt,omitzero"`
	Settings     protocol.Settings       `json:"settings"`
	EndReason    protocol.MatchEndReason `json:"endReason,omitempty"`

	// Earliest pending per-player arrival, nil when nothing is scheduled.
	NextArrivalAt *time.Time `json:"nextArrivalAt,omitempty"`

	Standings []protocol.StandingEntry `json:"standings,omitempty"`
}

// NewLobbyMatch returns the idle lobby-phase match.
func NewLobbyMatch() *Match {
	return &Match{Phase: protocol.PhaseLobby}
}

// WarmupDuration is 10% of the configured match duration.
func WarmupDuration(matchDuration time.Duration) time.Duration {
	return matchDuration / 10
}

// InProgress reports whether the match is in warmup or main.
func (m *Match) InProgress() bool {
	return m.Phase == protocol.PhaseWarmup || m.Phase == protocol.PhaseMain
}

// ShouldEnd decides whether a running match must end at now, and why.
// lastAlive dominates timeExpired when both hold.
func ShouldEnd(phase protocol.MatchPhase, endAt time.Time, aliveCount int, now time.Time) (bool, protocol.MatchEndReason) {
	if phase != protocol.PhaseWarmup && phase != protocol.PhaseMain {
		return false, ""
	}
	if aliveCount <= 1 {
		return true, protocol.EndLastAlive
	}
	if !now.Before(endAt) {
		return true, protocol.EndTimeExpired
	}
	return false, ""
}

// ComputeStandings ranks all non-spectators: alive before eliminated, then
// higher score, then lower stack size, then lexicographic player id.
func ComputeStandings(players []*Player) []protocol.StandingEntry {
	ranked := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.IsParticipant() {
			ranked = append(ranked, p)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.IsAlive() != b.IsAlive() {
			return a.IsAlive()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.StackSize() != b.StackSize() {
			return a.StackSize() < b.StackSize()
		}
		return a.PlayerID < b.PlayerID
	})

	out := make([]protocol.StandingEntry, len(ranked))
	for i, p := range ranked {
		entry := protocol.StandingEntry{
			Rank:       i + 1,
			PlayerID:   p.PlayerID,
			Username:   p.Username,
			Role:       p.Role,
			Score:      p.Score,
			StackSize:  p.StackSize(),
			Eliminated: p.Status == protocol.StatusEliminated,
		}
		if !p.EliminatedAt.IsZero() {
			entry.EliminatedAt = p.EliminatedAt.UnixMilli()
		}
		out[i] = entry
	}
	return out
}

// Winner picks the winning player id from the standings. For lastAlive the
// winner is the first alive entry; for timeExpired the first entry overall.
func Winner(standings []protocol.StandingEntry, reason protocol.MatchEndReason) string {
	if len(standings) == 0 {
		return ""
	}
	if reason == protocol.EndLastAlive {
		for _, s := range standings {
			if !s.Eliminated {
				return s.PlayerID
			}
		}
	}
	return standings[0].PlayerID
}
