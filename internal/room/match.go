package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeclash/internal/game"
	"codeclash/internal/protocol"
	"codeclash/internal/store"
)

func (r *Room) handleStartMatch(conn Conn, env protocol.Envelope, p *game.Player) {
	if !p.IsHost {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "only the host can start the match", 0)
		return
	}
	if r.match.Phase != protocol.PhaseLobby {
		r.sendError(conn, env.RequestID, protocol.ErrMatchAlreadyStarted, "match already started", 0)
		return
	}
	if r.counts().Players < 2 {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "need at least two participants", 0)
		return
	}

	now := r.now()
	duration := time.Duration(r.settings.MatchDurationSec) * time.Second
	r.match = &game.Match{
		MatchID:      uuid.NewString(),
		Phase:        protocol.PhaseWarmup,
		StartAt:      now,
		EndAt:        now.Add(duration),
		WarmupEndsAt: now.Add(game.WarmupDuration(duration)),
		Settings:     r.settings,
	}

	for _, pl := range r.players {
		if !pl.IsParticipant() {
			continue
		}
		r.seedPlayer(pl, now)
	}

	r.metrics.MatchesStarted.Inc()
	r.logger.Info("match started",
		zap.String("match_id", r.match.MatchID),
		zap.Int("players", r.counts().Players),
		zap.Duration("duration", duration))

	r.broadcast(protocol.Encode(protocol.EvtMatchStarted, env.RequestID, protocol.MatchStartedPayload{
		MatchID: r.match.MatchID,
		Phase:   r.match.Phase,
		StartAt: r.match.StartAt.UnixMilli(),
		EndAt:   r.match.EndAt.UnixMilli(),
	}))
	r.broadcastSnapshots()
	r.dirty = true
}

// seedPlayer hands a participant their opening problem and queue. Garbage
// never appears in the initial deal.
func (r *Room) seedPlayer(pl *game.Player, now time.Time) {
	profile := r.match.Settings.DifficultyProfile
	pl.Status = protocol.StatusCoding
	pl.Score = 0
	pl.Streak = 0
	pl.CurrentProblem = r.dealer.Sample(pl.PlayerID, profile, true)
	pl.Queue = nil
	for i := 0; i < r.match.Settings.StartingQueued; i++ {
		pl.Queue = append(pl.Queue, r.dealer.Sample(pl.PlayerID, profile, true))
	}
	pl.Code = pl.CurrentProblem.StarterCode
	pl.CodeVersion = 1
	pl.RevealedHints = 0
	pl.LastArrivalAt = now
	if pl.Role == protocol.RoleBot {
		pl.NextBotActionAt = now.Add(game.BotSolveTime(pl.CurrentProblem.Difficulty, r.rng))
	}
}

// advanceToNextProblem pops the front of the queue, or deals fresh when the
// queue is empty. The editor resets to the new problem's starter code.
func (r *Room) advanceToNextProblem(pl *game.Player) {
	if len(pl.Queue) > 0 {
		pl.CurrentProblem = pl.Queue[0]
		pl.Queue = pl.Queue[1:]
	} else {
		pl.CurrentProblem = r.dealer.Sample(pl.PlayerID, r.match.Settings.DifficultyProfile, true)
	}
	pl.Code = pl.CurrentProblem.StarterCode
	pl.CodeVersion = 1
	pl.RevealedHints = 0
	if pl.Role == protocol.RoleBot {
		pl.NextBotActionAt = r.now().Add(game.BotSolveTime(pl.CurrentProblem.Difficulty, r.rng))
	}
	r.sendAdvanceUpdate(pl)
}

// sendAdvanceUpdate tells the owner their new current problem and queue.
func (r *Room) sendAdvanceUpdate(pl *game.Player) {
	r.send(pl.PlayerID, protocol.Encode(protocol.EvtStackUpdate, "", protocol.StackUpdatePayload{
		PlayerID:    pl.PlayerID,
		StackSize:   pl.StackSize(),
		Queued:      pl.QueueSummaries(),
		Current:     pl.CurrentProblem.ClientView(),
		CodeVersion: pl.CodeVersion,
	}))
}

// onAlarm handles the room's single timer. Every obligation is checked
// against absolute instants, so a duplicate or late fire is harmless.
func (r *Room) onAlarm() {
	if !r.match.InProgress() {
		return
	}
	now := r.now()

	r.expireEffects(now)

	if r.match.Phase == protocol.PhaseWarmup && !now.Before(r.match.WarmupEndsAt) {
		r.match.Phase = protocol.PhaseMain
		r.broadcast(protocol.Encode(protocol.EvtMatchPhaseUpdate, "", protocol.MatchPhaseUpdatePayload{Phase: r.match.Phase}))
		r.logEvent("info", "warmup over, main phase begins")
		r.dirty = true
	}

	r.deliverArrivals(now)
	r.runBots(now)
	r.maybeEndMatch(now)
}

// expireEffects clears lapsed debuffs and buffs. A lapsed debuff grants the
// post-debuff grace window.
func (r *Room) expireEffects(now time.Time) {
	for _, pl := range r.players {
		if !pl.IsAlive() {
			continue
		}
		if pl.ActiveDebuff != nil && !pl.ActiveDebuff.EndsAt.After(now) {
			pl.ActiveDebuff = nil
			pl.GraceUntil = now.Add(game.GracePeriod)
			if pl.Status == protocol.StatusUnderAttack {
				pl.Status = protocol.StatusCoding
			}
			r.broadcastPlayerUpdate(pl)
			r.dirty = true
		}
		if pl.ActiveBuff != nil && !pl.ActiveBuff.EndsAt.After(now) {
			pl.ActiveBuff = nil
			r.broadcastPlayerUpdate(pl)
			r.dirty = true
		}
	}
}

// deliverArrivals pushes scheduler-due problems onto each alive player's
// queue. Each wakeup delivers at most one problem per player and restamps the
// arrival clock to now, so a late fire (cold-start restore, slow host) never
// burst-fills a queue. An arrival that overflows the stack eliminates its
// owner.
func (r *Room) deliverArrivals(now time.Time) {
	for _, pl := range r.players {
		if !pl.IsAlive() || pl.LastArrivalAt.IsZero() {
			continue
		}
		if game.NextArrival(pl, r.match.Phase, now).After(now) {
			continue
		}
		pl.LastArrivalAt = now
		r.pushProblem(pl, r.dealer.Sample(pl.PlayerID, r.match.Settings.DifficultyProfile, false), false, now)
		r.dirty = true
	}
}

// pushProblem adds one problem to a player's queue, at the front for garbage
// drops and at the tail for scheduled arrivals, eliminating on overflow.
func (r *Room) pushProblem(pl *game.Player, problem *protocol.Problem, atFront bool, now time.Time) {
	if problem == nil {
		return
	}
	if game.Overflows(pl.StackSize(), r.match.Settings.StackLimit) {
		r.eliminate(pl, now)
		return
	}
	if atFront {
		pl.Queue = append([]*protocol.Problem{problem}, pl.Queue...)
	} else {
		pl.Queue = append(pl.Queue, problem)
	}
	r.sendStackUpdate(pl)
	r.broadcastPlayerUpdate(pl)
}

// eliminate marks a player out of the match by stack overflow.
func (r *Room) eliminate(pl *game.Player, now time.Time) {
	pl.Status = protocol.StatusEliminated
	pl.EliminatedAt = now
	pl.ActiveDebuff = nil
	pl.ActiveBuff = nil
	r.metrics.Eliminations.Inc()
	r.logEvent("warn", pl.Username+" stack overflowed")
	r.broadcastPlayerUpdate(pl)
	r.dirty = true
}

func (r *Room) aliveCount() int {
	n := 0
	for _, pl := range r.players {
		if pl.IsAlive() {
			n++
		}
	}
	return n
}

// maybeEndMatch ends the match when a terminal condition holds. MATCH_END is
// the final event; nothing else is emitted until RETURN_TO_LOBBY.
func (r *Room) maybeEndMatch(now time.Time) {
	if !r.match.InProgress() {
		return
	}
	end, reason := game.ShouldEnd(r.match.Phase, r.match.EndAt, r.aliveCount(), now)
	if !end {
		return
	}

	players := make([]*game.Player, 0, len(r.players))
	for _, pl := range r.players {
		players = append(players, pl)
	}
	standings := game.ComputeStandings(players)
	winner := game.Winner(standings, reason)

	r.match.Phase = protocol.PhaseEnded
	r.match.EndReason = reason
	r.match.Standings = standings
	r.metrics.MatchesEnded.WithLabelValues(string(reason)).Inc()
	r.logger.Info("match ended",
		zap.String("match_id", r.match.MatchID),
		zap.String("reason", string(reason)),
		zap.String("winner", winner))

	r.writeResults(standings, reason, now)

	r.broadcast(protocol.Encode(protocol.EvtMatchEnd, "", protocol.MatchEndPayload{
		Reason:    reason,
		WinnerID:  winner,
		Standings: standings,
	}))
	r.dirty = true
}

// writeResults hands the final standings to the results store off the actor
// goroutine. Failures are logged, never surfaced to players.
func (r *Room) writeResults(standings []protocol.StandingEntry, reason protocol.MatchEndReason, now time.Time) {
	if r.results == nil {
		return
	}

	match := store.MatchRecord{
		MatchID:   r.match.MatchID,
		RoomID:    r.ID,
		StartedAt: r.match.StartAt,
		EndedAt:   now,
		EndReason: reason,
		Settings:  r.match.Settings,
	}
	records := make([]store.PlayerRecord, len(standings))
	for i, s := range standings {
		rec := store.PlayerRecord{
			MatchID:  r.match.MatchID,
			PlayerID: s.PlayerID,
			Username: s.Username,
			Role:     s.Role,
			Score:    s.Score,
			Rank:     s.Rank,
		}
		if s.EliminatedAt != 0 {
			at := time.UnixMilli(s.EliminatedAt)
			rec.EliminatedAt = &at
		}
		records[i] = rec
	}

	logger := r.logger
	results := r.results
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := results.WriteResult(ctx, match, records); err != nil {
			logger.Error("write match results", zap.String("match_id", match.MatchID), zap.Error(err))
		}
	}()
}
