package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"codeclash/internal/game"
	"codeclash/internal/judge"
	"codeclash/internal/protocol"
	"codeclash/internal/ratelimit"
)

// cacheKey scopes fingerprints by judge kind so a cached public-tests run can
// never satisfy a submit.
func cacheKey(kind protocol.JudgeKind, code, problemID string) string {
	return string(kind) + ":" + judge.Fingerprint(code, problemID)
}

// checkCodeCommand runs the validations shared by RUN_CODE and SUBMIT_CODE.
// Returns nil after replying with an error.
func (r *Room) checkCodeCommand(conn Conn, env protocol.Envelope, p *game.Player, problemID, code string, action ratelimit.Action) *protocol.Problem {
	if p.Role != protocol.RolePlayer {
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "spectators cannot run code", 0)
		return nil
	}
	if !r.match.InProgress() {
		r.sendError(conn, env.RequestID, protocol.ErrMatchNotStarted, "no match in progress", 0)
		return nil
	}
	if p.Status == protocol.StatusEliminated {
		r.sendError(conn, env.RequestID, protocol.ErrPlayerEliminated, "eliminated players cannot run code", 0)
		return nil
	}
	now := r.now()
	if p.HasDebuff(protocol.DebuffDDoS, now) {
		retry := p.ActiveDebuff.EndsAt.Sub(now)
		r.sendError(conn, env.RequestID, protocol.ErrForbidden, "judge is unreachable while you are under ddos", retry)
		return nil
	}
	if p.CurrentProblem == nil || p.CurrentProblem.ProblemID != problemID {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "problemId does not match your current problem", 0)
		return nil
	}
	if len(code) > protocol.MaxCodeBytes {
		r.sendError(conn, env.RequestID, protocol.ErrPayloadTooLarge, "code exceeds the size limit", 0)
		return nil
	}
	if !r.allowAction(conn, env.RequestID, p, action) {
		return nil
	}
	return p.CurrentProblem
}

func (r *Room) handleRunCode(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.RunCodePayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	problem := r.checkCodeCommand(conn, env, p, payload.ProblemID, payload.Code, ratelimit.ActionRunCode)
	if problem == nil {
		return
	}
	if problem.ProblemType == protocol.ProblemMCQ {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "multiple-choice problems have no test runs", 0)
		return
	}

	if cached, ok := r.resultCache.Get(cacheKey(protocol.JudgeRun, payload.Code, problem.ProblemID), r.now()); ok {
		r.send(p.PlayerID, protocol.Encode(protocol.EvtJudgeResult, env.RequestID, cached))
		return
	}
	r.launchJudge(p.PlayerID, env.RequestID, problem, payload.Code, protocol.JudgeRun)
}

func (r *Room) handleSubmitCode(conn Conn, env protocol.Envelope, p *game.Player) {
	payload, ok := decode[protocol.SubmitCodePayload](env)
	if !ok {
		r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "malformed payload", 0)
		return
	}
	problem := r.checkCodeCommand(conn, env, p, payload.ProblemID, payload.Code, ratelimit.ActionSubmitCode)
	if problem == nil {
		return
	}

	// Multiple choice is decided locally; the judge never sees it.
	if problem.ProblemType == protocol.ProblemMCQ {
		if payload.OptionID == "" {
			r.sendError(conn, env.RequestID, protocol.ErrBadRequest, "optionId is required", 0)
			return
		}
		result := &protocol.JudgeResult{
			Kind:      protocol.JudgeSubmit,
			ProblemID: problem.ProblemID,
			Passed:    payload.OptionID == problem.CorrectAnswer,
		}
		r.send(p.PlayerID, protocol.Encode(protocol.EvtJudgeResult, env.RequestID, result))
		r.settleSubmit(p, problem, result.Passed)
		return
	}

	if cached, ok := r.resultCache.Get(cacheKey(protocol.JudgeSubmit, payload.Code, problem.ProblemID), r.now()); ok {
		r.send(p.PlayerID, protocol.Encode(protocol.EvtJudgeResult, env.RequestID, cached))
		r.settleSubmit(p, problem, cached.Passed)
		return
	}
	r.launchJudge(p.PlayerID, env.RequestID, problem, payload.Code, protocol.JudgeSubmit)
}

// launchJudge calls the judge from a detached goroutine and feeds the outcome
// back into the actor queue. The outer timeout is the problem's own limit
// plus a transport allowance.
func (r *Room) launchJudge(playerID, requestID string, problem *protocol.Problem, code string, kind protocol.JudgeKind) {
	timeout := time.Duration(problem.TimeLimitMs)*time.Millisecond + judge.ExtraTimeout
	started := time.Now()

	go func() {
		ctx, cancel := context.WithTimeout(r.ctx, timeout)
		defer cancel()

		result, err := r.judge.Evaluate(ctx, problem, code, kind)
		r.metrics.JudgeLatency.Observe(time.Since(started).Seconds())

		done := judgeDone{
			playerID:  playerID,
			problemID: problem.ProblemID,
			requestID: requestID,
			kind:      kind,
			cacheKey:  cacheKey(kind, code, problem.ProblemID),
			result:    result,
			err:       err,
		}
		select {
		case r.events <- done:
		case <-r.ctx.Done():
		}
	}()
}

func (r *Room) onJudgeDone(e judgeDone) {
	p := r.players[e.playerID]
	if p == nil {
		return
	}

	if e.err != nil {
		r.metrics.JudgeFailures.Inc()
		var unavail *judge.UnavailableError
		switch {
		case errors.As(e.err, &unavail):
			r.send(p.PlayerID, protocol.Encode(protocol.EvtError, e.requestID, protocol.ErrorPayload{
				Code:         protocol.ErrJudgeUnavailable,
				Message:      "judge is unavailable, try again",
				RetryAfterMs: unavail.RetryAfter.Milliseconds(),
			}))
		case errors.Is(e.err, judge.ErrUnavailable) || errors.Is(e.err, context.DeadlineExceeded):
			r.send(p.PlayerID, protocol.Encode(protocol.EvtError, e.requestID, protocol.ErrorPayload{
				Code:    protocol.ErrJudgeUnavailable,
				Message: "judge is unavailable, try again",
			}))
		default:
			r.logger.Error("judge call failed", zap.String("problem_id", e.problemID), zap.Error(e.err))
			r.send(p.PlayerID, protocol.Encode(protocol.EvtError, e.requestID, protocol.ErrorPayload{
				Code:    protocol.ErrInternal,
				Message: "judging failed",
			}))
		}
		return
	}

	r.resultCache.Put(e.cacheKey, e.result, r.now())
	r.send(p.PlayerID, protocol.Encode(protocol.EvtJudgeResult, e.requestID, e.result))

	if e.kind != protocol.JudgeSubmit {
		return
	}
	// The submit settles only if the player is still on that problem; a
	// result that arrives after an advance, an elimination, or match end
	// changes nothing.
	if !r.match.InProgress() || !p.IsAlive() {
		return
	}
	if p.CurrentProblem == nil || p.CurrentProblem.ProblemID != e.problemID {
		return
	}
	r.settleSubmit(p, p.CurrentProblem, e.result.Passed)
}

// settleSubmit applies the outcome of a judged submit: scoring, streaks, the
// resulting attack, and the advance to the next problem.
func (r *Room) settleSubmit(p *game.Player, problem *protocol.Problem, passed bool) {
	now := r.now()

	if !passed {
		p.Streak = 0
		p.Status = protocol.StatusError
		r.broadcastPlayerUpdate(p)
		// The error state is a flicker; the next update shows coding.
		if p.ActiveDebuff != nil && p.ActiveDebuff.EndsAt.After(now) {
			p.Status = protocol.StatusUnderAttack
		} else {
			p.Status = protocol.StatusCoding
		}
		r.dirty = true
		return
	}

	p.Score += game.ScoreValue(problem.Difficulty, problem.IsGarbage)
	p.Streak++
	r.logEvent("info", p.Username+" solved "+problem.Title)

	attackType := game.DetermineAttackType(p.Streak, problem.Difficulty, r.rng)
	r.emitAttack(p, attackType, now)

	r.advanceToNextProblem(p)
	r.broadcastPlayerUpdate(p)
	r.dirty = true

	// A garbage drop may have eliminated the last rival.
	r.maybeEndMatch(now)
}
