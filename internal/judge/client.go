// Package judge talks to the external code-execution sandbox and caches
// passing results by code fingerprint.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"codeclash/internal/protocol"
)

// ErrUnavailable marks transport-level judge failures. The room maps it to
// a JUDGE_UNAVAILABLE wire error.
var ErrUnavailable = errors.New("judge unavailable")

// UnavailableError wraps ErrUnavailable with an optional retry hint from the
// sandbox.
type UnavailableError struct {
	RetryAfter time.Duration
	cause      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("judge unavailable: %v", e.cause)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// ExtraTimeout is added on top of the problem's time limit for the outer
// judge call deadline.
const ExtraTimeout = 5 * time.Second

// Client submits code to the judge sandbox over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a judge client. The per-call deadline comes from the
// caller's context, so the embedded http.Client carries no timeout itself.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  logger,
	}
}

type evaluateRequest struct {
	ProblemID    string              `json:"problemId"`
	Kind         protocol.JudgeKind  `json:"kind"`
	FunctionName string              `json:"functionName,omitempty"`
	Code         string              `json:"code"`
	TimeLimitMs  int                 `json:"timeLimitMs"`
	PublicTests  []protocol.TestCase `json:"publicTests"`
	HiddenTests  []protocol.TestCase `json:"hiddenTests,omitempty"`
}

// Evaluate runs the player's code against the problem. Run evaluates public
// tests only; submit includes the hidden ones. The caller bounds the call
// with a context deadline of timeLimitMs + ExtraTimeout.
func (c *Client) Evaluate(ctx context.Context, problem *protocol.Problem, code string, kind protocol.JudgeKind) (*protocol.JudgeResult, error) {
	req := evaluateRequest{
		ProblemID:    problem.ProblemID,
		Kind:         kind,
		FunctionName: problem.FunctionName,
		Code:         code,
		TimeLimitMs:  problem.TimeLimitMs,
		PublicTests:  problem.PublicTests,
	}
	if kind == protocol.JudgeSubmit {
		req.HiddenTests = problem.HiddenTests
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal judge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("judge transport failure",
			zap.String("problem_id", problem.ProblemID),
			zap.Error(err))
		return nil, &UnavailableError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn("judge rejected request",
			zap.String("problem_id", problem.ProblemID),
			zap.Int("status", resp.StatusCode))
		return nil, &UnavailableError{
			RetryAfter: retryAfter,
			cause:      fmt.Errorf("judge returned status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var result protocol.JudgeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}
	result.Kind = kind
	result.ProblemID = problem.ProblemID
	if result.RuntimeMs == 0 {
		result.RuntimeMs = time.Since(start).Milliseconds()
	}
	return &result, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
