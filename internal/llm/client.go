package llm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

type Client interface {
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}

// Recorder - то, что умеет записать вызов модели (см. metrics.Metrics)
type Recorder interface {
	RecordLLMRequest(provider, status string, duration time.Duration)
}

type instrumented struct {
	next     Client
	provider string
	rec      Recorder
}

// Instrument оборачивает клиента и пишет статус и длительность каждого вызова.
func Instrument(next Client, provider string, rec Recorder) Client {
	if rec == nil {
		return next
	}
	return &instrumented{next: next, provider: provider, rec: rec}
}

func (c *instrumented) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	out, err := c.next.CompleteWithSystem(ctx, system, prompt)
	c.rec.RecordLLMRequest(c.provider, Status(err), time.Since(start))
	return out, err
}

// Status - короткая метка для метрик
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, ErrAuthFailed):
		return "auth"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}
