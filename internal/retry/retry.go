package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes an exponential backoff retry schedule applied at
// the call site of an external collaborator.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Logger       *slog.Logger
}

// DefaultPolicy matches the schedule used for LLM and metrics calls:
// three attempts, 2s initial delay, doubling.
func DefaultPolicy(logger *slog.Logger) Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
		Logger:       logger,
	}
}

// Do runs fn until it succeeds, attempts are exhausted, or ctx is
// cancelled. The last error is returned wrapped with the operation
// name.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		if p.Logger != nil {
			p.Logger.Warn("retrying after failure",
				"op", op, "attempt", attempt, "delay", delay, "error", lastErr)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("%s: %w", op, lastErr)
}
