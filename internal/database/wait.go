package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RetryPolicy bounds how long Wait keeps pinging.
type RetryPolicy struct {
	Attempts int           // total pings, at least 1
	Initial  time.Duration // delay after the first failure
	Max      time.Duration // cap for the doubled delay
}

// DefaultRetryPolicy gives a starting database roughly three seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Initial: 200 * time.Millisecond, Max: 2 * time.Second}
}

// Backoff returns the delay after the given number of consecutive failures.
// It starts at Initial, doubles each time and stops at Max.
func (p RetryPolicy) Backoff(failures int) time.Duration {
	delay := p.Initial
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= p.Max {
			return p.Max
		}
	}
	return delay
}

// Wait pings db until it answers, the attempts run out or ctx is done.
// Each ping gets its own 5s timeout.
func Wait(ctx context.Context, db Pinger, policy RetryPolicy) error {
	attempts := max(policy.Attempts, 1)

	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		delay := policy.Backoff(i)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}
