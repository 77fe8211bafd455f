package database

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// ConnectWithRetry calls Connect with bounded exponential backoff. The wait
// after a failed attempt is baseDelay * 1.5^attempt, jittered by 0.9..1.1.
// On exhaustion the last error is returned; the caller decides whether to
// abort or continue in degraded mode.
func ConnectWithRetry(ctx context.Context, log *zap.Logger, driver, dsn string, maxAttempts int, baseDelay time.Duration) error {
	return retryConnect(ctx, log, func() error {
		return Connect(driver, dsn)
	}, maxAttempts, baseDelay)
}

func retryConnect(ctx context.Context, log *zap.Logger, connect func() error, maxAttempts int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = connect()
		if lastErr == nil {
			if attempt > 0 {
				log.Info("database connected after retries", zap.Int("attempts", attempt+1))
			}
			return nil
		}

		if attempt == maxAttempts-1 {
			break
		}
		delay := backoffDelay(baseDelay, attempt)
		log.Warn("database connection attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("retry_in", delay),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("connect failed after %d attempts: %w", maxAttempts, lastErr)
}

// backoffDelay computes the wait before retrying attempt (0-based).
// 1.5^(n+1) * 0.9 > 1.5^n * 1.1, so delays grow strictly even at the
// jitter extremes.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	jitter := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(base) * math.Pow(1.5, float64(attempt)) * jitter)
}
