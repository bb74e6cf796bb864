// Package retry runs browser phases under a fixed-attempt, fixed-delay policy.
package retry

import (
	"context"
	"fmt"
	"time"

	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"
	"easyapply/internal/common/metrics"
)

// Policy is a fixed number of attempts separated by a fixed delay.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy is three attempts five seconds apart.
var DefaultPolicy = Policy{MaxAttempts: 3, Delay: 5 * time.Second}

// ExhaustedError is returned once every attempt failed with a transient error.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs op until it succeeds, returns a non-transient error, or the attempts run out.
// Only timeout-class UI failures are retried; anything else returns immediately.
func Do(ctx context.Context, p Policy, log logger.Logger, operationName string, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !apperrors.IsTransient(err) {
			return err
		}

		if attempt == p.MaxAttempts {
			break
		}

		metrics.PhaseRetries.WithLabelValues(operationName).Inc()
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxAttempts": p.MaxAttempts,
			"nextRetryIn": p.Delay.String(),
		})

		if err := Sleep(ctx, p.Delay); err != nil {
			return fmt.Errorf("%s cancelled after %d attempts: %w", operationName, attempt, err)
		}
	}

	return &ExhaustedError{Operation: operationName, Attempts: p.MaxAttempts, Err: err}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
