package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{MaxAttempts: 3, Delay: time.Millisecond}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, logger.NewTestLogger(t), "login", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperrors.NewTransientUIError("wait #username", context.DeadlineExceeded)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, logger.NewTestLogger(t), "set filters", func(ctx context.Context) error {
		calls++
		return apperrors.NewTransientUIError("click Date Posted", context.DeadlineExceeded)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "set filters", exhausted.Operation)
	assert.True(t, apperrors.IsTransient(err))
}

func TestDo_NonTransientStopsImmediately(t *testing.T) {
	calls := 0
	challenge := apperrors.NewChallengeDetectedError("https://www.linkedin.com/checkpoint/lg/login")
	err := Do(context.Background(), fast, logger.NewTestLogger(t), "login", func(ctx context.Context) error {
		calls++
		return challenge
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, challenge, err)
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, Delay: time.Hour}

	err := Do(ctx, p, logger.NewNoOpLogger(), "search", func(ctx context.Context) error {
		cancel()
		return apperrors.NewTransientUIError("search box", context.DeadlineExceeded)
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Minute), context.Canceled)
}
