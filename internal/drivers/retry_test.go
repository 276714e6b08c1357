// internal/drivers/retry_test.go
package drivers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySource struct {
	failures int
	calls    int
	err      error
}

func (f *flakySource) Get(ctx context.Context, container, artifact string) (io.ReadCloser, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader("payload")), nil
}

func (f *flakySource) Exists(ctx context.Context, container, artifact string) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, f.err
	}
	return true, nil
}

func TestRetryPolicy(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		// Arrange
		attempts := 0
		failingFunc := func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient error")
			}
			return nil
		}

		policy := NewRetryPolicy(
			WithMaxAttempts(5),
			WithInitialDelay(time.Millisecond),
			WithMaxDelay(10*time.Millisecond),
			WithJitter(true),
		)

		// Act
		err := policy.Execute(context.Background(), "get models/x.json", failingFunc)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, attempts, "Should succeed on third attempt")
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		attempts := 0
		policy := NewRetryPolicy(WithMaxAttempts(2), WithInitialDelay(time.Millisecond))

		err := policy.Execute(context.Background(), "get models/x.json", func() error {
			attempts++
			return errors.New("still failing")
		})

		assert.EqualError(t, err, "still failing")
		assert.Equal(t, 2, attempts)
	})

	t.Run("does not retry missing artifacts", func(t *testing.T) {
		attempts := 0
		policy := NewRetryPolicy(WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

		err := policy.Execute(context.Background(), "get models/x.json", func() error {
			attempts++
			return ErrNotFound("bucket", "models/x.json")
		})

		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
		assert.Equal(t, 1, attempts)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		policy := NewRetryPolicy(
			WithMaxAttempts(10),
			WithInitialDelay(50*time.Millisecond),
			WithJitter(false),
		)

		err := policy.Execute(ctx, "get models/x.json", func() error { return errors.New("down") })

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caps exponential backoff", func(t *testing.T) {
		policy := NewRetryPolicy(
			WithInitialDelay(10*time.Millisecond),
			WithMaxDelay(25*time.Millisecond),
			WithJitter(false),
		)

		assert.Equal(t, 10*time.Millisecond, policy.calculateDelay(0))
		assert.Equal(t, 20*time.Millisecond, policy.calculateDelay(1))
		assert.Equal(t, 25*time.Millisecond, policy.calculateDelay(2))
	})
}

func TestPermanent(t *testing.T) {
	assert.True(t, Permanent(ErrNotFound("bucket", "models/x.json")))
	assert.True(t, Permanent(fmt.Errorf("open: %w", context.Canceled)))
	assert.False(t, Permanent(errors.New("connection reset")))
}

func TestRetryableSource(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	t.Run("get recovers from transient failures", func(t *testing.T) {
		src := &flakySource{failures: 2, err: errors.New("connection reset")}
		rs := NewRetryableSource(src, policy)

		rc, err := rs.Get(context.Background(), "bucket", "key")
		require.NoError(t, err)
		defer rc.Close()

		data, _ := io.ReadAll(rc)
		assert.Equal(t, "payload", string(data))
		assert.Equal(t, 3, src.calls)
	})

	t.Run("exists surfaces final error", func(t *testing.T) {
		src := &flakySource{failures: 5, err: errors.New("throttled")}
		rs := NewRetryableSource(src, policy)

		_, err := rs.Exists(context.Background(), "bucket", "key")
		assert.EqualError(t, err, "throttled")
		assert.Equal(t, 3, src.calls)
	})
}
