package drivers

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestBandwidthThrottle(t *testing.T) {
	t.Run("throttles read operations", func(t *testing.T) {
		// Create 5KB of data
		dataSize := 5 * 1024
		data := make([]byte, dataSize)
		for i := range data {
			data[i] = byte(i % 256)
		}

		// 5KB/s rate, 1KB burst - should take ~1 second
		limiter := rate.NewLimiter(rate.Limit(5*1024), 1024)
		throttled := &throttledReader{
			reader:  io.NopCloser(bytes.NewReader(data)),
			limiter: limiter,
			ctx:     context.Background(),
		}

		start := time.Now()
		got, err := io.ReadAll(throttled)
		duration := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, data, got)
		// allow for the initial burst and timer slack
		assert.GreaterOrEqual(t, duration.Seconds(), 0.6,
			"Read too fast for 5KB/s limit")
	})

	t.Run("cancelled context stops the read", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Limit(1), 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		throttled := &throttledReader{
			reader:  io.NopCloser(bytes.NewReader([]byte("abc"))),
			limiter: limiter,
			ctx:     ctx,
		}

		_, err := io.ReadAll(throttled)
		assert.Error(t, err)
	})
}

func TestThrottledSource(t *testing.T) {
	// Arrange
	base := t.TempDir()
	writeArtifact(t, base, "bucket", "models/scaler.json", []byte(`{"mean":[1]}`))
	local := NewLocalDriver(base, zap.NewNop())
	source := NewThrottledSource(local, 1<<20, zap.NewNop())

	// Act
	rc, err := source.Get(context.Background(), "bucket", "models/scaler.json")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	got, err := io.ReadAll(rc)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, `{"mean":[1]}`, string(got))

	exists, err := source.Exists(context.Background(), "bucket", "models/absent.json")
	require.NoError(t, err)
	assert.False(t, exists)
}
