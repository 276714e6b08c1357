package drivers

import (
	"context"
	"io"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ThrottledSource caps the download bandwidth of artifact reads, so a cold
// start does not saturate a shared link.
type ThrottledSource struct {
	backend Source
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewThrottledSource limits reads from backend to bytesPerSecond.
func NewThrottledSource(backend Source, bytesPerSecond int, logger *zap.Logger) *ThrottledSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThrottledSource{
		backend: backend,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond),
		logger:  logger,
	}
}

// throttledReader wraps an io.ReadCloser with rate limiting
type throttledReader struct {
	reader  io.ReadCloser
	limiter *rate.Limiter
	ctx     context.Context
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	// WaitN refuses requests larger than the burst
	if burst := tr.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := tr.reader.Read(p)
	if n > 0 {
		if waitErr := tr.limiter.WaitN(tr.ctx, n); waitErr != nil {
			return 0, waitErr
		}
	}
	return n, err
}

func (tr *throttledReader) Close() error {
	return tr.reader.Close()
}

// Get returns a reader that waits for bandwidth as it is consumed.
func (t *ThrottledSource) Get(ctx context.Context, container, artifact string) (io.ReadCloser, error) {
	rc, err := t.backend.Get(ctx, container, artifact)
	if err != nil {
		return nil, err
	}
	return &throttledReader{reader: rc, limiter: t.limiter, ctx: ctx}, nil
}

func (t *ThrottledSource) Exists(ctx context.Context, container, artifact string) (bool, error) {
	return t.backend.Exists(ctx, container, artifact)
}
