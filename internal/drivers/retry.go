// internal/drivers/retry.go
package drivers

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy retries artifact reads with capped exponential backoff.
type RetryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       bool
	logger       *zap.Logger
}

// RetryOption configures a RetryPolicy
type RetryOption func(*RetryPolicy)

// WithMaxAttempts sets the total number of tries, the first one included.
func WithMaxAttempts(n int) RetryOption {
	return func(p *RetryPolicy) { p.maxAttempts = n }
}

// WithInitialDelay sets the wait before the second try.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) { p.initialDelay = d }
}

// WithMaxDelay caps the wait between tries.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) { p.maxDelay = d }
}

// WithJitter spreads each wait between 0.5x and 1.5x.
func WithJitter(enabled bool) RetryOption {
	return func(p *RetryPolicy) { p.jitter = enabled }
}

// WithLogger logs retried and exhausted reads.
func WithLogger(logger *zap.Logger) RetryOption {
	return func(p *RetryPolicy) { p.logger = logger }
}

// NewRetryPolicy returns a policy of 3 attempts starting at 100ms.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p := &RetryPolicy{
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     5 * time.Second,
		multiplier:   2.0,
		jitter:       true,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxAttempts < 1 {
		p.maxAttempts = 1
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Permanent reports whether err cannot be fixed by trying again:
// a missing artifact or a cancelled context.
func Permanent(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Execute calls fn until it succeeds, fails permanently or the attempts are
// spent. op names the read in log entries. The last error is returned as is.
func (p *RetryPolicy) Execute(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(); err == nil {
			if attempt > 1 {
				p.logger.Info("artifact read recovered",
					zap.String("op", op), zap.Int("attempt", attempt))
			}
			return nil
		}
		if Permanent(err) || attempt >= p.maxAttempts {
			break
		}

		wait := p.calculateDelay(attempt - 1)
		p.logger.Warn("artifact read failed, retrying",
			zap.String("op", op),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	if !Permanent(err) {
		p.logger.Error("artifact read gave up",
			zap.String("op", op), zap.Error(err), zap.Int("attempts", p.maxAttempts))
	}
	return err
}

// calculateDelay is initial * multiplier^retry, capped, then jittered.
func (p *RetryPolicy) calculateDelay(retry int) time.Duration {
	d := math.Min(float64(p.initialDelay)*math.Pow(p.multiplier, float64(retry)), float64(p.maxDelay))
	if p.jitter {
		d *= 0.5 + rand.Float64()
	}
	return time.Duration(d)
}

// RetryableSource retries every read of the wrapped source.
type RetryableSource struct {
	source Source
	policy *RetryPolicy
}

// NewRetryableSource wraps source with policy. A nil policy uses the defaults.
func NewRetryableSource(source Source, policy *RetryPolicy) *RetryableSource {
	if policy == nil {
		policy = NewRetryPolicy()
	}
	return &RetryableSource{source: source, policy: policy}
}

// Get opens artifact, retrying transient failures.
func (r *RetryableSource) Get(ctx context.Context, container, artifact string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := r.policy.Execute(ctx, "get "+artifact, func() error {
		var err error
		rc, err = r.source.Get(ctx, container, artifact)
		return err
	})
	return rc, err
}

// Exists checks artifact, retrying transient failures.
func (r *RetryableSource) Exists(ctx context.Context, container, artifact string) (bool, error) {
	var ok bool
	err := r.policy.Execute(ctx, "exists "+artifact, func() error {
		var err error
		ok, err = r.source.Exists(ctx, container, artifact)
		return err
	})
	return ok, err
}
