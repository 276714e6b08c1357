package artifacts

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/FairForge/parkbeat/internal/drivers"
	"github.com/FairForge/parkbeat/internal/history"
	"github.com/FairForge/parkbeat/internal/model"
)

// Loader fetches and decodes the artifact bundle from a Source.
type Loader struct {
	source  drivers.Source
	bucket  string
	keys    Keys
	timeout time.Duration
	retry   *drivers.RetryPolicy
	logger  *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout bounds a whole Load call.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithRetry retries each artifact as a unit: opening the object and
// decoding its body. A body that fails mid-stream is fetched again.
func WithRetry(policy *drivers.RetryPolicy) LoaderOption {
	return func(l *Loader) {
		l.retry = policy
	}
}

// NewLoader creates a loader reading keys from bucket.
func NewLoader(source drivers.Source, bucket string, keys Keys, logger *zap.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{source: source, bucket: bucket, keys: keys, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every artifact and assembles a Bundle. The regressor is bound
// to the scaler's column order before the bundle is returned.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	start := time.Now()

	scaler := &model.StandardScaler{}
	if err := l.decodeJSON(ctx, l.keys.Scaler, scaler); err != nil {
		return nil, err
	}
	if err := scaler.Validate(); err != nil {
		return nil, &LoadError{Key: l.keys.Scaler, Err: err}
	}

	ensemble := &model.TreeEnsemble{}
	if err := l.decodeJSON(ctx, l.keys.Model, ensemble); err != nil {
		return nil, err
	}
	if err := ensemble.Bind(scaler.ExpectedColumns()); err != nil {
		return nil, &LoadError{Key: l.keys.Model, Err: err}
	}

	encodings := model.EncodingMaps{}
	if err := l.decodeJSON(ctx, l.keys.Encodings, &encodings); err != nil {
		return nil, err
	}

	var sample *history.Sample
	err := l.fetch(ctx, l.keys.ReferenceSample, func(r io.Reader) error {
		var err error
		sample, err = history.ReadSampleCSV(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	tables := make(history.Tables, len(history.Granularities))
	for _, g := range history.Granularities {
		key := l.keys.Tables[g]
		err := l.fetch(ctx, key, func(r io.Reader) error {
			t, err := history.ReadTableCSV(g, r)
			if err != nil {
				return err
			}
			tables[g] = t
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	l.logger.Info("artifacts loaded",
		zap.String("bucket", l.bucket),
		zap.Int("features", len(scaler.FeatureNames)),
		zap.Int("trees", len(ensemble.Trees)),
		zap.Int("sample_rows", len(sample.Rows)),
		zap.Duration("elapsed", time.Since(start)))

	return &Bundle{
		Regressor: ensemble,
		Scaler:    scaler,
		Encodings: encodings,
		Sample:    sample,
		Tables:    tables,
		Resolver:  history.NewResolver(sample, tables),
	}, nil
}

// Verify checks that every artifact exists without downloading it.
func (l *Loader) Verify(ctx context.Context) error {
	var source drivers.Source = l.source
	if l.retry != nil {
		source = drivers.NewRetryableSource(l.source, l.retry)
	}

	var missing []string
	for _, key := range l.keys.All() {
		ok, err := source.Exists(ctx, l.bucket, key)
		if err != nil {
			return &LoadError{Key: key, Err: err}
		}
		if !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &LoadError{Key: missing[0], Err: fmt.Errorf("%d artifact(s) missing: %v", len(missing), missing)}
	}
	return nil
}

func (l *Loader) decodeJSON(ctx context.Context, key string, v interface{}) error {
	return l.fetch(ctx, key, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}

// fetch opens key and hands the stream to decode, under the retry policy
// when one is set. Any failure is a *LoadError.
func (l *Loader) fetch(ctx context.Context, key string, decode func(io.Reader) error) error {
	start := time.Now()
	attempt := func() error { return l.fetchOnce(ctx, key, decode) }

	var err error
	if l.retry != nil {
		err = l.retry.Execute(ctx, "load "+key, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return &LoadError{Key: key, Err: err}
	}
	l.logger.Debug("artifact fetched", zap.String("key", key), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (l *Loader) fetchOnce(ctx context.Context, key string, decode func(io.Reader) error) error {
	rc, err := l.source.Get(ctx, l.bucket, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if err := decode(rc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
