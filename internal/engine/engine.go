package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/parkbeat/internal/artifacts"
	"github.com/FairForge/parkbeat/internal/blend"
	"github.com/FairForge/parkbeat/internal/features"
	"github.com/FairForge/parkbeat/internal/history"
	"github.com/FairForge/parkbeat/internal/logging"
	"github.com/FairForge/parkbeat/internal/model"
)

// BundleSource hands out the current artifact bundle; *artifacts.Cache is
// the production implementation.
type BundleSource interface {
	Get(ctx context.Context) (*artifacts.Bundle, error)
}

// Result is a successful prediction.
type Result struct {
	Attraction string
	blend.Outcome
	Elapsed time.Duration
}

// Engine runs one prediction end to end: features, model, history, blend.
type Engine struct {
	bundles BundleSource
	builder *features.Builder
	blender *blend.Engine
	logger  *zap.Logger
}

// NewEngine wires the prediction pipeline.
func NewEngine(bundles BundleSource, builder *features.Builder, blender *blend.Engine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = features.NewBuilder(logger)
	}
	if blender == nil {
		blender = blend.NewEngine(logger)
	}
	return &Engine{bundles: bundles, builder: builder, blender: blender, logger: logger}
}

// Predict returns the final wait time for req. Errors keep their type:
// *artifacts.LoadError, *model.FeatureMismatchError or *model.PredictionError.
func (e *Engine) Predict(ctx context.Context, req features.Request) (*Result, error) {
	start := time.Now()
	log := logging.WithContext(ctx, e.logger)

	bundle, err := e.bundles.Get(ctx)
	if err != nil {
		return nil, err
	}

	vec, scaled, err := e.builder.Prepare(req, bundle)
	if err != nil {
		return nil, err
	}

	raw, err := bundle.Regressor.Predict(scaled)
	if err != nil {
		var predErr *model.PredictionError
		if !errors.As(err, &predErr) {
			err = &model.PredictionError{Err: err}
		}
		return nil, err
	}

	fc := vec.Context
	query := history.Query{
		Attraction: fc.Attraction,
		Month:      fc.Month,
		Hour:       fc.HourInt(),
		Weekday:    fc.Weekday,
	}
	resolved := bundle.Resolver.Resolve(query)
	log.Debug("historical evidence resolved",
		zap.String("level", string(resolved.Level)),
		zap.Int("hour", resolved.Hour),
		zap.Int("count", resolved.Count),
		zap.Float64("median", resolved.Median),
		zap.Float64("p75", resolved.P75))

	outcome := e.blender.Blend(blend.Input{
		Raw:          raw,
		Resolved:     resolved,
		Bands:        features.BandsFor(resolved.Hour),
		Weekend:      fc.Weekend,
		Bridge:       fc.Bridge,
		Flagship:     fc.Flagship,
		Month:        fc.Month,
		Weekday:      fc.Weekday,
		GlobalMedian: bundle.Sample.Global().Median,
		Widen: func(current float64) (float64, string, bool) {
			return bundle.Resolver.WidenP75(current, history.MonthWeekdayWindow(query), history.MonthWindow(query))
		},
	})

	result := &Result{Attraction: req.Attraction, Outcome: outcome, Elapsed: time.Since(start)}
	log.Info("prediction complete",
		zap.String("attraction", req.Attraction),
		zap.Float64("minutes", outcome.Final),
		zap.String("adjustment", outcome.Adjustment),
		zap.String("specificity", outcome.Specificity),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}
