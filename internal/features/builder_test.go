package features

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/FairForge/parkbeat/internal/artifacts"
	"github.com/FairForge/parkbeat/internal/artifacts/artifactstest"
	"github.com/FairForge/parkbeat/internal/model"
)

var fixedNow = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(zap.NewNop(), WithNow(func() time.Time { return fixedNow }))
}

func batmanRequest() Request {
	temp, humidity, code := 22.0, 60.0, 3.0
	return Request{
		Date:        "2025-10-25",
		Time:        ClockText("12:00"),
		Attraction:  artifactstest.Batman,
		Zone:        artifactstest.BatmanZone,
		Temperature: &temp,
		Humidity:    &humidity,
		WeatherCode: &code,
	}
}

func get(t *testing.T, v *Vector, column string) float64 {
	t.Helper()
	got, ok := v.Get(column)
	require.True(t, ok, "column %s missing", column)
	return got
}

func TestBuilder_Build(t *testing.T) {
	bundle := artifactstest.Bundle(t)
	global := bundle.Sample.Global()

	t.Run("columns follow the scaler exactly", func(t *testing.T) {
		v, err := newTestBuilder().Build(batmanRequest(), bundle)

		require.NoError(t, err)
		assert.Equal(t, artifactstest.Columns, v.Columns)
		require.Len(t, v.Values, len(v.Columns))
		for i, value := range v.Values {
			assert.False(t, math.IsNaN(value) || math.IsInf(value, 0), "column %s", v.Columns[i])
		}
	})

	t.Run("calendar and time of day", func(t *testing.T) {
		v, err := newTestBuilder().Build(batmanRequest(), bundle)
		require.NoError(t, err)

		assert.Equal(t, 12.0, get(t, v, "hora"))
		assert.Equal(t, 10.0, get(t, v, "mes"))
		assert.Equal(t, 5.0, get(t, v, "dia_semana_num"))
		assert.Equal(t, 1.0, get(t, v, "es_fin_de_semana"))
		assert.Equal(t, 0.0, get(t, v, "es_puente"))
		assert.Equal(t, 3.0, get(t, v, "temporada"))
		assert.Equal(t, 1.0, get(t, v, "es_hora_pico"))
		assert.Equal(t, 0.0, get(t, v, "es_hora_apertura"))
		assert.Equal(t, 1.0, get(t, v, "es_sabado"))
		assert.Equal(t, 0.0, get(t, v, "es_lunes"))
		assert.Equal(t, 1.0, get(t, v, "es_mes_10"))
		assert.InDelta(t, 0.0, get(t, v, "hora_sin"), 1e-12)
		assert.InDelta(t, -1.0, get(t, v, "hora_cos"), 1e-12)
	})

	t.Run("special case flags", func(t *testing.T) {
		v, err := newTestBuilder().Build(batmanRequest(), bundle)
		require.NoError(t, err)

		assert.Equal(t, 1.0, get(t, v, "is_batman_octubre"))
		assert.Equal(t, 1.0, get(t, v, "is_octubre_fin_semana"))
		assert.True(t, v.Context.Flagship)
	})

	t.Run("encodings and frequencies", func(t *testing.T) {
		v, err := newTestBuilder().Build(batmanRequest(), bundle)
		require.NoError(t, err)

		assert.Equal(t, 14.0, get(t, v, "atraccion_enc"))
		assert.Equal(t, 12.0, get(t, v, "zona_enc"))
		assert.Equal(t, 7.0, get(t, v, "atraccion_freq"))
	})

	t.Run("unseen attraction encodes as global mean", func(t *testing.T) {
		req := batmanRequest()
		req.Attraction = "Nueva Atraccion"

		v, err := newTestBuilder().Build(req, bundle)

		require.NoError(t, err)
		assert.Equal(t, global.Mean, get(t, v, "atraccion_enc"))
		assert.Equal(t, 0.0, get(t, v, "atraccion_freq"))
		assert.Equal(t, 0.0, get(t, v, "is_batman_octubre"))
	})

	t.Run("historical rows override global defaults", func(t *testing.T) {
		v, err := newTestBuilder().Build(batmanRequest(), bundle)
		require.NoError(t, err)

		// hist_hora and hist_mes have Batman rows
		assert.Equal(t, 5.0, get(t, v, "count_hora"))
		assert.Equal(t, 12.0, get(t, v, "p75_hora"))
		assert.Equal(t, 13.1, get(t, v, "std_mes"))
		assert.Equal(t, 37.0, get(t, v, "p95_mes"))
		// hist_mes_hora and hist_hora_dia do not
		assert.Equal(t, global.Median, get(t, v, "median_mes_hora"))
		assert.Equal(t, 0.0, get(t, v, "count_hora_dia"))
	})

	t.Run("name pattern fallbacks", func(t *testing.T) {
		v, err := newTestBuilder().Build(batmanRequest(), bundle)
		require.NoError(t, err)

		assert.Equal(t, 12.0, get(t, v, "hora_hist"))
		assert.Equal(t, global.Median, get(t, v, "tiempo_espera_hist"))
		assert.Equal(t, global.Mean, get(t, v, "rolling_mean_3"))
		assert.Equal(t, global.Median, get(t, v, "lag_1"))
	})

	t.Run("garbage time defaults to noon", func(t *testing.T) {
		req := batmanRequest()
		req.Time = ClockText("garbage")

		v, err := newTestBuilder().Build(req, bundle)

		require.NoError(t, err)
		assert.Equal(t, DefaultHour, get(t, v, "hora"))
		assert.False(t, v.Context.HourParsed)
	})

	t.Run("unparseable date uses today", func(t *testing.T) {
		req := batmanRequest()
		req.Date = "not a date"

		v, err := newTestBuilder().Build(req, bundle)

		require.NoError(t, err)
		assert.Equal(t, fixedNow, v.Context.Date)
		assert.Equal(t, 3.0, get(t, v, "mes"))
		assert.Equal(t, 0.0, get(t, v, "is_batman_octubre"))
	})

	t.Run("incomplete bundle", func(t *testing.T) {
		_, err := newTestBuilder().Build(batmanRequest(), &artifacts.Bundle{})
		assert.Error(t, err)
	})
}

func TestCandidates_Weather(t *testing.T) {
	bundle := artifactstest.Bundle(t)
	b := newTestBuilder()

	req := batmanRequest()
	code := 5.0
	req.WeatherCode = &code
	req.Temperature = nil

	c := candidates(b.context(req), req, bundle, bundle.Sample.Global())

	assert.Equal(t, 0.0, c["es_buen_clima"])
	assert.Equal(t, 1.0, c["es_mal_clima"])
	assert.Equal(t, DefaultTemperature, c["sensacion_termica"])
	assert.Equal(t, 12.0*10, c["hora_mes"])
	assert.Equal(t, 3.0*5, c["temporada_dia_semana"])
}

func TestBuilder_Prepare(t *testing.T) {
	bundle := artifactstest.Bundle(t)

	t.Run("construction is deterministic", func(t *testing.T) {
		b := newTestBuilder()

		_, first, err := b.Prepare(batmanRequest(), bundle)
		require.NoError(t, err)
		_, second, err := b.Prepare(batmanRequest(), bundle)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("scaler rejection surfaces as FeatureMismatchError", func(t *testing.T) {
		strict := *bundle
		strict.Scaler = &renamedScaler{
			declared: artifactstest.Columns,
			inner:    &model.StandardScaler{FeatureNames: append(append([]string{}, artifactstest.Columns...), "extra")},
		}

		_, _, err := newTestBuilder().Prepare(batmanRequest(), &strict)

		var mismatch *model.FeatureMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Contains(t, mismatch.Columns, "extra")
	})
}

// renamedScaler declares one column list but validates against another.
type renamedScaler struct {
	declared []string
	inner    *model.StandardScaler
}

func (s *renamedScaler) ExpectedColumns() []string { return s.declared }

func (s *renamedScaler) Transform(columns []string, row []float64) ([]float64, error) {
	return s.inner.Transform(columns, row)
}

func TestBuilder_LogsFallbacks(t *testing.T) {
	bundle := artifactstest.Bundle(t)
	core, logs := observer.New(zapcore.DebugLevel)
	builder := NewBuilder(zap.New(core), WithNow(func() time.Time { return fixedNow }))

	req := batmanRequest()
	req.Date = "25 de octubre"
	req.Time = ClockText("garbage")

	v, err := builder.Build(req, bundle)

	require.NoError(t, err)
	assert.False(t, v.Context.DateParsed)
	assert.False(t, v.Context.HourParsed)
	assert.Equal(t, 1, logs.FilterMessage("date not parseable, using today").Len())
	assert.Equal(t, 1, logs.FilterMessage("time not parseable, using default hour").Len())

	logs.TakeAll()
	_, err = builder.Build(batmanRequest(), bundle)
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("date not parseable, using today").Len())
}

func TestVector_Get(t *testing.T) {
	v := NewVector([]string{"hora", "mes"}, []float64{12, 10}, Context{})

	got, ok := v.Get("mes")
	assert.True(t, ok)
	assert.Equal(t, 10.0, got)

	_, ok = v.Get("temperatura")
	assert.False(t, ok)

	t.Run("concurrent reads", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, ok := v.Get("hora")
				assert.True(t, ok)
				assert.Equal(t, 12.0, got)
			}()
		}
		wg.Wait()
	})
}
