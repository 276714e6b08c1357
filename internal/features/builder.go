package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/parkbeat/internal/artifacts"
	"github.com/FairForge/parkbeat/internal/history"
	"github.com/FairForge/parkbeat/internal/model"
)

var weekdayColumns = [7]string{
	"es_lunes", "es_martes", "es_miercoles", "es_jueves", "es_viernes", "es_sabado", "es_domingo",
}

// hour aliases the training job left behind after merging the hour tables
var hourAliases = []string{"hora_hist", "hora_hist_hd", "hora_hist_mh"}

// Context is what the builder learned about a request, for the stages
// after prediction.
type Context struct {
	Date       time.Time
	DateParsed bool
	Hour       float64
	HourParsed bool
	Attraction string
	Zone       string
	Flagship   bool
	Calendar
}

// HourInt truncates the fractional hour.
func (c Context) HourInt() int {
	return int(c.Hour)
}

// Vector is an assembled feature row in the scaler's column order.
// Build it with NewVector so that Get can look columns up.
type Vector struct {
	Columns []string
	Values  []float64
	Context Context

	index map[string]int
}

// NewVector builds a vector over columns and values, indexed by column name.
func NewVector(columns []string, values []float64, ctx Context) *Vector {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Vector{Columns: columns, Values: values, Context: ctx, index: index}
}

// Get returns the value of column name. It never modifies the vector and is
// safe for concurrent use.
func (v *Vector) Get(name string) (float64, bool) {
	i, ok := v.index[name]
	if !ok || i >= len(v.Values) {
		return 0, false
	}
	return v.Values[i], true
}

// Builder turns requests into feature rows matching the scaler.
type Builder struct {
	logger *zap.Logger
	now    func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithNow replaces the clock used for unparseable dates.
func WithNow(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a builder.
func NewBuilder(logger *zap.Logger, opts ...BuilderOption) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the raw (unscaled) feature row for req. Columns and their
// order come from the bundle's scaler; every column receives a value.
func (b *Builder) Build(req Request, bundle *artifacts.Bundle) (*Vector, error) {
	if bundle == nil || bundle.Scaler == nil || bundle.Sample == nil {
		return nil, fmt.Errorf("features: incomplete artifact bundle")
	}
	ctx := b.context(req)
	columns := bundle.Scaler.ExpectedColumns()
	global := bundle.Sample.Global()

	c := candidates(ctx, req, bundle, global)
	found := historical(c, ctx, bundle.Tables, global)
	frequencies(c, ctx, columns, bundle.Sample)

	values := make([]float64, len(columns))
	for i, col := range columns {
		if v, ok := c[col]; ok {
			values[i] = v
			continue
		}
		values[i] = fallback(col, ctx, global)
	}

	b.logger.Debug("feature vector assembled",
		zap.String("attraction", ctx.Attraction),
		zap.Time("date", ctx.Date),
		zap.Bool("date_parsed", ctx.DateParsed),
		zap.Float64("hour", ctx.Hour),
		zap.Bool("hour_parsed", ctx.HourParsed),
		zap.Int("columns", len(columns)),
		zap.Int("historical_tables_hit", found))

	return NewVector(columns, values, ctx), nil
}

// Prepare builds the row and runs it through the scaler. A row the scaler
// rejects surfaces as *model.FeatureMismatchError.
func (b *Builder) Prepare(req Request, bundle *artifacts.Bundle) (*Vector, []float64, error) {
	v, err := b.Build(req, bundle)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := bundle.Scaler.Transform(v.Columns, v.Values)
	if err != nil {
		return nil, nil, err
	}
	return v, scaled, nil
}

func (b *Builder) context(req Request) Context {
	date, dateOK := ParseDate(req.Date, b.now())
	hour, hourOK := ParseHour(req.Time)
	if !dateOK {
		b.logger.Debug("date not parseable, using today",
			zap.String("fecha", req.Date), zap.Time("date", date))
	}
	if !hourOK {
		b.logger.Debug("time not parseable, using default hour",
			zap.Stringer("hora", req.Time), zap.Float64("hour", hour))
	}
	cal := NewCalendar(date)
	return Context{
		Date:       date,
		DateParsed: dateOK,
		Hour:       hour,
		HourParsed: hourOK,
		Attraction: req.Attraction,
		Zone:       req.Zone,
		Flagship:   IsFlagship(req.Attraction, cal.Month),
		Calendar:   cal,
	}
}

func candidates(ctx Context, req Request, bundle *artifacts.Bundle, global history.Global) map[string]float64 {
	hour := ctx.Hour
	hourInt := ctx.HourInt()
	month := float64(ctx.Month)
	weekday := float64(ctx.Weekday)
	weekend := flag(ctx.Weekend)
	bands := BandsFor(hourInt)
	code := req.WeatherCodeOrDefault()
	temperature := req.TemperatureOrDefault()

	c := map[string]float64{
		"hora":             hour,
		"hora_int":         float64(hourInt),
		"mes":              month,
		"año":              float64(ctx.Year),
		"dia_mes":          float64(ctx.Day),
		"dia_semana_num":   weekday,
		"trimestre":        float64(ctx.Quarter),
		"semana_año":       float64(ctx.ISOWeek),
		"es_fin_de_semana": weekend,
		"fin_de_semana":    weekend,
		"es_festivo":       flag(ctx.Holiday),
		"es_puente":        flag(ctx.Bridge),
		"temporada":        float64(ctx.Season),

		"temperatura":       temperature,
		"humedad":           req.HumidityOrDefault(),
		"sensacion_termica": temperature,
		"codigo_clima":      float64(code),
		"es_buen_clima":     flag(code >= 1 && code <= 3),
		"es_mal_clima":      flag(code > 3),

		"zona_enc":      bundle.Encodings.Lookup(model.CategoryZone, ctx.Zone, global.Mean),
		"atraccion_enc": bundle.Encodings.Lookup(model.CategoryAttraction, ctx.Attraction, global.Mean),

		"es_hora_apertura":     flag(bands.Opening),
		"es_hora_pico":         flag(bands.Peak),
		"es_hora_valle_manana": flag(bands.MorningValley),
		"es_hora_valle_tarde":  flag(bands.AfternoonValley),
		"es_hora_valle":        flag(bands.Valley()),

		"hora_apertura_fin_semana": flag(bands.Opening) * weekend,
		"hora_pico_puente":         flag(bands.Peak) * flag(ctx.Bridge),
		"puente_fin_semana":        flag(ctx.Bridge) * weekend,
		"hora_mes":                 hour * month,
		"hora_dia_semana":          hour * weekday,
		"mes_dia_semana":           month * weekday,
		"fin_semana_mes":           weekend * month,
		"temporada_dia_semana":     float64(ctx.Season) * weekday,

		"es_dia_laborable": flag(!ctx.Weekend),

		"is_octubre":              flag(ctx.Month == 10),
		"is_noviembre":            flag(ctx.Month == 11),
		"is_octubre_fin_semana":   flag(ctx.Month == 10 && ctx.Weekend),
		"is_noviembre_fin_semana": flag(ctx.Month == 11 && ctx.Weekend),
	}

	cyclic(c, "hora", hour, 24)
	cyclic(c, "mes", month, 12)
	cyclic(c, "dia_semana", weekday, 7)
	cyclic(c, "dia_mes", float64(ctx.Day), 31)
	cyclic(c, "semana_año", float64(ctx.ISOWeek), 52)

	for i, name := range weekdayColumns {
		c[name] = flag(ctx.Weekday == i)
	}
	for m := 1; m <= 12; m++ {
		c[monthColumn(m)] = flag(ctx.Month == m)
	}
	for _, sc := range SpecialCases {
		c[sc.Column] = flag(sc.Matches(ctx.Attraction, ctx.Month))
	}
	for _, alias := range hourAliases {
		c[alias] = hour
	}
	return c
}

// historical writes the aggregate-table statistics for every granularity,
// defaulting to the global statistics first. It returns how many tables had
// a matching row.
func historical(c map[string]float64, ctx Context, tables history.Tables, global history.Global) int {
	found := 0
	for _, g := range history.Granularities {
		for _, stat := range g.Stats() {
			c[g.Column(stat)] = globalStat(stat, global)
		}
		row, ok := tables.Lookup(g, ctx.Attraction, ctx.Month, ctx.HourInt(), ctx.Weekday)
		if !ok {
			continue
		}
		found++
		for _, stat := range g.Stats() {
			col := g.Column(stat)
			// missing or empty cells keep the default
			if v, ok := row[col]; ok && isFinite(v) {
				c[col] = v
			}
		}
	}
	return found
}

func globalStat(stat string, global history.Global) float64 {
	switch stat {
	case history.StatCount:
		return 0
	case history.StatMean:
		return global.Mean
	case history.StatStd:
		return global.Std
	case history.StatP75:
		return global.P75
	case history.StatP90:
		return global.P90
	case history.StatP95:
		return global.P95
	}
	return global.Median
}

// frequencies adds occurrence counts only for columns the scaler declares.
func frequencies(c map[string]float64, ctx Context, columns []string, sample *history.Sample) {
	for _, col := range columns {
		switch col {
		case history.ColZone + "_freq":
			c[col] = float64(sample.Frequency(history.ColZone, ctx.Zone))
		case history.ColAttraction + "_freq":
			c[col] = float64(sample.Frequency(history.ColAttraction, ctx.Attraction))
		}
	}
}

// fallback fills a declared column no candidate produced, by name pattern.
func fallback(col string, ctx Context, global history.Global) float64 {
	if strings.HasPrefix(col, "es_mes_") {
		if m, err := strconv.Atoi(strings.TrimPrefix(col, "es_mes_")); err == nil {
			return flag(ctx.Month == m)
		}
	}
	switch {
	case strings.Contains(col, "_hist"):
		if strings.Contains(col, "hora") {
			return ctx.Hour
		}
		return global.Median
	case strings.Contains(col, "freq"):
		return 0
	case strings.Contains(col, "mean"):
		return global.Mean
	}
	return global.Median
}

func cyclic(c map[string]float64, name string, v, period float64) {
	angle := 2 * math.Pi * v / period
	c[name+"_sin"] = math.Sin(angle)
	c[name+"_cos"] = math.Cos(angle)
}

func monthColumn(m int) string {
	return "es_mes_" + strconv.Itoa(m)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
