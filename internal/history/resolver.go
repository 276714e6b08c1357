package history

// Level is the specificity of the historical statistic a prediction leans on.
type Level string

// Levels in strict descending priority.
const (
	LevelMonthHourWeekday Level = "mes_hora_dia"
	LevelHourWeekday      Level = "hora_dia"
	LevelMonthHour        Level = "mes_hora"
	LevelHour             Level = "hora"
	LevelMonthWeekday     Level = "mes_dia"
	LevelWeekday          Level = "dia"
	LevelMonth            Level = "mes"
	LevelGlobal           Level = "global"
)

// Priority lists every level from most to least specific.
var Priority = []Level{
	LevelMonthHourWeekday, LevelHourWeekday, LevelMonthHour, LevelHour,
	LevelMonthWeekday, LevelWeekday, LevelMonth, LevelGlobal,
}

// HasHour reports whether the level conditions on the hour of day.
func (l Level) HasHour() bool {
	switch l {
	case LevelMonthHourWeekday, LevelHourWeekday, LevelMonthHour, LevelHour:
		return true
	}
	return false
}

// Query identifies the slot being predicted. Weekday is Monday=0.
type Query struct {
	Attraction string
	Month      int
	Hour       int
	Weekday    int
}

// Resolved is the most specific historical evidence found for a query.
// Hour is the hour actually matched, which differs from the query hour
// when a neighbouring hour was used instead.
type Resolved struct {
	Level Level
	Hour  int
	Summary
}

// Empty reports that no sample rows back the selected level; every
// statistic then holds the global median.
func (r Resolved) Empty() bool {
	return r.Count == 0
}

// Resolver picks the most specific aggregate available and recomputes its
// statistics from the reference sample.
type Resolver struct {
	sample *Sample
	tables Tables
}

// NewResolver creates a resolver over a loaded sample and its tables.
func NewResolver(sample *Sample, tables Tables) *Resolver {
	return &Resolver{sample: sample, tables: tables}
}

// Resolve walks Priority and stops at the first level with evidence.
// Hour-bearing levels are decided by the aggregate tables at the requested
// hour. When the hour table has no row for it, hour-1 then hour+1 are
// tried and the first one found selects the sample rows of whichever hour level
// wins. Month/weekday levels are decided by the reference sample itself.
func (r *Resolver) Resolve(q Query) Resolved {
	level, hour, ok := r.hourLevel(q)
	if !ok {
		hour = q.Hour
		level = r.calendarLevel(q)
	}

	filter := q.filter(level, hour)
	var waits []float64
	if filter != nil {
		waits = r.sample.Waits(filter)
	}
	return Resolved{
		Level:   level,
		Hour:    hour,
		Summary: Summarize(waits, r.sample.Global().Median),
	}
}

func (r *Resolver) hourLevel(q Query) (Level, int, bool) {
	a, m, h, d := q.Attraction, q.Month, q.Hour, q.Weekday

	// presence is always checked at the requested hour
	hasMonthHourWeekday := r.tables.Has(ByMonthHour, a, m, h, d) && r.tables.Has(ByMonthWeekday, a, m, h, d)
	hasHourWeekday := r.tables.Has(ByHourWeekday, a, m, h, d)
	hasMonthHour := r.tables.Has(ByMonthHour, a, m, h, d)
	hasHour := r.tables.Has(ByHour, a, m, h, d)

	// a miss in the hour table moves the hour every hour level filters on,
	// the more specific ones included; midnight never moves
	hour := h
	if !hasHour && h > 0 {
		for _, near := range []int{h - 1, h + 1} {
			if near >= 0 && near < 24 && r.tables.Has(ByHour, a, m, near, d) {
				hour, hasHour = near, true
				break
			}
		}
	}

	switch {
	case hasMonthHourWeekday:
		return LevelMonthHourWeekday, hour, true
	case hasHourWeekday:
		return LevelHourWeekday, hour, true
	case hasMonthHour:
		return LevelMonthHour, hour, true
	case hasHour:
		return LevelHour, hour, true
	}
	return "", 0, false
}

func (r *Resolver) calendarLevel(q Query) Level {
	for _, level := range []Level{LevelMonthWeekday, LevelWeekday, LevelMonth} {
		if len(r.sample.Waits(q.filter(level, q.Hour))) > 0 {
			return level
		}
	}
	return LevelGlobal
}

// filter returns the sample filter matching level's dimensions, nil for global.
func (q Query) filter(level Level, hour int) Filter {
	a, m, d := q.Attraction, q.Month, q.Weekday
	switch level {
	case LevelMonthHourWeekday:
		return func(r Row) bool {
			return r.Attraction == a && r.Month == m && r.HourInt() == hour && r.Weekday == d
		}
	case LevelHourWeekday:
		return func(r Row) bool { return r.Attraction == a && r.HourInt() == hour && r.Weekday == d }
	case LevelMonthHour:
		return func(r Row) bool { return r.Attraction == a && r.Month == m && r.HourInt() == hour }
	case LevelHour:
		return func(r Row) bool { return r.Attraction == a && r.HourInt() == hour }
	case LevelMonthWeekday:
		return func(r Row) bool { return r.Attraction == a && r.Month == m && r.Weekday == d }
	case LevelWeekday:
		return func(r Row) bool { return r.Attraction == a && r.Weekday == d }
	case LevelMonth:
		return func(r Row) bool { return r.Attraction == a && r.Month == m }
	}
	return nil
}
