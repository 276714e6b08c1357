package history

// Granularity is one of the six groupings the aggregate tables are built on.
type Granularity int

const (
	ByMonth Granularity = iota
	ByHour
	ByWeekday
	ByMonthWeekday
	ByHourWeekday
	ByMonthHour
)

// Granularities lists every granularity in feature-assembly order.
var Granularities = []Granularity{ByMonth, ByHour, ByWeekday, ByMonthWeekday, ByHourWeekday, ByMonthHour}

// Statistic kinds carried by the aggregate tables.
const (
	StatCount  = "count"
	StatMean   = "mean"
	StatMedian = "median"
	StatStd    = "std"
	StatP75    = "p75"
	StatP90    = "p90"
	StatP95    = "p95"
)

var granularityInfo = map[Granularity]struct {
	suffix  string
	month   bool
	hour    bool
	weekday bool
	stats   []string
}{
	ByMonth:        {"mes", true, false, false, []string{StatCount, StatMean, StatMedian, StatStd, StatP75, StatP90, StatP95}},
	ByHour:         {"hora", false, true, false, []string{StatCount, StatMean, StatMedian, StatStd, StatP75, StatP90}},
	ByWeekday:      {"dia", false, false, true, []string{StatCount, StatMean, StatMedian, StatStd, StatP75, StatP90}},
	ByMonthWeekday: {"mes_dia", true, false, true, []string{StatCount, StatMean, StatMedian, StatP75, StatP90}},
	ByHourWeekday:  {"hora_dia", false, true, true, []string{StatCount, StatMean, StatMedian, StatP75}},
	ByMonthHour:    {"mes_hora", true, true, false, []string{StatCount, StatMean, StatMedian, StatP75}},
}

// Suffix is the column-name suffix the training job uses for this grouping.
func (g Granularity) Suffix() string {
	return granularityInfo[g].suffix
}

func (g Granularity) String() string {
	return g.Suffix()
}

func (g Granularity) HasMonth() bool   { return granularityInfo[g].month }
func (g Granularity) HasHour() bool    { return granularityInfo[g].hour }
func (g Granularity) HasWeekday() bool { return granularityInfo[g].weekday }

// Stats lists the statistic kinds the feature vector carries for g.
func (g Granularity) Stats() []string {
	return granularityInfo[g].stats
}

// Column is the canonical feature column for a statistic, e.g. "p75_mes_hora".
func (g Granularity) Column(stat string) string {
	return stat + "_" + g.Suffix()
}

// Key builds the lookup key for g, blanking the dimensions g does not group by.
func (g Granularity) Key(attraction string, month, hour, weekday int) Key {
	k := Key{Attraction: attraction, Month: -1, Hour: -1, Weekday: -1}
	if g.HasMonth() {
		k.Month = month
	}
	if g.HasHour() {
		k.Hour = hour
	}
	if g.HasWeekday() {
		k.Weekday = weekday
	}
	return k
}
