package history

// Window is one step of a widening sequence: a coarser sample slice to try
// when a statistic rests on too few observations.
type Window struct {
	Label  string
	Filter Filter
}

// MonthWeekdayWindow widens to every hour of the same month and weekday.
func MonthWeekdayWindow(q Query) Window {
	return Window{Label: string(LevelMonthWeekday) + "_fallback", Filter: q.filter(LevelMonthWeekday, q.Hour)}
}

// MonthWindow widens to the whole month.
func MonthWindow(q Query) Window {
	return Window{Label: string(LevelMonth) + "_fallback", Filter: q.filter(LevelMonth, q.Hour)}
}

// WidenP75 replaces a distrusted p75 with the p75 of the first window that
// has any rows, when that value is larger. Later windows are not consulted
// once a non-empty one is found. It returns the resulting value, the label
// of the window used, and whether a replacement happened.
func (r *Resolver) WidenP75(current float64, windows ...Window) (float64, string, bool) {
	for _, w := range windows {
		waits := r.sample.Waits(w.Filter)
		if len(waits) == 0 {
			continue
		}
		if alt := Quantile(waits, 0.75); alt > current {
			return alt, w.Label, true
		}
		return current, "", false
	}
	return current, "", false
}

// Sample exposes the resolver's reference sample.
func (r *Resolver) Sample() *Sample {
	return r.sample
}
