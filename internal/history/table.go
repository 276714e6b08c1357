package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Key is the composite key of an aggregate row. Dimensions the table does
// not group by are -1.
type Key struct {
	Attraction string
	Month      int
	Hour       int
	Weekday    int
}

// Stats maps a table's statistic columns (e.g. "p75_hora") to values.
// Values may be NaN where the training job produced none.
type Stats map[string]float64

// Table is a precomputed aggregate table indexed by its composite key.
type Table struct {
	Granularity Granularity
	rows        map[Key]Stats
}

// NewTable builds an empty table for g.
func NewTable(g Granularity) *Table {
	return &Table{Granularity: g, rows: make(map[Key]Stats)}
}

// Add stores stats under the key for (attraction, month, hour, weekday).
// The first row added for a key wins.
func (t *Table) Add(attraction string, month, hour, weekday int, stats Stats) {
	k := t.Granularity.Key(attraction, month, hour, weekday)
	if _, ok := t.rows[k]; ok {
		return
	}
	t.rows[k] = stats
}

// Lookup finds the row for the query's dimensions under this table's grouping.
func (t *Table) Lookup(attraction string, month, hour, weekday int) (Stats, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.rows[t.Granularity.Key(attraction, month, hour, weekday)]
	return s, ok
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Tables holds one aggregate table per granularity.
type Tables map[Granularity]*Table

// Lookup is Table.Lookup on the table for g; absent tables never match.
func (ts Tables) Lookup(g Granularity, attraction string, month, hour, weekday int) (Stats, bool) {
	return ts[g].Lookup(attraction, month, hour, weekday)
}

// Has reports whether the table for g has a row for the given dimensions.
func (ts Tables) Has(g Granularity, attraction string, month, hour, weekday int) bool {
	_, ok := ts.Lookup(g, attraction, month, hour, weekday)
	return ok
}

// ReadTableCSV decodes an aggregate table for g. Key columns are located by
// name ("hora" or "hora_int" for the hour); every other column is read as a
// statistic, with empty cells stored as NaN.
func ReadTableCSV(g Granularity, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", g, err)
	}
	idx := headerIndex(header)

	keyCols := map[string]bool{ColAttraction: true}
	if _, ok := idx[ColAttraction]; !ok {
		return nil, fmt.Errorf("table %s: missing column %q", g, ColAttraction)
	}
	if g.HasMonth() {
		if _, ok := idx[ColMonth]; !ok {
			return nil, fmt.Errorf("table %s: missing column %q", g, ColMonth)
		}
		keyCols[ColMonth] = true
	}
	hourCol := ""
	if g.HasHour() {
		hourCol = ColHour
		if _, ok := idx[hourCol]; !ok {
			hourCol = ColHourInt
		}
		if _, ok := idx[hourCol]; !ok {
			return nil, fmt.Errorf("table %s: missing hour column", g)
		}
		keyCols[hourCol] = true
	}
	if g.HasWeekday() {
		if _, ok := idx[ColWeekday]; !ok {
			return nil, fmt.Errorf("table %s: missing column %q", g, ColWeekday)
		}
		keyCols[ColWeekday] = true
	}

	t := NewTable(g)
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("table %s line %d: %w", g, line, err)
		}

		month, hour, weekday := -1, -1, -1
		var perr error
		if g.HasMonth() {
			month, perr = parseIntField(rec, idx, ColMonth)
		}
		if perr == nil && g.HasHour() {
			hour, perr = parseIntField(rec, idx, hourCol)
		}
		if perr == nil && g.HasWeekday() {
			weekday, perr = parseIntField(rec, idx, ColWeekday)
		}
		if perr != nil {
			return nil, fmt.Errorf("table %s line %d: %w", g, line, perr)
		}

		stats := make(Stats, len(header)-len(keyCols))
		for i, h := range header {
			name := strings.TrimSpace(h)
			if keyCols[name] {
				continue
			}
			stats[name] = parseStat(rec[i])
		}
		t.Add(rec[idx[ColAttraction]], month, hour, weekday, stats)
	}
	return t, nil
}

func parseStat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
