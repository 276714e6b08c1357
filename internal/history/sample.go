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

// Column names of the reference sample exported by the training job.
const (
	ColWait       = "tiempo_espera"
	ColAttraction = "atraccion"
	ColZone       = "zona"
	ColMonth      = "mes"
	ColHour       = "hora"
	ColHourInt    = "hora_int"
	ColWeekday    = "dia_semana_num"
)

// Row is one observation of the reference training sample.
type Row struct {
	Wait       float64
	Attraction string
	Zone       string
	Month      int
	Hour       float64
	Weekday    int
}

// HourInt truncates the fractional hour the way the training job buckets it.
func (r Row) HourInt() int {
	return int(r.Hour)
}

// Global summarizes the whole sample. These are the fallbacks for every
// statistic that has no more specific source.
type Global struct {
	Mean   float64
	Median float64
	Std    float64
	P75    float64
	P90    float64
	P95    float64
}

// Sample is the reference training sample. It is read-only after decoding.
type Sample struct {
	Rows    []Row
	HasZone bool

	global Global
	freq   map[string]map[string]int
}

// NewSample builds a sample and precomputes its global statistics.
func NewSample(rows []Row, hasZone bool) *Sample {
	s := &Sample{Rows: rows, HasZone: hasZone}

	waits := s.waits(func(Row) bool { return true })
	s.global = Global{
		Mean:   Mean(waits),
		Median: Median(waits),
		Std:    Std(waits),
		P75:    Quantile(waits, 0.75),
		P90:    Quantile(waits, 0.90),
		P95:    Quantile(waits, 0.95),
	}

	// a single-row sample has no spread
	if math.IsNaN(s.global.Std) {
		s.global.Std = 0
	}

	s.freq = map[string]map[string]int{
		ColAttraction: {},
	}
	if hasZone {
		s.freq[ColZone] = map[string]int{}
	}
	for _, r := range rows {
		s.freq[ColAttraction][r.Attraction]++
		if hasZone {
			s.freq[ColZone][r.Zone]++
		}
	}
	return s
}

// Global returns the sample-wide statistics.
func (s *Sample) Global() Global {
	return s.global
}

// Frequency returns how many sample rows carry value in the given category
// column. Unknown categories and values count zero.
func (s *Sample) Frequency(category, value string) int {
	return s.freq[category][value]
}

// Filter selects sample rows.
type Filter func(Row) bool

// Waits returns the wait times of the rows matching f.
func (s *Sample) Waits(f Filter) []float64 {
	return s.waits(f)
}

func (s *Sample) waits(f Filter) []float64 {
	var out []float64
	for _, r := range s.Rows {
		if f(r) {
			out = append(out, r.Wait)
		}
	}
	return out
}

// ReadSampleCSV decodes the reference sample. Columns are located by header
// name; extra columns are ignored. The zone column is optional.
func ReadSampleCSV(r io.Reader) (*Sample, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read sample header: %w", err)
	}
	idx := headerIndex(header)

	hourCol := ColHour
	if _, ok := idx[hourCol]; !ok {
		hourCol = ColHourInt
	}
	for _, required := range []string{ColWait, ColAttraction, ColMonth, hourCol, ColWeekday} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("sample: missing column %q", required)
		}
	}
	_, hasZone := idx[ColZone]

	var rows []Row
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("sample line %d: %w", line, err)
		}

		var row Row
		var perr error
		row.Wait, perr = parseFloatField(rec, idx, ColWait)
		if perr == nil {
			row.Month, perr = parseIntField(rec, idx, ColMonth)
		}
		if perr == nil {
			row.Hour, perr = parseFloatField(rec, idx, hourCol)
		}
		if perr == nil {
			row.Weekday, perr = parseIntField(rec, idx, ColWeekday)
		}
		if perr != nil {
			return nil, fmt.Errorf("sample line %d: %w", line, perr)
		}
		row.Attraction = rec[idx[ColAttraction]]
		if hasZone {
			row.Zone = rec[idx[ColZone]]
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New("sample: no rows")
	}
	return NewSample(rows, hasZone), nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func parseFloatField(rec []string, idx map[string]int, col string) (float64, error) {
	raw := strings.TrimSpace(rec[idx[col]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid number %q", col, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("column %s: non-finite value %q", col, raw)
	}
	return v, nil
}

// parseIntField accepts "10" and "10.0"; pandas writes integer columns with
// missing values as floats.
func parseIntField(rec []string, idx map[string]int, col string) (int, error) {
	v, err := parseFloatField(rec, idx, col)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("column %s: expected an integer, got %v", col, v)
	}
	return int(v), nil
}
