package features

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultHour is used whenever the time of day cannot be parsed.
const DefaultHour = 12.0

// dateLayouts accept zero-padded and unpadded month/day. Fractional seconds
// are accepted after any seconds field.
var dateLayouts = []string{
	"2006-1-2",
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2T15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2",
}

// ParseDate parses the request date. Unparseable input yields now; a bad
// date never fails the request.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return now, false
}

// ParseHour converts the request time of day into fractional hours.
// Numbers pass through; "H:M" becomes H + M/60; anything else must parse
// as a float. Every failure yields DefaultHour.
func ParseHour(c Clock) (float64, bool) {
	if c.Number != nil {
		if isFinite(*c.Number) {
			return *c.Number, true
		}
		return DefaultHour, false
	}
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return DefaultHour, false
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return DefaultHour, false
		}
		m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return DefaultHour, false
		}
		return float64(h) + float64(m)/60, true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return DefaultHour, false
	}
	return v, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
