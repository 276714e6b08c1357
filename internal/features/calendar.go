package features

import "time"

// Spanish national holidays as (month, day).
var holidays = map[[2]int]bool{
	{1, 1}:   true,
	{1, 6}:   true,
	{5, 1}:   true,
	{10, 12}: true,
	{11, 1}:  true,
	{12, 6}:  true,
	{12, 8}:  true,
	{12, 25}: true,
}

// Weekdays, Monday first, as the training data numbers them.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekday returns the Monday=0 weekday of t.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsHoliday reports whether t falls on a national holiday.
func IsHoliday(t time.Time) bool {
	return holidays[[2]int{int(t.Month()), t.Day()}]
}

// IsBridge reports whether t is a holiday or a day people take off next to
// one: a Friday before a holiday Saturday, or a Monday or Sunday right after
// a holiday.
func IsBridge(t time.Time) bool {
	if IsHoliday(t) {
		return true
	}
	prev, next := t.AddDate(0, 0, -1), t.AddDate(0, 0, 1)
	switch Weekday(t) {
	case Friday:
		return IsHoliday(next)
	case Monday, Sunday:
		return IsHoliday(prev)
	}
	return false
}

// Season maps a month to its demand tier, 3 being the busiest.
func Season(month int) int {
	switch month {
	case 7, 8, 10:
		return 3
	case 4, 5, 6, 12:
		return 2
	case 3, 9, 11:
		return 1
	}
	return 0
}

// Bands are the time-of-day categories of an hour.
type Bands struct {
	Opening         bool
	Peak            bool
	MorningValley   bool
	AfternoonValley bool
}

// BandsFor classifies an integer hour.
func BandsFor(hour int) Bands {
	return Bands{
		Opening:         hour >= 10 && hour < 11,
		Peak:            hour >= 11 && hour <= 16,
		MorningValley:   hour < 10,
		AfternoonValley: hour > 18,
	}
}

// Valley reports either valley band.
func (b Bands) Valley() bool {
	return b.MorningValley || b.AfternoonValley
}

// Calendar holds every date-derived value the model and the blender read.
type Calendar struct {
	Year    int
	Month   int
	Day     int
	Weekday int
	Quarter int
	ISOWeek int
	Weekend bool
	Holiday bool
	Bridge  bool
	Season  int
}

// NewCalendar derives the calendar features of t.
func NewCalendar(t time.Time) Calendar {
	_, week := t.ISOWeek()
	month := int(t.Month())
	weekday := Weekday(t)
	return Calendar{
		Year:    t.Year(),
		Month:   month,
		Day:     t.Day(),
		Weekday: weekday,
		Quarter: (month-1)/3 + 1,
		ISOWeek: week,
		Weekend: weekday >= Saturday,
		Holiday: IsHoliday(t),
		Bridge:  IsBridge(t),
		Season:  Season(month),
	}
}
