package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, Monday, Weekday(date(2025, 9, 15)))
	assert.Equal(t, Tuesday, Weekday(date(2025, 9, 16)))
	assert.Equal(t, Saturday, Weekday(date(2025, 10, 25)))
	assert.Equal(t, Sunday, Weekday(date(2025, 10, 26)))
}

func TestIsBridge(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want bool
	}{
		{"holiday itself", date(2025, 12, 25), true},
		{"friday before holiday saturday", date(2025, 10, 31), true},
		{"sunday after holiday saturday", date(2025, 11, 2), true},
		{"monday after holiday sunday", date(2026, 11, 2), true},
		{"day before a midweek holiday", date(2025, 12, 24), false},
		{"plain saturday", date(2025, 10, 25), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBridge(tt.day))
		})
	}
}

func TestSeason(t *testing.T) {
	assert.Equal(t, 3, Season(10))
	assert.Equal(t, 2, Season(12))
	assert.Equal(t, 1, Season(9))
	assert.Equal(t, 0, Season(1))
}

func TestBandsFor(t *testing.T) {
	assert.Equal(t, Bands{MorningValley: true}, BandsFor(8))
	assert.Equal(t, Bands{Opening: true}, BandsFor(10))
	assert.Equal(t, Bands{Peak: true}, BandsFor(11))
	assert.Equal(t, Bands{Peak: true}, BandsFor(16))
	assert.Equal(t, Bands{}, BandsFor(17))
	assert.Equal(t, Bands{AfternoonValley: true}, BandsFor(19))
	assert.True(t, BandsFor(19).Valley())
	assert.False(t, BandsFor(18).Valley())
}

func TestNewCalendar(t *testing.T) {
	cal := NewCalendar(date(2025, 10, 25))

	assert.Equal(t, Calendar{
		Year:    2025,
		Month:   10,
		Day:     25,
		Weekday: Saturday,
		Quarter: 4,
		ISOWeek: 43,
		Weekend: true,
		Season:  3,
	}, cal)
}

func TestIsFlagship(t *testing.T) {
	assert.True(t, IsFlagship("Batman Gotham City Escape", 10))
	assert.False(t, IsFlagship("Batman Gotham City Escape", 11))
	assert.False(t, IsFlagship("Superman", 10))
}
