package history

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGranularity(t *testing.T) {
	assert.Equal(t, "p75_mes_hora", ByMonthHour.Column(StatP75))
	assert.Equal(t, Key{Attraction: "A", Month: -1, Hour: 12, Weekday: 3}, ByHourWeekday.Key("A", 7, 12, 3))
	assert.Contains(t, ByMonth.Stats(), StatP95)
	assert.NotContains(t, ByHour.Stats(), StatP95)
	assert.Len(t, Granularities, 6)
}

func TestReadTableCSV(t *testing.T) {
	t.Run("indexes rows by composite key", func(t *testing.T) {
		data := "atraccion,mes,hora,count_mes_hora,mean_mes_hora,median_mes_hora,p75_mes_hora\n" +
			"Coaster,7,12,40,22.5,20,30\n" +
			"Coaster,7,13,35,25,24,\n"

		table, err := ReadTableCSV(ByMonthHour, strings.NewReader(data))

		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())

		stats, ok := table.Lookup("Coaster", 7, 12, 4)
		require.True(t, ok)
		assert.Equal(t, 30.0, stats["p75_mes_hora"])
		assert.NotContains(t, stats, ColMonth)

		stats, ok = table.Lookup("Coaster", 7, 13, 0)
		require.True(t, ok)
		assert.True(t, math.IsNaN(stats["p75_mes_hora"]))

		_, ok = table.Lookup("Coaster", 8, 12, 0)
		assert.False(t, ok)
	})

	t.Run("accepts hora_int as hour column", func(t *testing.T) {
		data := "atraccion,hora_int,median_hora\nCoaster,11,18\n"

		table, err := ReadTableCSV(ByHour, strings.NewReader(data))

		require.NoError(t, err)
		_, ok := table.Lookup("Coaster", 1, 11, 1)
		assert.True(t, ok)
	})

	t.Run("missing key column", func(t *testing.T) {
		_, err := ReadTableCSV(ByMonthWeekday, strings.NewReader("atraccion,mes,median_mes_dia\nCoaster,7,10\n"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), ColWeekday)
	})

	t.Run("first duplicate wins", func(t *testing.T) {
		data := "atraccion,mes,median_mes\nCoaster,7,10\nCoaster,7.0,99\n"

		table, err := ReadTableCSV(ByMonth, strings.NewReader(data))

		require.NoError(t, err)
		stats, _ := table.Lookup("Coaster", 7, 0, 0)
		assert.Equal(t, 10.0, stats["median_mes"])
	})
}

func TestTables_NilSafe(t *testing.T) {
	var tables Tables
	assert.False(t, tables.Has(ByHour, "A", 1, 1, 1))
}
