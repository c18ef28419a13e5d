package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/bikestats/engine"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleDaily() []RentalRecord {
	return []RentalRecord{
		{Date: date(2011, 1, 1), Season: "Spring", Weather: "Mist", Weekday: "Saturday",
			Temperature: 8.2, CasualCount: 331, RegisteredCount: 654, TotalCount: 985},
		{Date: date(2011, 1, 3), Season: "Spring", Weather: "Clear", Weekday: "Monday", IsWorkingDay: true,
			Temperature: 1.2, CasualCount: 120, RegisteredCount: 1229, TotalCount: 1349},
	}
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, "Saturday", WeekdayOf(date(2011, 1, 1)))
	assert.Equal(t, "Sunday", WeekdayOf(date(2011, 1, 2)))
	assert.Equal(t, "Monday", WeekdayOf(date(2011, 1, 3)))
}

func TestParseLabels(t *testing.T) {
	s, err := ParseSeason(" fall ")
	require.NoError(t, err)
	assert.Equal(t, "Fall", s)

	_, err = ParseSeason("Monsoon")
	assert.ErrorIs(t, err, engine.ErrMalformedInput)

	d, err := ParseWeekday("wed")
	require.NoError(t, err)
	assert.Equal(t, "Wednesday", d)

	_, err = ParseWeekday("Funday")
	assert.ErrorIs(t, err, engine.ErrMalformedInput)

	for in, want := range map[string]bool{"1": true, "0": false, "TRUE": true, "no": false} {
		got, err := ParseWorkingDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err = ParseWorkingDay("maybe")
	assert.ErrorIs(t, err, engine.ErrMalformedInput)
}

func TestValidate(t *testing.T) {
	r := sampleDaily()[0]
	require.NoError(t, r.Validate())

	r.TotalCount++
	assert.ErrorIs(t, r.Validate(), engine.ErrMalformedInput)

	h := HourlyRecord{RentalRecord: sampleDaily()[0], Hour: 24}
	assert.ErrorIs(t, h.Validate(), engine.ErrMalformedInput)
	h.Hour = 23
	assert.NoError(t, h.Validate())
}

func TestDailyAdapter(t *testing.T) {
	view := DailyAdapter().Bind(sampleDaily())
	require.Equal(t, 2, view.Len())

	assert.Equal(t, "Spring", view.Dimension(0, "season"))
	assert.Equal(t, "false", view.Dimension(0, "working_day"))
	assert.Equal(t, "true", view.Dimension(1, "working_day"))
	assert.Equal(t, "2011-01-03", view.Dimension(1, "date"))
	assert.Equal(t, 1349.0, view.Measure(1, "total_count"))
	assert.Equal(t, 8.2, view.Measure(0, "temperature_actual"))
	assert.True(t, engine.HasMeasure(view, "windspeed_actual"))
	assert.False(t, engine.HasDimension(view, "hour"))
}

func TestHourlyAdapter(t *testing.T) {
	base := sampleDaily()[1]
	view := HourlyAdapter().Bind([]HourlyRecord{
		{RentalRecord: base, Hour: 8},
		{RentalRecord: base, Hour: 17},
	})
	assert.Equal(t, "8", view.Dimension(0, "hour"))
	assert.Equal(t, "17", view.Dimension(1, "hour"))
	assert.Equal(t, "Monday", view.Dimension(1, "weekday"))

	table, err := engine.Aggregate(view, "hour", []string{"total_count"}, engine.AggSum)
	require.NoError(t, err)
	assert.Equal(t, 24, table.Len())
}

func TestDataset(t *testing.T) {
	ds := NewDataset(sampleDaily(), nil)
	assert.Equal(t, 2, ds.DailyView().Len())
	assert.Nil(t, ds.HourlyView())

	report, err := engine.BuildReport(engine.ReportSpec{}, ds.DailyView(), ds.HourlyView())
	require.NoError(t, err)
	require.NotNil(t, report.Insights)
	require.NotNil(t, report.Insights.WeekendCasualUplift)
	assert.InDelta(t, (331.0-120)/120*100, *report.Insights.WeekendCasualUplift, 1e-9)
}
