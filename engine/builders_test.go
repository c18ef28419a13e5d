package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// BUILDER TESTS — chart, table, text
// ============================================================================

func TestBuildChart(t *testing.T) {
	table, err := Aggregate(weekFixture(t), "season", []string{"casual_count", "registered_count"}, AggMean)
	require.NoError(t, err)

	chart := BuildChart(table, "Rentals by season", "")
	require.NotNil(t, chart)
	assert.Equal(t, "bar", chart.ChartType)
	assert.Equal(t, "Season", chart.XAxis)
	assert.Equal(t, "Average", chart.YAxis)
	assert.True(t, chart.ShowLegend)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "Casual Count Mean", chart.Series[0].Name)

	winter := chart.Series[0].Data[3]
	assert.Equal(t, "Winter", winter.Label)
	assert.True(t, winter.Missing)
	assert.Zero(t, winter.Value)

	assert.Nil(t, BuildChart(nil, "", ""))
}

func TestBuildChart_HourLabels(t *testing.T) {
	table, err := Aggregate(morningPeak(t), "hour", []string{"total_count"}, AggMean, WithDropEmptyGroups())
	require.NoError(t, err)
	chart := BuildChart(table, "", "line")
	assert.Equal(t, "06:00", chart.Series[0].Data[0].Label)
	assert.False(t, chart.ShowLegend)
}

func TestBuildTimelineChart(t *testing.T) {
	chart := BuildTimelineChart(Timeline(weekFixture(t)), "Rentals")
	require.NotNil(t, chart)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "2011-01-03", chart.Series[0].Data[0].Label)
	assert.Equal(t, 100.0, chart.Series[0].Data[0].Value)
	assert.Equal(t, 900.0, chart.Series[1].Data[0].Value)

	assert.Nil(t, BuildTimelineChart(nil, ""))
}

func TestBuildTrendChart(t *testing.T) {
	view := linearView(t, 100, 0, 1, 2, 3)
	trend, err := LinearTrend(view, "temperature_actual", "total_count")
	require.NoError(t, err)

	chart := BuildTrendChart(view, trend, "Temperature")
	require.Len(t, chart.Series, 2)
	assert.Equal(t, 300.0, chart.Series[1].Data[2].Value)
}

func TestBuildTable(t *testing.T) {
	table, err := Aggregate(weekFixture(t), "season", []string{"total_count"}, AggMean)
	require.NoError(t, err)

	data := BuildTable(table, "By season")
	require.Len(t, data.Columns, 3)
	assert.Equal(t, "season", data.Columns[0].Key)
	assert.Equal(t, "total_count_mean", data.Columns[1].Key)
	assert.Equal(t, "count", data.Columns[2].Key)

	require.Len(t, data.Rows, 4)
	assert.Equal(t, []string{"Fall", "5800.00", "1"}, data.Rows[2])
	assert.Equal(t, []string{"Winter", MissingCell, "0"}, data.Rows[3])
	assert.Equal(t, "8", data.Summary.Values["count"])
	assert.Equal(t, "Total (3 groups)", data.Summary.Label)

	empty := BuildTable(nil, "none")
	assert.Empty(t, empty.Rows)
}

func TestBuildListTable(t *testing.T) {
	view := Filter(weekFixture(t), Constraints{Season: "Summer"})
	data := BuildListTable(view, "Summer days", []string{"weather"}, []string{"total_count"})
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"2011-07-04", "Clear", "5000"}, data.Rows[0])
	assert.Equal(t, "10,700", data.Summary.Values["total_count"])
}

func TestBuildSummaryText(t *testing.T) {
	s, err := Summarize(weekFixture(t))
	require.NoError(t, err)

	text := BuildSummaryText(s)
	assert.Equal(t, "22,710", text.Value)
	assert.Equal(t, 8, text.Count)
	assert.Equal(t, "2011-01-03 – 2011-10-03", text.Period)
	assert.Contains(t, text.Lines[1], "2,838.75")

	none := BuildSummaryText(nil)
	assert.Equal(t, []string{NoDataReply}, none.Lines)
}

func TestBuildInsightsText(t *testing.T) {
	r := 0.63
	text := BuildInsightsText(&Insights{
		PeakHours:              []Row{{Key: "8"}, {Key: "17"}},
		BestSeason:             "Fall",
		TemperatureCorrelation: &r,
	})
	assert.Equal(t, []string{
		"Peak hours: 08:00, 17:00",
		"Best season: Fall",
		"Temperature correlation: 0.63",
	}, text.Lines)
	assert.Equal(t, 3, text.Count)
}
