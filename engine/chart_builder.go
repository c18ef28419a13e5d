package engine

import "time"

// ============================================================================
// CHART BUILDER — Produces ChartConfig from OrderedTable / Timeline / Trend
// ============================================================================
// One series per value column. Missing rows become flagged points so the
// renderer can draw a gap instead of a zero bar.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig from an aggregated table.
// chartType defaults to "bar".
func BuildChart(table *OrderedTable, title, chartType string) *ChartConfig {
	if table.Len() == 0 {
		return nil
	}
	if chartType == "" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      title,
		XAxis:      LabelForColumn(table.GroupKey),
		YAxis:      LabelForAggregation(table.Aggregation),
		ShowLegend: len(table.Columns) > 1,
		ShowGrid:   chartType != "pie",
	}

	config.Series = make([]ChartSeries, 0, len(table.Columns))
	for ci, col := range table.Columns {
		points := make([]ChartPoint, 0, len(table.Rows))
		for _, r := range table.Rows {
			p := ChartPoint{Label: rowLabel(table.GroupKey, r.Key), Missing: r.Missing}
			if !r.Missing {
				p.Value = RoundTo2(r.Values[ci])
			}
			points = append(points, p)
		}
		config.Series = append(config.Series, ChartSeries{
			Name:  LabelForColumn(col),
			Data:  points,
			Color: defaultColors[ci%len(defaultColors)],
		})
	}

	config.Colors = assignColors(len(config.Series))
	return config
}

// BuildTimelineChart produces the casual/registered line chart.
func BuildTimelineChart(points []TimelinePoint, title string) *ChartConfig {
	if len(points) == 0 {
		return nil
	}
	casual := make([]ChartPoint, 0, len(points))
	registered := make([]ChartPoint, 0, len(points))
	for _, p := range points {
		label := p.Date.Format(DateLayout)
		casual = append(casual, ChartPoint{Label: label, Value: p.Casual})
		registered = append(registered, ChartPoint{Label: label, Value: p.Registered})
	}
	return &ChartConfig{
		ChartType:  "line",
		Title:      title,
		XAxis:      "Date",
		YAxis:      "Rentals",
		ShowLegend: true,
		ShowGrid:   true,
		Series: []ChartSeries{
			{Name: "Casual", Data: casual, Color: defaultColors[0]},
			{Name: "Registered", Data: registered, Color: defaultColors[1]},
		},
		Colors: assignColors(2),
	}
}

// BuildTrendChart samples a fitted trend at each x of view, producing a
// scatter series of observations and a line series of fitted values.
func BuildTrendChart(view RecordView, trend Trend, title string) *ChartConfig {
	if view.Len() == 0 {
		return nil
	}
	observed := make([]ChartPoint, 0, view.Len())
	fitted := make([]ChartPoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		x := view.Measure(i, trend.XColumn)
		label := FormatFloat(RoundTo2(x))
		observed = append(observed, ChartPoint{Label: label, Value: view.Measure(i, trend.YColumn)})
		fitted = append(fitted, ChartPoint{Label: label, Value: RoundTo2(trend.At(x))})
	}
	return &ChartConfig{
		ChartType:  "scatter",
		Title:      title,
		XAxis:      LabelForColumn(trend.XColumn),
		YAxis:      LabelForColumn(trend.YColumn),
		ShowLegend: true,
		ShowGrid:   true,
		Series: []ChartSeries{
			{Name: "Observed", Data: observed, Color: defaultColors[0]},
			{Name: "Trend", Data: fitted, Color: defaultColors[3]},
		},
		Colors: []string{defaultColors[0], defaultColors[3]},
	}
}

// ============================================================================
// HELPERS
// ============================================================================

// rowLabel renders a group key for display; hours become "08:00".
func rowLabel(groupKey, key string) string {
	if groupKey == "hour" {
		return HourLabel(key)
	}
	if groupKey == "date" {
		if t, err := time.Parse(DateLayout, key); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return key
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
