package engine

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Whole-dashboard report + placeholder resolution
// ============================================================================
// Entry point: BuildReport(spec, daily, hourly, opts...)
//
// Pipeline:
//   1. Filter daily and hourly views by the same Constraints → SubViews
//   2. Early return when the daily view matched nothing
//   3. Summary, timeline, group tables, trend, segments, insights
//   4. Resolve reply template placeholders
//   5. Return Report
//
// A section that cannot be computed for the filtered data is left nil and
// its error is recorded in Report.Errors; the rest of the report survives.
// ============================================================================

// DefaultReply is used when ReportSpec.Reply is empty.
const DefaultReply = "{total} rentals over {days} days ({period})"

// BuildReport filters daily and hourly by spec.Constraints and computes
// every dashboard section. hourly may be nil.
func BuildReport(spec ReportSpec, daily, hourly RecordView, opts ...Option) (*Report, error) {
	cfg := applyOptions(opts)
	if daily == nil {
		return nil, fmt.Errorf("%w: daily view is required", ErrMalformedInput)
	}

	categorizer := spec.Categorizer
	if categorizer == nil {
		categorizer = DefaultCategorizer()
	}

	// 1. Filter → SubViews (zero-copy)
	fd := Filter(daily, spec.Constraints)
	var fh *FilteredView
	if hourly != nil {
		fh = Filter(hourly, spec.Constraints)
	}

	report := &Report{
		Constraints: spec.Constraints,
		DailyRows:   fd.Len(),
	}
	if fh != nil {
		report.HourlyRows = fh.Len()
	}

	cfg.Logger.Info("building report",
		zap.String("constraints", spec.Constraints.Label()),
		zap.Int("dailyRows", report.DailyRows),
		zap.Int("dailySource", fd.SourceLen),
		zap.Int("hourlyRows", report.HourlyRows))

	// 2. Empty result is a value, not an error
	if fd.Empty() {
		report.Empty = true
		report.Reply = NoDataReply
		return report, nil
	}

	record := func(section string, err error) {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", section, err))
		cfg.Logger.Debug("report section skipped", zap.String("section", section), zap.Error(err))
	}

	// 3. Sections
	report.Timeline = Timeline(fd)

	if s, err := Summarize(fd); err == nil {
		report.Summary = s
	} else {
		record("summary", err)
	}

	totals := []string{"total_count"}
	if t, err := Aggregate(fd, "season", totals, AggMean, opts...); err == nil {
		report.BySeason = t
	} else {
		record("bySeason", err)
	}

	if t, err := Aggregate(fd, "weather", totals, AggMean, opts...); err == nil {
		SortTable(t, "value_desc")
		report.ByWeather = t
	} else {
		record("byWeather", err)
	}

	if tr, err := LinearTrend(fd, "temperature_actual", "total_count"); err == nil {
		report.TemperatureTrend = &tr
	} else {
		record("temperatureTrend", err)
	}

	split := []string{"casual_count", "registered_count"}
	if fh != nil && !fh.Empty() {
		if t, err := Aggregate(fh, "hour", split, AggMean, opts...); err == nil {
			report.HourlyPattern = t
		} else {
			record("hourlyPattern", err)
		}
	}

	if t, err := Aggregate(fd, "weekday", split, AggMean, opts...); err == nil {
		report.WeekdayPattern = t
	} else {
		record("weekdayPattern", err)
	}

	if t, err := Segment(fd, "total_count", categorizer, opts...); err == nil {
		report.Segments = t
	} else {
		record("segments", err)
	}

	var hourlyView RecordView
	if fh != nil {
		hourlyView = fh
	}
	insights, errs := BuildInsights(fd, hourlyView, spec.PeakHours, opts...)
	report.Insights = insights
	for _, err := range errs {
		record("insights", err)
	}

	// 4. Resolve reply template placeholders
	reply := spec.Reply
	if reply == "" {
		reply = DefaultReply
	}
	report.Reply = ResolvePlaceholders(reply, report)

	cfg.Logger.Info("report built",
		zap.Int("timeline", len(report.Timeline)),
		zap.Int("errors", len(report.Errors)))

	return report, nil
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// ResolvePlaceholders replaces {total}, {average}, {days}, {period},
// {casual_share}, {registered_share}, {best_season}, {best_weather} and
// {constraints} in template. Unknown placeholders are left as they are.
func ResolvePlaceholders(template string, r *Report) string {
	if r == nil || !strings.Contains(template, "{") {
		return template
	}

	values := map[string]string{
		"{constraints}": r.Constraints.Label(),
		"{days}":        FormatInt(r.DailyRows),
	}
	if s := r.Summary; s != nil {
		values["{total}"] = FormatFloat(s.TotalRentals)
		values["{average}"] = FormatFloat(RoundTo2(s.AverageRentals))
		values["{period}"] = DerivePeriod(s)
		values["{casual_share}"] = fmt.Sprintf("%.1f%%", s.CasualShare)
		values["{registered_share}"] = fmt.Sprintf("%.1f%%", s.RegisteredShare)
	}
	if in := r.Insights; in != nil {
		values["{best_season}"] = in.BestSeason
		values["{best_weather}"] = in.BestWeather
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(p string) string {
		if v, ok := values[p]; ok {
			return v
		}
		return p
	})
}
