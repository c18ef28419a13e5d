package engine

import "fmt"

// ============================================================================
// TEXT BUILDER — Produces TextData for headline answers
// ============================================================================

// NoDataReply is the message shown when constraints match nothing.
const NoDataReply = "No data for selected filters"

// BuildSummaryText renders headline metrics as a short answer.
func BuildSummaryText(s *Summary) *TextData {
	if s == nil || s.Rows == 0 {
		return &TextData{
			Value:  "0",
			Unit:   "rentals",
			Period: "No data",
			Lines:  []string{NoDataReply},
		}
	}

	return &TextData{
		Value:    FormatFloat(s.TotalRentals),
		RawValue: s.TotalRentals,
		Unit:     "rentals",
		Period:   DerivePeriod(s),
		Count:    s.Rows,
		Lines: []string{
			fmt.Sprintf("Total rentals: %s", FormatFloat(s.TotalRentals)),
			fmt.Sprintf("Average per day: %s", FormatFloat(RoundTo2(s.AverageRentals))),
			fmt.Sprintf("Casual: %s (%.1f%%)", FormatFloat(s.TotalCasual), s.CasualShare),
			fmt.Sprintf("Registered: %s (%.1f%%)", FormatFloat(s.TotalRegistered), s.RegisteredShare),
		},
	}
}

// BuildInsightsText renders insights as one line per finding. Undefined
// statistics are skipped.
func BuildInsightsText(in *Insights) *TextData {
	out := &TextData{Unit: "insights"}
	if in == nil {
		return out
	}
	if len(in.PeakHours) > 0 {
		line := "Peak hours:"
		for i, r := range in.PeakHours {
			sep := ","
			if i == 0 {
				sep = ""
			}
			line += fmt.Sprintf("%s %s", sep, HourLabel(r.Key))
		}
		out.Lines = append(out.Lines, line)
	}
	if in.BestSeason != "" {
		out.Lines = append(out.Lines, "Best season: "+in.BestSeason)
	}
	if in.BestWeather != "" {
		out.Lines = append(out.Lines, "Best weather: "+in.BestWeather)
	}
	if in.TemperatureCorrelation != nil {
		out.Lines = append(out.Lines, fmt.Sprintf("Temperature correlation: %.2f", *in.TemperatureCorrelation))
	}
	if in.WeekendCasualUplift != nil {
		out.Lines = append(out.Lines, fmt.Sprintf("Weekend casual uplift: %+.1f%%", *in.WeekendCasualUplift))
	}
	out.Count = len(out.Lines)
	if out.Count > 0 {
		out.Value = out.Lines[0]
	}
	return out
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period string from a summary.
func DerivePeriod(s *Summary) string {
	switch {
	case s == nil || s.Rows == 0:
		return "No data"
	case s.From.IsZero():
		return "All time"
	case s.From.Equal(s.To):
		return s.From.Format(DateLayout)
	default:
		return fmt.Sprintf("%s – %s", s.From.Format(DateLayout), s.To.Format(DateLayout))
	}
}
