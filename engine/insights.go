package engine

import "go.uber.org/zap"

// ============================================================================
// INSIGHTS — Headline findings over already-filtered views
// ============================================================================

// DefaultPeakHours is how many hours BuildInsights ranks.
const DefaultPeakHours = 3

// BuildInsights derives the dashboard's findings. Both views must already be
// filtered; hourly may be nil. A statistic that is undefined for the data is
// left empty and its error is returned in errs.
func BuildInsights(daily, hourly RecordView, peakHours int, opts ...Option) (in *Insights, errs []error) {
	cfg := applyOptions(opts)
	if peakHours <= 0 {
		peakHours = DefaultPeakHours
	}
	in = &Insights{}

	if hourly != nil && hourly.Len() > 0 {
		byHour, err := Aggregate(hourly, "hour", []string{"total_count"}, AggMean, withOption(opts, WithDropEmptyGroups())...)
		if err == nil {
			in.PeakHours, err = TopN(byHour, peakHours, ColumnName("total_count", AggMean))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if daily == nil || daily.Len() == 0 {
		return in, append(errs, ErrEmptyResult)
	}

	meanTotal := ColumnName("total_count", AggMean)
	if bySeason, err := Aggregate(daily, "season", []string{"total_count"}, AggMean, opts...); err == nil {
		in.BestSeason = Best(bySeason, meanTotal)
	} else {
		errs = append(errs, err)
	}
	if byWeather, err := Aggregate(daily, "weather", []string{"total_count"}, AggMean, opts...); err == nil {
		in.BestWeather = Best(byWeather, meanTotal)
	} else {
		errs = append(errs, err)
	}

	if r, err := Correlate(daily, "temperature_actual", "total_count"); err == nil {
		in.TemperatureCorrelation = &r
	} else {
		errs = append(errs, err)
	}

	if up, err := WeekendUplift(daily, "casual_count"); err == nil {
		in.WeekendCasualUplift = &up
	} else {
		errs = append(errs, err)
	}

	cfg.Logger.Debug("insights built",
		zap.Int("peakHours", len(in.PeakHours)),
		zap.String("bestSeason", in.BestSeason),
		zap.String("bestWeather", in.BestWeather),
		zap.Int("errors", len(errs)))
	return in, errs
}
