package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// STATISTICS — Correlation, OLS trend, headline metrics
// ============================================================================
// Closed-form formulas only. Every division is guarded before it happens;
// no NaN or Inf ever leaves this file.
// ============================================================================

// moments holds the sums needed for Pearson r and OLS.
type moments struct {
	n             float64
	meanX, meanY  float64
	sxx, syy, sxy float64
}

// computeMoments runs a two-pass centered computation over view.
func computeMoments(view RecordView, x, y string) (moments, error) {
	if !HasMeasure(view, x) {
		return moments{}, fmt.Errorf("%w: %q", ErrUnknownColumn, x)
	}
	if !HasMeasure(view, y) {
		return moments{}, fmt.Errorf("%w: %q", ErrUnknownColumn, y)
	}
	n := view.Len()
	if n < 2 {
		return moments{}, fmt.Errorf("%w: need at least 2 rows, have %d", ErrInsufficientData, n)
	}

	m := moments{n: float64(n)}
	for i := 0; i < n; i++ {
		m.meanX += view.Measure(i, x)
		m.meanY += view.Measure(i, y)
	}
	m.meanX /= m.n
	m.meanY /= m.n

	for i := 0; i < n; i++ {
		dx := view.Measure(i, x) - m.meanX
		dy := view.Measure(i, y) - m.meanY
		m.sxx += dx * dx
		m.syy += dy * dy
		m.sxy += dx * dy
	}

	if m.sxx == 0 {
		return moments{}, fmt.Errorf("%w: %s has zero variance", ErrInsufficientData, x)
	}
	if m.syy == 0 {
		return moments{}, fmt.Errorf("%w: %s has zero variance", ErrInsufficientData, y)
	}
	return m, nil
}

// Correlate returns the Pearson correlation coefficient of columns a and b.
func Correlate(view RecordView, a, b string) (float64, error) {
	m, err := computeMoments(view, a, b)
	if err != nil {
		return 0, err
	}
	r := m.sxy / math.Sqrt(m.sxx*m.syy)
	// Clamp rounding drift so |r| never exceeds 1.
	return math.Max(-1, math.Min(1, r)), nil
}

// LinearTrend fits y = slope*x + intercept by ordinary least squares.
func LinearTrend(view RecordView, x, y string) (Trend, error) {
	m, err := computeMoments(view, x, y)
	if err != nil {
		return Trend{}, err
	}
	slope := m.sxy / m.sxx
	return Trend{
		XColumn:   x,
		YColumn:   y,
		Slope:     slope,
		Intercept: m.meanY - slope*m.meanX,
	}, nil
}

// ============================================================================
// HEADLINE METRICS
// ============================================================================

// Summarize computes the headline metrics of a view: totals, the average
// per row, and the casual/registered split.
func Summarize(view RecordView) (*Summary, error) {
	n := view.Len()
	if n == 0 {
		return nil, ErrEmptyResult
	}

	s := &Summary{
		Rows:            n,
		TotalRentals:    Sum(view, "total_count"),
		TotalCasual:     Sum(view, "casual_count"),
		TotalRegistered: Sum(view, "registered_count"),
	}
	s.AverageRentals = s.TotalRentals / float64(n)
	if s.TotalRentals > 0 {
		s.CasualShare = s.TotalCasual / s.TotalRentals * 100
		s.RegisteredShare = s.TotalRegistered / s.TotalRentals * 100
	}

	for i := 0; i < n; i++ {
		d := view.Date(i)
		if d.IsZero() {
			continue
		}
		if s.From.IsZero() || d.Before(s.From) {
			s.From = d
		}
		if s.To.IsZero() || d.After(s.To) {
			s.To = d
		}
	}
	return s, nil
}

// WeekendUplift returns the percentage by which measure's mean on
// non-working days exceeds its mean on working days.
func WeekendUplift(view RecordView, measure string) (float64, error) {
	if !HasMeasure(view, measure) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, measure)
	}
	offDays := ApplyFilters(view, map[string][]string{"working_day": {"false"}})
	workDays := ApplyFilters(view, map[string][]string{"working_day": {"true"}})

	offMean, err := Mean(offDays, measure)
	if err != nil {
		return 0, fmt.Errorf("%w: no non-working days", ErrInsufficientData)
	}
	workMean, err := Mean(workDays, measure)
	if err != nil {
		return 0, fmt.Errorf("%w: no working days", ErrInsufficientData)
	}
	if workMean == 0 {
		return 0, fmt.Errorf("%w: working-day mean is zero", ErrInsufficientData)
	}
	return (offMean - workMean) / workMean * 100, nil
}

// Timeline returns one point per row, in view order.
func Timeline(view RecordView) []TimelinePoint {
	points := make([]TimelinePoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		points = append(points, TimelinePoint{
			Date:       view.Date(i),
			Casual:     view.Measure(i, "casual_count"),
			Registered: view.Measure(i, "registered_count"),
			Total:      view.Measure(i, "total_count"),
		})
	}
	return points
}
