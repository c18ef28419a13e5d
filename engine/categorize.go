package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// CATEGORIZE — Threshold bucketing
// ============================================================================
// Buckets are half-open: [-inf, t1) → L1, [t1, t2) → L2, ..., [tk, +inf) → Lk+1.
// A value equal to a threshold belongs to the bucket that starts there.
// ============================================================================

// DefaultThresholds are the daily-volume cut points of the rental dashboard.
var DefaultThresholds = []float64{2000, 4000, 6000}

// DefaultLabels name the buckets produced by DefaultThresholds.
var DefaultLabels = []string{"Low", "Medium", "High", "Very High"}

// Categorizer maps values to bucket labels. Build it with NewCategorizer so
// configuration errors surface once, before any data is classified.
type Categorizer struct {
	thresholds []float64
	labels     []string
}

// NewCategorizer validates thresholds and labels. Thresholds must be finite
// and strictly increasing, and there must be exactly one more label than
// thresholds.
func NewCategorizer(thresholds []float64, labels []string) (*Categorizer, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: at least one threshold required", ErrInvalidThresholds)
	}
	for i, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: threshold %d is not finite", ErrInvalidThresholds, i)
		}
		if i > 0 && t <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: %v is not greater than %v", ErrInvalidThresholds, t, thresholds[i-1])
		}
	}
	if len(labels) != len(thresholds)+1 {
		return nil, fmt.Errorf("%w: %d thresholds need %d labels, got %d",
			ErrInvalidThresholds, len(thresholds), len(thresholds)+1, len(labels))
	}

	c := &Categorizer{
		thresholds: append([]float64(nil), thresholds...),
		labels:     append([]string(nil), labels...),
	}
	return c, nil
}

// DefaultCategorizer returns the Low/Medium/High/Very High categorizer.
func DefaultCategorizer() *Categorizer {
	c, err := NewCategorizer(DefaultThresholds, DefaultLabels)
	if err != nil {
		panic(err) // constants above are valid
	}
	return c
}

// Categorize returns the label of the bucket containing value.
func (c *Categorizer) Categorize(value float64) string {
	for i, t := range c.thresholds {
		if value < t {
			return c.labels[i]
		}
	}
	return c.labels[len(c.labels)-1]
}

// Labels returns the bucket labels in ascending order.
func (c *Categorizer) Labels() Domain {
	return append(Domain(nil), c.labels...)
}

// Thresholds returns a copy of the cut points.
func (c *Categorizer) Thresholds() []float64 {
	return append([]float64(nil), c.thresholds...)
}

// Categorize classifies value against thresholds. When labels is nil the
// default labels are used, which requires exactly three thresholds.
func Categorize(value float64, thresholds []float64, labels []string) (string, error) {
	if labels == nil {
		labels = DefaultLabels
	}
	c, err := NewCategorizer(thresholds, labels)
	if err != nil {
		return "", err
	}
	return c.Categorize(value), nil
}

// ============================================================================
// SEGMENTATION
// ============================================================================

// SegmentDimension is the dimension key CategoryView adds for Segment.
const SegmentDimension = "volume_category"

// Segment buckets each row of view by column and reports, per bucket in
// label order, the number of rows and the mean of total_count and
// temperature_actual (when the view has it).
func Segment(view RecordView, column string, c *Categorizer, opts ...Option) (*OrderedTable, error) {
	if c == nil {
		c = DefaultCategorizer()
	}
	if view.Len() == 0 {
		return nil, ErrEmptyResult
	}
	if !HasMeasure(view, column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	values := []string{column}
	if column != "total_count" && HasMeasure(view, "total_count") {
		values = append(values, "total_count")
	}
	if HasMeasure(view, "temperature_actual") {
		values = append(values, "temperature_actual")
	}

	bucketed := NewCategoryView(view, SegmentDimension, column, c)
	return Aggregate(bucketed, SegmentDimension, values, AggMean, withOption(opts, WithDomain(SegmentDimension, c.Labels()))...)
}
