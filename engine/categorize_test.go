package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// CATEGORIZE TESTS
// ============================================================================

func TestCategorize_Boundaries(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{-5, "Low"},
		{0, "Low"},
		{1999, "Low"},
		{2000, "Medium"},
		{3999.99, "Medium"},
		{4000, "High"},
		{5999, "High"},
		{6000, "Very High"},
		{1e9, "Very High"},
	}
	for _, tt := range tests {
		got, err := Categorize(tt.value, DefaultThresholds, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "value %v", tt.value)
	}
}

func TestNewCategorizer_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float64
		labels     []string
	}{
		{"empty", nil, []string{"Only"}},
		{"equal", []float64{10, 10}, []string{"a", "b", "c"}},
		{"decreasing", []float64{20, 10}, []string{"a", "b", "c"}},
		{"nan", []float64{math.NaN()}, []string{"a", "b"}},
		{"inf", []float64{1, math.Inf(1)}, []string{"a", "b", "c"}},
		{"label count", []float64{1, 2}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCategorizer(tt.thresholds, tt.labels)
			assert.ErrorIs(t, err, ErrInvalidThresholds)
		})
	}

	_, err := Categorize(100, []float64{1, 2}, nil)
	assert.ErrorIs(t, err, ErrInvalidThresholds, "default labels need three thresholds")
}

func TestCategorizer_CopiesInput(t *testing.T) {
	th := []float64{10, 20}
	c, err := NewCategorizer(th, []string{"a", "b", "c"})
	require.NoError(t, err)
	th[0] = 100
	assert.Equal(t, "a", c.Categorize(5))
	assert.Equal(t, []float64{10, 20}, c.Thresholds())
	assert.Equal(t, Domain{"a", "b", "c"}, c.Labels())
}

func TestSegment(t *testing.T) {
	view := weekFixture(t)
	table, err := Segment(view, "total_count", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Low", "Medium", "High", "Very High"}, keys(table))
	assert.Equal(t, []string{"total_count_mean", "temperature_actual_mean"}, table.Columns)

	low, _ := table.Lookup("Low")
	assert.Equal(t, 5, low.Count)

	medium, _ := table.Lookup("Medium")
	assert.True(t, medium.Missing)

	high, _ := table.Lookup("High")
	assert.Equal(t, 3, high.Count)

	total := 0
	for _, r := range table.Rows {
		total += r.Count
	}
	assert.Equal(t, view.Len(), total)
}

func TestSegment_Errors(t *testing.T) {
	view := weekFixture(t)

	_, err := Segment(view, "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Segment(Filter(view, Constraints{Season: "Winter"}), "total_count", nil)
	assert.ErrorIs(t, err, ErrEmptyResult)
}
