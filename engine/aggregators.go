package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// ============================================================================

// Aggregate groups view by groupKey and applies fn to every value column.
// Pipeline: validate → group → canonical order → aggregate.
//
// Rows come back in the group key's canonical domain order when one is
// registered (season, weekday, hour by default); values outside the domain
// follow in first-seen order. Domain values with no rows are returned as
// Missing rows unless WithDropEmptyGroups is given.
func Aggregate(view RecordView, groupKey string, valueColumns []string, fn AggFunc, opts ...Option) (*OrderedTable, error) {
	cfg := applyOptions(opts)

	switch fn {
	case AggMean, AggSum, AggCount:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, fn)
	}
	if len(valueColumns) == 0 {
		return nil, fmt.Errorf("%w: no value columns", ErrUnknownColumn)
	}
	if view.Len() == 0 {
		return nil, ErrEmptyResult
	}
	if !HasDimension(view, groupKey) {
		return nil, fmt.Errorf("%w: no dimension %q", ErrUnknownColumn, groupKey)
	}
	for _, col := range valueColumns {
		if !HasMeasure(view, col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	// 1. Group
	keys, grouped := groupBy(view, groupKey)

	// 2. Canonical order
	domain := cfg.Domains[groupKey]
	ordered := canonicalOrder(keys, domain, cfg.DropEmptyGroups, grouped)

	// 3. Aggregate
	table := &OrderedTable{
		GroupKey:    groupKey,
		Aggregation: fn,
		Columns:     lo.Map(valueColumns, func(c string, _ int) string { return ColumnName(c, fn) }),
		Rows:        make([]Row, 0, len(ordered)),
		domain:      domain,
	}
	for _, key := range ordered {
		indices, ok := grouped[key]
		if !ok {
			table.Rows = append(table.Rows, Row{
				Key:     key,
				Missing: true,
				Values:  make([]float64, len(valueColumns)),
			})
			continue
		}
		sub := newSubView(view, indices)
		row := Row{Key: key, Count: len(indices), View: sub, Values: make([]float64, len(valueColumns))}
		for i, col := range valueColumns {
			row.Values[i] = aggregateColumn(sub, col, fn)
		}
		table.Rows = append(table.Rows, row)
	}

	cfg.Logger.Debug("aggregated view",
		zap.Int("rows", view.Len()),
		zap.String("group", groupKey),
		zap.String("fn", string(fn)),
		zap.Int("groups", len(table.Rows)))

	return table, nil
}

// ============================================================================
// GROUPING
// ============================================================================

// groupBy returns distinct keys in first-seen order and the row indices for each.
func groupBy(view RecordView, dimension string) ([]string, map[string][]int) {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}
	return order, grouped
}

// canonicalOrder places domain values first (in domain order), then any
// other seen keys in first-seen order. Seen keys are normalized to the
// domain's spelling so "fall" and "Fall" land in one group.
func canonicalOrder(seen []string, domain Domain, dropEmpty bool, grouped map[string][]int) []string {
	if len(domain) == 0 {
		return seen
	}

	// Fold case variants onto the domain spelling.
	for _, key := range seen {
		canon := domain.Canonical(key)
		if canon == "" || canon == key {
			continue
		}
		grouped[canon] = mergeSorted(grouped[canon], grouped[key])
		delete(grouped, key)
	}

	out := make([]string, 0, len(domain)+len(seen))
	for _, v := range domain {
		if _, ok := grouped[v]; ok || !dropEmpty {
			out = append(out, v)
		}
	}
	for _, key := range seen {
		if !domain.Contains(key) {
			out = append(out, key)
		}
	}
	return out
}

// mergeSorted merges two ascending index lists.
func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// ============================================================================
// AGGREGATION
// ============================================================================

// aggregateColumn applies fn to a non-empty view.
func aggregateColumn(view RecordView, measure string, fn AggFunc) float64 {
	switch fn {
	case AggSum:
		return Sum(view, measure)
	case AggCount:
		return float64(view.Len())
	default:
		return Sum(view, measure) / float64(view.Len())
	}
}

// Sum sums a named measure across a view. The sum of an empty view is 0.
func Sum(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// Mean computes the average of a named measure.
func Mean(view RecordView, measure string) (float64, error) {
	n := view.Len()
	if n == 0 {
		return 0, ErrEmptyResult
	}
	return Sum(view, measure) / float64(n), nil
}

// Max returns the largest value of a named measure.
func Max(view RecordView, measure string) (float64, error) {
	n := view.Len()
	if n == 0 {
		return 0, ErrEmptyResult
	}
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m, nil
}

// Min returns the smallest value of a named measure.
func Min(view RecordView, measure string) (float64, error) {
	n := view.Len()
	if n == 0 {
		return 0, ErrEmptyResult
	}
	m := math.Inf(1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v < m {
			m = v
		}
	}
	return m, nil
}

// ============================================================================
// SORTING
// ============================================================================

// SortTable reorders rows of table in place by the first value column.
// Sorting is stable so ties keep canonical order; missing rows always sink
// to the end for value sorts.
//
// Modes: "value_desc", "value_asc", "label_asc", "canonical" (no-op).
func SortTable(table *OrderedTable, sortBy string) {
	if table == nil || len(table.Columns) == 0 {
		return
	}
	rows := table.Rows
	switch sortBy {
	case "value_desc":
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Missing != rows[j].Missing {
				return !rows[i].Missing
			}
			return rows[i].Values[0] > rows[j].Values[0]
		})
	case "value_asc":
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Missing != rows[j].Missing {
				return !rows[i].Missing
			}
			return rows[i].Values[0] < rows[j].Values[0]
		})
	case "label_asc":
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].Key) < strings.ToLower(rows[j].Key)
		})
	default:
		// canonical order from Aggregate
	}
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatFloat formats a value with comma separators and two decimals;
// whole numbers drop the decimals.
func FormatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}
	negative := v < 0
	if negative {
		v = -v
	}
	rounded := RoundTo2(v)
	intPart := int(rounded)
	decPart := int(math.Round((rounded - float64(intPart)) * 100))
	s := fmt.Sprintf("%s.%02d", FormatInt(intPart), decPart)
	if negative {
		s = "-" + s
	}
	return s
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension across a
// view, in first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	values := make([]string, 0)
	for i := 0; i < view.Len(); i++ {
		if v := view.Dimension(i, dimension); v != "" {
			values = append(values, v)
		}
	}
	return lo.Uniq(values)
}

// LabelForColumn returns a display label for a column key:
// "total_count_mean" → "Total Count Mean".
func LabelForColumn(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// LabelForAggregation returns a human-readable label for an aggregation.
func LabelForAggregation(fn AggFunc) string {
	switch fn {
	case AggSum:
		return "Total"
	case AggCount:
		return "Count"
	case AggMean:
		return "Average"
	default:
		return "Value"
	}
}

// HourLabel renders an hour group key as "08:00".
func HourLabel(key string) string {
	h, err := strconv.Atoi(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%02d:00", h)
}
