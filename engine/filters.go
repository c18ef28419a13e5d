package engine

import (
	"strings"
	"time"
)

// ============================================================================
// FILTERS — Date range + season + weather via RecordView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy, order kept.
// ============================================================================

// FilteredView is the result of Filter. It is a RecordView over the rows
// that matched; Empty() distinguishes "matched nothing" from a failure.
type FilteredView struct {
	RecordView
	Constraints Constraints
	SourceLen   int
}

// Empty reports whether the constraints matched zero rows.
func (f *FilteredView) Empty() bool { return f == nil || f.Len() == 0 }

// Filter returns the rows of view with Start <= date <= End (compared by
// calendar day, both ends inclusive) whose season and weather match the
// constraints. view is never modified.
func Filter(view RecordView, c Constraints) *FilteredView {
	n := view.Len()
	out := &FilteredView{Constraints: c, SourceLen: n}

	start, end := dayOf(c.Start), dayOf(c.End)
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		out.RecordView = newSubView(view, []int{})
		return out
	}

	season := strings.TrimSpace(c.Season)
	weather := strings.TrimSpace(c.Weather)
	checkSeason := c.HasSeason()
	checkWeather := c.HasWeather()

	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !start.IsZero() || !end.IsZero() {
			d := dayOf(view.Date(i))
			if !start.IsZero() && d.Before(start) {
				continue
			}
			if !end.IsZero() && d.After(end) {
				continue
			}
		}
		if checkSeason && !strings.EqualFold(view.Dimension(i, "season"), season) {
			continue
		}
		if checkWeather && !strings.EqualFold(view.Dimension(i, "weather"), weather) {
			continue
		}
		indices = append(indices, i)
	}

	out.RecordView = newSubView(view, indices)
	return out
}

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters map[string][]string) RecordView {
	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}
	if len(sets) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[strings.ToLower(view.Dimension(i, dim))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// dayOf returns midnight UTC of t's calendar date as seen in t's location.
func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
