package engine

import (
	"sort"
	"time"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView      — wraps []Record (ad-hoc data, tests)
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
//   SubView        — filtered subset (indices into parent, zero-copy)
//   CategoryView   — wraps any view, adds a bucket dimension on read
//
// Views are read-only. A loaded dataset can be shared by any number of
// callers; derived views are cheap and belong to the caller that built them.
// Out-of-range indices read as zero values.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Date(index int) time.Time
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// HasMeasure reports whether a view exposes a measure key.
func HasMeasure(view RecordView, key string) bool {
	return containsKey(view.MeasureKeys(), key)
}

// HasDimension reports whether a view exposes a dimension key.
func HasDimension(view RecordView, key string) bool {
	return containsKey(view.DimensionKeys(), key)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func inRange(i, n int) bool { return i >= 0 && i < n }

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView exposes a []Record. Its key lists are the union of the keys of
// every record, sorted.
type SliceView struct {
	records    []Record
	dimensions []string
	measures   []string
}

// NewSliceView creates a RecordView from a []Record slice.
func NewSliceView(records []Record) RecordView {
	dims := make(map[string]struct{})
	meas := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Dimensions {
			dims[k] = struct{}{}
		}
		for k := range r.Measures {
			meas[k] = struct{}{}
		}
	}
	return &SliceView{
		records:    records,
		dimensions: sortedKeys(dims),
		measures:   sortedKeys(meas),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Date(i int) time.Time {
	if !inRange(i, len(v.records)) {
		return time.Time{}
	}
	return v.records[i].Date
}

func (v *SliceView) Dimension(i int, key string) string {
	if !inRange(i, len(v.records)) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if !inRange(i, len(v.records)) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimensions }
func (v *SliceView) MeasureKeys() []string   { return v.measures }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView selects rows of a parent view by position. Row i of the SubView
// is row rows[i] of the parent.
type SubView struct {
	parent RecordView
	rows   []int
}

func newSubView(parent RecordView, rows []int) RecordView {
	return &SubView{parent: parent, rows: rows}
}

// at maps a SubView index to its parent index.
func (v *SubView) at(i int) (int, bool) {
	if !inRange(i, len(v.rows)) {
		return 0, false
	}
	return v.rows[i], true
}

func (v *SubView) Len() int { return len(v.rows) }

func (v *SubView) Date(i int) time.Time {
	if p, ok := v.at(i); ok {
		return v.parent.Date(p)
	}
	return time.Time{}
}

func (v *SubView) Dimension(i int, key string) string {
	if p, ok := v.at(i); ok {
		return v.parent.Dimension(p, key)
	}
	return ""
}

func (v *SubView) Measure(i int, key string) float64 {
	if p, ok := v.at(i); ok {
		return v.parent.Measure(p, key)
	}
	return 0
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// CATEGORY VIEW — on-read bucketing (zero-copy)
// ============================================================================

// CategoryView wraps a RecordView and exposes an extra dimension holding
// the bucket label of a measure. Labels are computed per Dimension() call.
type CategoryView struct {
	parent      RecordView
	dimension   string
	measure     string
	categorizer *Categorizer
	dimKeys     []string
}

// NewCategoryView adds dimension to parent, bucketing measure with c.
func NewCategoryView(parent RecordView, dimension, measure string, c *Categorizer) RecordView {
	keys := make([]string, 0, len(parent.DimensionKeys())+1)
	keys = append(keys, parent.DimensionKeys()...)
	keys = append(keys, dimension)
	return &CategoryView{
		parent:      parent,
		dimension:   dimension,
		measure:     measure,
		categorizer: c,
		dimKeys:     keys,
	}
}

func (v *CategoryView) Len() int { return v.parent.Len() }

func (v *CategoryView) Date(i int) time.Time { return v.parent.Date(i) }

func (v *CategoryView) Dimension(i int, key string) string {
	if key == v.dimension {
		if !inRange(i, v.parent.Len()) {
			return ""
		}
		return v.categorizer.Categorize(v.parent.Measure(i, v.measure))
	}
	return v.parent.Dimension(i, key)
}

func (v *CategoryView) Measure(i int, key string) float64 { return v.parent.Measure(i, key) }

func (v *CategoryView) DimensionKeys() []string { return v.dimKeys }
func (v *CategoryView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[rental.RentalRecord]().
//	    Date(func(r rental.RentalRecord) time.Time { return r.Date }).
//	    Dimension("season", func(r rental.RentalRecord) string { return r.Season }).
//	    Measure("total_count", func(r rental.RentalRecord) float64 { return float64(r.TotalCount) })
//
//	view := adapter.Bind(records)
//	filtered := engine.Filter(view, constraints)
//

// accessors is a frozen set of named field readers for T. Keys keep their
// registration order; re-registering a key replaces its reader in place.
type accessors[T any, V any] struct {
	keys    []string
	readers map[string]func(T) V
}

func (a *accessors[T, V]) set(key string, fn func(T) V) {
	if a.readers == nil {
		a.readers = make(map[string]func(T) V)
	}
	if _, ok := a.readers[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.readers[key] = fn
}

func (a accessors[T, V]) clone() accessors[T, V] {
	out := accessors[T, V]{
		keys:    append([]string(nil), a.keys...),
		readers: make(map[string]func(T) V, len(a.readers)),
	}
	for k, fn := range a.readers {
		out.readers[k] = fn
	}
	return out
}

// DomainAdapter declares how to read a typed struct as a record. Declare
// once, bind many times; later registrations do not affect views already
// bound.
type DomainAdapter[T any] struct {
	date       func(T) time.Time
	dimensions accessors[T, string]
	measures   accessors[T, float64]
}

// NewDomainAdapter creates an empty adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{}
}

// Date registers the date accessor.
func (a *DomainAdapter[T]) Date(fn func(T) time.Time) *DomainAdapter[T] {
	a.date = fn
	return a
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	a.dimensions.set(key, fn)
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	a.measures.set(key, fn)
	return a
}

// Bind returns a view over data. The slice is referenced, not copied.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data:       data,
		date:       a.date,
		dimensions: a.dimensions.clone(),
		measures:   a.measures.clone(),
	}
}

// DomainView is a RecordView over []T produced by DomainAdapter.Bind.
type DomainView[T any] struct {
	data       []T
	date       func(T) time.Time
	dimensions accessors[T, string]
	measures   accessors[T, float64]
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Date(i int) time.Time {
	if v.date == nil || !inRange(i, len(v.data)) {
		return time.Time{}
	}
	return v.date(v.data[i])
}

func (v *DomainView[T]) Dimension(i int, key string) string {
	fn := v.dimensions.readers[key]
	if fn == nil || !inRange(i, len(v.data)) {
		return ""
	}
	return fn(v.data[i])
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	fn := v.measures.readers[key]
	if fn == nil || !inRange(i, len(v.data)) {
		return 0
	}
	return fn(v.data[i])
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimensions.keys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.measures.keys }
