package engine

import "errors"

// ============================================================================
// ERRORS — Engine error taxonomy
// ============================================================================
// Every failure is an explicit error value. Callers test with errors.Is.
// EmptyResult is a value (FilteredView.Empty) first; ErrEmptyResult is only
// returned by computations that cannot proceed without rows.
// ============================================================================

var (
	// ErrMalformedInput reports missing columns, unparseable dates or
	// non-numeric values found while loading a dataset.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyResult reports that a computation was asked to run on a view
	// with zero rows.
	ErrEmptyResult = errors.New("empty result")

	// ErrInvalidThresholds reports a categorizer configured with thresholds
	// that are not strictly increasing, or labels that do not match them.
	ErrInvalidThresholds = errors.New("invalid thresholds")

	// ErrInsufficientData reports that correlation or trend preconditions
	// are unmet (fewer than two rows, or a zero-variance column).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnknownColumn reports a measure or table column that does not exist.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownAggregation reports an aggregation function other than
	// mean, sum or count.
	ErrUnknownAggregation = errors.New("unknown aggregation")
)
