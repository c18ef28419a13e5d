package engine

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// BIKESTATS ENGINE TYPES
// ============================================================================
// Records are read through RecordView (see view.go); everything here is
// either an input constraint or a render-ready output.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single dated row with string dimensions and numeric measures.
// Typed domain structs usually go through DomainAdapter instead.
type Record struct {
	Date       time.Time          `json:"date"`
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// CONSTRAINTS — What the user selected
// ============================================================================

// AllLabel is the selector sentinel meaning "no restriction".
const AllLabel = "All"

// Constraints restrict a dataset by date range, season and weather.
// A zero Start or End leaves that side of the range open. An empty
// Season/Weather, or AllLabel, means no restriction on that dimension.
type Constraints struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Season  string    `json:"season,omitempty"`
	Weather string    `json:"weather,omitempty"`
}

// HasSeason reports whether a season restriction is set.
func (c Constraints) HasSeason() bool { return isRestricted(c.Season) }

// HasWeather reports whether a weather restriction is set.
func (c Constraints) HasWeather() bool { return isRestricted(c.Weather) }

// Label returns a human-readable description of the constraints.
func (c Constraints) Label() string {
	parts := []string{}
	switch {
	case !c.Start.IsZero() && !c.End.IsZero():
		parts = append(parts, fmt.Sprintf("%s to %s", c.Start.Format(DateLayout), c.End.Format(DateLayout)))
	case !c.Start.IsZero():
		parts = append(parts, "from "+c.Start.Format(DateLayout))
	case !c.End.IsZero():
		parts = append(parts, "until "+c.End.Format(DateLayout))
	}
	if c.HasSeason() {
		parts = append(parts, c.Season)
	}
	if c.HasWeather() {
		parts = append(parts, c.Weather)
	}
	if len(parts) == 0 {
		return AllLabel
	}
	return strings.Join(parts, " — ")
}

func isRestricted(label string) bool {
	label = strings.TrimSpace(label)
	return label != "" && !strings.EqualFold(label, AllLabel)
}

// DateLayout is the calendar-date format used on input and output.
const DateLayout = "2006-01-02"

// ============================================================================
// AGGREGATION FUNCTIONS
// ============================================================================

// AggFunc names an aggregation applied per group and value column.
type AggFunc string

const (
	AggMean  AggFunc = "mean"
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
)

// ParseAggFunc resolves a user-supplied aggregation name. "avg" and
// "average" are accepted for mean.
func ParseAggFunc(name string) (AggFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean", "avg", "average":
		return AggMean, nil
	case "sum", "total":
		return AggSum, nil
	case "count":
		return AggCount, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
}

// ColumnName returns the output column name for a value column, e.g.
// "total_count" + mean → "total_count_mean".
func ColumnName(column string, fn AggFunc) string {
	return column + "_" + string(fn)
}

// ============================================================================
// ORDERED TABLE — Aggregation output
// ============================================================================

// Row is one group of an OrderedTable. Values line up with the table's
// Columns. A Missing row is a domain value with no matching records; its
// Values are zero and must not be read as data.
type Row struct {
	Key     string     `json:"key"`
	Count   int        `json:"count"`
	Missing bool       `json:"missing,omitempty"`
	Values  []float64  `json:"values"`
	View    RecordView `json:"-"` // records in this group (zero-copy)
}

// OrderedTable maps group keys to computed summaries, one row per group,
// in canonical order.
type OrderedTable struct {
	GroupKey    string   `json:"groupKey"`
	Aggregation AggFunc  `json:"aggregation"`
	Columns     []string `json:"columns"`
	Rows        []Row    `json:"rows"`

	domain Domain // canonical order of GroupKey used by Aggregate, if any
}

// keyDomain returns the canonical order for the table's group key: the one
// Aggregate used, else the built-in domain for GroupKey.
func (t *OrderedTable) keyDomain() Domain {
	if len(t.domain) > 0 {
		return t.domain
	}
	return defaultDomains()[t.GroupKey]
}

// Len returns the number of rows, missing rows included.
func (t *OrderedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1.
func (t *OrderedTable) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Lookup returns the row for a group key.
func (t *OrderedTable) Lookup(key string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

// Value returns a cell. ok is false for unknown keys, unknown columns and
// missing rows.
func (t *OrderedTable) Value(key, column string) (v float64, ok bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return 0, false
	}
	r, found := t.Lookup(key)
	if !found || r.Missing {
		return 0, false
	}
	return r.Values[idx], true
}

// PresentRows returns the rows that are not Missing.
func (t *OrderedTable) PresentRows() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Missing {
			out = append(out, r)
		}
	}
	return out
}

// ============================================================================
// STATISTICS
// ============================================================================

// Trend is an ordinary least-squares fit y = Slope*x + Intercept.
type Trend struct {
	XColumn   string  `json:"xColumn"`
	YColumn   string  `json:"yColumn"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the fitted line.
func (t Trend) At(x float64) float64 { return t.Slope*x + t.Intercept }

// Summary holds the headline metrics for a filtered view.
type Summary struct {
	Rows            int       `json:"rows"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	TotalRentals    float64   `json:"totalRentals"`
	AverageRentals  float64   `json:"averageRentals"`
	TotalCasual     float64   `json:"totalCasual"`
	TotalRegistered float64   `json:"totalRegistered"`
	CasualShare     float64   `json:"casualShare"`     // percent of total
	RegisteredShare float64   `json:"registeredShare"` // percent of total
}

// Insights are the headline findings shown next to the charts. Pointer
// fields are nil when the underlying statistic is undefined for the view.
type Insights struct {
	PeakHours              []Row    `json:"peakHours,omitempty"`
	BestSeason             string   `json:"bestSeason,omitempty"`
	BestWeather            string   `json:"bestWeather,omitempty"`
	TemperatureCorrelation *float64 `json:"temperatureCorrelation,omitempty"`
	WeekendCasualUplift    *float64 `json:"weekendCasualUplift,omitempty"`
}

// TimelinePoint is one dated row of the main rentals chart.
type TimelinePoint struct {
	Date       time.Time `json:"date"`
	Casual     float64   `json:"casual"`
	Registered float64   `json:"registered"`
	Total      float64   `json:"total"`
}

// ============================================================================
// REPORT — Whole-dashboard output
// ============================================================================

// ReportSpec defines what BuildReport should compute.
type ReportSpec struct {
	Constraints Constraints  `json:"constraints"`
	Categorizer *Categorizer `json:"-"`               // nil → DefaultCategorizer
	PeakHours   int          `json:"peakHours"`       // 0 → 3
	Reply       string       `json:"reply,omitempty"` // template, see ResolvePlaceholders
}

// Report is the render-ready payload for one dashboard page.
type Report struct {
	Empty       bool        `json:"empty"`
	Reply       string      `json:"reply"`
	Constraints Constraints `json:"constraints"`
	DailyRows   int         `json:"dailyRows"`
	HourlyRows  int         `json:"hourlyRows"`
	Errors      []string    `json:"errors,omitempty"`

	Timeline         []TimelinePoint `json:"timeline,omitempty"`
	Summary          *Summary        `json:"summary,omitempty"`
	BySeason         *OrderedTable   `json:"bySeason,omitempty"`
	ByWeather        *OrderedTable   `json:"byWeather,omitempty"`
	TemperatureTrend *Trend          `json:"temperatureTrend,omitempty"`
	HourlyPattern    *OrderedTable   `json:"hourlyPattern,omitempty"`
	WeekdayPattern   *OrderedTable   `json:"weekdayPattern,omitempty"`
	Segments         *OrderedTable   `json:"segments,omitempty"`
	Insights         *Insights       `json:"insights,omitempty"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point. Missing points carry no value.
type ChartPoint struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string        `json:"title"`
	Columns []Column      `json:"columns"`
	Rows    [][]string    `json:"rows"`
	Summary *TableSummary `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// TableSummary provides totals for a table.
type TableSummary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is a short human-readable answer with its raw value.
type TextData struct {
	Value    string   `json:"value"`
	RawValue float64  `json:"rawValue"`
	Unit     string   `json:"unit"`
	Period   string   `json:"period"`
	Count    int      `json:"count"`
	Lines    []string `json:"lines,omitempty"`
}
