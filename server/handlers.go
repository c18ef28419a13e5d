package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/spektr-org/bikestats/config"
	"github.com/spektr-org/bikestats/engine"
	"github.com/spektr-org/bikestats/rental"
)

// Handler serves the API over one loaded dataset. The dataset is never
// mutated; every request derives its own views.
type Handler struct {
	data   *rental.Dataset
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandler creates a Handler. A nil logger disables logging.
func NewHandler(data *rental.Dataset, cfg *config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{data: data, cfg: cfg, logger: logger}
}

// Health reports liveness and dataset sizes.
func (h *Handler) Health(c *gin.Context) {
	hourly := 0
	if v := h.data.HourlyView(); v != nil {
		hourly = v.Len()
	}
	Success(c, gin.H{
		"status":     "ok",
		"dailyRows":  h.data.DailyView().Len(),
		"hourlyRows": hourly,
	})
}

// Summary returns headline metrics for the filtered view.
func (h *Handler) Summary(c *gin.Context) {
	view, ok := h.filtered(c)
	if !ok {
		return
	}
	s, err := engine.Summarize(view)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{
		"summary": s,
		"text":    engine.BuildSummaryText(s),
	})
}

// Aggregate groups the filtered view.
// Query: group (default season), columns (default total_count), fn
// (default mean), sort (canonical, value_desc, value_asc, label_asc).
func (h *Handler) Aggregate(c *gin.Context) {
	view, ok := h.filtered(c)
	if !ok {
		return
	}
	table, err := h.aggregate(c, view)
	if err != nil {
		Fail(c, err)
		return
	}
	engine.SortTable(table, c.Query("sort"))

	title := fmt.Sprintf("%s by %s", engine.LabelForAggregation(table.Aggregation), engine.LabelForColumn(table.GroupKey))
	Success(c, gin.H{
		"table": table,
		"rows":  engine.BuildTable(table, title),
		"chart": engine.BuildChart(table, title, c.Query("chart")),
	})
}

// Top ranks groups by one column.
// Query: as Aggregate plus by (default first column) and n (default 3).
func (h *Handler) Top(c *gin.Context) {
	view, ok := h.filtered(c)
	if !ok {
		return
	}
	n, err := intQuery(c, "n", engine.DefaultPeakHours)
	if err != nil {
		Error(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	table, err := h.aggregate(c, view)
	if err != nil {
		Fail(c, err)
		return
	}

	by := table.Columns[0]
	if q := strings.TrimSpace(c.Query("by")); q != "" {
		by = engine.ColumnName(q, table.Aggregation)
	}
	top, err := engine.TopN(table, n, by)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"groupKey": table.GroupKey, "by": by, "rows": top})
}

// Correlation returns Pearson r of x and y (defaults temperature_actual,
// total_count).
func (h *Handler) Correlation(c *gin.Context) {
	view, ok := h.filtered(c)
	if !ok {
		return
	}
	x := c.DefaultQuery("x", "temperature_actual")
	y := c.DefaultQuery("y", "total_count")
	r, err := engine.Correlate(view, x, y)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"x": x, "y": y, "r": r, "rows": view.Len()})
}

// Trend fits y against x by least squares.
func (h *Handler) Trend(c *gin.Context) {
	view, ok := h.filtered(c)
	if !ok {
		return
	}
	trend, err := engine.LinearTrend(view,
		c.DefaultQuery("x", "temperature_actual"),
		c.DefaultQuery("y", "total_count"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{
		"trend": trend,
		"chart": engine.BuildTrendChart(view, trend, "Trend"),
	})
}

// Segments buckets rows by a column (default total_count). thresholds and
// labels (comma-separated) override the configured categorizer.
func (h *Handler) Segments(c *gin.Context) {
	view, ok := h.filtered(c)
	if !ok {
		return
	}
	categorizer, err := h.categorizer(c)
	if err != nil {
		Fail(c, err)
		return
	}
	table, err := engine.Segment(view, c.DefaultQuery("column", "total_count"), categorizer, engine.WithLogger(h.logger))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{
		"table": table,
		"rows":  engine.BuildTable(table, "Volume segments"),
	})
}

// Report builds the whole dashboard for the constraints.
func (h *Handler) Report(c *gin.Context) {
	constraints, err := parseConstraints(c)
	if err != nil {
		Error(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	categorizer, err := h.categorizer(c)
	if err != nil {
		Fail(c, err)
		return
	}
	report, err := engine.BuildReport(engine.ReportSpec{
		Constraints: constraints,
		Categorizer: categorizer,
		PeakHours:   h.cfg.Report.PeakHours,
		Reply:       h.cfg.Report.Reply,
	}, h.data.DailyView(), h.data.HourlyView(), engine.WithLogger(h.logger))
	if err != nil {
		Fail(c, err)
		return
	}
	if report.Empty {
		Respond(c, http.StatusOK, CodeEmptyResult, report.Reply, report)
		return
	}
	Success(c, report)
}

// ============================================================================
// REQUEST PARSING
// ============================================================================

// filtered parses constraints and the dataset selector and returns the
// filtered view. It writes the response itself when it returns false.
func (h *Handler) filtered(c *gin.Context) (*engine.FilteredView, bool) {
	constraints, err := parseConstraints(c)
	if err != nil {
		Error(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return nil, false
	}

	var source engine.RecordView
	switch ds := c.DefaultQuery("dataset", "daily"); ds {
	case "daily":
		source = h.data.DailyView()
	case "hourly":
		source = h.data.HourlyView()
		if source == nil {
			Error(c, http.StatusBadRequest, CodeBadRequest, "hourly dataset not loaded")
			return nil, false
		}
	default:
		Error(c, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("unknown dataset %q", ds))
		return nil, false
	}

	view := engine.Filter(source, constraints)
	if view.Empty() {
		Empty(c)
		return nil, false
	}
	return view, true
}

func (h *Handler) aggregate(c *gin.Context, view engine.RecordView) (*engine.OrderedTable, error) {
	fn, err := engine.ParseAggFunc(c.DefaultQuery("fn", "mean"))
	if err != nil {
		return nil, err
	}
	columns := splitList(c.DefaultQuery("columns", "total_count"))
	opts := []engine.Option{engine.WithLogger(h.logger)}
	if c.Query("drop_empty") == "true" {
		opts = append(opts, engine.WithDropEmptyGroups())
	}
	return engine.Aggregate(view, c.DefaultQuery("group", "season"), columns, fn, opts...)
}

func (h *Handler) categorizer(c *gin.Context) (*engine.Categorizer, error) {
	raw := c.Query("thresholds")
	if raw == "" {
		return h.cfg.Categorizer(), nil
	}
	thresholds := make([]float64, 0)
	for _, s := range splitList(raw) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: threshold %q is not a number", engine.ErrInvalidThresholds, s)
		}
		thresholds = append(thresholds, v)
	}
	var labels []string
	if l := c.Query("labels"); l != "" {
		labels = splitList(l)
	} else if len(thresholds) == len(engine.DefaultThresholds) {
		labels = engine.DefaultLabels
	}
	return engine.NewCategorizer(thresholds, labels)
}

func parseConstraints(c *gin.Context) (engine.Constraints, error) {
	var out engine.Constraints
	var err error
	if out.Start, err = dateQuery(c, "start"); err != nil {
		return out, err
	}
	if out.End, err = dateQuery(c, "end"); err != nil {
		return out, err
	}
	out.Season = c.Query("season")
	out.Weather = c.Query("weather")
	if out.HasSeason() && !engine.Seasons.Contains(out.Season) {
		return out, fmt.Errorf("unknown season %q", out.Season)
	}
	return out, nil
}

func dateQuery(c *gin.Context, key string) (time.Time, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(engine.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", key, s)
	}
	return t, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative integer, got %q", key, s)
	}
	return n, nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(s string) []string {
	return lo.FilterMap(strings.Split(s, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
}
