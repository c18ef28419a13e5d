package server

// Tests cover:
//   - Envelope codes for success, empty result and bad input
//   - Constraint and dataset query parsing
//   - Every /api/v1 route against a small dataset
//   - Request IDs, metrics, 404 handling and graceful shutdown

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spektr-org/bikestats/config"
	"github.com/spektr-org/bikestats/engine"
	"github.com/spektr-org/bikestats/rental"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Test Fixtures ---

func d(s string) time.Time {
	t, err := time.Parse(engine.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func day(date, season, weather string, working bool, temp float64, casual, registered int) rental.RentalRecord {
	return rental.RentalRecord{
		Date: d(date), Season: season, Weather: weather, Weekday: rental.WeekdayOf(d(date)),
		IsWorkingDay: working, Temperature: temp,
		CasualCount: casual, RegisteredCount: registered, TotalCount: casual + registered,
	}
}

// Totals: Spring 1000+1500, Summer 5000+6000, Fall 7000; grand total 20500.
func fixtureDaily() []rental.RentalRecord {
	return []rental.RentalRecord{
		day("2011-01-01", "Spring", "Mist", false, 8, 300, 700),
		day("2011-01-02", "Spring", "Clear", false, 10, 400, 1100),
		day("2011-06-01", "Summer", "Clear", true, 20, 1000, 4000),
		day("2011-06-02", "Summer", "Clear", true, 22, 1000, 5000),
		day("2011-09-01", "Fall", "Mist", true, 25, 1500, 5500),
	}
}

func fixtureHourly() []rental.HourlyRecord {
	base := fixtureDaily()[2]
	hour := func(h, casual, registered int) rental.HourlyRecord {
		r := base
		r.CasualCount, r.RegisteredCount, r.TotalCount = casual, registered, casual+registered
		return rental.HourlyRecord{RentalRecord: r, Hour: h}
	}
	return []rental.HourlyRecord{
		hour(3, 2, 8),
		hour(8, 100, 400),
		hour(17, 120, 480),
		hour(12, 50, 150),
	}
}

func newTestRouter(t *testing.T, withHourly bool) *gin.Engine {
	t.Helper()
	var hourly []rental.HourlyRecord
	if withHourly {
		hourly = fixtureHourly()
	}
	h := NewHandler(rental.NewDataset(fixtureDaily(), hourly), config.Default(), nil)
	return NewRouter(h, RouterOptions{})
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, r http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// ============================================================================
// ENVELOPE & PARSING
// ============================================================================

func TestHealth(t *testing.T) {
	w, env := get(t, newTestRouter(t, true), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeOK, env.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	data := decode[map[string]any](t, env.Data)
	assert.Equal(t, float64(5), data["dailyRows"])
	assert.Equal(t, float64(4), data["hourlyRows"])
}

func TestRequestID_Propagates(t *testing.T) {
	r := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestBadQueries(t *testing.T) {
	r := newTestRouter(t, false)
	for _, target := range []string{
		"/api/v1/summary?start=01/02/2011",
		"/api/v1/summary?end=2011-13-01",
		"/api/v1/summary?season=Monsoon",
		"/api/v1/summary?dataset=weekly",
		"/api/v1/summary?dataset=hourly",
		"/api/v1/aggregate?fn=median",
		"/api/v1/aggregate?columns=price",
		"/api/v1/aggregate?group=price_band",
		"/api/v1/top?group=hour",
		"/api/v1/top?n=-1",
		"/api/v1/top?by=humidity_actual",
		"/api/v1/correlation?x=price",
		"/api/v1/segments?thresholds=abc",
		"/api/v1/segments?thresholds=4000,2000&labels=a,b,c",
		"/api/v1/segments?thresholds=1000,2000",
	} {
		w, env := get(t, r, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, CodeBadRequest, env.Code, target)
	}
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	r := newTestRouter(t, true)
	for _, target := range []string{
		"/api/v1/summary?start=2012-01-01",
		"/api/v1/aggregate?season=Winter",
		"/api/v1/summary?start=2011-06-02&end=2011-06-01",
		"/api/v1/report?weather=Heavy%20Rain",
	} {
		w, env := get(t, r, target)
		assert.Equal(t, http.StatusOK, w.Code, target)
		assert.Equal(t, CodeEmptyResult, env.Code, target)
		assert.Equal(t, engine.NoDataReply, env.Message, target)
	}
}

func TestInsufficientData(t *testing.T) {
	w, env := get(t, newTestRouter(t, false), "/api/v1/correlation?start=2011-09-01&end=2011-09-01")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeInsufficientData, env.Code)
}

func TestNoRoute(t *testing.T) {
	w, env := get(t, newTestRouter(t, false), "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, env.Code)
}

// ============================================================================
// ROUTES
// ============================================================================

func TestSummary(t *testing.T) {
	r := newTestRouter(t, false)

	_, env := get(t, r, "/api/v1/summary")
	require.Equal(t, CodeOK, env.Code)
	data := decode[struct {
		Summary engine.Summary  `json:"summary"`
		Text    engine.TextData `json:"text"`
	}](t, env.Data)
	assert.Equal(t, 5, data.Summary.Rows)
	assert.InDelta(t, 20500, data.Summary.TotalRentals, 1e-9)
	assert.InDelta(t, 4100, data.Summary.AverageRentals, 1e-9)
	assert.NotEmpty(t, data.Text.Lines)

	_, env = get(t, r, "/api/v1/summary?season=fall")
	data = decode[struct {
		Summary engine.Summary  `json:"summary"`
		Text    engine.TextData `json:"text"`
	}](t, env.Data)
	assert.InDelta(t, 7000, data.Summary.TotalRentals, 1e-9)
}

func TestAggregate(t *testing.T) {
	_, env := get(t, newTestRouter(t, false), "/api/v1/aggregate")
	require.Equal(t, CodeOK, env.Code)

	data := decode[struct {
		Table engine.OrderedTable `json:"table"`
		Rows  engine.TableData    `json:"rows"`
		Chart engine.ChartConfig  `json:"chart"`
	}](t, env.Data)
	require.Len(t, data.Table.Rows, 4)
	assert.Equal(t, []string{"total_count_mean"}, data.Table.Columns)

	got := make([]string, 0, 4)
	for _, row := range data.Table.Rows {
		got = append(got, row.Key)
	}
	assert.Equal(t, []string{"Spring", "Summer", "Fall", "Winter"}, got)
	assert.InDelta(t, 1250, data.Table.Rows[0].Values[0], 1e-9)
	assert.True(t, data.Table.Rows[3].Missing)
	assert.Len(t, data.Rows.Rows, 4)
	require.Len(t, data.Chart.Series, 1)
}

func TestAggregate_SortAndDropEmpty(t *testing.T) {
	_, env := get(t, newTestRouter(t, false),
		"/api/v1/aggregate?group=weather&columns=casual_count,registered_count&fn=sum&sort=value_desc&drop_empty=true")
	require.Equal(t, CodeOK, env.Code)

	data := decode[struct {
		Table engine.OrderedTable `json:"table"`
	}](t, env.Data)
	assert.Equal(t, []string{"casual_count_sum", "registered_count_sum"}, data.Table.Columns)
	require.Len(t, data.Table.Rows, 2)
	assert.Equal(t, "Clear", data.Table.Rows[0].Key)
	assert.InDelta(t, 2400, data.Table.Rows[0].Values[0], 1e-9)
	assert.Equal(t, "Mist", data.Table.Rows[1].Key)
}

func TestTop(t *testing.T) {
	_, env := get(t, newTestRouter(t, false), "/api/v1/top?n=2&by=total_count")
	require.Equal(t, CodeOK, env.Code)

	data := decode[struct {
		By   string       `json:"by"`
		Rows []engine.Row `json:"rows"`
	}](t, env.Data)
	assert.Equal(t, "total_count_mean", data.By)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "Fall", data.Rows[0].Key)
	assert.Equal(t, "Summer", data.Rows[1].Key)
}

func TestTop_HourlyDataset(t *testing.T) {
	_, env := get(t, newTestRouter(t, true), "/api/v1/top?dataset=hourly&group=hour&n=1")
	require.Equal(t, CodeOK, env.Code)

	data := decode[struct {
		Rows []engine.Row `json:"rows"`
	}](t, env.Data)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "17", data.Rows[0].Key)
}

func TestCorrelationAndTrend(t *testing.T) {
	r := newTestRouter(t, false)

	_, env := get(t, r, "/api/v1/correlation")
	require.Equal(t, CodeOK, env.Code)
	corr := decode[struct {
		R    float64 `json:"r"`
		Rows int     `json:"rows"`
	}](t, env.Data)
	assert.Greater(t, corr.R, 0.9)
	assert.LessOrEqual(t, corr.R, 1.0)
	assert.Equal(t, 5, corr.Rows)

	_, env = get(t, r, "/api/v1/trend")
	require.Equal(t, CodeOK, env.Code)
	trend := decode[struct {
		Trend engine.Trend `json:"trend"`
	}](t, env.Data)
	assert.Greater(t, trend.Trend.Slope, 0.0)
	assert.Equal(t, "temperature_actual", trend.Trend.XColumn)
}

func TestSegments(t *testing.T) {
	r := newTestRouter(t, false)

	_, env := get(t, r, "/api/v1/segments")
	require.Equal(t, CodeOK, env.Code)
	data := decode[struct {
		Table engine.OrderedTable `json:"table"`
	}](t, env.Data)
	require.Len(t, data.Table.Rows, 4)
	assert.Equal(t, "Low", data.Table.Rows[0].Key)
	assert.Equal(t, 2, data.Table.Rows[0].Count)

	_, env = get(t, r, "/api/v1/segments?thresholds=3000&labels=Quiet,Busy")
	require.Equal(t, CodeOK, env.Code)
	data = decode[struct {
		Table engine.OrderedTable `json:"table"`
	}](t, env.Data)
	require.Len(t, data.Table.Rows, 2)
	assert.Equal(t, "Quiet", data.Table.Rows[0].Key)
	assert.Equal(t, 2, data.Table.Rows[0].Count)
	assert.Equal(t, "Busy", data.Table.Rows[1].Key)
	assert.Equal(t, 3, data.Table.Rows[1].Count)
}

func TestReport(t *testing.T) {
	_, env := get(t, newTestRouter(t, true), "/api/v1/report")
	require.Equal(t, CodeOK, env.Code)

	report := decode[engine.Report](t, env.Data)
	assert.False(t, report.Empty)
	assert.Equal(t, 5, report.DailyRows)
	assert.Equal(t, 4, report.HourlyRows)
	require.NotNil(t, report.Summary)
	assert.InDelta(t, 20500, report.Summary.TotalRentals, 1e-9)
	require.NotNil(t, report.Insights)
	assert.Equal(t, "Fall", report.Insights.BestSeason)
	assert.Equal(t, "Clear", report.Insights.BestWeather)
	assert.Contains(t, report.Reply, "20,500")
}

// ============================================================================
// INFRASTRUCTURE
// ============================================================================

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()
	h := NewHandler(rental.NewDataset(fixtureDaily(), nil), nil, nil)
	r := NewRouter(h, RouterOptions{Metrics: metrics})

	get(t, r, "/api/v1/summary")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `bikestats_http_requests_total{method="GET",route="/api/v1/summary",status="200"} 1`)
}

func TestRecoveryWithZap(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithZap(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w, env := get(t, r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, env.Code)
}

func TestRun_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", newTestRouter(t, false), time.Second, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
