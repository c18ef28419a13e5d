package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/bikestats/engine"
	"github.com/spektr-org/bikestats/helpers"
	"github.com/spektr-org/bikestats/server"
)

// ============================================================================
// ANALYSIS COMMANDS
// ============================================================================

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Headline totals for the filtered rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.view()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if view.Empty() {
				return writeEmpty(w, a.format)
			}
			s, err := engine.Summarize(view)
			if err != nil {
				return err
			}
			text := engine.BuildSummaryText(s)
			switch a.format {
			case "text":
				return writeLines(w, append([]string{text.Period}, text.Lines...))
			case "csv":
				return writeRows(w, [][]string{
					{"metric", "value"},
					{"rows", fmt.Sprint(s.Rows)},
					{"total_rentals", fmtNum(s.TotalRentals)},
					{"average_rentals", fmtNum(s.AverageRentals)},
					{"total_casual", fmtNum(s.TotalCasual)},
					{"total_registered", fmtNum(s.TotalRegistered)},
					{"casual_share", fmtNum(s.CasualShare)},
					{"registered_share", fmtNum(s.RegisteredShare)},
				})
			}
			return writeJSON(w, summaryOutput{Summary: s, Text: text}, a.format)
		},
	}
}

// aggFlags are the grouping flags shared by aggregate, top and export.
type aggFlags struct {
	group     string
	columns   []string
	fn        string
	sort      string
	dropEmpty bool
}

func (f *aggFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.group, "group", "g", "season", "Dimension to group by")
	cmd.Flags().StringSliceVar(&f.columns, "columns", []string{"total_count"}, "Measures to aggregate")
	cmd.Flags().StringVar(&f.fn, "fn", "mean", "Aggregation: mean, sum, count")
	cmd.Flags().StringVar(&f.sort, "sort", "canonical", "Row order: canonical, value_desc, value_asc, label_asc")
	cmd.Flags().BoolVar(&f.dropEmpty, "drop-empty", false, "Omit groups with no rows")
}

func (f *aggFlags) aggregate(a *app, view engine.RecordView) (*engine.OrderedTable, error) {
	fn, err := engine.ParseAggFunc(f.fn)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{engine.WithLogger(a.logger)}
	if f.dropEmpty {
		opts = append(opts, engine.WithDropEmptyGroups())
	}
	table, err := engine.Aggregate(view, f.group, f.columns, fn, opts...)
	if err != nil {
		return nil, err
	}
	engine.SortTable(table, f.sort)
	return table, nil
}

func newAggregateCmd(a *app) *cobra.Command {
	var f aggFlags
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate measures per group in canonical order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.view()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if view.Empty() {
				return writeEmpty(w, a.format)
			}
			table, err := f.aggregate(a, view)
			if err != nil {
				return err
			}
			return writeTable(w, table, a.format)
		},
	}
	f.register(cmd)
	return cmd
}

func newTopCmd(a *app) *cobra.Command {
	var f aggFlags
	var n int
	var by string
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank groups by an aggregated measure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.view()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if view.Empty() {
				return writeEmpty(w, a.format)
			}
			table, err := f.aggregate(a, view)
			if err != nil {
				return err
			}
			column := table.Columns[0]
			if by != "" {
				column = engine.ColumnName(by, table.Aggregation)
			}
			rows, err := engine.TopN(table, n, column)
			if err != nil {
				return err
			}
			ranked := *table
			ranked.Rows = rows
			return writeTable(w, &ranked, a.format)
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&n, "n", engine.DefaultPeakHours, "Number of groups")
	cmd.Flags().StringVar(&by, "by", "", "Measure to rank by (default: first of --columns)")
	return cmd
}

func newCorrelateCmd(a *app) *cobra.Command {
	var x, y string
	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Pearson correlation between two measures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.view()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if view.Empty() {
				return writeEmpty(w, a.format)
			}
			r, err := engine.Correlate(view, x, y)
			if err != nil {
				return err
			}
			switch a.format {
			case "text":
				return writeLines(w, []string{fmt.Sprintf("r(%s, %s) = %.4f over %d rows", x, y, r, view.Len())})
			case "csv":
				return writeRows(w, [][]string{{"x", "y", "r", "rows"}, {x, y, fmt.Sprintf("%.6f", r), fmt.Sprint(view.Len())}})
			}
			return writeJSON(w, correlationOutput{X: x, Y: y, R: r, Rows: view.Len()}, a.format)
		},
	}
	cmd.Flags().StringVar(&x, "x", "temperature_actual", "First measure")
	cmd.Flags().StringVar(&y, "y", "total_count", "Second measure")
	return cmd
}

func newTrendCmd(a *app) *cobra.Command {
	var x, y string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Least-squares line of y against x",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.view()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if view.Empty() {
				return writeEmpty(w, a.format)
			}
			trend, err := engine.LinearTrend(view, x, y)
			if err != nil {
				return err
			}
			switch a.format {
			case "text":
				return writeLines(w, []string{fmt.Sprintf("%s = %.4f * %s %+.4f", y, trend.Slope, x, trend.Intercept)})
			case "csv":
				return writeChartCSV(w, engine.BuildTrendChart(view, trend, "Trend"))
			}
			return writeJSON(w, trend, a.format)
		},
	}
	cmd.Flags().StringVar(&x, "x", "temperature_actual", "Explanatory measure")
	cmd.Flags().StringVar(&y, "y", "total_count", "Response measure")
	return cmd
}

func newSegmentCmd(a *app) *cobra.Command {
	var column string
	var thresholds []float64
	var labels []string
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Bucket rows into volume categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categorizer := a.cfg.Categorizer()
			if len(thresholds) > 0 {
				if len(labels) == 0 && len(thresholds) == len(engine.DefaultThresholds) {
					labels = engine.DefaultLabels
				}
				c, err := engine.NewCategorizer(thresholds, labels)
				if err != nil {
					return err
				}
				categorizer = c
			}

			view, err := a.view()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if view.Empty() {
				return writeEmpty(w, a.format)
			}
			table, err := engine.Segment(view, column, categorizer, engine.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return writeTable(w, table, a.format)
		},
	}
	cmd.Flags().StringVar(&column, "column", "total_count", "Measure to categorize")
	cmd.Flags().Float64SliceVar(&thresholds, "thresholds", nil, "Strictly increasing bucket boundaries (overrides config)")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "Bucket labels, one more than thresholds")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Build the full dashboard report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.constraints()
			if err != nil {
				return err
			}
			ds, err := a.dataset()
			if err != nil {
				return err
			}
			report, err := engine.BuildReport(engine.ReportSpec{
				Constraints: c,
				Categorizer: a.cfg.Categorizer(),
				PeakHours:   a.cfg.Report.PeakHours,
				Reply:       a.cfg.Report.Reply,
			}, ds.DailyView(), ds.HourlyView(), engine.WithLogger(a.logger))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch a.format {
			case "text":
				return writeLines(w, reportLines(report))
			case "csv":
				if report.Empty {
					return writeEmpty(w, a.format)
				}
				return writeChartCSV(w, engine.BuildTimelineChart(report.Timeline, "Rentals"))
			}
			return writeJSON(w, report, a.format)
		},
	}
}

// ============================================================================
// EXPORT & SERVE
// ============================================================================

func newExportCmd(a *app) *cobra.Command {
	var f aggFlags
	var out, kind, compression string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an aggregate table to CSV or Parquet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				kind = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			if kind != "csv" && kind != "parquet" {
				return fmt.Errorf("unknown export type %q (csv, parquet)", kind)
			}

			view, err := a.view()
			if err != nil {
				return err
			}
			if view.Empty() {
				return writeEmpty(cmd.OutOrStdout(), "text")
			}
			table, err := f.aggregate(a, view)
			if err != nil {
				return err
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if kind == "parquet" {
				err = helpers.WriteTableParquet(file, table, compression)
			} else {
				err = helpers.WriteTableCSV(file, table)
			}
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			a.logger.Info("table exported",
				zap.String("path", out),
				zap.String("type", kind),
				zap.Int("groups", table.Len()))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (required)")
	cmd.Flags().StringVar(&kind, "type", "", "csv or parquet (default: from --out extension)")
	cmd.Flags().StringVar(&compression, "compression", "SNAPPY", "Parquet codec: SNAPPY, GZIP, NONE")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.dataset()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			handler := server.NewHandler(ds, a.cfg, a.logger)
			router := server.NewRouter(handler, server.RouterOptions{
				AllowOrigins: a.cfg.Server.AllowOrigins,
				Logger:       a.logger,
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return server.Run(ctx, addr, router, a.cfg.Server.ShutdownTimeout, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// reportLines renders a report for the terminal.
func reportLines(r *engine.Report) []string {
	lines := []string{r.Reply}
	if r.Empty {
		return lines
	}
	if r.Summary != nil {
		lines = append(lines, engine.BuildSummaryText(r.Summary).Lines...)
	}
	if r.Insights != nil {
		lines = append(lines, engine.BuildInsightsText(r.Insights).Lines...)
	}
	for _, e := range r.Errors {
		lines = append(lines, "! "+e)
	}
	return lines
}
