package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/bikestats/config"
	"github.com/spektr-org/bikestats/engine"
	"github.com/spektr-org/bikestats/helpers"
	"github.com/spektr-org/bikestats/logging"
	"github.com/spektr-org/bikestats/rental"
)

// ============================================================================
// BIKESTATS CLI — Filter and aggregate bike-rental history
// ============================================================================

const version = "0.3.0"

// app holds flag values and the state built in PersistentPreRunE.
type app struct {
	configPath string
	dailyPath  string
	hourlyPath string
	verbose    bool
	format     string

	start   string
	end     string
	season  string
	weather string
	hourly  bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "bikestats",
		Short: "Filter and aggregate bike-rental history",
		Long: `bikestats loads the daily (and optionally hourly) bike-rental tables and
answers questions about them: totals, per-group aggregates, rankings,
correlations, volume segments and a full dashboard report.

Every analysis command accepts the same filters:
  --start / --end   inclusive date range (YYYY-MM-DD)
  --season          Spring, Summer, Fall, Winter or All
  --weather         weather label or All

Examples:
  bikestats summary --season Fall
  bikestats aggregate --group weekday --columns casual_count,registered_count --format text
  bikestats top --hourly-data --group hour --n 3
  bikestats export --group season --out season.parquet --type parquet
  bikestats serve --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Config file (default: $BIKESTATS_CONFIG or config.yaml)")
	pf.StringVar(&a.dailyPath, "daily", "", "Daily CSV (overrides config)")
	pf.StringVar(&a.hourlyPath, "hourly", "", "Hourly CSV (overrides config)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&a.format, "format", "f", "json", "Output format: json, pretty, text, csv")
	pf.StringVar(&a.start, "start", "", "First date, inclusive (YYYY-MM-DD)")
	pf.StringVar(&a.end, "end", "", "Last date, inclusive (YYYY-MM-DD)")
	pf.StringVar(&a.season, "season", "", "Season filter")
	pf.StringVar(&a.weather, "weather", "", "Weather filter")
	pf.BoolVar(&a.hourly, "hourly-data", false, "Analyze the hourly table instead of the daily one")

	root.AddCommand(
		newSummaryCmd(a),
		newAggregateCmd(a),
		newTopCmd(a),
		newCorrelateCmd(a),
		newTrendCmd(a),
		newSegmentCmd(a),
		newReportCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads configuration, applies flag overrides and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dailyPath != "" {
		cfg.Data.Daily = a.dailyPath
	}
	if a.hourlyPath != "" {
		cfg.Data.Hourly = a.hourlyPath
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	switch a.format {
	case "json", "pretty", "text", "csv":
	default:
		return fmt.Errorf("unknown format %q (json, pretty, text, csv)", a.format)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// dataset loads the configured tables.
func (a *app) dataset() (*rental.Dataset, error) {
	start := time.Now()
	ds, err := helpers.LoadDataset(a.cfg.Data.Daily, a.cfg.Data.Hourly)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("dataset loaded",
		zap.String("daily", a.cfg.Data.Daily),
		zap.String("hourly", a.cfg.Data.Hourly),
		zap.Int("dailyRows", len(ds.Daily)),
		zap.Int("hourlyRows", len(ds.Hourly)),
		zap.Duration("took", time.Since(start)))
	return ds, nil
}

// constraints parses the filter flags.
func (a *app) constraints() (engine.Constraints, error) {
	var c engine.Constraints
	var err error
	if c.Start, err = parseDate("start", a.start); err != nil {
		return c, err
	}
	if c.End, err = parseDate("end", a.end); err != nil {
		return c, err
	}
	c.Season = a.season
	c.Weather = a.weather
	if c.HasSeason() && !engine.Seasons.Contains(c.Season) {
		return c, fmt.Errorf("unknown season %q (%s)", c.Season, strings.Join(engine.Seasons, ", "))
	}
	return c, nil
}

// view loads the dataset and returns the filtered daily or hourly view.
func (a *app) view() (*engine.FilteredView, error) {
	c, err := a.constraints()
	if err != nil {
		return nil, err
	}
	ds, err := a.dataset()
	if err != nil {
		return nil, err
	}

	source := ds.DailyView()
	if a.hourly {
		if source = ds.HourlyView(); source == nil {
			return nil, fmt.Errorf("--hourly-data needs an hourly table (--hourly or data.hourly)")
		}
	}
	view := engine.Filter(source, c)
	a.logger.Debug("filtered",
		zap.String("constraints", c.Label()),
		zap.Int("rows", view.Len()),
		zap.Int("of", view.SourceLen))
	return view, nil
}

func parseDate(flag, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(engine.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}
