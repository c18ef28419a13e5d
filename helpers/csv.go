package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/spektr-org/bikestats/engine"
	"github.com/spektr-org/bikestats/rental"
	"github.com/spektr-org/bikestats/schema"
)

// ============================================================================
// CSV HELPER — Parses rental CSV data into typed records
// ============================================================================
// The schema resolves headers (canonical names or dataset aliases); each row
// is then parsed cell by cell. Every problem found is reported with its row
// number and column, aggregated into one ErrMalformedInput.
// ============================================================================

// maxReportedErrors caps how many row problems one load error lists.
const maxReportedErrors = 20

// LoadDaily parses the daily rentals table.
func LoadDaily(r io.Reader) ([]rental.RentalRecord, error) {
	var out []rental.RentalRecord
	seen := make(map[string]int)

	err := readTable(r, schema.Daily(), func(p *rowParser) {
		rec := p.record()
		if p.failed() {
			return
		}
		key := rec.Date.Format(engine.DateLayout)
		if first, dup := seen[key]; dup {
			p.fail("date", fmt.Errorf("duplicate date %s (first seen on row %d)", key, first))
			return
		}
		seen[key] = p.row
		if err := rec.Validate(); err != nil {
			p.fail("total_count", err)
			return
		}
		out = append(out, rec)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadHourly parses the hourly rentals table.
func LoadHourly(r io.Reader) ([]rental.HourlyRecord, error) {
	var out []rental.HourlyRecord
	seen := make(map[string]int)

	err := readTable(r, schema.Hourly(), func(p *rowParser) {
		rec := rental.HourlyRecord{RentalRecord: p.record(), Hour: p.integer("hour")}
		if p.failed() {
			return
		}
		if err := rec.Validate(); err != nil {
			p.fail("hour", err)
			return
		}
		key := fmt.Sprintf("%s/%d", rec.Date.Format(engine.DateLayout), rec.Hour)
		if first, dup := seen[key]; dup {
			p.fail("hour", fmt.Errorf("duplicate hour %s (first seen on row %d)", key, first))
			return
		}
		seen[key] = p.row
		out = append(out, rec)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDailyFile opens path and parses it with LoadDaily.
func LoadDailyFile(path string) ([]rental.RentalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open daily data: %w", err)
	}
	defer f.Close()
	return LoadDaily(f)
}

// LoadHourlyFile opens path and parses it with LoadHourly.
func LoadHourlyFile(path string) ([]rental.HourlyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hourly data: %w", err)
	}
	defer f.Close()
	return LoadHourly(f)
}

// LoadDataset loads both tables. An empty hourlyPath skips the hourly table.
func LoadDataset(dailyPath, hourlyPath string) (*rental.Dataset, error) {
	daily, err := LoadDailyFile(dailyPath)
	if err != nil {
		return nil, err
	}
	var hourly []rental.HourlyRecord
	if hourlyPath != "" {
		if hourly, err = LoadHourlyFile(hourlyPath); err != nil {
			return nil, err
		}
	}
	return rental.NewDataset(daily, hourly), nil
}

// ============================================================================
// TABLE READER
// ============================================================================

func readTable(r io.Reader, cfg *schema.Config, onRow func(*rowParser)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s table is empty", engine.ErrMalformedInput, cfg.Name)
	}
	if err != nil {
		return fmt.Errorf("%w: read %s header: %v", engine.ErrMalformedInput, cfg.Name, err)
	}
	mapping, err := cfg.Resolve(headers)
	if err != nil {
		return err
	}

	var problems *multierror.Error
	count := 0
	row := 1
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			count++
			if count <= maxReportedErrors {
				problems = multierror.Append(problems, fmt.Errorf("row %d: %v", row, err))
			}
			continue
		}
		if isBlank(cells) {
			continue
		}

		p := &rowParser{row: row, cells: cells, mapping: mapping}
		onRow(p)
		for _, e := range p.errs {
			count++
			if count <= maxReportedErrors {
				problems = multierror.Append(problems, e)
			}
		}
	}

	if problems.ErrorOrNil() == nil {
		return nil
	}
	if count > maxReportedErrors {
		problems = multierror.Append(problems, fmt.Errorf("%d more problems not shown", count-maxReportedErrors))
	}
	return fmt.Errorf("%w: %s table: %v", engine.ErrMalformedInput, cfg.Name, problems)
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ============================================================================
// ROW PARSER — cell accessors that record errors instead of returning them
// ============================================================================

type rowParser struct {
	row     int
	cells   []string
	mapping schema.Mapping
	errs    []error
}

func (p *rowParser) fail(column string, err error) {
	p.errs = append(p.errs, fmt.Errorf("row %d, column %s: %w", p.row, column, err))
}

func (p *rowParser) failed() bool { return len(p.errs) > 0 }

// cell returns the trimmed cell for key, or "" when the column is absent.
func (p *rowParser) cell(key string) string {
	i := p.mapping.Index(key)
	if i < 0 || i >= len(p.cells) {
		return ""
	}
	return strings.TrimSpace(p.cells[i])
}

func (p *rowParser) date(key string) time.Time {
	s := p.cell(key)
	if len(s) > len(engine.DateLayout) && (s[len(engine.DateLayout)] == ' ' || s[len(engine.DateLayout)] == 'T') {
		s = s[:len(engine.DateLayout)]
	}
	t, err := time.Parse(engine.DateLayout, s)
	if err != nil {
		p.fail(key, fmt.Errorf("unparseable date %q", s))
	}
	return t
}

func (p *rowParser) text(key string) string {
	s := p.cell(key)
	if s == "" {
		p.fail(key, errors.New("empty value"))
	}
	return s
}

func (p *rowParser) float(key string) float64 {
	s := p.cell(key)
	if s == "" && !p.mapping.Has(key) {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(key, fmt.Errorf("non-numeric value %q", s))
		return 0
	}
	return v
}

func (p *rowParser) integer(key string) int {
	s := p.cell(key)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.IsInf(v, 0) {
		p.fail(key, fmt.Errorf("non-integer value %q", s))
		return 0
	}
	return int(v)
}

func (p *rowParser) boolean(key string) bool {
	v, err := rental.ParseWorkingDay(p.cell(key))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

// record parses the columns shared by both tables. The weekday is derived
// from the date when the column is absent or blank.
func (p *rowParser) record() rental.RentalRecord {
	rec := rental.RentalRecord{
		Date:            p.date("date"),
		Weather:         p.text("weather"),
		IsWorkingDay:    p.boolean("is_working_day"),
		Temperature:     p.float("temperature_actual"),
		Humidity:        p.float("humidity_actual"),
		Windspeed:       p.float("windspeed_actual"),
		CasualCount:     p.integer("casual_count"),
		RegisteredCount: p.integer("registered_count"),
		TotalCount:      p.integer("total_count"),
	}

	season, err := rental.ParseSeason(p.cell("season"))
	if err != nil {
		p.fail("season", err)
	}
	rec.Season = season

	if wd := p.cell("weekday"); wd != "" {
		if rec.Weekday, err = rental.ParseWeekday(wd); err != nil {
			p.fail("weekday", err)
		}
	} else if !rec.Date.IsZero() {
		rec.Weekday = rental.WeekdayOf(rec.Date)
	}
	return rec
}
