// Package rental holds the typed bike-rental records and binds them into
// engine views.
package rental

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/bikestats/engine"
)

// RentalRecord is one day of the daily table.
type RentalRecord struct {
	Date            time.Time `json:"date"`
	Season          string    `json:"season"`
	Weather         string    `json:"weather"`
	Weekday         string    `json:"weekday"`
	IsWorkingDay    bool      `json:"isWorkingDay"`
	Temperature     float64   `json:"temperatureActual"`
	Humidity        float64   `json:"humidityActual"`
	Windspeed       float64   `json:"windspeedActual"`
	CasualCount     int       `json:"casualCount"`
	RegisteredCount int       `json:"registeredCount"`
	TotalCount      int       `json:"totalCount"`
}

// HourlyRecord is one hour of the hourly table.
type HourlyRecord struct {
	RentalRecord
	Hour int `json:"hour"`
}

// Validate checks the count invariant and label domains.
func (r RentalRecord) Validate() error {
	if r.CasualCount < 0 || r.RegisteredCount < 0 {
		return fmt.Errorf("%w: negative rental count", engine.ErrMalformedInput)
	}
	if r.TotalCount != r.CasualCount+r.RegisteredCount {
		return fmt.Errorf("%w: total_count %d != casual_count %d + registered_count %d",
			engine.ErrMalformedInput, r.TotalCount, r.CasualCount, r.RegisteredCount)
	}
	if !engine.Seasons.Contains(r.Season) {
		return fmt.Errorf("%w: unknown season %q", engine.ErrMalformedInput, r.Season)
	}
	if r.Weekday != "" && !engine.Weekdays.Contains(r.Weekday) {
		return fmt.Errorf("%w: unknown weekday %q", engine.ErrMalformedInput, r.Weekday)
	}
	return nil
}

// Validate checks the daily invariants and the hour range.
func (r HourlyRecord) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range 0-23", engine.ErrMalformedInput, r.Hour)
	}
	return r.RentalRecord.Validate()
}

// ============================================================================
// LABELS
// ============================================================================

// WeekdayOf returns the weekday label of date.
func WeekdayOf(date time.Time) string {
	// time.Weekday starts on Sunday; the domain starts on Monday.
	return engine.Weekdays[(int(date.Weekday())+6)%7]
}

// ParseSeason returns the canonical spelling of a season label.
func ParseSeason(s string) (string, error) {
	if c := engine.Seasons.Canonical(s); c != "" {
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown season %q", engine.ErrMalformedInput, s)
}

// ParseWeekday returns the canonical spelling of a weekday label. Three
// letter abbreviations are accepted.
func ParseWeekday(s string) (string, error) {
	if c := engine.Weekdays.Canonical(s); c != "" {
		return c, nil
	}
	s = strings.TrimSpace(s)
	if len(s) == 3 {
		for _, d := range engine.Weekdays {
			if strings.EqualFold(d[:3], s) {
				return d, nil
			}
		}
	}
	return "", fmt.Errorf("%w: unknown weekday %q", engine.ErrMalformedInput, s)
}

// ParseWorkingDay accepts 1/0, true/false, yes/no.
func ParseWorkingDay(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%w: bad boolean %q", engine.ErrMalformedInput, s)
}

// ============================================================================
// ADAPTERS — typed records → engine.RecordView
// ============================================================================

// DailyAdapter binds []RentalRecord into an engine view.
func DailyAdapter() *engine.DomainAdapter[RentalRecord] {
	a := engine.NewDomainAdapter[RentalRecord]().
		Date(func(r RentalRecord) time.Time { return r.Date })
	bindCommon(a, func(r RentalRecord) RentalRecord { return r })
	return a
}

// HourlyAdapter binds []HourlyRecord into an engine view with an extra
// "hour" dimension.
func HourlyAdapter() *engine.DomainAdapter[HourlyRecord] {
	a := engine.NewDomainAdapter[HourlyRecord]().
		Date(func(r HourlyRecord) time.Time { return r.Date }).
		Dimension("hour", func(r HourlyRecord) string { return strconv.Itoa(r.Hour) })
	bindCommon(a, func(r HourlyRecord) RentalRecord { return r.RentalRecord })
	return a
}

func bindCommon[T any](a *engine.DomainAdapter[T], base func(T) RentalRecord) {
	a.Dimension("season", func(r T) string { return base(r).Season }).
		Dimension("weather", func(r T) string { return base(r).Weather }).
		Dimension("weekday", func(r T) string { return base(r).Weekday }).
		Dimension("working_day", func(r T) string { return strconv.FormatBool(base(r).IsWorkingDay) }).
		Dimension("date", func(r T) string { return base(r).Date.Format(engine.DateLayout) }).
		Measure("temperature_actual", func(r T) float64 { return base(r).Temperature }).
		Measure("humidity_actual", func(r T) float64 { return base(r).Humidity }).
		Measure("windspeed_actual", func(r T) float64 { return base(r).Windspeed }).
		Measure("casual_count", func(r T) float64 { return float64(base(r).CasualCount) }).
		Measure("registered_count", func(r T) float64 { return float64(base(r).RegisteredCount) }).
		Measure("total_count", func(r T) float64 { return float64(base(r).TotalCount) })
}

// Dataset is the loaded daily and hourly tables. It is never mutated after
// loading and is safe to share between goroutines.
type Dataset struct {
	Daily  []RentalRecord
	Hourly []HourlyRecord

	dailyView  engine.RecordView
	hourlyView engine.RecordView
}

// NewDataset binds both tables once.
func NewDataset(daily []RentalRecord, hourly []HourlyRecord) *Dataset {
	return &Dataset{
		Daily:      daily,
		Hourly:     hourly,
		dailyView:  DailyAdapter().Bind(daily),
		hourlyView: HourlyAdapter().Bind(hourly),
	}
}

// DailyView returns the daily table as an engine view.
func (d *Dataset) DailyView() engine.RecordView { return d.dailyView }

// HourlyView returns the hourly table as an engine view, or nil when no
// hourly data was loaded.
func (d *Dataset) HourlyView() engine.RecordView {
	if len(d.Hourly) == 0 {
		return nil
	}
	return d.hourlyView
}
