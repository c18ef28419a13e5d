package schema

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/spektr-org/bikestats/engine"
)

// ============================================================================
// SCHEMA — Describes the shape of a rental table on disk
// ============================================================================
// The loader uses schema metadata to find columns by name or alias and to
// know how each cell parses. The engine keys in ColumnMeta.Key are the same
// keys the rental adapters expose.
// ============================================================================

// Column types.
const (
	TypeDate   = "date"
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
)

// Column roles.
const (
	RoleDate      = "date"
	RoleDimension = "dimension"
	RoleMeasure   = "measure"
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Columns     []ColumnMeta `json:"columns"`
}

// ColumnMeta describes one column: its engine key, the header names it may
// appear under, and how its cells parse.
type ColumnMeta struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Aliases     []string `json:"aliases,omitempty"`
	Type        string   `json:"type"` // date, string, int, float, bool
	Required    bool     `json:"required"`
	Role        string   `json:"role"` // date, dimension, measure
}

// Matches reports whether a header names this column (case-insensitive,
// surrounding whitespace ignored).
func (m ColumnMeta) Matches(header string) bool {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, m.Key) {
		return true
	}
	for _, a := range m.Aliases {
		if strings.EqualFold(header, a) {
			return true
		}
	}
	return false
}

func dailyColumns() []ColumnMeta {
	return []ColumnMeta{
		{Key: "date", DisplayName: "Date", Aliases: []string{"dteday"}, Type: TypeDate, Required: true, Role: RoleDate},
		{Key: "season", DisplayName: "Season", Aliases: []string{"season_name"}, Type: TypeString, Required: true, Role: RoleDimension},
		{Key: "weather", DisplayName: "Weather", Aliases: []string{"weather_name", "weathersit_name"}, Type: TypeString, Required: true, Role: RoleDimension},
		{Key: "weekday", DisplayName: "Weekday", Aliases: []string{"weekday_name"}, Type: TypeString, Role: RoleDimension},
		{Key: "is_working_day", DisplayName: "Working Day", Aliases: []string{"workingday", "working_day"}, Type: TypeBool, Required: true, Role: RoleDimension},
		{Key: "temperature_actual", DisplayName: "Temperature", Aliases: []string{"temp_actual"}, Type: TypeFloat, Required: true, Role: RoleMeasure},
		{Key: "humidity_actual", DisplayName: "Humidity", Aliases: []string{"hum_actual"}, Type: TypeFloat, Role: RoleMeasure},
		{Key: "windspeed_actual", DisplayName: "Wind Speed", Type: TypeFloat, Role: RoleMeasure},
		{Key: "casual_count", DisplayName: "Casual Rentals", Aliases: []string{"casual"}, Type: TypeInt, Required: true, Role: RoleMeasure},
		{Key: "registered_count", DisplayName: "Registered Rentals", Aliases: []string{"registered"}, Type: TypeInt, Required: true, Role: RoleMeasure},
		{Key: "total_count", DisplayName: "Total Rentals", Aliases: []string{"cnt"}, Type: TypeInt, Required: true, Role: RoleMeasure},
	}
}

// Daily describes the daily rentals table.
func Daily() *Config {
	return &Config{
		Name:        "daily",
		Description: "One row per calendar day",
		Columns:     dailyColumns(),
	}
}

// Hourly describes the hourly rentals table: the daily columns plus hour.
func Hourly() *Config {
	cols := dailyColumns()
	cols = append(cols, ColumnMeta{
		Key: "hour", DisplayName: "Hour", Aliases: []string{"hr"}, Type: TypeInt, Required: true, Role: RoleDimension,
	})
	return &Config{
		Name:        "hourly",
		Description: "One row per day and hour",
		Columns:     cols,
	}
}

// Column returns the metadata for key.
func (c *Config) Column(key string) (ColumnMeta, bool) {
	for _, m := range c.Columns {
		if m.Key == key {
			return m, true
		}
	}
	return ColumnMeta{}, false
}

// Keys returns the column keys with the given role, or all keys when role
// is empty.
func (c *Config) Keys(role string) []string {
	keys := make([]string, 0, len(c.Columns))
	for _, m := range c.Columns {
		if role == "" || m.Role == role {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// ============================================================================
// HEADER RESOLUTION
// ============================================================================

// Mapping maps column keys to header positions.
type Mapping map[string]int

// Index returns the position of key, or -1 when the column is absent.
func (m Mapping) Index(key string) int {
	if i, ok := m[key]; ok {
		return i
	}
	return -1
}

// Has reports whether key was found in the header.
func (m Mapping) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Resolve maps header positions to column keys. Unknown headers are
// ignored. Every missing required column and every column named twice is
// reported, aggregated into one ErrMalformedInput.
func (c *Config) Resolve(headers []string) (Mapping, error) {
	mapping := make(Mapping, len(c.Columns))
	var result *multierror.Error

	for pos, h := range headers {
		for _, m := range c.Columns {
			if !m.Matches(h) {
				continue
			}
			if prev, dup := mapping[m.Key]; dup {
				result = multierror.Append(result,
					fmt.Errorf("column %q appears twice (positions %d and %d)", m.Key, prev+1, pos+1))
				break
			}
			mapping[m.Key] = pos
			break
		}
	}

	for _, m := range c.Columns {
		if m.Required && !mapping.Has(m.Key) {
			result = multierror.Append(result, fmt.Errorf("missing required column %q", m.Key))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %s table: %v", engine.ErrMalformedInput, c.Name, err)
	}
	return mapping, nil
}
