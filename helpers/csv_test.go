package helpers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/bikestats/engine"
)

// ============================================================================
// CSV LOADER TESTS
// ============================================================================
// Tests cover:
//   1. Published dataset headers and canonical headers
//   2. Weekday derivation when the column is absent
//   3. Malformed input — every failure names its row and column
//   4. Hourly table — hour range, duplicates
// ============================================================================

// --- Test Fixtures ---

const dailyCSV = `instant,dteday,season_name,weekday_name,workingday,weather_name,temp_actual,hum_actual,windspeed_actual,casual,registered,cnt
1,2011-01-01,Spring,Saturday,0,Mist,8.18,80.58,10.75,331,654,985
2,2011-01-02,Spring,Sunday,0,Mist,9.08,69.61,16.65,131,670,801
3,2011-01-03,Spring,Monday,1,Clear,1.23,43.73,16.64,120,1229,1349
`

const hourlyCSV = `dteday,hr,season_name,workingday,weather_name,temp_actual,casual,registered,cnt
2011-01-01,0,Spring,0,Clear,3.28,3,13,16
2011-01-01,1,Spring,0,Clear,2.34,8,32,40
2011-01-01 00:00:00,2,Spring,0,Clear,2.34,5,27,32
`

func TestLoadDaily(t *testing.T) {
	records, err := LoadDaily(strings.NewReader(dailyCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	r := records[0]
	assert.Equal(t, "2011-01-01", r.Date.Format(engine.DateLayout))
	assert.Equal(t, "Spring", r.Season)
	assert.Equal(t, "Mist", r.Weather)
	assert.Equal(t, "Saturday", r.Weekday)
	assert.False(t, r.IsWorkingDay)
	assert.Equal(t, 8.18, r.Temperature)
	assert.Equal(t, 80.58, r.Humidity)
	assert.Equal(t, 985, r.TotalCount)
	assert.True(t, records[2].IsWorkingDay)
}

func TestLoadDaily_CanonicalHeaders(t *testing.T) {
	data := "date,season,weather,is_working_day,temperature_actual,casual_count,registered_count,total_count\n" +
		"2012-06-04,summer,Clear,true,24.5,1000,5000,6000\n"
	records, err := LoadDaily(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Summer", records[0].Season, "season canonicalized")
	assert.Equal(t, "Monday", records[0].Weekday, "weekday derived from date")
	assert.Zero(t, records[0].Humidity)
}

func TestLoadDaily_Malformed(t *testing.T) {
	header := "dteday,season_name,workingday,weather_name,temp_actual,casual,registered,cnt\n"
	tests := []struct {
		name string
		row  string
		want []string
	}{
		{"bad date", "2011-13-01,Spring,0,Clear,5,1,1,2", []string{"row 2", "date", "unparseable date"}},
		{"non-numeric", "2011-01-01,Spring,0,Clear,warm,1,1,2", []string{"row 2", "temperature_actual", "warm"}},
		{"fractional count", "2011-01-01,Spring,0,Clear,5,1.5,1,2", []string{"casual_count", "non-integer"}},
		{"bad boolean", "2011-01-01,Spring,maybe,Clear,5,1,1,2", []string{"is_working_day", "maybe"}},
		{"total mismatch", "2011-01-01,Spring,0,Clear,5,1,1,3", []string{"total_count 3"}},
		{"unknown season", "2011-01-01,Monsoon,0,Clear,5,1,1,2", []string{"season", "Monsoon"}},
		{"empty weather", "2011-01-01,Spring,0,,5,1,1,2", []string{"weather", "empty value"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDaily(strings.NewReader(header + tt.row + "\n"))
			require.Error(t, err)
			assert.ErrorIs(t, err, engine.ErrMalformedInput)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestLoadDaily_DuplicateDate(t *testing.T) {
	data := dailyCSV + "4,2011-01-02,Spring,Sunday,0,Mist,9,69,16,1,1,2\n"
	_, err := LoadDaily(strings.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMalformedInput)
	assert.Contains(t, err.Error(), "duplicate date 2011-01-02 (first seen on row 3)")
}

func TestLoadDaily_MissingColumns(t *testing.T) {
	_, err := LoadDaily(strings.NewReader("dteday,cnt\n2011-01-01,5\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMalformedInput)
	assert.Contains(t, err.Error(), "season")
	assert.Contains(t, err.Error(), "casual_count")
}

func TestLoadDaily_EmptyInput(t *testing.T) {
	_, err := LoadDaily(strings.NewReader(""))
	assert.ErrorIs(t, err, engine.ErrMalformedInput)
}

func TestLoadDaily_CollectsEveryBadRow(t *testing.T) {
	data := "dteday,season_name,workingday,weather_name,temp_actual,casual,registered,cnt\n" +
		"2011-01-01,Spring,0,Clear,x,1,1,2\n" +
		"2011-01-02,Spring,0,Clear,5,1,1,2\n" +
		"2011-01-03,Spring,0,Clear,y,1,1,2\n"
	_, err := LoadDaily(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "row 4")
}

func TestLoadHourly(t *testing.T) {
	records, err := LoadHourly(strings.NewReader(hourlyCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 1, records[1].Hour)
	assert.Equal(t, "Saturday", records[0].Weekday)
	assert.Equal(t, "2011-01-01", records[2].Date.Format(engine.DateLayout), "time component dropped")
}

func TestLoadHourly_Malformed(t *testing.T) {
	t.Run("hour out of range", func(t *testing.T) {
		data := hourlyCSV + "2011-01-01,24,Spring,0,Clear,2,1,1,2\n"
		_, err := LoadHourly(strings.NewReader(data))
		assert.ErrorIs(t, err, engine.ErrMalformedInput)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("duplicate hour", func(t *testing.T) {
		data := hourlyCSV + "2011-01-01,1,Spring,0,Clear,2,1,1,2\n"
		_, err := LoadHourly(strings.NewReader(data))
		assert.ErrorIs(t, err, engine.ErrMalformedInput)
		assert.Contains(t, err.Error(), "duplicate hour")
	})

	t.Run("daily file as hourly", func(t *testing.T) {
		_, err := LoadHourly(strings.NewReader(dailyCSV))
		assert.ErrorIs(t, err, engine.ErrMalformedInput)
		assert.Contains(t, err.Error(), "hour")
	})
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	daily := filepath.Join(dir, "day.csv")
	hourly := filepath.Join(dir, "hour.csv")
	require.NoError(t, os.WriteFile(daily, []byte(dailyCSV), 0o644))
	require.NoError(t, os.WriteFile(hourly, []byte(hourlyCSV), 0o644))

	ds, err := LoadDataset(daily, hourly)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.DailyView().Len())
	assert.Equal(t, 3, ds.HourlyView().Len())

	ds, err = LoadDataset(daily, "")
	require.NoError(t, err)
	assert.Nil(t, ds.HourlyView())

	_, err = LoadDataset(filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}
