package engine

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// --- Test Fixtures ---

func day(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

type dayRow struct {
	date       string
	season     string
	weather    string
	weekday    string
	workingDay bool
	temp       float64
	casual     float64
	registered float64
}

func dailyView(t testing.TB, rows ...dayRow) RecordView {
	t.Helper()
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, Record{
			Date: day(t, r.date),
			Dimensions: map[string]string{
				"season":      r.season,
				"weather":     r.weather,
				"weekday":     r.weekday,
				"working_day": strconv.FormatBool(r.workingDay),
			},
			Measures: map[string]float64{
				"temperature_actual": r.temp,
				"casual_count":       r.casual,
				"registered_count":   r.registered,
				"total_count":        r.casual + r.registered,
			},
		})
	}
	return NewSliceView(records)
}

// weekFixture is one January week plus two summer days and one fall day.
func weekFixture(t testing.TB) RecordView {
	return dailyView(t,
		dayRow{"2011-01-03", "Spring", "Clear", "Monday", true, 5, 100, 900},
		dayRow{"2011-01-04", "Spring", "Mist", "Tuesday", true, 6, 120, 1400},
		dayRow{"2011-01-05", "Spring", "Clear", "Wednesday", true, 4, 90, 1500},
		dayRow{"2011-01-08", "Spring", "Light Rain", "Saturday", false, 3, 300, 600},
		dayRow{"2011-01-09", "Spring", "Clear", "Sunday", false, 7, 400, 800},
		dayRow{"2011-07-04", "Summer", "Clear", "Monday", false, 30, 1500, 3500},
		dayRow{"2011-07-05", "Summer", "Mist", "Tuesday", true, 31, 900, 4800},
		dayRow{"2011-10-03", "Fall", "Clear", "Monday", true, 20, 800, 5000},
	)
}

func hourlyView(t testing.TB, date string, counts map[int]float64) RecordView {
	t.Helper()
	records := make([]Record, 0, len(counts))
	for h := 0; h < 24; h++ {
		c, ok := counts[h]
		if !ok {
			continue
		}
		records = append(records, Record{
			Date: day(t, date),
			Dimensions: map[string]string{
				"season": "Spring",
				"hour":   strconv.Itoa(h),
			},
			Measures: map[string]float64{
				"casual_count":     c / 4,
				"registered_count": c - c/4,
				"total_count":      c,
			},
		})
	}
	return NewSliceView(records)
}

func dates(view RecordView) []string {
	out := make([]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		out = append(out, view.Date(i).Format(DateLayout))
	}
	return out
}

func keys(table *OrderedTable) []string {
	out := make([]string, 0, table.Len())
	for _, r := range table.Rows {
		out = append(out, r.Key)
	}
	return out
}
