package engine

import (
	"strconv"
	"strings"
)

// ============================================================================
// ORDERED DOMAINS — Canonical category orderings
// ============================================================================
// Seasons, weekdays and hours have a natural order that differs from both
// alphabetical and row order. They are declared once here; aggregation and
// label validation both read from these lists.
// ============================================================================

// Domain is an ordered list of category values.
type Domain []string

// Index returns the position of value in the domain (case-insensitive), or -1.
func (d Domain) Index(value string) int {
	for i, v := range d {
		if strings.EqualFold(v, value) {
			return i
		}
	}
	return -1
}

// Contains reports whether value belongs to the domain.
func (d Domain) Contains(value string) bool { return d.Index(value) >= 0 }

// Canonical returns the domain's spelling of value, or "" if absent.
func (d Domain) Canonical(value string) string {
	if i := d.Index(strings.TrimSpace(value)); i >= 0 {
		return d[i]
	}
	return ""
}

var (
	// Seasons in calendar order as used by the rental dataset.
	Seasons = Domain{"Spring", "Summer", "Fall", "Winter"}

	// Weekdays starting Monday.
	Weekdays = Domain{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	// Hours of the day, 0..23, as decimal strings without padding.
	Hours = hourDomain()
)

func hourDomain() Domain {
	d := make(Domain, 24)
	for h := 0; h < 24; h++ {
		d[h] = strconv.Itoa(h)
	}
	return d
}

// defaultDomains maps group keys to their canonical order.
func defaultDomains() map[string]Domain {
	return map[string]Domain{
		"season":  Seasons,
		"weekday": Weekdays,
		"hour":    Hours,
	}
}
