package engine

import (
	"fmt"
	"sort"
	"strings"
)

// TopN returns the n rows of table with the largest value in byColumn.
// Ties are broken by key: domain order when the group key has a domain,
// then case-insensitive key order. The result depends only on the rows'
// contents, never on their position in table. Missing rows rank after every
// present row. The result has min(n, table.Len()) rows and is a fresh slice
// owned by the caller.
func TopN(table *OrderedTable, n int, byColumn string) ([]Row, error) {
	if table == nil {
		return nil, ErrEmptyResult
	}
	idx := table.ColumnIndex(byColumn)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, byColumn)
	}
	if n <= 0 {
		return []Row{}, nil
	}

	domain := table.keyDomain()
	ranked := make([]Row, len(table.Rows))
	copy(ranked, table.Rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Missing != b.Missing {
			return !a.Missing
		}
		if !a.Missing && a.Values[idx] != b.Values[idx] {
			return a.Values[idx] > b.Values[idx]
		}
		return keyLess(domain, a.Key, b.Key)
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n:n], nil
}

// Best returns the key of the top row by byColumn, or "" when the table has
// no present rows.
func Best(table *OrderedTable, byColumn string) string {
	top, err := TopN(table, 1, byColumn)
	if err != nil || len(top) == 0 || top[0].Missing {
		return ""
	}
	return top[0].Key
}

// keyLess orders group keys: domain members first in domain order, then the
// rest case-insensitively, with an exact comparison as the final tiebreak.
func keyLess(domain Domain, a, b string) bool {
	ia, ib := domain.Index(a), domain.Index(b)
	switch {
	case ia >= 0 && ib >= 0:
		if ia != ib {
			return ia < ib
		}
	case ia >= 0:
		return true
	case ib >= 0:
		return false
	}
	if la, lb := strings.ToLower(a), strings.ToLower(b); la != lb {
		return la < lb
	}
	return a < b
}
