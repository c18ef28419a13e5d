package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from OrderedTable
// ============================================================================
// Missing rows render as "—" so they are never confused with a real zero.
// ============================================================================

// MissingCell is the text shown for a group with no records.
const MissingCell = "—"

// BuildTable produces a TableData from an aggregated table. The first column
// holds the group key, then one column per value column, then the row count.
func BuildTable(table *OrderedTable, title string) *TableData {
	if table.Len() == 0 {
		return &TableData{
			Title:   title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	columns := make([]Column, 0, len(table.Columns)+2)
	columns = append(columns, Column{
		Key:   table.GroupKey,
		Label: LabelForColumn(table.GroupKey),
		Type:  "text",
		Align: "left",
	})
	for _, col := range table.Columns {
		columns = append(columns, Column{
			Key:   col,
			Label: LabelForColumn(col),
			Type:  "number",
			Align: "right",
		})
	}
	columns = append(columns, Column{Key: "count", Label: "Count", Type: "number", Align: "center"})

	rows := make([][]string, 0, len(table.Rows))
	totalCount := 0
	for _, r := range table.Rows {
		row := make([]string, 0, len(columns))
		row = append(row, rowLabel(table.GroupKey, r.Key))
		for _, v := range r.Values {
			if r.Missing {
				row = append(row, MissingCell)
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		row = append(row, strconv.Itoa(r.Count))
		rows = append(rows, row)
		totalCount += r.Count
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &TableSummary{
			Label: fmt.Sprintf("Total (%d groups)", len(table.PresentRows())),
			Values: map[string]string{
				"count": FormatInt(totalCount),
			},
		},
	}
}

// BuildListTable renders every row of view with its date, the given
// dimensions, and the given measures.
func BuildListTable(view RecordView, title string, dimensions, measures []string) *TableData {
	columns := make([]Column, 0, len(dimensions)+len(measures)+1)
	columns = append(columns, Column{Key: "date", Label: "Date", Type: "text", Align: "left"})
	for _, key := range dimensions {
		columns = append(columns, Column{Key: key, Label: LabelForColumn(key), Type: "text", Align: "left"})
	}
	for _, key := range measures {
		columns = append(columns, Column{Key: key, Label: LabelForColumn(key), Type: "number", Align: "right"})
	}

	rows := make([][]string, 0, view.Len())
	totals := make([]float64, len(measures))
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		row = append(row, view.Date(i).Format(DateLayout))
		for _, key := range dimensions {
			row = append(row, view.Dimension(i, key))
		}
		for j, key := range measures {
			v := view.Measure(i, key)
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			totals[j] += v
		}
		rows = append(rows, row)
	}

	values := make(map[string]string, len(measures))
	for j, key := range measures {
		values[key] = FormatFloat(totals[j])
	}
	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &TableSummary{
			Label:  fmt.Sprintf("Total (%d records)", view.Len()),
			Values: values,
		},
	}
}
