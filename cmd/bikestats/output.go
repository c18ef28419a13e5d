package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/bikestats/engine"
)

// ============================================================================
// OUTPUT TYPES
// ============================================================================

type summaryOutput struct {
	Summary *engine.Summary  `json:"summary"`
	Text    *engine.TextData `json:"text"`
}

type correlationOutput struct {
	X    string  `json:"x"`
	Y    string  `json:"y"`
	R    float64 `json:"r"`
	Rows int     `json:"rows"`
}

type emptyOutput struct {
	Empty bool   `json:"empty"`
	Reply string `json:"reply"`
}

// ============================================================================
// WRITERS
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeLines(w io.Writer, lines []string) error {
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// writeEmpty reports a filter that matched nothing. It is not an error.
func writeEmpty(w io.Writer, format string) error {
	switch format {
	case "text":
		return writeLines(w, []string{engine.NoDataReply})
	case "csv":
		return writeRows(w, [][]string{{"Result"}, {engine.NoDataReply}})
	}
	return writeJSON(w, emptyOutput{Empty: true, Reply: engine.NoDataReply}, format)
}

// writeTable renders an aggregate as JSON, a terminal table or a
// sheets-ready CSV.
func writeTable(w io.Writer, table *engine.OrderedTable, format string) error {
	title := fmt.Sprintf("%s by %s",
		engine.LabelForAggregation(table.Aggregation),
		engine.LabelForColumn(table.GroupKey))
	data := engine.BuildTable(table, title)

	switch format {
	case "csv":
		return writeRows(w, tableRows(data))
	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, data.Title)
		for _, row := range tableRows(data) {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if data.Summary != nil {
			fmt.Fprintf(tw, "%s\t\n", data.Summary.Label)
		}
		return tw.Flush()
	}
	return writeJSON(w, table, format)
}

func tableRows(data *engine.TableData) [][]string {
	header := make([]string, len(data.Columns))
	for i, c := range data.Columns {
		header[i] = c.Label
	}
	return append([][]string{header}, data.Rows...)
}

// writeChartCSV writes a chart as label plus one column per series.
func writeChartCSV(w io.Writer, chart *engine.ChartConfig) error {
	if chart == nil || len(chart.Series) == 0 {
		return writeEmpty(w, "csv")
	}
	xLabel := chart.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}

	header := []string{xLabel}
	for _, s := range chart.Series {
		header = append(header, s.Name)
	}
	rows := [][]string{header}
	for i, p := range chart.Series[0].Data {
		row := []string{p.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) && !s.Data[i].Missing {
				row = append(row, fmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return writeRows(w, rows)
}

// fmtNum prints whole numbers without decimals and everything else with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
