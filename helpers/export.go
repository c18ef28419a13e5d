package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/spektr-org/bikestats/engine"
)

// ============================================================================
// EXPORT — OrderedTable → CSV / Parquet
// ============================================================================
// Both writers use the same long format: one line per (group, column) cell.
// Missing rows are kept and flagged so downstream tools see the full axis.
// ============================================================================

// TableCell is one exported cell of an OrderedTable.
type TableCell struct {
	Group   string  `parquet:"name=group,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	Column  string  `parquet:"name=column,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	Value   float64 `parquet:"name=value,type=DOUBLE"`
	Count   int64   `parquet:"name=count,type=INT64"`
	Missing bool    `parquet:"name=missing,type=BOOLEAN"`
}

// csvHeader is the header row written by WriteTableCSV.
var csvHeader = []string{"group", "column", "value", "count", "missing"}

// Cells flattens table into long format, rows in table order and columns
// in column order.
func Cells(table *engine.OrderedTable) []TableCell {
	if table == nil {
		return nil
	}
	cells := make([]TableCell, 0, len(table.Rows)*len(table.Columns))
	for _, r := range table.Rows {
		for i, col := range table.Columns {
			cells = append(cells, TableCell{
				Group:   r.Key,
				Column:  col,
				Value:   r.Values[i],
				Count:   int64(r.Count),
				Missing: r.Missing,
			})
		}
	}
	return cells
}

// WriteTableCSV writes table as long-format CSV. Missing cells have an
// empty value.
func WriteTableCSV(w io.Writer, table *engine.OrderedTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range Cells(table) {
		value := strconv.FormatFloat(c.Value, 'f', -1, 64)
		if c.Missing {
			value = ""
		}
		record := []string{c.Group, c.Column, value, strconv.FormatInt(c.Count, 10), strconv.FormatBool(c.Missing)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableParquet writes table as a long-format Parquet file.
// compression is SNAPPY, GZIP or NONE (empty means SNAPPY).
func WriteTableParquet(w io.Writer, table *engine.OrderedTable, compression string) error {
	codec, err := compressionCodec(compression)
	if err != nil {
		return err
	}

	// w sees nothing unless the whole file was produced.
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(TableCell), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, c := range Cells(table) {
		if err := pw.Write(c); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := stopParquet(pw); err != nil {
		return err
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write parquet output: %w", err)
	}
	return nil
}

// stopParquet flushes the footer. WriteStop can panic on internal errors;
// the panic is returned as an error.
func stopParquet(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stop parquet writer: panic: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("stop parquet writer: %w", err)
	}
	return nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SNAPPY", "":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", name)
	}
}
