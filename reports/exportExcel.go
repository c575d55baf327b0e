// Package reports renders ingest results as downloadable xlsx and CSV files.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// table is one sheet worth of data.
type table struct {
	name   string
	header []string
	rows   [][]any
}

func exportExcel(w io.Writer, tables ...table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return err
		}

		header := make([]any, len(t.header))
		for c, h := range t.header {
			header[c] = h
		}
		if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
			return err
		}
		for r, row := range t.rows {
			values := make([]any, len(row))
			for c, v := range row {
				values[c] = excelValue(v)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.name, cell, &values); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write excel file: %w", err)
	}
	return nil
}

func exportCSV(w io.Writer, t table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	for _, row := range t.rows {
		record := make([]string, len(row))
		for c, v := range row {
			record[c] = textValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func excelValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x
	case *time.Time:
		if x == nil {
			return ""
		}
		return excelValue(*x)
	default:
		return x
	}
}

func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case *time.Time:
		if x == nil {
			return ""
		}
		return textValue(*x)
	default:
		return fmt.Sprint(x)
	}
}
