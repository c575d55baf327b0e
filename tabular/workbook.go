package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook reads every sheet of an xlsx workbook. Cells are returned raw (no number
// format applied), so date cells arrive as Excel serial numbers and long identifiers are
// not rendered in scientific notation.
func ReadWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("unable to read sheet %q: %w", name, err)
		}
		sheets = append(sheets, newSheet(name, rows))
	}
	return sheets, nil
}
