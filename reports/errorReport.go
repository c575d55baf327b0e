package reports

import (
	"io"
	"sort"

	"bitbucket.org/mmdatafocus/collections_backend/ingest"
)

const (
	errorSheet   = "ERRORES"
	summarySheet = "RESUMEN"
)

// ErrorReportName is the download name of a table's error rows, e.g. errores_gestiones.csv.
func ErrorReportName(table, ext string) string {
	return "errores_" + table + ext
}

// WriteErrorCSV writes the error rows of one run as CSV: source sheet and line, the
// canonical columns, then the reasons.
func WriteErrorCSV(w io.Writer, s *ingest.Strategy, errs []ingest.ErrorRecord) error {
	return exportCSV(w, errorTable(s, errs))
}

// WriteErrorWorkbook writes the error rows plus a per-reason summary sheet.
func WriteErrorWorkbook(w io.Writer, s *ingest.Strategy, errs []ingest.ErrorRecord) error {
	return exportExcel(w, errorTable(s, errs), errorSummary(errs))
}

func errorTable(s *ingest.Strategy, errs []ingest.ErrorRecord) table {
	header := append([]string{"hoja", "fila"}, s.Columns...)
	header = append(header, "error")

	rows := make([][]any, 0, len(errs))
	for _, e := range errs {
		row := make([]any, 0, len(header))
		row = append(row, e.Sheet, e.Line)
		for _, c := range s.Columns {
			row = append(row, e.Values[c])
		}
		row = append(row, e.Reason)
		rows = append(rows, row)
	}
	return table{name: errorSheet, header: header, rows: rows}
}

// errorSummary counts rows per reason, most frequent first.
func errorSummary(errs []ingest.ErrorRecord) table {
	counts := make(map[string]int)
	var reasons []string
	for _, e := range errs {
		if counts[e.Reason] == 0 {
			reasons = append(reasons, e.Reason)
		}
		counts[e.Reason]++
	}
	sort.SliceStable(reasons, func(i, j int) bool {
		return counts[reasons[i]] > counts[reasons[j]]
	})

	rows := make([][]any, len(reasons))
	for i, r := range reasons {
		rows[i] = []any{r, counts[r]}
	}
	return table{name: summarySheet, header: []string{"Tipo de error", "Cantidad"}, rows: rows}
}
