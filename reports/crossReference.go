package reports

import (
	"io"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/ingest"
)

const (
	MetricsSheet    = "METRICAS"
	ByCaseCodeSheet = "POR_CODCLIENTE"
	ByDocumentSheet = "POR_NITCLIENTE"
)

// CrossReferenceName is the download name of a cross-reference workbook.
func CrossReferenceName(now time.Time) string {
	return "reporte_cruce_" + now.Format("20060102") + ".xlsx"
}

// WriteCrossReference writes the metrics sheet and one sheet per match key. Each match
// sheet repeats the uploaded columns and appends the matched gestión, blank when none.
func WriteCrossReference(w io.Writer, result *ingest.CrossRefResult) error {
	m := result.Metrics
	metrics := table{
		name:   MetricsSheet,
		header: []string{"Métrica", "Valor"},
		rows: [][]any{
			{"Registros procesados", m.Total},
			{"Coincidencias por codcliente", m.ByCaseCode},
			{"Coincidencias por nitcliente", m.ByDocument},
			{"Sin coincidencias", m.NoMatch},
		},
	}
	return exportExcel(w,
		metrics,
		matchTable(ByCaseCodeSheet, "_cod", result.Header, result.ByCaseCode),
		matchTable(ByDocumentSheet, "_nit", result.Header, result.ByDocument),
	)
}

func matchTable(name, suffix string, inputHeader []string, rows []ingest.EnrichedRow) table {
	header := append([]string{}, inputHeader...)
	header = append(header, "fecha_gestion"+suffix, "id_gestion"+suffix, "resultado"+suffix, "archivo"+suffix)

	out := make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, 0, len(header))
		for _, h := range inputHeader {
			row = append(row, r.Values[h])
		}
		if r.Match != nil {
			row = append(row, r.Match.FechaGestion, r.Match.IdGestion, r.Match.Resultado, r.Match.ArchivoOrigen)
		} else {
			row = append(row, nil, nil, nil, nil)
		}
		out[i] = row
	}
	return table{name: name, header: header, rows: out}
}
