package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"bitbucket.org/mmdatafocus/collections_backend/tabular"
	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchKey is the gestiones column a cross-reference joins on.
type MatchKey string

const (
	MatchByCaseCode MatchKey = "identificador_infraccion"
	MatchByDocument MatchKey = "documento"
)

// Input columns of a cross-reference file.
const (
	CaseCodeColumn = "codcliente"
	DocumentColumn = "nitcliente"
)

var CrossRefRequiredColumns = []string{
	"codcliente", "Tipo de documento", "nitcliente", "numobligacion", "fechapago", "valorpago",
}

// HistoricalEvent is the part of a gestión a cross-reference reports.
type HistoricalEvent struct {
	Key           string
	FechaGestion  time.Time
	IdGestion     string
	Resultado     string
	ArchivoOrigen string
	IdRegistro    string
}

// CrossRefRow is one row of the uploaded payments file, cells keyed by header.
type CrossRefRow struct {
	Values map[string]string
	Line   int
}

// CrossRefInput is a validated cross-reference upload.
type CrossRefInput struct {
	Header []string
	Rows   []CrossRefRow
}

// EnrichedRow is an input row with its best match; Match is nil when nothing matched.
type EnrichedRow struct {
	CrossRefRow
	Match *HistoricalEvent
}

// CrossRefMetrics summarizes a match. NoMatch is Total - (ByCaseCode + ByDocument), so a
// row matched by both keys is subtracted twice; Unmatched counts rows matched by neither.
type CrossRefMetrics struct {
	Total         int
	ByCaseCode    int
	ByDocument    int
	NoMatch       int
	MatchedEither int
	Unmatched     int
}

type CrossRefResult struct {
	Header     []string
	ByCaseCode []EnrichedRow
	ByDocument []EnrichedRow
	Metrics    CrossRefMetrics
}

// CrossRefInputFromSheet validates the required columns of an uploaded payments sheet.
func CrossRefInputFromSheet(sheet tabular.Sheet) (*CrossRefInput, error) {
	var missing []string
	for _, c := range CrossRefRequiredColumns {
		if sheet.Column(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &StructuralError{
			Err:         fmt.Errorf("faltan columnas requeridas"),
			Diagnostics: []string{fmt.Sprintf("Hoja '%s': Faltan %s", sheet.Name, strings.Join(missing, ", "))},
		}
	}
	input := &CrossRefInput{Header: sheet.Header}
	for n, cells := range sheet.Rows {
		values := make(map[string]string, len(sheet.Header))
		for i, h := range sheet.Header {
			values[h] = cells[i]
		}
		line := 0
		if n < len(sheet.Lines) {
			line = sheet.Lines[n]
		}
		input.Rows = append(input.Rows, CrossRefRow{Values: values, Line: line})
	}
	return input, nil
}

// Match left-joins every input row with the latest gestión sharing its case code, and
// separately with the latest gestión sharing its document. Both results have exactly one
// entry per input row, in input order. Latest means greatest fecha_gestion; ties go to
// the smallest id_registro. A store error aborts the whole match.
func Match(ctx context.Context, history HistorySource, input *CrossRefInput, chunkSize int, progress ProgressFunc) (*CrossRefResult, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultReconcileChunkSize
	}
	steps := newStepper(progress, 3)
	result := &CrossRefResult{Header: input.Header}

	steps.step("Cruce por codcliente")
	byCode, err := latestByKey(ctx, history, MatchByCaseCode, input.Rows, CaseCodeColumn, chunkSize)
	if err != nil {
		return nil, err
	}
	steps.step("Cruce por nitcliente")
	byDoc, err := latestByKey(ctx, history, MatchByDocument, input.Rows, DocumentColumn, chunkSize)
	if err != nil {
		return nil, err
	}

	steps.step("Calculando métricas")
	m := &result.Metrics
	m.Total = len(input.Rows)
	for _, row := range input.Rows {
		codeMatch := byCode[foldKey(matchValue(row, CaseCodeColumn))]
		docMatch := byDoc[foldKey(matchValue(row, DocumentColumn))]
		result.ByCaseCode = append(result.ByCaseCode, EnrichedRow{CrossRefRow: row, Match: codeMatch})
		result.ByDocument = append(result.ByDocument, EnrichedRow{CrossRefRow: row, Match: docMatch})
		if codeMatch != nil {
			m.ByCaseCode++
		}
		if docMatch != nil {
			m.ByDocument++
		}
		if codeMatch != nil || docMatch != nil {
			m.MatchedEither++
		}
	}
	m.NoMatch = m.Total - (m.ByCaseCode + m.ByDocument)
	m.Unmatched = m.Total - m.MatchedEither
	return result, nil
}

func matchValue(row CrossRefRow, column string) string {
	return utils.PlainNumberText(row.Values[column])
}

func latestByKey(ctx context.Context, history HistorySource, key MatchKey, rows []CrossRefRow, column string, chunkSize int) (map[string]*HistoricalEvent, error) {
	var values []string
	for _, row := range rows {
		if v := matchValue(row, column); v != "" && !utils.IsNullToken(v) {
			values = append(values, v)
		}
	}
	latest := make(map[string]*HistoricalEvent)
	for _, chunk := range utils.ChunkSlice(utils.UniqueSlice(values), chunkSize) {
		events, err := history.EventsByKey(ctx, key, chunk)
		if err != nil {
			return nil, &StoreError{Op: fmt.Sprintf("consultando gestiones por %s", key), Err: err}
		}
		for i := range events {
			ev := events[i]
			k := foldKey(ev.Key)
			if cur, ok := latest[k]; !ok || isLater(ev, *cur) {
				latest[k] = &ev
			}
		}
	}
	return latest, nil
}

// foldKey compares keys the way the store's collation does: case, accents and trailing
// spaces are ignored. Stores may echo a key in its stored spelling, not the requested one.
func foldKey(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(strings.TrimRight(stripped, " "))
}

func isLater(a, b HistoricalEvent) bool {
	if !a.FechaGestion.Equal(b.FechaGestion) {
		return a.FechaGestion.After(b.FechaGestion)
	}
	return a.IdRegistro < b.IdRegistro
}
