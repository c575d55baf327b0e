package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/tabular"
	"bitbucket.org/mmdatafocus/collections_backend/utils"
)

const normalizeSteps = 7

// Normalize turns the sheets of one uploaded file into canonical records of kind s.
//
// Sheets are validated independently; a sheet lacking required source columns is left
// out and named in Batch.Diagnostics. When no sheet qualifies the result is a
// *StructuralError carrying every diagnostic. Identity collisions inside the batch
// return an *IntegrityError.
func Normalize(s *Strategy, sheets []tabular.Sheet, sourceFile string, loadedAt time.Time, progress ProgressFunc) (*Batch, error) {
	steps := newStepper(progress, normalizeSteps)
	batch := &Batch{Strategy: s, SourceFile: sourceFile, LoadedAt: loadedAt.Truncate(time.Second)}

	steps.step("Validando estructura de hojas")
	var qualifying []tabular.Sheet
	for _, sheet := range sheets {
		missing := s.missingSource(sheet)
		switch {
		case len(missing) == 0:
			qualifying = append(qualifying, sheet)
		case s.LenientSheets:
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("Advertencia: Faltan columnas en archivo %s: %s", s.Label, strings.Join(missing, ", ")))
			qualifying = append(qualifying, sheet)
		default:
			batch.Diagnostics = append(batch.Diagnostics, fmt.Sprintf("Hoja '%s': Faltan %s", sheet.Name, strings.Join(missing, ", ")))
		}
	}
	if len(qualifying) == 0 {
		return nil, &StructuralError{Err: ErrNoQualifyingSheet, Diagnostics: batch.Diagnostics}
	}

	steps.step("Unificando hojas válidas")
	present := ColumnSet{}
	for _, sheet := range qualifying {
		batch.Records = append(batch.Records, s.readSheet(sheet, present)...)
	}

	steps.step("Manejando datos faltantes")
	for _, rec := range batch.Records {
		s.coerceDates(rec.Values)
		s.Fill(rec.Values, present)
	}
	if s.Warnings != nil {
		batch.Warnings = append(batch.Warnings, s.Warnings(present)...)
	}

	steps.step("Ajustando longitudes de texto")
	for _, rec := range batch.Records {
		rec.Values[ColumnArchivoOrigen] = sourceFile
		for field, limit := range s.Caps {
			if v, ok := rec.Values[field].(string); ok {
				rec.Values[field] = utils.Truncate(v, limit)
			}
		}
	}

	steps.step("Creando ID único")
	rows := make([]Row, len(batch.Records))
	for i, rec := range batch.Records {
		rows[i] = rec.Values
	}
	seqs := AssignSequences(rows, s.HashKey)
	for i, r := range rows {
		r[IDColumn] = HashIdentity(keyFields(r, s.HashKey), seqs[i])
	}

	steps.step("Agregando metadatos")
	for i := range batch.Records {
		batch.Records[i].Values[ColumnFechaCarga] = batch.LoadedAt
		batch.Records[i].Values = Row(batch.Records[i].Values.Project(s.Columns))
	}

	steps.step("Validando integridad")
	if dups := duplicateIDs(batch.Records); len(dups) > 0 {
		return nil, &IntegrityError{Duplicates: dups}
	}
	return batch, nil
}

// readSheet maps the cells of sheet onto canonical fields. Null tokens become missing.
// present collects the canonical fields the sheet carried.
func (s *Strategy) readSheet(sheet tabular.Sheet, present ColumnSet) []Record {
	fields := make([]string, len(sheet.Header))
	for i, h := range sheet.Header {
		if c, ok := s.canonicalFor(h); ok {
			fields[i] = c
			present[c] = true
		}
	}
	records := make([]Record, 0, len(sheet.Rows))
	for n, cells := range sheet.Rows {
		r := Row{}
		for i, field := range fields {
			if field == "" || r.Present(field) {
				continue
			}
			if utils.IsNullToken(cells[i]) {
				r[field] = nil
				continue
			}
			r[field] = cells[i]
		}
		line := 0
		if n < len(sheet.Lines) {
			line = sheet.Lines[n]
		}
		records = append(records, Record{Values: r, Sheet: sheet.Name, Line: line})
	}
	return records
}

func duplicateIDs(records []Record) []string {
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		seen[rec.ID()]++
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
