package ingest

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/tabular"
)

var testLoadedAt = time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

var gestionHeader = []string{
	"Id Gestion Campaña", "Tipo documento", "Número documento", "Nombre",
	"Fecha gestión", "Tipo llamada", "Código gestión", "Resultado",
	"Fecha Compromiso", "Funcionario", "Campaña", "Teléfono",
	"Obligación", "Nro. Comparendo", "Valor",
}

func gestionCells(overrides map[string]string) []string {
	values := map[string]string{
		"Id Gestion Campaña": "IGC-1",
		"Tipo documento":     "CC",
		"Número documento":   "1010",
		"Nombre":             "Ana Pérez",
		"Fecha gestión":      "15/03/2024 10:30:00",
		"Tipo llamada":       "Saliente",
		"Código gestión":     "G-1",
		"Resultado":          "Promesa de pago",
		"Fecha Compromiso":   "20/03/2024",
		"Funcionario":        "asesor1",
		"Campaña":            "Campaña A",
		"Teléfono":           "3001234567",
		"Obligación":         "OB-1",
		"Nro. Comparendo":    "",
		"Valor":              "150000",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return cells(gestionHeader, values)
}

var smsHeader = []string{
	"TIPO DOCUMENTO", "DOCUMENTO", "NOMBRE", "FECHA", "RESULTADO",
	"SMS", "BASE", "TELEFONO", "NRO_COMPARENDO",
}

func smsCells(overrides map[string]string) []string {
	values := map[string]string{
		"TIPO DOCUMENTO": "CC",
		"DOCUMENTO":      "2020",
		"NOMBRE":         "Luis",
		"FECHA":          "2024-03-15",
		"RESULTADO":      "ENTREGADO",
		"SMS":            "Recuerde su pago",
		"BASE":           "BASE-MARZO",
		"TELEFONO":       "3000000000",
		"NRO_COMPARENDO": "C-100",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return cells(smsHeader, values)
}

var comparendoHeader = []string{
	"nro_comparendo", "nro_recibo", "fecha_liquida_contrav", "compute_0004",
	"id_usuario", "nombres", "apellidos", "nro_resolucion", "intereses",
}

func cells(header []string, values map[string]string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = values[h]
	}
	return out
}

func sheetOf(name string, header []string, rows ...[]string) tabular.Sheet {
	s := tabular.Sheet{Name: name, Header: header}
	for i, r := range rows {
		s.Rows = append(s.Rows, r)
		s.Lines = append(s.Lines, i+2)
	}
	return s
}

func idsOf(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID()
	}
	return ids
}

func sortedCopy(values []string) []string {
	out := append([]string{}, values...)
	sort.Strings(out)
	return out
}

// memoryStore is an in-memory stand-in for models.Store.
type memoryStore struct {
	columns map[string][]string
	ids     map[string]bool
	lookups [][]string
	lookErr error

	tables      map[string][]map[string]any
	failAppend  int // 1-based append call that fails, 0 = never
	appendCalls int

	byKey   map[MatchKey][]HistoricalEvent
	histErr error
}

func newMemoryStore(existing ...string) *memoryStore {
	m := &memoryStore{ids: map[string]bool{}, tables: map[string][]map[string]any{}, columns: map[string][]string{}}
	for _, id := range existing {
		m.ids[id] = true
	}
	return m
}

func (m *memoryStore) Columns(_ context.Context, table string) ([]string, error) {
	return m.columns[table], nil
}

func (m *memoryStore) ExistingIDs(_ context.Context, _, _ string, ids []string) ([]string, error) {
	m.lookups = append(m.lookups, ids)
	if m.lookErr != nil {
		return nil, m.lookErr
	}
	var found []string
	for _, id := range ids {
		if m.ids[id] {
			found = append(found, id)
		}
	}
	return found, nil
}

type memoryTx struct {
	m       *memoryStore
	pending map[string][]map[string]any
}

func (tx *memoryTx) Append(_ context.Context, table string, rows []map[string]any) error {
	tx.m.appendCalls++
	if tx.m.failAppend == tx.m.appendCalls {
		return errors.New("duplicate key value violates unique constraint")
	}
	tx.pending[table] = append(tx.pending[table], rows...)
	return nil
}

func (m *memoryStore) WithinTransaction(_ context.Context, fn func(Appender) error) error {
	tx := &memoryTx{m: m, pending: map[string][]map[string]any{}}
	if err := fn(tx); err != nil {
		return err
	}
	for table, rows := range tx.pending {
		m.tables[table] = append(m.tables[table], rows...)
	}
	return nil
}

func (m *memoryStore) EventsByKey(_ context.Context, key MatchKey, values []string) ([]HistoricalEvent, error) {
	if m.histErr != nil {
		return nil, m.histErr
	}
	want := toSet(values)
	var out []HistoricalEvent
	for _, ev := range m.byKey[key] {
		if want[ev.Key] {
			out = append(out, ev)
		}
	}
	return out, nil
}
