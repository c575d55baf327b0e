package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/tabular"
)

var crossRefHeader = []string{"codcliente", "Tipo de documento", "nitcliente", "numobligacion", "fechapago", "valorpago"}

func crossRefSheet(rows ...[]string) tabular.Sheet {
	return sheetOf("Pagos", crossRefHeader, rows...)
}

func day(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC) }

func historyStore() *memoryStore {
	m := newMemoryStore()
	m.byKey = map[MatchKey][]HistoricalEvent{
		MatchByCaseCode: {
			{Key: "X", FechaGestion: day(1), IdGestion: "G-old", Resultado: "No contesta", ArchivoOrigen: "feb.xlsx", IdRegistro: "h1"},
			{Key: "X", FechaGestion: day(9), IdGestion: "G-new", Resultado: "Promesa", ArchivoOrigen: "mar.xlsx", IdRegistro: "h2"},
			{Key: "T", FechaGestion: day(5), IdGestion: "G-b", Resultado: "B", IdRegistro: "hb"},
			{Key: "T", FechaGestion: day(5), IdGestion: "G-a", Resultado: "A", IdRegistro: "ha"},
		},
		MatchByDocument: {
			{Key: "1010", FechaGestion: day(3), IdGestion: "G-doc", Resultado: "Contactado", IdRegistro: "h3"},
		},
	}
	return m
}

func TestMatch_LeftOuterKeepsEveryRow(t *testing.T) {
	input, err := CrossRefInputFromSheet(crossRefSheet(
		[]string{"X", "CC", "1010", "OB1", "2024-03-20", "1000"},
		[]string{"Y", "CC", "2020", "OB2", "2024-03-20", "2000"},
		[]string{"X", "CC", "3030", "OB3", "2024-03-21", "3000"},
	))
	if err != nil {
		t.Fatalf("CrossRefInputFromSheet: %v", err)
	}
	result, err := Match(context.Background(), historyStore(), input, 1000, nil)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(result.ByCaseCode) != 3 || len(result.ByDocument) != 3 {
		t.Fatalf("expected one result row per input row, got %d and %d", len(result.ByCaseCode), len(result.ByDocument))
	}
	if m := result.ByCaseCode[0].Match; m == nil || m.IdGestion != "G-new" {
		t.Fatalf("row X should match the latest gestión, got %+v", m)
	}
	if result.ByCaseCode[1].Match != nil {
		t.Fatalf("row Y has no history and must have a nil match")
	}
	if result.ByCaseCode[1].Values["codcliente"] != "Y" {
		t.Fatalf("input order must be preserved")
	}
	if m := result.ByDocument[0].Match; m == nil || m.IdGestion != "G-doc" {
		t.Fatalf("row 1010 should match by document, got %+v", m)
	}

	want := CrossRefMetrics{Total: 3, ByCaseCode: 2, ByDocument: 1, NoMatch: 0, MatchedEither: 2, Unmatched: 1}
	if result.Metrics != want {
		t.Fatalf("expected metrics %+v, got %+v", want, result.Metrics)
	}
}

func TestMatch_TieBreakIsDeterministic(t *testing.T) {
	input, _ := CrossRefInputFromSheet(crossRefSheet([]string{"T", "CC", "", "", "", ""}))
	for i := 0; i < 3; i++ {
		result, err := Match(context.Background(), historyStore(), input, 1, nil)
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		if m := result.ByCaseCode[0].Match; m == nil || m.IdRegistro != "ha" {
			t.Fatalf("tied dates should resolve to the smallest id_registro, got %+v", m)
		}
		if result.ByDocument[0].Match != nil {
			t.Fatalf("blank nitcliente must not match")
		}
	}
}

func TestMatch_NumericKeysFromSpreadsheets(t *testing.T) {
	input, _ := CrossRefInputFromSheet(crossRefSheet([]string{"", "CC", "1010.0", "", "", ""}))
	result, err := Match(context.Background(), historyStore(), input, 1000, nil)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if result.ByDocument[0].Match == nil {
		t.Fatalf("1010.0 should match document 1010")
	}
}

func TestMatch_StoreErrorAborts(t *testing.T) {
	store := historyStore()
	store.histErr = errors.New("timeout")
	input, _ := CrossRefInputFromSheet(crossRefSheet([]string{"X", "CC", "1010", "", "", ""}))
	result, err := Match(context.Background(), store, input, 1000, nil)
	if result != nil || err == nil {
		t.Fatalf("expected an error and no partial result")
	}
}

func TestCrossRefInputFromSheet_MissingColumns(t *testing.T) {
	_, err := CrossRefInputFromSheet(sheetOf("Pagos", []string{"codcliente", "nitcliente"}, []string{"X", "1"}))
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if structural.Diagnostics[0] != "Hoja 'Pagos': Faltan Tipo de documento, numobligacion, fechapago, valorpago" {
		t.Fatalf("unexpected diagnostic %q", structural.Diagnostics[0])
	}
}

// collatingHistory matches keys case- and pad-insensitively and echoes the stored
// spelling, like a MySQL _ci column.
type collatingHistory struct {
	events []HistoricalEvent
}

func (c collatingHistory) EventsByKey(_ context.Context, key MatchKey, values []string) ([]HistoricalEvent, error) {
	if key != MatchByCaseCode {
		return nil, nil
	}
	var out []HistoricalEvent
	for _, ev := range c.events {
		for _, v := range values {
			if strings.EqualFold(strings.TrimRight(ev.Key, " "), strings.TrimRight(v, " ")) {
				out = append(out, ev)
				break
			}
		}
	}
	return out, nil
}

func TestMatch_KeysFollowStoreCollation(t *testing.T) {
	history := collatingHistory{events: []HistoricalEvent{
		{Key: "ABC ", FechaGestion: day(2), IdGestion: "G-1", IdRegistro: "h1"},
	}}
	input, err := CrossRefInputFromSheet(crossRefSheet(
		[]string{"abc", "CC", "", "", "", ""},
		[]string{"zzz", "CC", "", "", "", ""},
	))
	if err != nil {
		t.Fatalf("CrossRefInputFromSheet: %v", err)
	}
	result, err := Match(context.Background(), history, input, 1000, nil)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if m := result.ByCaseCode[0].Match; m == nil || m.IdGestion != "G-1" {
		t.Fatalf("row 0: expected G-1, got %+v", m)
	}
	if result.ByCaseCode[1].Match != nil {
		t.Fatalf("row 1 must stay unmatched")
	}
	if result.Metrics.ByCaseCode != 1 {
		t.Fatalf("expected 1 case-code match, got %d", result.Metrics.ByCaseCode)
	}
}

func TestFoldKey(t *testing.T) {
	cases := []struct{ a, b string }{
		{"abc", "ABC  "},
		{"Ñandú", "nandu"},
		{"1010", "1010"},
	}
	for _, tc := range cases {
		if foldKey(tc.a) != foldKey(tc.b) {
			t.Fatalf("%q and %q should fold to the same key", tc.a, tc.b)
		}
	}
	if foldKey("abc") == foldKey("abd") {
		t.Fatalf("distinct keys must stay distinct")
	}
}
