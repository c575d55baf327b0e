package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func paymentRecords(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{Values: Row{
			IDColumn:                   fmt.Sprintf("id-%03d", i),
			"nro_acuerdo":              "1",
			"nro_comparendo":           "",
			"documento":                "9",
			"nombre_usuario":           "Ana",
			"valor":                    decimal.NewFromInt(int64(i + 1)),
			"fecha_pago":               time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			"archivo_origen":           "Ap pagados.txt",
			"identificador_infraccion": "1",
			"fecha_carga":              testLoadedAt,
			"consecutivo_cuota":        "3",
		}}
	}
	return out
}

func TestLoad_InsertsAllChunksInOneTransaction(t *testing.T) {
	store := newMemoryStore()
	n, err := Load(context.Background(), store, pagosAcuerdoStrategy, paymentRecords(7), 3, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 7 || len(store.tables["pagos"]) != 7 {
		t.Fatalf("expected 7 rows inserted, got %d (%d stored)", n, len(store.tables["pagos"]))
	}
	if store.appendCalls != 3 {
		t.Fatalf("expected 3 chunks, got %d", store.appendCalls)
	}
	row := store.tables["pagos"][0]
	if _, ok := row["consecutivo_cuota"]; ok {
		t.Fatalf("rows must be projected to the table columns")
	}
	if len(row) != len(pagosColumns) {
		t.Fatalf("expected %d columns, got %d", len(pagosColumns), len(row))
	}
}

func TestLoad_ChunkFailureRollsBackEverything(t *testing.T) {
	store := newMemoryStore()
	store.failAppend = 2
	n, err := Load(context.Background(), store, pagosAcuerdoStrategy, paymentRecords(7), 3, nil)
	if n != 0 {
		t.Fatalf("expected 0 inserted, got %d", n)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Chunk != 2 || loadErr.Chunks != 3 || !loadErr.RolledBack {
		t.Fatalf("unexpected LoadError %+v", loadErr)
	}
	if len(store.tables["pagos"]) != 0 {
		t.Fatalf("no rows may be visible after a rollback, found %d", len(store.tables["pagos"]))
	}
	if IsRejection(err) {
		t.Fatalf("a load failure is not a data rejection")
	}
}

func TestLoad_NothingToInsert(t *testing.T) {
	store := newMemoryStore()
	n, err := Load(context.Background(), store, smsStrategy, nil, 10, nil)
	if err != nil || n != 0 || store.appendCalls != 0 {
		t.Fatalf("expected a no-op, got n=%d err=%v calls=%d", n, err, store.appendCalls)
	}
}
