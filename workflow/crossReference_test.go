package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/ingest"
)

func TestCrossReferencer_Run(t *testing.T) {
	store := newFakeStore()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC) }
	store.history[ingest.MatchByCaseCode] = []ingest.HistoricalEvent{
		{Key: "C-1", FechaGestion: day(1), IdGestion: "G-old", IdRegistro: "b"},
		{Key: "C-1", FechaGestion: day(5), IdGestion: "G-new", IdRegistro: "c"},
	}
	store.history[ingest.MatchByDocument] = []ingest.HistoricalEvent{
		{Key: "1010", FechaGestion: day(2), IdGestion: "G-doc", IdRegistro: "a"},
		{Key: "3030", FechaGestion: day(2), IdGestion: "G-3", IdRegistro: "d"},
	}

	data := workbook(t, []string{"Pagos"}, map[string][][]string{"Pagos": {
		{"codcliente", "Tipo de documento", "nitcliente", "numobligacion", "fechapago", "valorpago"},
		{"C-1", "CC", "1010", "OB-1", "2024-03-10", "5000"},
		{"C-2", "CC", "2020", "OB-2", "2024-03-10", "7000"},
		{"C-3", "CC", "3030.0", "OB-3", "2024-03-11", "9000"},
	}})

	x := &CrossReferencer{History: store, ChunkSize: 1}
	result, err := x.Run(context.Background(), CrossReferenceRequest{FileName: "pagos_marzo.xlsx", Data: data})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.ByCaseCode) != 3 || len(result.ByDocument) != 3 {
		t.Fatalf("every input row must appear once per result")
	}
	if m := result.ByCaseCode[0].Match; m == nil || m.IdGestion != "G-new" {
		t.Fatalf("latest gestión should win, got %+v", m)
	}
	if result.ByCaseCode[1].Match != nil {
		t.Fatalf("C-2 has no history")
	}
	if m := result.ByDocument[2].Match; m == nil || m.IdGestion != "G-3" {
		t.Fatalf("3030.0 should match document 3030, got %+v", m)
	}

	m := result.Metrics
	if m.Total != 3 || m.ByCaseCode != 1 || m.ByDocument != 2 || m.NoMatch != 0 || m.MatchedEither != 2 || m.Unmatched != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestCrossReferencer_MissingColumns(t *testing.T) {
	data := workbook(t, []string{"Pagos"}, map[string][][]string{"Pagos": {
		{"codcliente", "nitcliente"},
		{"C-1", "1010"},
	}})
	x := &CrossReferencer{History: newFakeStore()}
	_, err := x.Run(context.Background(), CrossReferenceRequest{FileName: "pagos.xlsx", Data: data})
	var structural *ingest.StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("expected a StructuralError, got %v", err)
	}
}
