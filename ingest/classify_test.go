package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClassify_PartitionIsExhaustiveAndDisjoint(t *testing.T) {
	fecha := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Values: Row{"id_registro": "a", "documento": "1", "telefono": "3001234567", "fecha_sms": fecha}},
		{Values: Row{"id_registro": "b", "documento": "1", "telefono": "12345", "fecha_sms": fecha}},
		{Values: Row{"id_registro": "c", "documento": nil, "telefono": nil, "fecha_sms": fecha}},
		{Values: Row{"id_registro": "d", "documento": "2", "telefono": "30012345678901234", "fecha_sms": fecha}},
		{Values: Row{"id_registro": "e", "documento": "3", "telefono": "3001234567", "fecha_sms": nil}},
	}
	valid, errs := Classify(smsStrategy, records)
	if len(valid)+len(errs) != len(records) {
		t.Fatalf("expected %d rows in total, got %d", len(records), len(valid)+len(errs))
	}
	inValid := map[string]bool{}
	for _, r := range valid {
		inValid[r.ID()] = true
	}
	for _, e := range errs {
		if inValid[e.ID()] {
			t.Fatalf("row %s is in both partitions", e.ID())
		}
	}

	reasons := map[string]string{}
	for _, e := range errs {
		reasons[e.ID()] = e.Reason
	}
	cases := []struct {
		id     string
		reason string
	}{
		{"b", "telefono formato invalido"},
		{"c", "documento faltante; telefono faltante"},
		{"d", "telefono formato invalido"},
		{"e", "fecha_sms faltante"},
	}
	for _, tc := range cases {
		if reasons[tc.id] != tc.reason {
			t.Fatalf("row %s: expected reason %q, got %q", tc.id, tc.reason, reasons[tc.id])
		}
	}
	if len(valid) != 1 || valid[0].ID() != "a" {
		t.Fatalf("expected only row a to be valid, got %v", idsOf(valid))
	}
}

func TestClassify_BlankStringIsMissing(t *testing.T) {
	records := []Record{{Values: Row{
		"documento":      "  ",
		"nombre_usuario": "Ana",
		"valor":          decimal.NewFromInt(10),
		"fecha_pago":     time.Now(),
	}}}
	_, errs := Classify(pagosAcuerdoStrategy, records)
	if len(errs) != 1 || errs[0].Reason != "documento faltante" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestClassify_NegativePaymentRejected(t *testing.T) {
	records := []Record{{Values: Row{
		"documento":      "9",
		"nombre_usuario": "Ana",
		"valor":          decimal.NewFromInt(-5),
		"fecha_pago":     time.Now(),
	}}}
	valid, errs := Classify(pagosComparendoStrategy, records)
	if len(valid) != 0 || len(errs) != 1 || errs[0].Reason != "valor debe ser mayor que cero" {
		t.Fatalf("unexpected classification %v %+v", valid, errs)
	}
}
