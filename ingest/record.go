// Package ingest normalizes uploaded gestiones, SMS and payment files into canonical rows,
// gives every row a deterministic content-hash identity, splits valid from erroneous rows,
// and reconciles and loads the new rows against the relational store. It also matches
// payment batches against the gestiones history.
//
// Store access goes through the small interfaces in store.go; the package holds no
// connection state of its own.
package ingest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one canonical record. A field is missing when it is absent or nil.
// Values are string, time.Time or decimal.Decimal.
type Row map[string]any

// Present reports whether field holds a usable value. Blank strings count as missing.
func (r Row) Present(field string) bool {
	switch v := r[field].(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case time.Time:
		return !v.IsZero()
	default:
		return true
	}
}

// Text returns the string form of field, "" when missing.
func (r Row) Text(field string) string {
	if !r.Present(field) {
		return ""
	}
	return FormatValue(r[field])
}

// Time returns field as a time, ok=false when missing or not a time.
func (r Row) Time(field string) (time.Time, bool) {
	t, ok := r[field].(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Decimal returns field as a decimal, ok=false when missing or not numeric.
func (r Row) Decimal(field string) (decimal.Decimal, bool) {
	d, ok := r[field].(decimal.Decimal)
	return d, ok
}

// Project returns a copy of r restricted to columns; missing columns map to nil.
func (r Row) Project(columns []string) map[string]any {
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		out[c] = r[c]
	}
	return out
}

// Record is a normalized row with its provenance in the uploaded file.
type Record struct {
	Values Row
	Sheet  string
	Line   int
}

// ID returns the record's identity (id_registro).
func (rec Record) ID() string {
	s, _ := rec.Values[IDColumn].(string)
	return s
}

// ErrorRecord is a row that failed validation, with the accumulated reasons.
type ErrorRecord struct {
	Record
	Reason string
}

// Batch is the output of Normalize: canonical records plus the non-fatal notes collected
// while reading the file.
type Batch struct {
	Strategy   *Strategy
	SourceFile string
	LoadedAt   time.Time
	Records    []Record
	// Diagnostics names the sheets that were skipped and the columns they lacked.
	Diagnostics []string
	Warnings    []string
}

// Columns is the canonical column set of the batch.
func (b *Batch) Columns() []string {
	return b.Strategy.Columns
}
