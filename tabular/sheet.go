// Package tabular reads uploaded workbooks and delimited text extracts into
// rectangular sheets of trimmed string cells.
package tabular

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sheet is one named rectangular frame: a header row plus data rows.
// Rows are padded or truncated to len(Header); blank rows are skipped and Lines keeps
// the 1-based source line of every kept row (the header is line 1).
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
	Lines  []int
}

// Column returns the index of name in the header, or -1.
func (s Sheet) Column(name string) int {
	want := NormalizeHeader(name)
	for i, h := range s.Header {
		if h == want {
			return i
		}
	}
	return -1
}

// NormalizeHeader trims a header and folds it to NFC so that accented names typed on
// different systems ("Número documento") compare equal.
func NormalizeHeader(h string) string {
	return norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func newSheet(name string, records [][]string) Sheet {
	s := Sheet{Name: name}
	if len(records) == 0 {
		return s
	}
	s.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		s.Header[i] = NormalizeHeader(h)
	}
	for n, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		row := make([]string, len(s.Header))
		for i := range row {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		s.Rows = append(s.Rows, row)
		s.Lines = append(s.Lines, n+2)
	}
	return s
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
