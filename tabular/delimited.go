package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DelimitedOptions describes a delimited text extract.
type DelimitedOptions struct {
	Name   string
	Comma  rune
	Latin1 bool
}

// PaymentExtract is the layout of the payment system's exports: tab separated, ISO-8859-1.
func PaymentExtract(name string) DelimitedOptions {
	return DelimitedOptions{Name: name, Comma: '\t', Latin1: true}
}

// ReadDelimited reads a header + rows text file into one sheet. Every cell is kept as text.
func ReadDelimited(r io.Reader, opts DelimitedOptions) (Sheet, error) {
	if opts.Latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.FieldsPerRecord = -1
	// Extracts do not quote fields consistently; a stray '"' must not fail the file.
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read delimited file: %w", err)
	}
	if len(records) == 0 {
		return Sheet{}, fmt.Errorf("delimited file %q is empty", opts.Name)
	}
	return newSheet(opts.Name, records), nil
}

// Read picks a reader from the file extension: .xlsx/.xlsm workbooks, .txt/.tsv payment
// extracts (tab, Latin-1) and .csv (comma, UTF-8).
func Read(fileName string, r io.Reader) ([]Sheet, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(r)
	case ".txt", ".tsv":
		s, err := ReadDelimited(r, PaymentExtract(fileName))
		if err != nil {
			return nil, err
		}
		return []Sheet{s}, nil
	case ".csv":
		s, err := ReadDelimited(r, DelimitedOptions{Name: fileName, Comma: ','})
		if err != nil {
			return nil, err
		}
		return []Sheet{s}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q: only .xlsx, .txt, .tsv and .csv are allowed", filepath.Ext(fileName))
	}
}
