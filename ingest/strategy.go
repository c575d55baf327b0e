package ingest

import (
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/collections_backend/tabular"
)

// IDColumn is the identity column of every ingest table.
const IDColumn = "id_registro"

// Metadata columns stamped on every row.
const (
	ColumnArchivoOrigen = "archivo_origen"
	ColumnFechaCarga    = "fecha_carga"
)

// Kind tags a record-processing variant.
type Kind string

const (
	KindGestiones       Kind = "gestiones"
	KindSMS             Kind = "sms"
	KindPagosAcuerdo    Kind = "pagos_acuerdo"
	KindPagosComparendo Kind = "pagos_comparendo"
)

// Upload modules as chosen by the operator. Pagos resolves to a Kind from the file name.
const (
	ModuleGestiones = "gestiones"
	ModuleSMS       = "sms"
	ModulePagos     = "pagos"
)

// ColumnMapping maps one source column to its canonical field.
type ColumnMapping struct {
	Source    string
	Canonical string
}

// ColumnSet is the set of canonical fields a batch actually carried.
type ColumnSet map[string]bool

func (c ColumnSet) Has(fields ...string) bool {
	for _, f := range fields {
		if !c[f] {
			return false
		}
	}
	return true
}

// Strategy is everything that differs between record kinds; Normalize and Classify are
// the same pipeline for all of them.
type Strategy struct {
	Kind  Kind
	Table string
	// Label names the file kind in operator messages.
	Label string

	Mapping []ColumnMapping
	// RequiredSource lists the source columns a sheet must carry to qualify.
	RequiredSource []string
	// LenientSheets turns missing required source columns into warnings.
	LenientSheets bool
	// Derived lists canonical fields produced by Fill rather than read from the file.
	Derived []string

	// Fill applies defaults, coercions and derivations in place.
	Fill func(r Row, present ColumnSet)
	// Warnings inspects the carried columns for non-fatal problems.
	Warnings func(present ColumnSet) []string

	Caps map[string]int
	// DateTimes and DateOnly fields are parsed from their text before Fill runs;
	// DateOnly values are truncated to the day. Unparseable values become missing.
	DateTimes []string
	DateOnly  []string

	HashKey  []string
	Required []string
	// Check runs on rows that passed the required-field checks and returns extra reasons.
	Check func(r Row) []string

	// Columns is the final column order, equal to the destination table's columns.
	Columns []string
}

// NewStrategy validates s. Every required field and hash key field must be produced by
// the mapping or by Fill; a violation is a programming error and panics.
func NewStrategy(s Strategy) *Strategy {
	produced := map[string]bool{IDColumn: true, ColumnArchivoOrigen: true, ColumnFechaCarga: true}
	for _, m := range s.Mapping {
		produced[m.Canonical] = true
	}
	for _, d := range s.Derived {
		produced[d] = true
	}
	var missing []string
	for _, group := range [][]string{s.Required, s.HashKey, s.Columns} {
		for _, f := range group {
			if !produced[f] {
				missing = append(missing, f)
			}
		}
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("ingest: strategy %s: fields not produced by mapping or derivation: %s", s.Kind, strings.Join(missing, ", ")))
	}
	if s.Fill == nil {
		s.Fill = func(Row, ColumnSet) {}
	}
	return &s
}

// canonicalFor resolves a sheet header to a canonical field. Canonical names are accepted
// as their own source so that already-normalized files normalize to themselves.
func (s *Strategy) canonicalFor(header string) (string, bool) {
	h := tabular.NormalizeHeader(header)
	for _, m := range s.Mapping {
		if tabular.NormalizeHeader(m.Source) == h {
			return m.Canonical, true
		}
	}
	for _, m := range s.Mapping {
		if m.Canonical == h {
			return m.Canonical, true
		}
	}
	return "", false
}

// missingSource lists the required source columns sheet lacks (under either name).
func (s *Strategy) missingSource(sheet tabular.Sheet) []string {
	var missing []string
	for _, src := range s.RequiredSource {
		if sheet.Column(src) >= 0 {
			continue
		}
		if c, ok := s.canonicalFor(src); ok && sheet.Column(c) >= 0 {
			continue
		}
		missing = append(missing, src)
	}
	return missing
}

// coerceDates replaces the raw text of the strategy's date fields with parsed times.
func (s *Strategy) coerceDates(r Row) {
	for _, f := range s.DateTimes {
		setTime(r, f, false)
	}
	for _, f := range s.DateOnly {
		setTime(r, f, true)
	}
}

var strategies = map[Kind]*Strategy{
	KindGestiones:       gestionesStrategy,
	KindSMS:             smsStrategy,
	KindPagosAcuerdo:    pagosAcuerdoStrategy,
	KindPagosComparendo: pagosComparendoStrategy,
}

// StrategyFor returns the strategy of kind.
func StrategyFor(kind Kind) (*Strategy, bool) {
	s, ok := strategies[kind]
	return s, ok
}

// ResolveStrategy picks the strategy for an upload module. Payment files are told apart
// by their name prefix.
func ResolveStrategy(module, fileName string) (*Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(module)) {
	case ModuleGestiones:
		return gestionesStrategy, nil
	case ModuleSMS:
		return smsStrategy, nil
	case ModulePagos:
		kind, err := PaymentKind(fileName)
		if err != nil {
			return nil, err
		}
		return strategies[kind], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
}

// PaymentKind classifies a payment extract by its file name prefix.
func PaymentKind(fileName string) (Kind, error) {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	switch {
	case strings.HasPrefix(base, "Ap pagados"):
		return KindPagosAcuerdo, nil
	case strings.HasPrefix(base, "Comparendos pagados"):
		return KindPagosComparendo, nil
	default:
		return "", &StructuralError{Err: ErrUnknownFileKind, Diagnostics: []string{fmt.Sprintf("Archivo '%s'", base)}}
	}
}
