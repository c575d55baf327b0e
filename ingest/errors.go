package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoQualifyingSheet = errors.New("ninguna hoja válida")
	ErrUnknownFileKind   = errors.New("tipo de archivo no reconocido (debe empezar con 'Ap pagados' o 'Comparendos pagados')")
	ErrUnknownModule     = errors.New("unknown ingest module")
)

// StructuralError aborts a batch before any row-level work.
type StructuralError struct {
	Diagnostics []string
	Err         error
}

func (e *StructuralError) Error() string {
	if len(e.Diagnostics) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s:\n%s", e.Err, strings.Join(e.Diagnostics, "\n"))
}

func (e *StructuralError) Unwrap() error { return e.Err }

// SchemaMismatchError is returned when the batch columns differ from the destination table.
type SchemaMismatchError struct {
	Table   string
	Missing []string // in the table, not in the batch
	Extra   []string // in the batch, not in the table
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "faltan en el archivo: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "sobran en el archivo: "+strings.Join(e.Extra, ", "))
	}
	return fmt.Sprintf("las columnas no coinciden con la tabla %s (%s)", e.Table, strings.Join(parts, "; "))
}

// IntegrityError reports identities that collided inside one batch.
type IntegrityError struct {
	Duplicates []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("IDs duplicados en el lote: %s", strings.Join(e.Duplicates, ", "))
}

// StoreError wraps a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// LoadError reports a failed chunked load. Nothing from the call was committed.
type LoadError struct {
	Table      string
	Chunk      int
	Chunks     int
	RolledBack bool
	Err        error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("error insertando en %s (lote %d de %d): %v", e.Table, e.Chunk, e.Chunks, e.Err)
	if e.RolledBack {
		msg += "; se realizó rollback, no se insertó ningún registro"
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a batch-level rejection of the uploaded data
// (as opposed to an infrastructure failure).
func IsRejection(err error) bool {
	var (
		structural *StructuralError
		schema     *SchemaMismatchError
		integrity  *IntegrityError
	)
	return errors.As(err, &structural) || errors.As(err, &schema) || errors.As(err, &integrity)
}
