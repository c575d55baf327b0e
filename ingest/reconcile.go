package ingest

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/collections_backend/utils"
)

const (
	DefaultReconcileChunkSize = 1000
	DefaultLoadChunkSize      = 5000
)

// Reconciliation splits a batch into rows new to the store and rows already present.
type Reconciliation struct {
	New      []Record
	Existing []Record
}

// Reconcile looks the distinct identities of records up in table, chunkSize ids per
// query, and keeps the records whose identity is not there yet. Any lookup error aborts
// the whole reconciliation.
//
// The result is a point-in-time check; the table's primary key is the final guard
// against concurrent writers.
func Reconcile(ctx context.Context, lookup IdentityLookup, table, idColumn string, records []Record, chunkSize int, progress ProgressFunc) (*Reconciliation, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultReconcileChunkSize
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.Values.Text(idColumn)
	}
	chunks := utils.ChunkSlice(utils.UniqueSlice(ids), chunkSize)

	existing := make(map[string]bool)
	for i, chunk := range chunks {
		found, err := lookup.ExistingIDs(ctx, table, idColumn, chunk)
		if err != nil {
			return nil, &StoreError{Op: fmt.Sprintf("verificando duplicados en %s (lote %d de %d)", table, i+1, len(chunks)), Err: err}
		}
		for _, id := range found {
			existing[id] = true
		}
		progress.report(float64(i+1)/float64(len(chunks)), fmt.Sprintf("Verificando duplicados: lote %d de %d", i+1, len(chunks)))
	}

	result := &Reconciliation{}
	for i, rec := range records {
		if existing[ids[i]] {
			result.Existing = append(result.Existing, rec)
		} else {
			result.New = append(result.New, rec)
		}
	}
	return result, nil
}
