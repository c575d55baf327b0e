package ingest

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/collections_backend/utils"
)

// Load appends records to the strategy's table in chunks of chunkSize rows, all inside
// one transaction. A failing chunk rolls back every chunk of the call and the error is a
// *LoadError. It returns the number of rows inserted.
func Load(ctx context.Context, tx Transactor, s *Strategy, records []Record, chunkSize int, progress ProgressFunc) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultLoadChunkSize
	}
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = rec.Values.Project(s.Columns)
	}
	chunks := utils.ChunkSlice(rows, chunkSize)

	failed := 0
	err := tx.WithinTransaction(ctx, func(a Appender) error {
		for i, chunk := range chunks {
			if err := a.Append(ctx, s.Table, chunk); err != nil {
				failed = i + 1
				return err
			}
			progress.report(float64(i+1)/float64(len(chunks)), fmt.Sprintf("Insertando lote %d de %d", i+1, len(chunks)))
		}
		return nil
	})
	if err != nil {
		return 0, &LoadError{Table: s.Table, Chunk: failed, Chunks: len(chunks), RolledBack: true, Err: err}
	}
	return len(records), nil
}
