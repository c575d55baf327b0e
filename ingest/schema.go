package ingest

import "sort"

// CheckSchema requires the batch columns to equal the destination table's columns
// exactly. Both missing and extra columns reject the whole batch.
func CheckSchema(table string, batchColumns, destinationColumns []string) error {
	batch := toSet(batchColumns)
	dest := toSet(destinationColumns)
	mismatch := &SchemaMismatchError{Table: table}
	for c := range dest {
		if !batch[c] {
			mismatch.Missing = append(mismatch.Missing, c)
		}
	}
	for c := range batch {
		if !dest[c] {
			mismatch.Extra = append(mismatch.Extra, c)
		}
	}
	if len(mismatch.Missing) == 0 && len(mismatch.Extra) == 0 {
		return nil
	}
	sort.Strings(mismatch.Missing)
	sort.Strings(mismatch.Extra)
	return mismatch
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
