package ingest

import "context"

// ColumnSource lists the declared columns of a table.
type ColumnSource interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// IdentityLookup returns which of ids already exist in table.
type IdentityLookup interface {
	ExistingIDs(ctx context.Context, table, idColumn string, ids []string) ([]string, error)
}

// Appender appends rows to a table inside a transaction.
type Appender interface {
	Append(ctx context.Context, table string, rows []map[string]any) error
}

// Transactor runs fn in one transaction: committed when fn returns nil, rolled back
// otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(Appender) error) error
}

// HistorySource returns gestiones whose key column matches one of values. It may return
// several events per value; Match keeps the latest.
type HistorySource interface {
	EventsByKey(ctx context.Context, key MatchKey, values []string) ([]HistoricalEvent, error)
}
