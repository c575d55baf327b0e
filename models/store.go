package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/ingest"
	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Both MySQL and PostgreSQL cap a statement at 65535 bind parameters.
const maxBindParams = 65535

// Store is the gorm-backed store the ingest pipeline runs against. The caller owns db.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Columns returns the declared column names of table.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	types, err := s.db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("table %s does not exist or has no columns", table)
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	return names, nil
}

// ExistingIDs returns the subset of ids present in table.idColumn.
func (s *Store) ExistingIDs(ctx context.Context, table, idColumn string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	var found []string
	err := s.db.WithContext(ctx).
		Table(table).
		Where(clause.IN{Column: clause.Column{Name: idColumn}, Values: values}).
		Pluck(idColumn, &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// WithinTransaction runs fn in one database transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ingest.Appender) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txAppender{tx: tx})
	})
}

type txAppender struct {
	tx *gorm.DB
}

// Append inserts rows, split into as many statements as the bind parameter limit needs.
func (a *txAppender) Append(ctx context.Context, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	perStatement := maxBindParams / len(rows[0])
	if perStatement < 1 {
		perStatement = 1
	}
	return a.tx.WithContext(ctx).Table(table).CreateInBatches(rows, perStatement).Error
}

var matchColumns = map[ingest.MatchKey]string{
	ingest.MatchByCaseCode: "identificador_infraccion",
	ingest.MatchByDocument: "documento",
}

type historicalEventRow struct {
	MatchKey      string
	FechaGestion  time.Time
	IdGestion     string
	Resultado     string
	ArchivoOrigen *string
	IdRegistro    string
}

// EventsByKey returns, per value, the latest gestión whose key column equals it.
func (s *Store) EventsByKey(ctx context.Context, key ingest.MatchKey, values []string) ([]ingest.HistoricalEvent, error) {
	column, ok := matchColumns[key]
	if !ok {
		return nil, fmt.Errorf("unsupported match key %q", key)
	}
	if len(values) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT match_key, fecha_gestion, id_gestion, resultado, archivo_origen, id_registro
FROM (
	SELECT %[1]s AS match_key, fecha_gestion, id_gestion, resultado, archivo_origen, id_registro,
		ROW_NUMBER() OVER (PARTITION BY %[1]s ORDER BY fecha_gestion DESC, id_registro ASC) AS rn
	FROM gestiones
	WHERE %[1]s IN ?
) ranked
WHERE rn = 1`, column)

	var rows []historicalEventRow
	if err := s.db.WithContext(ctx).Raw(query, values).Scan(&rows).Error; err != nil {
		return nil, err
	}
	events := make([]ingest.HistoricalEvent, len(rows))
	for i, r := range rows {
		events[i] = ingest.HistoricalEvent{
			Key:           r.MatchKey,
			FechaGestion:  r.FechaGestion,
			IdGestion:     r.IdGestion,
			Resultado:     r.Resultado,
			ArchivoOrigen: utils.DereferencePtr(r.ArchivoOrigen, ""),
			IdRegistro:    r.IdRegistro,
		}
	}
	return events, nil
}

// Ping checks the connection, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
