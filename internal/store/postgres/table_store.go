// Package postgres provides the Postgres-backed table store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/law-makers/sismos/pkg/models"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "sismos_igp"

var columns = []string{
	"id",
	"tipo_reporte",
	"codigo_reporte",
	"referencia",
	"fecha_hora_local",
	"magnitud",
	"enlace_reporte",
	"extracted_at",
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error)
	Close()
}

// TableStore keeps the latest snapshot of records in one table.
type TableStore struct {
	pool  pool
	table string
}

// NewTableStore connects to Postgres and makes sure the table exists.
func NewTableStore(ctx context.Context, cfg Config) (*TableStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &TableStore{pool: p, table: table}
	if err := s.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewTableStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewTableStoreWithPool(p pool, table string) (*TableStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &TableStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the table when it does not exist.
func (s *TableStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id               TEXT PRIMARY KEY,
	tipo_reporte     TEXT NOT NULL,
	codigo_reporte   TEXT NOT NULL,
	referencia       TEXT NOT NULL,
	fecha_hora_local TEXT NOT NULL,
	magnitud         TEXT NOT NULL,
	enlace_reporte   TEXT NOT NULL DEFAULT '',
	extracted_at     TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Clear scans every id and deletes those ids.
func (s *TableStore) Clear(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT id FROM %s", s.table))
	if err != nil {
		return 0, fmt.Errorf("scan ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("scan ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", s.table), ids)
	if err != nil {
		return 0, fmt.Errorf("delete rows: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// BulkWrite copies records into the table.
func (s *TableStore) BulkWrite(ctx context.Context, records []models.Record, extractedAt time.Time) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.table}, columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				r.ID,
				r.ReportType,
				r.ReportCode,
				r.Reference,
				r.LocalDateTime,
				r.Magnitude,
				r.ReportLink,
				extractedAt,
			}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy records: %w", err)
	}
	return int(n), nil
}

// Location returns the table name
func (s *TableStore) Location() string {
	return s.table
}

// Close releases the underlying pool resources.
func (s *TableStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
