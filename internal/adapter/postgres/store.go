// Package postgres archives enriched records so past digest windows can be
// queried after the source feeds roll off. Inserts are idempotent on the
// permit or appeal number, so re-running a window is safe.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/jongeeting/development-digest/internal/domain"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS enriched_records (
	id               TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	address          TEXT NOT NULL DEFAULT '',
	council_district TEXT NOT NULL DEFAULT '',
	neighborhood     TEXT NOT NULL DEFAULT '',
	units            INTEGER,
	multi_family     BOOLEAN NOT NULL DEFAULT FALSE,
	units_source     TEXT NOT NULL DEFAULT '',
	developer        TEXT NOT NULL DEFAULT '',
	narrative        TEXT NOT NULL DEFAULT '',
	source_timestamp TEXT NOT NULL DEFAULT '',
	archived_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertSQL = `
INSERT INTO enriched_records
	(id, kind, address, council_district, neighborhood, units, multi_family,
	 units_source, developer, narrative, source_timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

// Store archives enriched records in Postgres.
// It implements pipeline.Archiver.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres with the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Init creates the archive table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create enriched_records table: %w", err)
	}
	return nil
}

// SaveBatch archives a batch of enriched records inside one transaction.
// Records already archived under the same ID are skipped, and records with no
// ID are not archivable.
func (s *Store) SaveBatch(ctx context.Context, records []domain.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()

	archived := 0
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		var units sql.NullInt64
		if n, ok := rec.Units.Value(); ok {
			units = sql.NullInt64{Int64: int64(n), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, string(rec.Kind), rec.Address, rec.CouncilDistrict,
			rec.Neighborhood, units, rec.Units.IsMultiFamily(),
			string(rec.UnitsSource), rec.Developer, rec.Narrative, rec.Timestamp,
		); err != nil {
			return fmt.Errorf("archive record %s: %w", rec.ID, err)
		}
		archived++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}
	s.logger.Debug("archived records", "count", archived)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
