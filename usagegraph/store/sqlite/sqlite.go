package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the sqlite3 database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/mycok/entityusage/usagegraph/graph"
	"github.com/mycok/entityusage/usagegraph/store/internal/sqlrow"
)

const (
	columns = `target_id, target_id_string, target_type,
		source_id, source_id_string, source_type,
		source_language, source_revision, method, field, count`

	targetMatch = `target_id IS ?1 AND target_id_string IS ?2 AND target_type = ?3`
	sourceMatch = `source_id IS ?1 AND source_id_string IS ?2 AND source_type = ?3`
)

var (
	schemaQuery = `
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS entity_usage (
			target_id INTEGER,
			target_id_string TEXT,
			target_type TEXT NOT NULL,
			source_id INTEGER,
			source_id_string TEXT,
			source_type TEXT NOT NULL,
			source_language TEXT NOT NULL,
			source_revision INTEGER NOT NULL DEFAULT 0,
			method TEXT NOT NULL,
			field TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_usage_key ON entity_usage (
			target_type, COALESCE(target_id, 0), COALESCE(target_id_string, ''),
			source_type, COALESCE(source_id, 0), COALESCE(source_id_string, ''),
			source_language, source_revision, method, field
		);
		CREATE INDEX IF NOT EXISTS idx_entity_usage_source ON entity_usage (
			source_type, source_id, source_id_string
		);
	`

	upsertEdgeQuery = `INSERT OR REPLACE INTO entity_usage (` + columns + `)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11)`

	deleteEdgeQuery = `DELETE FROM entity_usage WHERE ` + targetMatch + `
		AND source_id IS ?4 AND source_id_string IS ?5 AND source_type = ?6
		AND source_language = ?7 AND source_revision = ?8 AND method = ?9 AND field = ?10`

	deleteByTargetQuery = `DELETE FROM entity_usage WHERE ` + targetMatch

	deleteBySourceQuery = `DELETE FROM entity_usage WHERE ` + sourceMatch + `
		AND (?4 IS NULL OR source_language = ?4)
		AND (?5 IS NULL OR source_revision = ?5)`

	deleteBySourceTypeQuery = `DELETE FROM entity_usage WHERE source_type = ?1`
	deleteByTargetTypeQuery = `DELETE FROM entity_usage WHERE target_type = ?1`
	deleteByFieldQuery      = `DELETE FROM entity_usage WHERE source_type = ?1 AND field = ?2`

	sourcesQuery = `SELECT ` + columns + ` FROM entity_usage
		WHERE ` + targetMatch + ` AND (count > 0 OR ?4)
		ORDER BY source_type ASC, source_id DESC NULLS LAST, source_id_string DESC,
			source_revision DESC, source_language ASC, method ASC, field ASC`

	targetsQuery = `SELECT ` + columns + ` FROM entity_usage
		WHERE ` + sourceMatch + ` AND count > 0
		AND (?4 IS NULL OR source_revision = ?4)
		ORDER BY target_id DESC NULLS LAST, target_id_string DESC, target_type ASC,
			source_revision DESC, source_language ASC, method ASC, field ASC`
)

// Static and compile-time check to ensure Store implements graph.Store.
var _ graph.Store = (*Store)(nil)

// Store implements graph.Store using a local SQLite database file.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the SQLite database at path and
// prepares the usage table.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL mode allows readers to proceed while a write is in flight.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serializing connections avoids busy errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaQuery); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertEdge creates a new or replaces the count of an existing edge.
// An edge with a count <= 0 is removed instead.
func (s *Store) UpsertEdge(ctx context.Context, edge *graph.Edge) error {
	targetID, targetIDString := sqlrow.IDColumns(edge.Target.ID)
	sourceID, sourceIDString := sqlrow.IDColumns(edge.Source.ID)

	args := []interface{}{
		targetID, targetIDString, edge.Target.Type,
		sourceID, sourceIDString, edge.Source.Type,
		edge.Source.Language, edge.Source.Revision, edge.Method, edge.Field,
	}

	if edge.Count <= 0 {
		res, err := s.db.ExecContext(ctx, deleteEdgeQuery, args...)
		if err != nil {
			return fmt.Errorf("upsert edge: %w", err)
		}

		return sqlrow.RequireAffected(res, "upsert edge")
	}

	args = append(args, edge.Count)
	if _, err := s.db.ExecContext(ctx, upsertEdgeQuery, args...); err != nil {
		return fmt.Errorf("upsert edge: %w", err)
	}

	return nil
}

// DeleteByTarget removes every edge that points to target.
func (s *Store) DeleteByTarget(ctx context.Context, target graph.EntityRef) error {
	id, idString := sqlrow.IDColumns(target.ID)

	return s.exec(ctx, "delete by target", deleteByTargetQuery, id, idString, target.Type)
}

// DeleteBySource removes the edges that originate from source and match filter.
func (s *Store) DeleteBySource(ctx context.Context, source graph.EntityRef, filter graph.SourceFilter) error {
	id, idString := sqlrow.IDColumns(source.ID)
	lang, rev := sqlrow.FilterColumns(filter)

	return s.exec(ctx, "delete by source", deleteBySourceQuery, id, idString, source.Type, lang, rev)
}

// DeleteBySourceType removes every edge whose source is of sourceType.
func (s *Store) DeleteBySourceType(ctx context.Context, sourceType string) error {
	return s.exec(ctx, "delete by source type", deleteBySourceTypeQuery, sourceType)
}

// DeleteByTargetType removes every edge whose target is of targetType.
func (s *Store) DeleteByTargetType(ctx context.Context, targetType string) error {
	return s.exec(ctx, "delete by target type", deleteByTargetTypeQuery, targetType)
}

// DeleteByField removes the edges of field across all sources of sourceType.
func (s *Store) DeleteByField(ctx context.Context, sourceType, field string) error {
	return s.exec(ctx, "delete by field", deleteByFieldQuery, sourceType, field)
}

// Sources returns the edges that point to target.
func (s *Store) Sources(ctx context.Context, target graph.EntityRef, includeZero bool) ([]*graph.Edge, error) {
	id, idString := sqlrow.IDColumns(target.ID)

	rows, err := s.db.QueryContext(ctx, sourcesQuery, id, idString, target.Type, includeZero)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}

	edges, err := sqlrow.ScanEdges(rows)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}

	return edges, nil
}

// Targets returns the edges that originate from source, optionally pinned
// to a single revision.
func (s *Store) Targets(ctx context.Context, source graph.EntityRef, revision *int64) ([]*graph.Edge, error) {
	id, idString := sqlrow.IDColumns(source.ID)

	var rev sql.NullInt64
	if revision != nil {
		rev = sql.NullInt64{Int64: *revision, Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, targetsQuery, id, idString, source.Type, rev)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	edges, err := sqlrow.ScanEdges(rows)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	return edges, nil
}

func (s *Store) exec(ctx context.Context, op, query string, args ...interface{}) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
