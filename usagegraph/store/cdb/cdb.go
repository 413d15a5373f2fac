package cdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mycok/entityusage/usagegraph/graph"
	"github.com/mycok/entityusage/usagegraph/store/internal/sqlrow"
)

const queryTimeout = 500 * time.Millisecond

var (
	createSchemaQuery = `
		CREATE TABLE IF NOT EXISTS entity_usage (
			target_id BIGINT,
			target_id_string VARCHAR(255),
			target_type VARCHAR(64) NOT NULL,
			source_id BIGINT,
			source_id_string VARCHAR(255),
			source_type VARCHAR(64) NOT NULL,
			source_language VARCHAR(12) NOT NULL,
			source_revision BIGINT NOT NULL DEFAULT 0,
			method VARCHAR(64) NOT NULL,
			field VARCHAR(128) NOT NULL,
			count INT NOT NULL DEFAULT 0 CHECK (count >= 0)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS entity_usage_key ON entity_usage (
			target_type, (COALESCE(target_id, 0)), (COALESCE(target_id_string, '')),
			source_type, (COALESCE(source_id, 0)), (COALESCE(source_id_string, '')),
			source_language, source_revision, method, field
		);
		CREATE INDEX IF NOT EXISTS entity_usage_source ON entity_usage (
			source_type, source_id, source_id_string
		);
		`

	upsertEdgeQuery = `
		INSERT INTO entity_usage (
			target_id, target_id_string, target_type,
			source_id, source_id_string, source_type,
			source_language, source_revision, method, field, count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (
			target_type, (COALESCE(target_id, 0)), (COALESCE(target_id_string, '')),
			source_type, (COALESCE(source_id, 0)), (COALESCE(source_id_string, '')),
			source_language, source_revision, method, field
		)
		DO UPDATE SET count = EXCLUDED.count
		`

	deleteEdgeQuery = `
		DELETE FROM entity_usage
		WHERE target_id IS NOT DISTINCT FROM $1 AND target_id_string IS NOT DISTINCT FROM $2
		AND target_type = $3
		AND source_id IS NOT DISTINCT FROM $4 AND source_id_string IS NOT DISTINCT FROM $5
		AND source_type = $6 AND source_language = $7 AND source_revision = $8
		AND method = $9 AND field = $10
		`

	deleteByTargetQuery = `
		DELETE FROM entity_usage
		WHERE target_id IS NOT DISTINCT FROM $1 AND target_id_string IS NOT DISTINCT FROM $2
		AND target_type = $3
		`

	deleteBySourceQuery = `
		DELETE FROM entity_usage
		WHERE source_id IS NOT DISTINCT FROM $1 AND source_id_string IS NOT DISTINCT FROM $2
		AND source_type = $3
		AND ($4::VARCHAR IS NULL OR source_language = $4)
		AND ($5::BIGINT IS NULL OR source_revision = $5)
		`

	deleteBySourceTypeQuery = "DELETE FROM entity_usage WHERE source_type = $1"
	deleteByTargetTypeQuery = "DELETE FROM entity_usage WHERE target_type = $1"
	deleteByFieldQuery      = "DELETE FROM entity_usage WHERE source_type = $1 AND field = $2"

	sourcesQuery = `
		SELECT target_id, target_id_string, target_type,
			source_id, source_id_string, source_type,
			source_language, source_revision, method, field, count
		FROM entity_usage
		WHERE target_id IS NOT DISTINCT FROM $1 AND target_id_string IS NOT DISTINCT FROM $2
		AND target_type = $3 AND (count > 0 OR $4)
		ORDER BY source_type ASC, source_id DESC NULLS LAST, source_id_string DESC,
			source_revision DESC, source_language ASC, method ASC, field ASC
		`

	targetsQuery = `
		SELECT target_id, target_id_string, target_type,
			source_id, source_id_string, source_type,
			source_language, source_revision, method, field, count
		FROM entity_usage
		WHERE source_id IS NOT DISTINCT FROM $1 AND source_id_string IS NOT DISTINCT FROM $2
		AND source_type = $3 AND count > 0
		AND ($4::BIGINT IS NULL OR source_revision = $4)
		ORDER BY target_id DESC NULLS LAST, target_id_string DESC, target_type ASC,
			source_revision DESC, source_language ASC, method ASC, field ASC
		`
)

// Static and compile-time check to ensure CockroachDBStore implements
// graph.Store interface.
var _ graph.Store = (*CockroachDBStore)(nil)

// CockroachDBStore implements a persistent usage edge store using a
// CockroachDB or PostgreSQL instance.
type CockroachDBStore struct {
	db *sql.DB
}

// NewCockroachDBStore returns a CockroachDBStore instance and makes sure
// the usage table exists.
func NewCockroachDBStore(dsn string) (*CockroachDBStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	if _, err := db.ExecContext(ctx, createSchemaQuery); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &CockroachDBStore{db}, nil
}

// Close terminates the connection to the database instance.
func (s *CockroachDBStore) Close() error {
	return s.db.Close()
}

// UpsertEdge creates a new or replaces the count of an existing edge.
// An edge with a count <= 0 is removed instead.
func (s *CockroachDBStore) UpsertEdge(ctx context.Context, edge *graph.Edge) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	targetID, targetIDString := sqlrow.IDColumns(edge.Target.ID)
	sourceID, sourceIDString := sqlrow.IDColumns(edge.Source.ID)

	if edge.Count <= 0 {
		res, err := s.db.ExecContext(
			ctx, deleteEdgeQuery,
			targetID, targetIDString, edge.Target.Type,
			sourceID, sourceIDString, edge.Source.Type,
			edge.Source.Language, edge.Source.Revision, edge.Method, edge.Field,
		)
		if err != nil {
			return fmt.Errorf("upsert edge: %w", err)
		}

		return sqlrow.RequireAffected(res, "upsert edge")
	}

	_, err := s.db.ExecContext(
		ctx, upsertEdgeQuery,
		targetID, targetIDString, edge.Target.Type,
		sourceID, sourceIDString, edge.Source.Type,
		edge.Source.Language, edge.Source.Revision, edge.Method, edge.Field, edge.Count,
	)
	if err != nil {
		if isCheckViolationError(err) {
			err = graph.ErrInvalidEdge
		}

		return fmt.Errorf("upsert edge: %w", err)
	}

	return nil
}

// DeleteByTarget removes every edge that points to target.
func (s *CockroachDBStore) DeleteByTarget(ctx context.Context, target graph.EntityRef) error {
	id, idString := sqlrow.IDColumns(target.ID)

	return s.exec(ctx, "delete by target", deleteByTargetQuery, id, idString, target.Type)
}

// DeleteBySource removes the edges that originate from source and match filter.
func (s *CockroachDBStore) DeleteBySource(
	ctx context.Context, source graph.EntityRef, filter graph.SourceFilter,
) error {

	id, idString := sqlrow.IDColumns(source.ID)
	lang, rev := sqlrow.FilterColumns(filter)

	return s.exec(ctx, "delete by source", deleteBySourceQuery, id, idString, source.Type, lang, rev)
}

// DeleteBySourceType removes every edge whose source is of sourceType.
func (s *CockroachDBStore) DeleteBySourceType(ctx context.Context, sourceType string) error {
	return s.exec(ctx, "delete by source type", deleteBySourceTypeQuery, sourceType)
}

// DeleteByTargetType removes every edge whose target is of targetType.
func (s *CockroachDBStore) DeleteByTargetType(ctx context.Context, targetType string) error {
	return s.exec(ctx, "delete by target type", deleteByTargetTypeQuery, targetType)
}

// DeleteByField removes the edges recorded for field across all the
// sources of sourceType.
func (s *CockroachDBStore) DeleteByField(ctx context.Context, sourceType, field string) error {
	return s.exec(ctx, "delete by field", deleteByFieldQuery, sourceType, field)
}

// Sources returns the edges that point to target.
func (s *CockroachDBStore) Sources(
	ctx context.Context, target graph.EntityRef, includeZero bool,
) ([]*graph.Edge, error) {

	id, idString := sqlrow.IDColumns(target.ID)

	edges, err := s.query(ctx, sourcesQuery, id, idString, target.Type, includeZero)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}

	return edges, nil
}

// Targets returns the edges that originate from source, optionally pinned
// to a single revision.
func (s *CockroachDBStore) Targets(
	ctx context.Context, source graph.EntityRef, revision *int64,
) ([]*graph.Edge, error) {

	id, idString := sqlrow.IDColumns(source.ID)

	var rev sql.NullInt64
	if revision != nil {
		rev = sql.NullInt64{Int64: *revision, Valid: true}
	}

	edges, err := s.query(ctx, targetsQuery, id, idString, source.Type, rev)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	return edges, nil
}

func (s *CockroachDBStore) exec(ctx context.Context, op, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *CockroachDBStore) query(ctx context.Context, query string, args ...interface{}) ([]*graph.Edge, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return sqlrow.ScanEdges(rows)
}

// isCheckViolationError returns true if error is a check constraint
// violation error.
func isCheckViolationError(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	return pqErr.Code.Name() == "check_violation"
}
