// Package sqlrow maps usage edges to and from the dual id columns shared by
// the SQL backed stores.
package sqlrow

import (
	"database/sql"
	"fmt"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// IDColumns splits id into the values of its integer and string columns.
// Exactly one of the returned values is valid.
func IDColumns(id graph.ID) (sql.NullInt64, sql.NullString) {
	if n, ok := id.Numeric(); ok {
		return sql.NullInt64{Int64: n, Valid: true}, sql.NullString{}
	}

	return sql.NullInt64{}, sql.NullString{String: string(id), Valid: true}
}

// FilterColumns returns the nullable language and revision arguments of a
// source filter.
func FilterColumns(filter graph.SourceFilter) (sql.NullString, sql.NullInt64) {
	var (
		lang sql.NullString
		rev  sql.NullInt64
	)

	if filter.Language != nil {
		lang = sql.NullString{String: *filter.Language, Valid: true}
	}

	if filter.Revision != nil {
		rev = sql.NullInt64{Int64: *filter.Revision, Valid: true}
	}

	return lang, rev
}

// ScanEdges reads every row into an edge and closes rows. Rows must select
// the usage columns in table order.
func ScanEdges(rows *sql.Rows) ([]*graph.Edge, error) {
	defer rows.Close()

	var edges []*graph.Edge

	for rows.Next() {
		var (
			e                              = new(graph.Edge)
			targetID, sourceID             sql.NullInt64
			targetIDString, sourceIDString sql.NullString
		)

		err := rows.Scan(
			&targetID, &targetIDString, &e.Target.Type,
			&sourceID, &sourceIDString, &e.Source.Type,
			&e.Source.Language, &e.Source.Revision, &e.Method, &e.Field, &e.Count,
		)
		if err != nil {
			return nil, err
		}

		e.Target.ID = idFromColumns(targetID, targetIDString)
		e.Source.ID = idFromColumns(sourceID, sourceIDString)
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return edges, nil
}

func idFromColumns(n sql.NullInt64, s sql.NullString) graph.ID {
	if n.Valid {
		return graph.IntID(n.Int64)
	}

	return graph.ID(s.String)
}

// RequireAffected returns graph.ErrNotFound, prefixed with op, when res
// reports that no row was changed.
func RequireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, graph.ErrNotFound)
	}

	return nil
}
