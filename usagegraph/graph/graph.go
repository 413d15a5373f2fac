/*
	graph package defines the usage edge model and the behavior expected
	from usage edge data stores.
*/

package graph

import (
	"context"
	"fmt"
	"sort"
)

// Store should be implemented by usage edge data stores.
type Store interface {
	// UpsertEdge creates a new or replaces the count of an existing edge.
	// An edge with a count <= 0 is removed instead; removing an edge that
	// does not exist returns ErrNotFound.
	UpsertEdge(ctx context.Context, edge *Edge) error

	// DeleteByTarget removes every edge that points to target.
	DeleteByTarget(ctx context.Context, target EntityRef) error

	// DeleteBySource removes the edges that originate from source. The
	// optional filter narrows the deletion to a language and / or a revision.
	DeleteBySource(ctx context.Context, source EntityRef, filter SourceFilter) error

	// DeleteBySourceType removes every edge whose source is of sourceType.
	DeleteBySourceType(ctx context.Context, sourceType string) error

	// DeleteByTargetType removes every edge whose target is of targetType.
	DeleteByTargetType(ctx context.Context, targetType string) error

	// DeleteByField removes the edges recorded for a field across all the
	// sources of sourceType.
	DeleteByField(ctx context.Context, sourceType, field string) error

	// Sources returns the edges that point to target ordered by source type,
	// source id (descending), revision (descending) and language.
	Sources(ctx context.Context, target EntityRef, includeZero bool) ([]*Edge, error)

	// Targets returns the edges that originate from source, optionally pinned
	// to a single revision, ordered by target id (descending).
	Targets(ctx context.Context, source EntityRef, revision *int64) ([]*Edge, error)

	// Close releases any resources held by the store.
	Close() error
}

// EntityRef identifies a content object by type and id.
type EntityRef struct {
	Type string
	ID   ID
}

// String returns the "type:id" form of the reference.
func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

// Source identifies the object, translation and revision that holds a
// reference. A zero Revision denotes an object without revisions.
type Source struct {
	Type     string
	ID       ID
	Language string
	Revision int64
}

// Entity returns the object part of the source.
func (s Source) Entity() EntityRef {
	return EntityRef{Type: s.Type, ID: s.ID}
}

// Edge represents a single row of the usage index. it serves as a
// model / schema object.
type Edge struct {
	Target EntityRef // Referenced object.
	Source Source    // Object (translation, revision) holding the reference.
	Method string    // Identifier of the extractor that recorded the edge.
	Field  string    // Field of the source that holds the reference.
	Count  int       // Occurrences of the reference within the field.
}

// Key is the unique key of an edge.
type Key struct {
	Target EntityRef
	Source Source
	Method string
	Field  string
}

// Key returns the unique key of the edge.
func (e *Edge) Key() Key {
	return Key{Target: e.Target, Source: e.Source, Method: e.Method, Field: e.Field}
}

// Validate returns ErrInvalidEdge if any part of the edge key is missing.
func (e *Edge) Validate() error {
	switch {
	case e.Target.Type == "" || e.Target.ID == "":
		return fmt.Errorf("%w: missing target", ErrInvalidEdge)
	case e.Source.Type == "" || e.Source.ID == "":
		return fmt.Errorf("%w: missing source", ErrInvalidEdge)
	case e.Method == "":
		return fmt.Errorf("%w: missing method", ErrInvalidEdge)
	case e.Field == "":
		return fmt.Errorf("%w: missing field", ErrInvalidEdge)
	}

	return nil
}

// SourceFilter narrows a source deletion. nil fields are not applied.
type SourceFilter struct {
	Language *string
	Revision *int64
}

// ForLanguage returns a filter that only matches the given translation.
func ForLanguage(lang string) SourceFilter {
	return SourceFilter{Language: &lang}
}

// ForRevision returns a filter that only matches the given revision.
func ForRevision(rev int64) SourceFilter {
	return SourceFilter{Revision: &rev}
}

// Matches reports whether the filter accepts src.
func (f SourceFilter) Matches(src Source) bool {
	if f.Language != nil && *f.Language != src.Language {
		return false
	}

	if f.Revision != nil && *f.Revision != src.Revision {
		return false
	}

	return true
}

// SortSources orders edges the way Store.Sources returns them.
func SortSources(edges []*Edge) {
	sort.SliceStable(edges, func(l, r int) bool {
		a, b := edges[l], edges[r]
		if a.Source.Type != b.Source.Type {
			return a.Source.Type < b.Source.Type
		}
		if a.Source.ID != b.Source.ID {
			return b.Source.ID.Less(a.Source.ID)
		}
		if a.Source.Revision != b.Source.Revision {
			return a.Source.Revision > b.Source.Revision
		}
		if a.Source.Language != b.Source.Language {
			return a.Source.Language < b.Source.Language
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}

		return a.Field < b.Field
	})
}

// SortTargets orders edges the way Store.Targets returns them.
func SortTargets(edges []*Edge) {
	sort.SliceStable(edges, func(l, r int) bool {
		a, b := edges[l], edges[r]
		if a.Target.ID != b.Target.ID {
			return b.Target.ID.Less(a.Target.ID)
		}
		if a.Target.Type != b.Target.Type {
			return a.Target.Type < b.Target.Type
		}
		if a.Source.Revision != b.Source.Revision {
			return a.Source.Revision > b.Source.Revision
		}
		if a.Source.Language != b.Source.Language {
			return a.Source.Language < b.Source.Language
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}

		return a.Field < b.Field
	})
}
