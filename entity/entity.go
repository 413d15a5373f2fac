/*
	entity package defines the object model the usage engine consumes from
	its host: content objects, their translations and revisions, and the
	storage used to walk a whole corpus.
*/

package entity

import (
	"context"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// LanguageNotSpecified is used for objects without a language.
const LanguageNotSpecified = "und"

// Item is a single value of a multi-valued field, keyed by property name
// (for example "target_id", "uri" or "value").
type Item map[string]string

// Value holds the items of a field. An empty Value carries no reference.
type Value []Item

// IsEmpty reports whether v has no items.
func (v Value) IsEmpty() bool { return len(v) == 0 }

// FieldDefinition describes a field of an object.
type FieldDefinition struct {
	Name string
	Type string
	// Base marks intrinsic fields owned by the system (author, parent...).
	Base     bool
	Settings map[string]string
}

// Entity is a content object that may hold references.
type Entity interface {
	Type() string
	ID() graph.ID
	Language() string
	Fields() []FieldDefinition
	Value(field string) Value
}

// Translatable is implemented by objects with language variants.
type Translatable interface {
	Entity

	// Languages returns the languages of every existing translation,
	// including the object's own language.
	Languages() []string

	// Translation returns the variant for lang.
	Translation(lang string) (Entity, bool)
}

// Revisionable is implemented by objects that keep immutable revisions. A
// zero revision id means the object carries no revision.
type Revisionable interface {
	Entity
	RevisionID() int64
}

// TypeInfo describes an object type.
type TypeInfo struct {
	Name string
	// ContentLike types are tracked as sources unless configured otherwise.
	ContentLike  bool
	Revisionable bool
	Translatable bool
}

// TypeResolver looks up object type information.
type TypeResolver interface {
	TypeInfo(entityType string) (TypeInfo, bool)
}

// Storage gives read access to the whole corpus of a host.
type Storage interface {
	TypeResolver

	// Count returns the number of objects of entityType.
	Count(ctx context.Context, entityType string) (int, error)

	// Load returns the current state of an object or graph.ErrNotFound.
	Load(ctx context.Context, entityType string, id graph.ID) (Entity, error)

	// NextAfter returns the object with the smallest id strictly greater
	// than after (see graph.ID.Less). An empty after returns the first
	// object. A nil Entity signals that no such object exists.
	NextAfter(ctx context.Context, entityType string, after graph.ID) (Entity, error)

	// RevisionIDs returns up to limit revision ids of e, newest first,
	// skipping the first offset ones.
	RevisionIDs(ctx context.Context, e Entity, offset, limit int) ([]int64, error)

	// LoadRevision returns an object as it was at revision.
	LoadRevision(ctx context.Context, entityType string, revision int64) (Entity, error)
}

// Ref returns the graph reference of e.
func Ref(e Entity) graph.EntityRef {
	return graph.EntityRef{Type: e.Type(), ID: e.ID()}
}

// RevisionOf returns the revision id of e, or 0 if e has none.
func RevisionOf(e Entity) int64 {
	if r, ok := e.(Revisionable); ok {
		return r.RevisionID()
	}

	return 0
}

// LanguageOf returns the language of e, defaulting to LanguageNotSpecified.
func LanguageOf(e Entity) string {
	if lang := e.Language(); lang != "" {
		return lang
	}

	return LanguageNotSpecified
}

// SourceOf returns the edge source describing e.
func SourceOf(e Entity) graph.Source {
	return graph.Source{
		Type:     e.Type(),
		ID:       e.ID(),
		Language: LanguageOf(e),
		Revision: RevisionOf(e),
	}
}
