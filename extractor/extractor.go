/*
	extractor package defines the plugin contract used to find referenced
	objects inside field values and the tracking algorithm shared by every
	plugin: creation tracking and (current, previous) diff tracking.
*/

package extractor

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Extractor knows how to find referenced objects inside one kind of field
// value.
type Extractor interface {
	// ID returns the method name recorded on the edges of the extractor.
	ID() string

	// ApplicableFieldTypes returns the field types the extractor scans.
	ApplicableFieldTypes() []string

	// ExtractTargets returns the objects referenced by value, one entry
	// per occurrence. Duplicate entries encode repeated references.
	ExtractTargets(
		ctx context.Context, source entity.Entity, field entity.FieldDefinition, value entity.Value,
	) ([]graph.EntityRef, error)
}

// Registrar receives the edge deltas computed by a Tracker.
type Registrar interface {
	// Upsert records count occurrences of edge. A count <= 0 removes it.
	Upsert(ctx context.Context, edge graph.Edge, count int) error
}

// List is an explicitly constructed, ordered set of extractors.
type List []Extractor

// NewList returns a List holding exts. Extractor ids must be unique and
// non-empty.
func NewList(exts ...Extractor) (List, error) {
	var err error

	seen := make(map[string]struct{}, len(exts))
	for i, ext := range exts {
		id := ext.ID()
		if id == "" {
			err = multierror.Append(err, fmt.Errorf("extractor %d: empty id", i))

			continue
		}

		if _, dup := seen[id]; dup {
			err = multierror.Append(err, fmt.Errorf("extractor %q registered more than once", id))

			continue
		}
		seen[id] = struct{}{}
	}

	if err != nil {
		return nil, err
	}

	return List(exts), nil
}

// Enabled returns the extractors whose id is listed in ids, preserving the
// order of l. An empty ids list enables every extractor.
func (l List) Enabled(ids []string) List {
	if len(ids) == 0 {
		return l
	}

	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}

	var enabled List
	for _, ext := range l {
		if _, ok := allowed[ext.ID()]; ok {
			enabled = append(enabled, ext)
		}
	}

	return enabled
}

// Lookup returns the extractor with the given id.
func (l List) Lookup(id string) (Extractor, bool) {
	for _, ext := range l {
		if ext.ID() == id {
			return ext, true
		}
	}

	return nil, false
}

// IDs returns the ids of the extractors in l.
func (l List) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, ext := range l {
		ids = append(ids, ext.ID())
	}

	return ids
}
