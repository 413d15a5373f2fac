package link

import (
	"context"
	"strings"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure Extractor implements
// extractor.Extractor interface.
var _ extractor.Extractor = (*Extractor)(nil)

// Method is the id recorded on edges found in link fields.
const Method = "link"

const (
	entityScheme   = "entity:"
	internalScheme = "internal:"
)

// Extractor finds the objects referenced by link fields. Both the
// entity:TYPE/ID and internal:/TYPE/ID uri forms are understood; external
// uris are ignored.
type Extractor struct {
	types entity.TypeResolver
}

// New returns a link field extractor. A non-nil resolver restricts
// internal paths to known object types.
func New(types entity.TypeResolver) *Extractor {
	return &Extractor{types: types}
}

// ID returns the method name of the extractor.
func (*Extractor) ID() string { return Method }

// ApplicableFieldTypes returns the link field type.
func (*Extractor) ApplicableFieldTypes() []string { return []string{"link"} }

// ExtractTargets returns one reference per item whose uri points to an
// object.
func (x *Extractor) ExtractTargets(
	_ context.Context, _ entity.Entity, _ entity.FieldDefinition, value entity.Value,
) ([]graph.EntityRef, error) {

	var refs []graph.EntityRef
	for _, item := range value {
		if ref, ok := x.resolve(item["uri"]); ok {
			refs = append(refs, ref)
		}
	}

	return refs, nil
}

func (x *Extractor) resolve(uri string) (graph.EntityRef, bool) {
	uri = strings.TrimSpace(uri)

	switch {
	case strings.HasPrefix(uri, entityScheme):
		// entity:TYPE/ID always names an object; no type check needed.
		return extractor.RefFromPath(stripQuery(strings.TrimPrefix(uri, entityScheme)), nil)
	case strings.HasPrefix(uri, internalScheme):
		return extractor.RefFromPath(stripQuery(strings.TrimPrefix(uri, internalScheme)), x.types)
	default:
		return graph.EntityRef{}, false
	}
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}

	return path
}
