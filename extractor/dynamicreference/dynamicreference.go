package dynamicreference

import (
	"context"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure Extractor implements
// extractor.Extractor interface.
var _ extractor.Extractor = (*Extractor)(nil)

// Method is the id recorded on edges found in dynamic reference fields.
const Method = "dynamic_entity_reference"

// Extractor finds the objects referenced by fields whose items carry their
// own target type.
type Extractor struct{}

// New returns a dynamic reference field extractor.
func New() *Extractor { return &Extractor{} }

// ID returns the method name of the extractor.
func (*Extractor) ID() string { return Method }

// ApplicableFieldTypes returns the dynamic reference field type.
func (*Extractor) ApplicableFieldTypes() []string {
	return []string{"dynamic_entity_reference"}
}

// ExtractTargets returns one reference per item carrying both a target_type
// and a target_id. Incomplete items are ignored.
func (*Extractor) ExtractTargets(
	_ context.Context, _ entity.Entity, _ entity.FieldDefinition, value entity.Value,
) ([]graph.EntityRef, error) {

	var refs []graph.EntityRef
	for _, item := range value {
		targetType, id := item["target_type"], item["target_id"]
		if targetType == "" || id == "" {
			continue
		}

		refs = append(refs, graph.EntityRef{Type: targetType, ID: graph.ID(id)})
	}

	return refs, nil
}
