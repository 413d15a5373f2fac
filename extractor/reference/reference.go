package reference

import (
	"context"
	"fmt"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure Extractor implements
// extractor.Extractor interface.
var _ extractor.Extractor = (*Extractor)(nil)

// Method is the id recorded on edges found in reference fields.
const Method = "entity_reference"

// Extractor finds the objects referenced by entity reference fields. The
// target type is read from the "target_type" field setting; file and image
// fields default to "file".
type Extractor struct{}

// New returns a reference field extractor.
func New() *Extractor { return &Extractor{} }

// ID returns the method name of the extractor.
func (*Extractor) ID() string { return Method }

// ApplicableFieldTypes returns the reference field types.
func (*Extractor) ApplicableFieldTypes() []string {
	return []string{"entity_reference", "file", "image"}
}

// ExtractTargets returns one reference per item carrying a target_id.
func (*Extractor) ExtractTargets(
	_ context.Context, _ entity.Entity, field entity.FieldDefinition, value entity.Value,
) ([]graph.EntityRef, error) {

	targetType := field.Settings["target_type"]
	if targetType == "" && (field.Type == "file" || field.Type == "image") {
		targetType = "file"
	}

	if targetType == "" {
		return nil, fmt.Errorf("field %s: missing target_type setting", field.Name)
	}

	var refs []graph.EntityRef
	for _, item := range value {
		id := item["target_id"]
		if id == "" {
			continue
		}

		refs = append(refs, graph.EntityRef{Type: targetType, ID: graph.ID(id)})
	}

	return refs, nil
}
