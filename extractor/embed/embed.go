package embed

import (
	"context"
	"html"
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure Extractor implements
// extractor.Extractor interface.
var _ extractor.Extractor = (*Extractor)(nil)

// Method is the id recorded on edges found in embed elements.
const Method = "entity_embed"

var (
	embedElements = []string{"entity-embed", "drupal-media"}

	// Locate the opening tag of an embed element and return its attributes.
	findEmbedRegex  = regexp.MustCompile(`(?i)<(?:entity-embed|drupal-media)\s([^>]*)>`)
	entityTypeRegex = regexp.MustCompile(`data-entity-type="([^"]*)"`)
	entityIDRegex   = regexp.MustCompile(`data-entity-id="([^"]*)"`)
)

// Extractor finds the objects embedded in formatted text fields through
// <entity-embed> and <drupal-media> elements.
type Extractor struct {
	policyPool sync.Pool
}

// New returns an embed extractor.
func New() *Extractor {
	return &Extractor{
		policyPool: sync.Pool{
			New: func() interface{} {
				p := bluemonday.NewPolicy()
				p.AllowAttrs("data-entity-type", "data-entity-id").OnElements(embedElements...)

				return p
			},
		},
	}
}

// ID returns the method name of the extractor.
func (*Extractor) ID() string { return Method }

// ApplicableFieldTypes returns the formatted text field types.
func (*Extractor) ApplicableFieldTypes() []string {
	return []string{"text", "text_long", "text_with_summary"}
}

// ExtractTargets returns one reference per embed element carrying both a
// data-entity-type and a data-entity-id attribute.
func (x *Extractor) ExtractTargets(
	_ context.Context, _ entity.Entity, _ entity.FieldDefinition, value entity.Value,
) ([]graph.EntityRef, error) {

	policy := x.policyPool.Get().(*bluemonday.Policy)
	defer x.policyPool.Put(policy)

	var refs []graph.EntityRef
	for _, item := range value {
		for _, key := range []string{"value", "summary"} {
			markup := item[key]
			if markup == "" {
				continue
			}

			for _, match := range findEmbedRegex.FindAllStringSubmatch(policy.Sanitize(markup), -1) {
				typeMatch := entityTypeRegex.FindStringSubmatch(match[1])
				idMatch := entityIDRegex.FindStringSubmatch(match[1])
				if len(typeMatch) != 2 || len(idMatch) != 2 {
					continue
				}

				ref := graph.EntityRef{
					Type: html.UnescapeString(typeMatch[1]),
					ID:   graph.ID(html.UnescapeString(idMatch[1])),
				}
				if ref.Type == "" || ref.ID == "" {
					continue
				}

				refs = append(refs, ref)
			}
		}
	}

	return refs, nil
}
