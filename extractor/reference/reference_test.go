package reference

import (
	"context"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

var _ = check.Suite(new(ReferenceTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type ReferenceTestSuite struct{}

func (s *ReferenceTestSuite) TestExtractTargets(c *check.C) {
	field := entity.FieldDefinition{
		Name:     "field_media",
		Type:     "entity_reference",
		Settings: map[string]string{"target_type": "media"},
	}
	value := entity.Value{{"target_id": "5"}, {"target_id": ""}, {"target_id": "5"}, {"target_id": "abc"}}

	got, err := New().ExtractTargets(context.TODO(), nil, field, value)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, []graph.EntityRef{
		{Type: "media", ID: "5"},
		{Type: "media", ID: "5"},
		{Type: "media", ID: "abc"},
	})
}

func (s *ReferenceTestSuite) TestFileFieldsDefaultToFileTargets(c *check.C) {
	field := entity.FieldDefinition{Name: "field_image", Type: "image"}

	got, err := New().ExtractTargets(context.TODO(), nil, field, entity.Value{{"target_id": "3", "alt": "logo"}})
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, []graph.EntityRef{{Type: "file", ID: "3"}})
}

func (s *ReferenceTestSuite) TestMissingTargetTypeSetting(c *check.C) {
	field := entity.FieldDefinition{Name: "field_tags", Type: "entity_reference"}

	_, err := New().ExtractTargets(context.TODO(), nil, field, entity.Value{{"target_id": "3"}})
	c.Assert(err, check.ErrorMatches, "field field_tags: missing target_type setting")
}
