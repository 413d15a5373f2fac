package registry

import (
	"context"
	"errors"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/usagegraph/graph"
	"github.com/mycok/entityusage/usagegraph/store/memory"
)

var _ = check.Suite(new(RegistryTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type RegistryTestSuite struct {
	r      *Registry
	events []Event
}

func (s *RegistryTestSuite) SetUpTest(c *check.C) {
	s.events = nil
	s.r = New(memory.NewInMemoryStore(), nil)
	s.r.Subscribe(ObserverFunc(func(ev Event) {
		s.events = append(s.events, ev)
	}))
}

func usageEdge(target graph.ID, src graph.Source, method, field string) graph.Edge {
	return graph.Edge{
		Target: graph.EntityRef{Type: "media", ID: target},
		Source: src,
		Method: method,
		Field:  field,
	}
}

func (s *RegistryTestSuite) TestUpsertAndDeleteNotify(c *check.C) {
	ctx := context.TODO()
	src := graph.Source{Type: "article", ID: "1", Language: "en"}
	e := usageEdge("5", src, "entity_reference", "field_media")

	c.Assert(s.r.Upsert(ctx, e, 5), check.IsNil)
	c.Assert(s.r.Upsert(ctx, e, 5), check.IsNil)

	got, err := s.r.ListTargets(ctx, src.Entity(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Count, check.Equals, 5)

	c.Assert(s.r.Upsert(ctx, e, 0), check.IsNil)

	got, err = s.r.ListTargets(ctx, src.Entity(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 0)

	c.Assert(s.events, check.HasLen, 3)
	c.Assert(s.events[0].Kind, check.Equals, EventUpsert)
	c.Assert(s.events[0].Edge.Count, check.Equals, 5)
	c.Assert(s.events[2].Kind, check.Equals, EventDelete)
	c.Assert(s.events[2].Edge.Target, check.Equals, e.Target)
	c.Assert(s.events[2].Edge.Count, check.Equals, 0)
}

func (s *RegistryTestSuite) TestRemovingAnAbsentEdgeIsSilent(c *check.C) {
	ctx := context.TODO()
	src := graph.Source{Type: "article", ID: "1", Language: "en"}

	c.Assert(s.r.Upsert(ctx, usageEdge("5", src, "entity_reference", "field_media"), 0), check.IsNil)
	c.Assert(s.r.Upsert(ctx, usageEdge("6", src, "entity_reference", "field_media"), -3), check.IsNil)
	c.Assert(s.events, check.HasLen, 0)

	// Only the removal of a recorded edge is reported.
	e := usageEdge("7", src, "entity_reference", "field_media")
	c.Assert(s.r.Upsert(ctx, e, 1), check.IsNil)
	c.Assert(s.r.Upsert(ctx, e, 0), check.IsNil)
	c.Assert(s.r.Upsert(ctx, e, 0), check.IsNil)

	c.Assert(s.events, check.HasLen, 2)
	c.Assert(s.events[0].Kind, check.Equals, EventUpsert)
	c.Assert(s.events[1].Kind, check.Equals, EventDelete)
}

func (s *RegistryTestSuite) TestUpsertRejectsIncompleteEdges(c *check.C) {
	err := s.r.Upsert(context.TODO(), graph.Edge{Target: graph.EntityRef{Type: "media", ID: "1"}}, 1)

	c.Assert(errors.Is(err, graph.ErrInvalidEdge), check.Equals, true)
	c.Assert(s.events, check.HasLen, 0)
}

func (s *RegistryTestSuite) TestPanickingObserverDoesNotFailWrite(c *check.C) {
	s.r.Subscribe(ObserverFunc(func(Event) { panic("boom") }))

	var lateCalls int
	s.r.Subscribe(ObserverFunc(func(Event) { lateCalls++ }))

	src := graph.Source{Type: "article", ID: "1", Language: "en"}
	c.Assert(s.r.Upsert(context.TODO(), usageEdge("5", src, "m", "f"), 1), check.IsNil)

	c.Assert(s.events, check.HasLen, 1)
	c.Assert(lateCalls, check.Equals, 1)
}

func (s *RegistryTestSuite) TestBulkDeletesNotify(c *check.C) {
	ctx := context.TODO()
	target := graph.EntityRef{Type: "media", ID: "5"}
	source := graph.EntityRef{Type: "article", ID: "1"}

	c.Assert(s.r.DeleteByTarget(ctx, target), check.IsNil)
	c.Assert(s.r.DeleteBySource(ctx, source, graph.ForLanguage("fr")), check.IsNil)
	c.Assert(s.r.DeleteBySourceType(ctx, "article"), check.IsNil)
	c.Assert(s.r.DeleteByTargetType(ctx, "media"), check.IsNil)
	c.Assert(s.r.DeleteByField(ctx, "article", "body"), check.IsNil)

	var kinds []EventKind
	for _, ev := range s.events {
		kinds = append(kinds, ev.Kind)
	}

	c.Assert(kinds, check.DeepEquals, []EventKind{
		EventDeleteByTarget,
		EventDeleteBySource,
		EventDeleteBySourceType,
		EventDeleteByTargetType,
		EventDeleteByField,
	})
	c.Assert(s.events[0].Edge.Target, check.Equals, target)
	c.Assert(*s.events[1].Filter.Language, check.Equals, "fr")
	c.Assert(s.events[4].Edge.Field, check.Equals, "body")
	c.Assert(EventDeleteByField.String(), check.Equals, "delete_by_field")
}

func (s *RegistryTestSuite) TestAggregateUsageSumsRevisions(c *check.C) {
	ctx := context.TODO()
	target := graph.EntityRef{Type: "media", ID: "5"}

	c.Assert(s.r.Upsert(ctx, usageEdge("5", graph.Source{Type: "article", ID: "1", Language: "en", Revision: 1}, "entity_reference", "field_media"), 2), check.IsNil)
	c.Assert(s.r.Upsert(ctx, usageEdge("5", graph.Source{Type: "article", ID: "1", Language: "en", Revision: 2}, "entity_reference", "field_media"), 3), check.IsNil)
	c.Assert(s.r.Upsert(ctx, usageEdge("5", graph.Source{Type: "article", ID: "1", Language: "fr", Revision: 2}, "embed", "body"), 1), check.IsNil)
	c.Assert(s.r.Upsert(ctx, usageEdge("5", graph.Source{Type: "article", ID: "2", Language: "en"}, "embed", "body"), 4), check.IsNil)

	got, err := s.r.AggregateUsage(ctx, target, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, []Aggregate{
		{Entity: graph.EntityRef{Type: "article", ID: "2"}, Count: 4},
		{Entity: graph.EntityRef{Type: "article", ID: "1"}, Count: 6},
	})

	got, err = s.r.AggregateUsage(ctx, target, true)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, []Aggregate{
		{Method: "embed", Entity: graph.EntityRef{Type: "article", ID: "2"}, Count: 4},
		{Method: "embed", Entity: graph.EntityRef{Type: "article", ID: "1"}, Count: 1},
		{Method: "entity_reference", Entity: graph.EntityRef{Type: "article", ID: "1"}, Count: 5},
	})
}

func (s *RegistryTestSuite) TestAggregateReferencedEntities(c *check.C) {
	ctx := context.TODO()
	src1 := graph.Source{Type: "article", ID: "1", Language: "en", Revision: 1}
	src2 := graph.Source{Type: "article", ID: "1", Language: "en", Revision: 2}

	c.Assert(s.r.Upsert(ctx, usageEdge("5", src1, "entity_reference", "field_media"), 2), check.IsNil)
	c.Assert(s.r.Upsert(ctx, usageEdge("5", src2, "entity_reference", "field_media"), 3), check.IsNil)
	c.Assert(s.r.Upsert(ctx, usageEdge("6", src2, "entity_reference", "field_media"), 1), check.IsNil)

	got, err := s.r.AggregateReferencedEntities(ctx, src1.Entity())
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, []Aggregate{
		{Entity: graph.EntityRef{Type: "media", ID: "6"}, Count: 1},
		{Entity: graph.EntityRef{Type: "media", ID: "5"}, Count: 5},
	})
}
