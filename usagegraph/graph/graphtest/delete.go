package graphtest

import (
	"context"

	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// TestDeleteByTarget verifies that every edge pointing to a target is removed.
func (s *BaseSuite) TestDeleteByTarget(c *check.C) {
	ctx := context.TODO()
	doomed := graph.EntityRef{Type: "media", ID: "1"}
	kept := graph.EntityRef{Type: "media", ID: "2"}

	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", article("1", "en", 0), "m", "f", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", article("2", "fr", 3), "m", "g", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "2", article("1", "en", 0), "m", "f", 1)), check.IsNil)
	// Same id, other type.
	c.Assert(s.s.UpsertEdge(ctx, edge("file", "1", article("1", "en", 0), "m", "f", 1)), check.IsNil)

	c.Assert(s.s.DeleteByTarget(ctx, doomed), check.IsNil)

	s.assertSourceCount(c, doomed, 0)
	s.assertSourceCount(c, kept, 1)
	s.assertSourceCount(c, graph.EntityRef{Type: "file", ID: "1"}, 1)
}

// TestDeleteBySourceFilters verifies the language and revision filters of
// DeleteBySource.
func (s *BaseSuite) TestDeleteBySourceFilters(c *check.C) {
	ctx := context.TODO()
	target := graph.EntityRef{Type: "media", ID: "1"}
	src := graph.EntityRef{Type: "article", ID: "5"}

	seed := func() {
		for _, s2 := range []graph.Source{
			article("5", "en", 1),
			article("5", "en", 2),
			article("5", "fr", 1),
			article("5", "fr", 2),
			article("6", "en", 1),
		} {
			c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", s2, "m", "f", 1)), check.IsNil)
		}
	}

	seed()
	c.Assert(s.s.DeleteBySource(ctx, src, graph.ForLanguage("fr")), check.IsNil)
	got, err := s.s.Sources(ctx, target, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 3)
	for _, e := range got {
		c.Assert(e.Source.Language == "fr" && e.Source.ID == "5", check.Equals, false)
	}

	seed()
	c.Assert(s.s.DeleteBySource(ctx, src, graph.ForRevision(2)), check.IsNil)
	got, err = s.s.Sources(ctx, target, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 3)
	for _, e := range got {
		c.Assert(e.Source.Revision == 2 && e.Source.ID == "5", check.Equals, false)
	}

	seed()
	lang, rev := "en", int64(1)
	c.Assert(s.s.DeleteBySource(ctx, src, graph.SourceFilter{Language: &lang, Revision: &rev}), check.IsNil)
	s.assertSourceCount(c, target, 4)

	c.Assert(s.s.DeleteBySource(ctx, src, graph.SourceFilter{}), check.IsNil)
	got, err = s.s.Sources(ctx, target, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Source, check.Equals, article("6", "en", 1))
}

// TestDeleteByTypeAndField verifies the bulk deletion variants.
func (s *BaseSuite) TestDeleteByTypeAndField(c *check.C) {
	ctx := context.TODO()
	block := graph.Source{Type: "block", ID: "1", Language: "en"}

	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", article("1", "en", 0), "m", "body", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", article("1", "en", 0), "m", "field_media", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", block, "m", "body", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("file", "1", block, "m", "body", 1)), check.IsNil)

	c.Assert(s.s.DeleteByField(ctx, "article", "body"), check.IsNil)
	got, err := s.s.Sources(ctx, graph.EntityRef{Type: "media", ID: "1"}, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 2)
	for _, e := range got {
		c.Assert(e.Source.Type == "article" && e.Field == "body", check.Equals, false)
	}

	c.Assert(s.s.DeleteByTargetType(ctx, "file"), check.IsNil)
	s.assertSourceCount(c, graph.EntityRef{Type: "file", ID: "1"}, 0)
	s.assertSourceCount(c, graph.EntityRef{Type: "media", ID: "1"}, 2)

	c.Assert(s.s.DeleteBySourceType(ctx, "article"), check.IsNil)
	got, err = s.s.Sources(ctx, graph.EntityRef{Type: "media", ID: "1"}, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Source, check.Equals, block)
}

func (s *BaseSuite) assertSourceCount(c *check.C, target graph.EntityRef, expected int) {
	got, err := s.s.Sources(context.TODO(), target, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, expected, check.Commentf("sources of %s", target))
}
