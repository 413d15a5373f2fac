package graphtest

import (
	"context"
	"errors"
	"sync"
	"time"

	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// BaseSuite defines a set of re-usable usage store tests that can be
// executed against any concrete type that implements the graph.Store interface.
type BaseSuite struct {
	s graph.Store
}

// SetStore configures the test-suite to run all tests against an instance
// of graph.Store.
func (s *BaseSuite) SetStore(store graph.Store) {
	s.s = store
}

func edge(targetType string, targetID graph.ID, src graph.Source, method, field string, count int) *graph.Edge {
	return &graph.Edge{
		Target: graph.EntityRef{Type: targetType, ID: targetID},
		Source: src,
		Method: method,
		Field:  field,
		Count:  count,
	}
}

func article(id graph.ID, lang string, rev int64) graph.Source {
	return graph.Source{Type: "article", ID: id, Language: lang, Revision: rev}
}

// TestUpsertIdempotence verifies that repeated upserts of the same key keep
// a single row with the latest count.
func (s *BaseSuite) TestUpsertIdempotence(c *check.C) {
	ctx := context.TODO()
	media := graph.EntityRef{Type: "media", ID: "1"}

	for i := 0; i < 2; i++ {
		e := edge("media", "1", article("10", "en", 0), "entity_reference", "field_media", 5)
		c.Assert(s.s.UpsertEdge(ctx, e), check.IsNil)
	}

	got, err := s.s.Sources(ctx, media, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Count, check.Equals, 5)

	// Replacing the count must not add a row.
	e := edge("media", "1", article("10", "en", 0), "entity_reference", "field_media", 2)
	c.Assert(s.s.UpsertEdge(ctx, e), check.IsNil)

	got, err = s.s.Sources(ctx, media, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Count, check.Equals, 2)
	c.Assert(*got[0], check.DeepEquals, *e)
}

// TestUpsertNonPositiveCountDeletes verifies that a count <= 0 removes the edge.
func (s *BaseSuite) TestUpsertNonPositiveCountDeletes(c *check.C) {
	ctx := context.TODO()
	src := article("10", "en", 0)

	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", src, "entity_reference", "field_media", 5)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "2", src, "entity_reference", "field_media", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", src, "entity_reference", "field_media", 0)), check.IsNil)

	got, err := s.s.Targets(ctx, src.Entity(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Target.ID, check.Equals, graph.ID("2"))

	// Deleting a missing edge changes nothing and reports ErrNotFound.
	err = s.s.UpsertEdge(ctx, edge("media", "3", src, "entity_reference", "field_media", -1))
	c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)

	got, err = s.s.Targets(ctx, src.Entity(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
}

// TestNumericStringBoundary ensures that ids on both sides of the numeric
// id rule are stored and queried independently.
func (s *BaseSuite) TestNumericStringBoundary(c *check.C) {
	ctx := context.TODO()
	numeric := graph.EntityRef{Type: "media", ID: "9999999999"}
	str := graph.EntityRef{Type: "media", ID: "99999999999"}
	padded := graph.EntityRef{Type: "media", ID: "0009999999"}

	c.Assert(s.s.UpsertEdge(ctx, edge("media", numeric.ID, article("1", "en", 0), "m", "f", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", str.ID, article("2", "en", 0), "m", "f", 2)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", padded.ID, article("3", "en", 0), "m", "f", 3)), check.IsNil)

	for _, spec := range []struct {
		target graph.EntityRef
		source graph.ID
		count  int
	}{
		{numeric, "1", 1},
		{str, "2", 2},
		{padded, "3", 3},
	} {
		got, err := s.s.Sources(ctx, spec.target, false)
		c.Assert(err, check.IsNil)
		c.Assert(got, check.HasLen, 1, check.Commentf("target %s", spec.target))
		c.Assert(got[0].Target, check.Equals, spec.target)
		c.Assert(got[0].Source.ID, check.Equals, spec.source)
		c.Assert(got[0].Count, check.Equals, spec.count)
	}

	// Large ids work as sources too.
	bigSrc := article("123456789012345", "en", 0)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", bigSrc, "m", "f", 1)), check.IsNil)

	got, err := s.s.Targets(ctx, bigSrc.Entity(), nil)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 1)
	c.Assert(got[0].Source, check.Equals, bigSrc)
}

// TestSourcesOrdering verifies the deterministic ordering of Sources.
func (s *BaseSuite) TestSourcesOrdering(c *check.C) {
	ctx := context.TODO()
	target := graph.EntityRef{Type: "media", ID: "1"}

	sources := []graph.Source{
		{Type: "block", ID: "1", Language: "en"},
		article("2", "fr", 1),
		article("2", "en", 1),
		article("2", "en", 3),
		article("10", "en", 0),
		article("abc", "en", 0),
	}
	for i := len(sources) - 1; i >= 0; i-- {
		c.Assert(s.s.UpsertEdge(ctx, edge("media", "1", sources[i], "m", "f", i+1)), check.IsNil)
	}

	got, err := s.s.Sources(ctx, target, false)
	c.Assert(err, check.IsNil)

	var order []graph.Source
	for _, e := range got {
		order = append(order, e.Source)
	}

	c.Assert(order, check.DeepEquals, []graph.Source{
		article("10", "en", 0),
		article("2", "en", 3),
		article("2", "en", 1),
		article("2", "fr", 1),
		article("abc", "en", 0),
		{Type: "block", ID: "1", Language: "en"},
	})
}

// TestTargetsOrderingAndRevisionFilter verifies the ordering of Targets and
// the optional revision pin.
func (s *BaseSuite) TestTargetsOrderingAndRevisionFilter(c *check.C) {
	ctx := context.TODO()

	c.Assert(s.s.UpsertEdge(ctx, edge("media", "3", article("1", "en", 1), "m", "f", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "12", article("1", "en", 1), "m", "f", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("file", "x", article("1", "en", 2), "m", "f", 1)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "7", article("1", "en", 2), "m", "f", 4)), check.IsNil)
	c.Assert(s.s.UpsertEdge(ctx, edge("media", "99", article("2", "en", 2), "m", "f", 4)), check.IsNil)

	got, err := s.s.Targets(ctx, graph.EntityRef{Type: "article", ID: "1"}, nil)
	c.Assert(err, check.IsNil)

	var ids []graph.ID
	for _, e := range got {
		ids = append(ids, e.Target.ID)
	}
	c.Assert(ids, check.DeepEquals, []graph.ID{"12", "7", "3", "x"})

	rev := int64(2)
	got, err = s.s.Targets(ctx, graph.EntityRef{Type: "article", ID: "1"}, &rev)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 2)
	c.Assert(got[0].Target, check.Equals, graph.EntityRef{Type: "media", ID: "7"})
	c.Assert(got[0].Count, check.Equals, 4)
	c.Assert(got[1].Target, check.Equals, graph.EntityRef{Type: "file", ID: "x"})
}

// TestConcurrentUpserts ensures that multiple clients can concurrently
// write distinct keys without causing data races or lost rows.
func (s *BaseSuite) TestConcurrentUpserts(c *check.C) {
	var (
		wg         sync.WaitGroup
		numWriters = 10
		numEdges   = 20
		target     = graph.EntityRef{Type: "media", ID: "1"}
	)

	wg.Add(numWriters)

	for i := 0; i < numWriters; i++ {
		go func(writer int) {
			defer wg.Done()

			for j := 0; j < numEdges; j++ {
				src := article(graph.IntID(int64(writer*numEdges+j)), "en", 0)
				c.Check(s.s.UpsertEdge(context.TODO(), edge("media", "1", src, "m", "f", 1)), check.IsNil)
			}
		}(i)
	}

	doneCh := make(chan struct{})

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh: // Test completed successfully
	case <-time.After(10 * time.Second):
		c.Fatal("Timed out while waiting for the writers to complete")
	}

	got, err := s.s.Sources(context.TODO(), target, false)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, numWriters*numEdges)
}
