package metric

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/rebuild"
	"github.com/mycok/entityusage/registry"
	"github.com/mycok/entityusage/usagegraph/graph"
	"github.com/mycok/entityusage/usagegraph/store/memory"
)

var _ = check.Suite(new(CollectorTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type CollectorTestSuite struct {
	col *Collector
}

func (s *CollectorTestSuite) SetUpTest(c *check.C) {
	s.col = NewCollector()
	c.Assert(s.col.Register(prometheus.NewRegistry()), check.IsNil)
}

func (s *CollectorTestSuite) TestRegistryEvents(c *check.C) {
	ctx := context.TODO()
	reg := registry.New(memory.NewInMemoryStore(), nil)
	reg.Subscribe(s.col)

	edge := graph.Edge{
		Target: graph.EntityRef{Type: "media", ID: "1"},
		Source: graph.Source{Type: "article", ID: "1", Language: "en"},
		Method: "entity_reference",
		Field:  "field_media",
	}

	c.Assert(reg.Upsert(ctx, edge, 2), check.IsNil)
	c.Assert(reg.Upsert(ctx, edge, 3), check.IsNil)
	c.Assert(reg.Upsert(ctx, edge, 0), check.IsNil)
	c.Assert(reg.DeleteBySourceType(ctx, "article"), check.IsNil)

	c.Assert(testutil.ToFloat64(s.col.events.WithLabelValues("upsert", "entity_reference")), check.Equals, 2.0)
	c.Assert(testutil.ToFloat64(s.col.events.WithLabelValues("delete", "entity_reference")), check.Equals, 1.0)
	c.Assert(testutil.ToFloat64(s.col.events.WithLabelValues("delete_by_source_type", "")), check.Equals, 1.0)
	c.Assert(testutil.CollectAndCount(s.col.edgeCount), check.Equals, 1)
}

func (s *CollectorTestSuite) TestRebuildSteps(c *check.C) {
	sb := &rebuild.Sandbox{
		Types:     []string{"article", "media"},
		Started:   true,
		Processed: 2,
		Total:     4,
		Finished:  0.5,
		Failed:    []string{"article:7"},
	}
	s.col.ObserveStep("article", sb)

	c.Assert(testutil.ToFloat64(s.col.rebuildProgress.WithLabelValues("article")), check.Equals, 0.5)
	c.Assert(testutil.ToFloat64(s.col.rebuildFailed.WithLabelValues("article")), check.Equals, 1.0)

	sb.TypeIndex, sb.Processed, sb.Done, sb.Finished = 2, 4, true, 1
	s.col.ObserveStep("media", sb)

	expected := `
		# HELP entityusage_rebuild_completed_runs_total Total number of rebuild runs completed
		# TYPE entityusage_rebuild_completed_runs_total counter
		entityusage_rebuild_completed_runs_total 1
	`
	c.Assert(testutil.CollectAndCompare(s.col.rebuildRuns, strings.NewReader(expected)), check.IsNil)
	c.Assert(testutil.ToFloat64(s.col.rebuildSteps), check.Equals, 2.0)
	c.Assert(testutil.ToFloat64(s.col.rebuildProgress.WithLabelValues("media")), check.Equals, 1.0)
}
