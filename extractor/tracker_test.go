package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/entity"
	mock_extractor "github.com/mycok/entityusage/extractor/mocks"
	"github.com/mycok/entityusage/usagegraph/graph"
)

var _ = check.Suite(new(TrackerTestSuite))
var _ = check.Suite(new(ListTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// itemExtractor reports one media reference per item holding a target_id.
// A target_id of "bad" fails the extraction and "panic" panics.
type itemExtractor struct{}

func (itemExtractor) ID() string                     { return "entity_reference" }
func (itemExtractor) ApplicableFieldTypes() []string { return []string{"entity_reference"} }

func (itemExtractor) ExtractTargets(
	_ context.Context, _ entity.Entity, _ entity.FieldDefinition, value entity.Value,
) ([]graph.EntityRef, error) {

	var refs []graph.EntityRef
	for _, item := range value {
		switch item["target_id"] {
		case "bad":
			return nil, errors.New("malformed value")
		case "panic":
			panic("boom")
		}

		refs = append(refs, graph.EntityRef{Type: item["type"], ID: graph.ID(item["target_id"])})
	}

	return refs, nil
}

func media(ids ...string) entity.Value {
	var v entity.Value
	for _, id := range ids {
		v = append(v, entity.Item{"target_id": id, "type": "media"})
	}

	return v
}

func article(rev int64, values map[string]entity.Value) *entity.Record {
	return &entity.Record{
		EntityType: "article",
		EntityID:   "1",
		Lang:       "en",
		Revision:   rev,
		Definitions: []entity.FieldDefinition{
			{Name: "field_media", Type: "entity_reference"},
			{Name: "field_other", Type: "entity_reference"},
			{Name: "body", Type: "text_long"},
			{Name: "uid", Type: "entity_reference", Base: true},
		},
		Values: values,
	}
}

func edgeTo(id graph.ID, field string, rev int64) graph.Edge {
	return graph.Edge{
		Target: graph.EntityRef{Type: "media", ID: id},
		Source: graph.Source{Type: "article", ID: "1", Language: "en", Revision: rev},
		Method: "entity_reference",
		Field:  field,
	}
}

type TrackerTestSuite struct {
	registrar *mock_extractor.MockRegistrar
	tracker   *Tracker
}

func (s *TrackerTestSuite) setUp(c *check.C, config TrackerConfig) *gomock.Controller {
	ctrl := gomock.NewController(c)
	s.registrar = mock_extractor.NewMockRegistrar(ctrl)
	config.Registrar = s.registrar

	var err error
	s.tracker, err = NewTracker(itemExtractor{}, config)
	c.Assert(err, check.IsNil)

	return ctrl
}

func (s *TrackerTestSuite) TestCandidateFields(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	var names []string
	for _, f := range s.tracker.CandidateFields(article(0, nil)) {
		names = append(names, f.Name)
	}
	c.Assert(names, check.DeepEquals, []string{"field_media", "field_other"})

	withBase, err := NewTracker(itemExtractor{}, TrackerConfig{Registrar: s.registrar, IncludeBaseFields: true})
	c.Assert(err, check.IsNil)
	c.Assert(withBase.CandidateFields(article(0, nil)), check.HasLen, 3)
}

func (s *TrackerTestSuite) TestTrackOnCreationCountsOccurrences(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	ctx := context.TODO()
	e := article(3, map[string]entity.Value{
		"field_media": media("1", "2", "1"),
		"uid":         media("99"),
	})

	gomock.InOrder(
		s.registrar.EXPECT().Upsert(ctx, edgeTo("1", "field_media", 3), 2).Return(nil),
		s.registrar.EXPECT().Upsert(ctx, edgeTo("2", "field_media", 3), 1).Return(nil),
	)

	c.Assert(s.tracker.TrackOnCreation(ctx, e), check.IsNil)
}

func (s *TrackerTestSuite) TestTrackOnUpdateWritesOnlyTheDiff(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	ctx := context.TODO()
	previous := article(0, map[string]entity.Value{"field_media": media("A", "B")})
	current := article(0, map[string]entity.Value{"field_media": media("B", "C")})

	// Nothing may touch B.
	s.registrar.EXPECT().Upsert(ctx, edgeTo("C", "field_media", 0), 1).Return(nil)
	s.registrar.EXPECT().Upsert(ctx, edgeTo("A", "field_media", 0), 0).Return(nil)

	c.Assert(s.tracker.TrackOnUpdate(ctx, current, previous), check.IsNil)
}

func (s *TrackerTestSuite) TestTrackOnUpdateRewritesChangedCounts(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	ctx := context.TODO()
	previous := article(0, map[string]entity.Value{
		"field_media": media("M1"),
		"field_other": media("M7"),
	})
	current := article(0, map[string]entity.Value{"field_media": media("M1", "M1")})

	s.registrar.EXPECT().Upsert(ctx, edgeTo("M1", "field_media", 0), 2).Return(nil)
	s.registrar.EXPECT().Upsert(ctx, edgeTo("M7", "field_other", 0), 0).Return(nil)

	c.Assert(s.tracker.TrackOnUpdate(ctx, current, previous), check.IsNil)
}

func (s *TrackerTestSuite) TestNewRevisionIsTrackedAsCreation(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	ctx := context.TODO()
	previous := article(1, map[string]entity.Value{"field_media": media("A", "B")})
	current := article(2, map[string]entity.Value{"field_media": media("B")})

	s.registrar.EXPECT().Upsert(ctx, edgeTo("B", "field_media", 2), 1).Return(nil)

	c.Assert(s.tracker.TrackOnUpdate(ctx, current, previous), check.IsNil)

	// A missing previous state behaves the same way.
	s.registrar.EXPECT().Upsert(ctx, edgeTo("B", "field_media", 2), 1).Return(nil)
	c.Assert(s.tracker.TrackOnUpdate(ctx, current, nil), check.IsNil)
}

func (s *TrackerTestSuite) TestTargetTypeAllowList(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{TargetTypes: []string{"file"}})
	defer ctrl.Finish()

	e := article(0, map[string]entity.Value{
		"field_media": append(media("1"), entity.Item{"target_id": "2", "type": "file"}),
	})

	s.registrar.EXPECT().Upsert(gomock.Any(), graph.Edge{
		Target: graph.EntityRef{Type: "file", ID: "2"},
		Source: graph.Source{Type: "article", ID: "1", Language: "en"},
		Method: "entity_reference",
		Field:  "field_media",
	}, 1).Return(nil)

	c.Assert(s.tracker.TrackOnCreation(context.TODO(), e), check.IsNil)
}

func (s *TrackerTestSuite) TestExtractionFailuresSkipTheField(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	ctx := context.TODO()
	e := article(0, map[string]entity.Value{
		"field_media": media("bad"),
		"field_other": media("7"),
	})

	s.registrar.EXPECT().Upsert(ctx, edgeTo("7", "field_other", 0), 1).Return(nil)
	c.Assert(s.tracker.TrackOnCreation(ctx, e), check.IsNil)

	e.Values["field_media"] = media("panic")
	s.registrar.EXPECT().Upsert(ctx, edgeTo("7", "field_other", 0), 1).Return(nil)
	c.Assert(s.tracker.TrackOnCreation(ctx, e), check.IsNil)
}

func (s *TrackerTestSuite) TestWriteErrorsAreCollected(c *check.C) {
	ctrl := s.setUp(c, TrackerConfig{})
	defer ctrl.Finish()

	ctx := context.TODO()
	e := article(0, map[string]entity.Value{"field_media": media("1", "2")})

	s.registrar.EXPECT().Upsert(ctx, edgeTo("1", "field_media", 0), 1).Return(errors.New("store down"))
	s.registrar.EXPECT().Upsert(ctx, edgeTo("2", "field_media", 0), 1).Return(nil)

	err := s.tracker.TrackOnCreation(ctx, e)
	c.Assert(err, check.ErrorMatches, "(?ms).*article:1 -> media:1: store down.*")
}

func (s *TrackerTestSuite) TestConfigValidation(c *check.C) {
	_, err := NewTracker(itemExtractor{}, TrackerConfig{})
	c.Assert(err, check.ErrorMatches, "(?ms).*registrar not provided.*")

	_, err = NewTracker(nil, TrackerConfig{})
	c.Assert(err, check.ErrorMatches, ".*extractor not provided")
}

type ListTestSuite struct{}

func (s *ListTestSuite) TestEnabledAndLookup(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	embed := mock_extractor.NewMockExtractor(ctrl)
	embed.EXPECT().ID().Return("embed").AnyTimes()

	list, err := NewList(itemExtractor{}, embed)
	c.Assert(err, check.IsNil)
	c.Assert(list.IDs(), check.DeepEquals, []string{"entity_reference", "embed"})

	c.Assert(list.Enabled(nil), check.HasLen, 2)
	c.Assert(list.Enabled([]string{"embed", "unknown"}).IDs(), check.DeepEquals, []string{"embed"})

	got, ok := list.Lookup("embed")
	c.Assert(ok, check.Equals, true)
	c.Assert(got, check.Equals, embed)

	_, ok = list.Lookup("link")
	c.Assert(ok, check.Equals, false)
}

func (s *ListTestSuite) TestDuplicateIDs(c *check.C) {
	_, err := NewList(itemExtractor{}, itemExtractor{})
	c.Assert(err, check.ErrorMatches, `(?ms).*"entity_reference" registered more than once.*`)
}
