package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

var _ = check.Suite(new(RepositoryTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type RepositoryTestSuite struct{}

const fixtures = `
types:
  - name: article
    content: true
    revisionable: true
    translatable: true
    fields:
      - name: field_media
        type: entity_reference
        settings: {target_type: media}
      - name: uid
        type: entity_reference
        base: true
        settings: {target_type: user}
  - name: media
    content: true
entities:
  - type: article
    id: "10"
    language: en
    revisions:
      - values:
          field_media: [{target_id: "1"}]
      - values:
          field_media: [{target_id: "2"}]
        translations:
          fr:
            field_media: [{target_id: "3"}]
  - type: article
    id: "9"
    language: en
  - type: media
    id: "1"
    language: en
`

func (s *RepositoryTestSuite) TestLoadFixtures(c *check.C) {
	ctx := context.TODO()

	repo, err := LoadFixtures(strings.NewReader(fixtures))
	c.Assert(err, check.IsNil)
	c.Assert(repo.Types(), check.DeepEquals, []string{"article", "media"})

	info, ok := repo.TypeInfo("article")
	c.Assert(ok, check.Equals, true)
	c.Assert(info.Revisionable, check.Equals, true)

	n, err := repo.Count(ctx, "article")
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, 2)

	e, err := repo.Load(ctx, "article", "10")
	c.Assert(err, check.IsNil)
	c.Assert(entity.RevisionOf(e), check.Equals, int64(2))
	c.Assert(e.Value("field_media"), check.DeepEquals, entity.Value{{"target_id": "2"}})
	c.Assert(e.Fields(), check.HasLen, 2)

	tr, ok := e.(entity.Translatable)
	c.Assert(ok, check.Equals, true)
	c.Assert(tr.Languages(), check.DeepEquals, []string{"en", "fr"})

	fr, ok := tr.Translation("fr")
	c.Assert(ok, check.Equals, true)
	c.Assert(fr.Language(), check.Equals, "fr")
	c.Assert(fr.Value("field_media"), check.DeepEquals, entity.Value{{"target_id": "3"}})
	c.Assert(entity.SourceOf(fr), check.Equals, graph.Source{Type: "article", ID: "10", Language: "fr", Revision: 2})

	first, err := repo.LoadRevision(ctx, "article", 1)
	c.Assert(err, check.IsNil)
	c.Assert(first.Value("field_media"), check.DeepEquals, entity.Value{{"target_id": "1"}})
}

func (s *RepositoryTestSuite) TestNextAfterWalksIDsInOrder(c *check.C) {
	ctx := context.TODO()
	repo := NewRepository()
	repo.DefineType(entity.TypeInfo{Name: "media"})

	for _, id := range []graph.ID{"10", "b", "2", "a"} {
		_, err := repo.Save(&entity.Record{EntityType: "media", EntityID: id})
		c.Assert(err, check.IsNil)
	}

	var (
		seen []graph.ID
		last graph.ID
	)

	for {
		e, err := repo.NextAfter(ctx, "media", last)
		c.Assert(err, check.IsNil)
		if e == nil {
			break
		}

		seen = append(seen, e.ID())
		last = e.ID()
	}

	c.Assert(seen, check.DeepEquals, []graph.ID{"a", "b", "2", "10"})
}

func (s *RepositoryTestSuite) TestRevisionPaging(c *check.C) {
	ctx := context.TODO()
	repo := NewRepository()
	repo.DefineType(entity.TypeInfo{Name: "article", Revisionable: true})

	var rec *entity.Record
	for i := 0; i < 5; i++ {
		var err error
		rec, err = repo.Save(&entity.Record{EntityType: "article", EntityID: "1"})
		c.Assert(err, check.IsNil)
	}
	c.Assert(rec.Revision, check.Equals, int64(5))

	page, err := repo.RevisionIDs(ctx, rec, 0, 2)
	c.Assert(err, check.IsNil)
	c.Assert(page, check.DeepEquals, []int64{5, 4})

	page, err = repo.RevisionIDs(ctx, rec, 4, 2)
	c.Assert(err, check.IsNil)
	c.Assert(page, check.DeepEquals, []int64{1})

	repo.Delete("article", "1")

	_, err = repo.Load(ctx, "article", "1")
	c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)

	_, err = repo.LoadRevision(ctx, "article", 3)
	c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)
}

func (s *RepositoryTestSuite) TestSaveRejectsUnknownTypes(c *check.C) {
	_, err := NewRepository().Save(&entity.Record{EntityType: "ghost", EntityID: "1"})
	c.Assert(err, check.ErrorMatches, `save 1: unknown type "ghost"`)
}
