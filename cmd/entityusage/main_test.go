package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	check "gopkg.in/check.v1"
	"gopkg.in/yaml.v3"

	memgraph "github.com/mycok/entityusage/usagegraph/store/memory"
	"github.com/mycok/entityusage/usagegraph/store/sqlite"
)

var _ = check.Suite(new(CommandTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

const fixtures = `
types:
  - name: article
    content: true
    fields:
      - {name: field_media, type: entity_reference, settings: {target_type: media}}
      - {name: body, type: text_long}
  - name: media
    content: true
entities:
  - type: article
    id: "1"
    language: en
    values:
      field_media: [{target_id: "1"}, {target_id: "1"}]
      body: [{value: '<p>See <a href="/media/2">the clip</a>.</p>'}]
  - type: article
    id: "2"
    language: en
    values:
      field_media: [{target_id: "1"}]
  - type: media
    id: "1"
    language: en
  - type: media
    id: "2"
    language: en
`

type CommandTestSuite struct {
	dir          string
	fixturesPath string
}

func (s *CommandTestSuite) SetUpTest(c *check.C) {
	s.dir = c.MkDir()
	s.fixturesPath = filepath.Join(s.dir, "fixtures.yaml")
	c.Assert(os.WriteFile(s.fixturesPath, []byte(fixtures), 0644), check.IsNil)
}

func (s *CommandTestSuite) run(c *check.C, args ...string) (string, error) {
	rootLogger := logrus.New()
	rootLogger.SetOutput(io.Discard)
	logger := logrus.NewEntry(rootLogger)

	var out bytes.Buffer
	cmd := newRootCmd(logger)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--fixtures", s.fixturesPath))

	err := cmd.Execute()

	return out.String(), err
}

func (s *CommandTestSuite) TestUsage(c *check.C) {
	out, err := s.run(c, "usage", "media", "1")
	c.Assert(err, check.IsNil)
	c.Assert(out, check.Matches, `(?ms)ENTITY\s+COUNT\n.*`)
	c.Assert(out, check.Matches, `(?ms).*article:1\s+2\n.*`)
	c.Assert(out, check.Matches, `(?ms).*article:2\s+1\n.*`)
}

func (s *CommandTestSuite) TestUsageByMethod(c *check.C) {
	out, err := s.run(c, "usage", "media", "2", "--by-method")
	c.Assert(err, check.IsNil)
	c.Assert(out, check.Matches, `(?ms).*html_link\s+article:1\s+1\n.*`)
}

func (s *CommandTestSuite) TestReferences(c *check.C) {
	out, err := s.run(c, "references", "article", "1")
	c.Assert(err, check.IsNil)
	c.Assert(out, check.Matches, `(?ms).*media:1\s+2\n.*`)
	c.Assert(out, check.Matches, `(?ms).*media:2\s+1\n.*`)
}

func (s *CommandTestSuite) TestTargetsAsYAML(c *check.C) {
	out, err := s.run(c, "targets", "article", "1", "-o", "yaml")
	c.Assert(err, check.IsNil)

	var rows []edgeRow
	c.Assert(yaml.Unmarshal([]byte(out), &rows), check.IsNil)
	c.Assert(rows, check.HasLen, 2)

	byTarget := make(map[string]edgeRow)
	for _, r := range rows {
		byTarget[r.Target] = r
	}

	c.Assert(byTarget["media:1"].Method, check.Equals, "entity_reference")
	c.Assert(byTarget["media:1"].Field, check.Equals, "field_media")
	c.Assert(byTarget["media:1"].Count, check.Equals, 2)
	c.Assert(byTarget["media:2"].Method, check.Equals, "html_link")
	c.Assert(byTarget["media:2"].Field, check.Equals, "body")
	c.Assert(byTarget["media:2"].Source, check.Equals, "article:1")
}

func (s *CommandTestSuite) TestSources(c *check.C) {
	out, err := s.run(c, "sources", "media", "1")
	c.Assert(err, check.IsNil)
	c.Assert(strings.Count(out, "media:1"), check.Equals, 2)
}

func (s *CommandTestSuite) TestQueryRequiresTypeAndID(c *check.C) {
	_, err := s.run(c, "usage", "media")
	c.Assert(err, check.ErrorMatches, ".*accepts 2 arg\\(s\\), received 1.*")
}

func (s *CommandTestSuite) TestUnsupportedOutputFormat(c *check.C) {
	_, err := s.run(c, "usage", "media", "1", "-o", "json")
	c.Assert(err, check.ErrorMatches, `unsupported output format: "json"`)
}

func (s *CommandTestSuite) TestUnsupportedStore(c *check.C) {
	_, err := s.run(c, "usage", "media", "1", "--store", "es://localhost")
	c.Assert(err, check.ErrorMatches, `(?ms).*unsupported store.uri scheme: "es".*`)
}

func (s *CommandTestSuite) TestRebuildPersistsToSQLite(c *check.C) {
	storeURI := "sqlite://" + filepath.Join(s.dir, "usage.db")

	out, err := s.run(c, "rebuild", "article", "--store", storeURI)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.Matches, `(?ms).*rebuilt 2 objects, 0 failed\n.*`)

	// A later invocation reads the index written by the rebuild.
	out, err = s.run(c, "usage", "media", "1", "--store", storeURI)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.Matches, `(?ms).*article:1\s+2\n.*`)
}

func (s *CommandTestSuite) TestRebuildWithPersistentSandbox(c *check.C) {
	configPath := filepath.Join(s.dir, "config.yaml")
	config := "rebuild:\n  sandbox_path: " + filepath.Join(s.dir, "sandboxes") + "\n"
	c.Assert(os.WriteFile(configPath, []byte(config), 0644), check.IsNil)

	out, err := s.run(c, "rebuild", "--config", configPath)
	c.Assert(err, check.IsNil)
	c.Assert(out, check.Matches, `(?ms).*rebuilt 4 objects, 0 failed\n.*`)
}

func (s *CommandTestSuite) TestGetUsageStore(c *check.C) {
	logger := logrus.NewEntry(&logrus.Logger{Out: io.Discard})

	store, err := getUsageStore("in-memory://", logger)
	c.Assert(err, check.IsNil)
	c.Assert(store, check.FitsTypeOf, &memgraph.InMemoryStore{})

	store, err = getUsageStore("sqlite://"+filepath.Join(s.dir, "db", "usage.db"), logger)
	c.Assert(err, check.IsNil)
	c.Assert(store, check.FitsTypeOf, &sqlite.Store{})
	c.Assert(store.Close(), check.IsNil)

	_, err = getUsageStore("sqlite://", logger)
	c.Assert(err, check.ErrorMatches, ".*must include a database path")

	_, err = getUsageStore("", logger)
	c.Assert(err, check.ErrorMatches, "usage store URI must be specified with --store")

	_, err = getUsageStore("bolt://x", logger)
	c.Assert(err, check.ErrorMatches, `unsupported usage store URI scheme: "bolt"`)
}
