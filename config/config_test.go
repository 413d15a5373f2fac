package config

import (
	"strings"
	"testing"
	"time"

	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(ConfigTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type ConfigTestSuite struct{}

func (s *ConfigTestSuite) TestEmptyDocumentYieldsDefaults(c *check.C) {
	cfg, err := Load(strings.NewReader(""))
	c.Assert(err, check.IsNil)
	c.Assert(cfg, check.DeepEquals, Default())
}

func (s *ConfigTestSuite) TestLoad(c *check.C) {
	doc := `
tracking:
  source_types: [article, page]
  target_types: [media, file]
  extractors: [entity_reference, html_link]
  include_base_fields: true
  site_hosts: [example.com]
rebuild:
  types: [article]
  revision_page_size: 5
  interval: 30s
  sandbox_path: /var/lib/entityusage
store:
  uri: sqlite:///tmp/usage.db
`
	cfg, err := Load(strings.NewReader(doc))
	c.Assert(err, check.IsNil)

	c.Assert(cfg.Tracking.SourceTypes, check.DeepEquals, []string{"article", "page"})
	c.Assert(cfg.Tracking.TargetTypes, check.DeepEquals, []string{"media", "file"})
	c.Assert(cfg.Tracking.Extractors, check.DeepEquals, []string{"entity_reference", "html_link"})
	c.Assert(cfg.Tracking.IncludeBaseFields, check.Equals, true)
	c.Assert(cfg.Tracking.SiteHosts, check.DeepEquals, []string{"example.com"})
	c.Assert(cfg.Rebuild.Types, check.DeepEquals, []string{"article"})
	c.Assert(cfg.Rebuild.RevisionPageSize, check.Equals, 5)
	c.Assert(cfg.Rebuild.Interval, check.Equals, 30*time.Second)
	c.Assert(cfg.Rebuild.SandboxPath, check.Equals, "/var/lib/entityusage")
	c.Assert(cfg.Store.URI, check.Equals, "sqlite:///tmp/usage.db")

	// Untouched sections keep their defaults.
	c.Assert(cfg.Metrics.ListenAddr, check.Equals, defaultMetricsAddr)
}

func (s *ConfigTestSuite) TestUnknownKeysAreRejected(c *check.C) {
	_, err := Load(strings.NewReader("tracking:\n  source_typez: [article]\n"))
	c.Assert(err, check.ErrorMatches, "(?ms).*config: unable to decode.*source_typez.*")
}

func (s *ConfigTestSuite) TestValidation(c *check.C) {
	original := Default()

	cfg := original
	c.Assert(cfg.Validate(), check.IsNil)

	cfg = original
	cfg.Rebuild.RevisionPageSize = 0
	c.Assert(cfg.Validate(), check.ErrorMatches, "(?ms).*invalid value for rebuild.revision_page_size.*")

	cfg = original
	cfg.Rebuild.Interval = -time.Second
	c.Assert(cfg.Validate(), check.ErrorMatches, "(?ms).*invalid value for rebuild.interval.*")

	cfg = original
	cfg.Store.URI = ""
	c.Assert(cfg.Validate(), check.ErrorMatches, "(?ms).*store.uri not provided.*")

	cfg = original
	cfg.Store.URI = "es://localhost:9200"
	c.Assert(cfg.Validate(), check.ErrorMatches, `(?ms).*unsupported store.uri scheme: "es".*`)

	cfg = original
	cfg.Tracking.Extractors = []string{"link", ""}
	c.Assert(cfg.Validate(), check.ErrorMatches, `(?ms).*tracking.extractors\[1\] is empty.*`)

	cfg = original
	cfg.Rebuild.RevisionPageSize = -1
	cfg.Store.URI = "es://"
	err := cfg.Validate()
	c.Assert(err, check.ErrorMatches, "(?ms).*revision_page_size.*")
	c.Assert(err, check.ErrorMatches, "(?ms).*unsupported store.uri scheme.*")
}

func (s *ConfigTestSuite) TestLoadFileMissing(c *check.C) {
	_, err := LoadFile(c.MkDir() + "/missing.yaml")
	c.Assert(err, check.ErrorMatches, "config: .*no such file or directory")
}
