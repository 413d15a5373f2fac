/*
	config package loads the settings of the entityusage binary from YAML
	documents. Unset values fall back to the defaults returned by Default.
*/

package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	defaultRevisionPageSize = 15
	defaultRebuildInterval  = 10 * time.Minute
	defaultStoreURI         = "in-memory://"
	defaultMetricsAddr      = ":9090"
)

var supportedStoreSchemes = map[string]bool{
	"in-memory":  true,
	"postgresql": true,
	"sqlite":     true,
}

// Config holds the settings of every component of the engine.
type Config struct {
	Tracking Tracking `yaml:"tracking"`
	Rebuild  Rebuild  `yaml:"rebuild"`
	Store    Store    `yaml:"store"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Tracking configures which objects and extractors take part in tracking.
type Tracking struct {
	// Source types whose references are tracked. Empty means every
	// content-like type.
	SourceTypes []string `yaml:"source_types"`

	// Target types that may be recorded. Empty means any type.
	TargetTypes []string `yaml:"target_types"`

	// Identifiers of the enabled extractors. Empty enables all of them.
	Extractors []string `yaml:"extractors"`

	// Whether base fields are scanned in addition to configurable ones.
	IncludeBaseFields bool `yaml:"include_base_fields"`

	// Hosts under which absolute links are considered internal.
	SiteHosts []string `yaml:"site_hosts"`
}

// Rebuild configures the background rebuild service.
type Rebuild struct {
	// Types to rebuild, in order. An empty list disables the service.
	Types []string `yaml:"types"`

	RevisionPageSize int           `yaml:"revision_page_size"`
	Interval         time.Duration `yaml:"interval"`

	// Directory of the persistent sandbox store. When empty sandboxes are
	// kept in memory.
	SandboxPath string `yaml:"sandbox_path"`
}

// Store selects the backend of the usage index.
type Store struct {
	URI string `yaml:"uri"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// An empty address disables the endpoint.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns a configuration populated with default values.
func Default() Config {
	return Config{
		Rebuild: Rebuild{
			RevisionPageSize: defaultRevisionPageSize,
			Interval:         defaultRebuildInterval,
		},
		Store:   Store{URI: defaultStoreURI},
		Metrics: Metrics{ListenAddr: defaultMetricsAddr},
	}
}

// Load decodes a YAML document on top of the defaults and validates the
// result.
func Load(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: unable to decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFile is a convenience wrapper around Load.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Validate reports every invalid setting.
func (cfg *Config) Validate() error {
	var err error

	if cfg.Rebuild.RevisionPageSize <= 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for rebuild.revision_page_size, must be > 0"))
	}

	if cfg.Rebuild.Interval <= 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for rebuild.interval, must be > 0"))
	}

	if cfg.Store.URI == "" {
		err = multierror.Append(err, fmt.Errorf("store.uri not provided"))
	} else if u, parseErr := url.Parse(cfg.Store.URI); parseErr != nil {
		err = multierror.Append(err, fmt.Errorf("unable to parse store.uri: %w", parseErr))
	} else if !supportedStoreSchemes[u.Scheme] {
		err = multierror.Append(err, fmt.Errorf("unsupported store.uri scheme: %q", u.Scheme))
	}

	for i, ext := range cfg.Tracking.Extractors {
		if ext == "" {
			err = multierror.Append(err, fmt.Errorf("tracking.extractors[%d] is empty", i))
		}
	}

	if err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}

	return nil
}
