package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/config"
	"github.com/mycok/entityusage/entity/memory"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/extractor/dynamicreference"
	"github.com/mycok/entityusage/extractor/embed"
	"github.com/mycok/entityusage/extractor/htmllink"
	"github.com/mycok/entityusage/extractor/link"
	"github.com/mycok/entityusage/extractor/reference"
	"github.com/mycok/entityusage/lifecycle"
	"github.com/mycok/entityusage/metric"
	"github.com/mycok/entityusage/rebuild"
	"github.com/mycok/entityusage/rebuild/store/kvstore"
	memsandbox "github.com/mycok/entityusage/rebuild/store/memory"
	"github.com/mycok/entityusage/registry"
	"github.com/mycok/entityusage/usagegraph/graph"
	"github.com/mycok/entityusage/usagegraph/store/cdb"
	memgraph "github.com/mycok/entityusage/usagegraph/store/memory"
	"github.com/mycok/entityusage/usagegraph/store/sqlite"
)

// app holds the components shared by every command.
type app struct {
	cfg    config.Config
	logger *logrus.Entry

	repo        *memory.Repository
	registry    *registry.Registry
	coordinator *lifecycle.Coordinator
	rebuilder   *rebuild.Rebuilder
	sandboxes   rebuild.SandboxStore

	collector *metric.Collector
	metrics   *prometheus.Registry

	// Set when the usage index does not outlive the process.
	volatile bool

	closers []io.Closer
}

func newApp(cfg config.Config, fixturesPath string, logger *logrus.Entry) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.setup(fixturesPath); err != nil {
		_ = a.Close()

		return nil, err
	}

	return a, nil
}

func (a *app) setup(fixturesPath string) error {
	var err error

	if fixturesPath != "" {
		if a.repo, err = memory.LoadFixturesFile(fixturesPath); err != nil {
			return err
		}
		a.logger.WithField("path", fixturesPath).Info("loaded object fixtures")
	} else {
		a.repo = memory.NewRepository()
	}

	store, err := getUsageStore(a.cfg.Store.URI, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store)
	a.volatile = strings.HasPrefix(a.cfg.Store.URI, "in-memory:")

	a.collector = metric.NewCollector()
	a.metrics = prometheus.NewRegistry()
	if err = a.collector.Register(a.metrics); err != nil {
		return err
	}

	a.registry = registry.New(store, a.logger.WithField("component", "registry"))
	a.registry.Subscribe(a.collector)

	extractors, err := extractor.NewList(
		reference.New(),
		dynamicreference.New(),
		link.New(a.repo),
		htmllink.New(htmllink.Config{SiteHosts: a.cfg.Tracking.SiteHosts, Types: a.repo}),
		embed.New(),
	)
	if err != nil {
		return err
	}

	a.coordinator, err = lifecycle.New(lifecycle.Config{
		Registry:          a.registry,
		Extractors:        extractors,
		Types:             a.repo,
		SourceTypes:       a.cfg.Tracking.SourceTypes,
		TargetTypes:       a.cfg.Tracking.TargetTypes,
		EnabledExtractors: a.cfg.Tracking.Extractors,
		IncludeBaseFields: a.cfg.Tracking.IncludeBaseFields,
		Logger:            a.logger.WithField("component", "lifecycle"),
	})
	if err != nil {
		return err
	}

	a.rebuilder, err = rebuild.New(rebuild.Config{
		Storage:  a.repo,
		Registry: a.registry,
		Tracker:  a.coordinator,
		PageSize: a.cfg.Rebuild.RevisionPageSize,
		Logger:   a.logger.WithField("component", "rebuild"),
	})
	if err != nil {
		return err
	}

	if a.sandboxes, err = getSandboxStore(a.cfg.Rebuild.SandboxPath, a.logger); err != nil {
		return err
	}
	if c, ok := a.sandboxes.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	return nil
}

// rebuildTypes returns types, falling back to the configured rebuild types
// and then to every type known to the repository.
func (a *app) rebuildTypes(types []string) []string {
	if len(types) != 0 {
		return types
	}

	if len(a.cfg.Rebuild.Types) != 0 {
		return a.cfg.Rebuild.Types
	}

	return a.repo.Types()
}

// seed populates a volatile usage index from the loaded objects so that
// queries against it have something to report.
func (a *app) seed(ctx context.Context) error {
	if !a.volatile {
		return nil
	}

	sb := a.rebuilder.Start(a.repo.Types())
	for !sb.Done {
		entityType := sb.CurrentType()
		if err := a.rebuilder.Step(ctx, sb); err != nil {
			return fmt.Errorf("seed usage index: %w", err)
		}
		a.collector.ObserveStep(entityType, sb)
	}

	a.logger.WithFields(logrus.Fields{
		"objects": len(sb.Results),
		"failed":  len(sb.Failed),
	}).Debug("seeded in-memory usage index")

	return nil
}

// Close releases every store opened by the app.
func (a *app) Close() error {
	var err error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if cErr := a.closers[i].Close(); cErr != nil {
			err = multierror.Append(err, cErr)
		}
	}
	a.closers = nil

	return err
}

func getUsageStore(storeURI string, logger *logrus.Entry) (graph.Store, error) {
	if storeURI == "" {
		return nil, fmt.Errorf("usage store URI must be specified with --store")
	}

	u, err := url.Parse(storeURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse usage store URI: %w", err)
	}

	switch u.Scheme {
	case "in-memory":
		logger.Info("using in-memory usage store")

		return memgraph.NewInMemoryStore(), nil
	case "postgresql":
		logger.Info("using CDB usage store")

		return cdb.NewCockroachDBStore(storeURI)
	case "sqlite":
		path := filepath.Join(u.Host, u.Path)
		if path == "" || path == "." {
			return nil, fmt.Errorf("sqlite usage store URI must include a database path")
		}
		logger.WithField("path", path).Info("using SQLite usage store")

		return sqlite.NewStore(path)
	default:
		return nil, fmt.Errorf("unsupported usage store URI scheme: %q", u.Scheme)
	}
}

func getSandboxStore(path string, logger *logrus.Entry) (rebuild.SandboxStore, error) {
	if path == "" {
		logger.Debug("using in-memory rebuild sandbox store")

		return memsandbox.NewSandboxStore(), nil
	}

	logger.WithField("path", path).Info("using pebble rebuild sandbox store")

	return kvstore.Open(path, nil)
}
