package lifecycle

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Registry defines the subset of registry operations used by the
// coordinator.
type Registry interface {
	extractor.Registrar

	// DeleteByTarget removes every edge that points to target.
	DeleteByTarget(ctx context.Context, target graph.EntityRef) error

	// DeleteBySource removes the edges of source that match filter.
	DeleteBySource(ctx context.Context, source graph.EntityRef, filter graph.SourceFilter) error

	// DeleteByField removes the edges of field across all sources of
	// sourceType.
	DeleteByField(ctx context.Context, sourceType, field string) error
}

// VetoFunc reports whether the registration of edge must be skipped.
type VetoFunc func(ctx context.Context, edge graph.Edge) bool

// Config encapsulates the settings for configuring a Coordinator.
type Config struct {
	// The registry that persists the usage edges.
	Registry Registry

	// Every available extractor.
	Extractors extractor.List

	// Resolves object type information. When SourceTypes is empty only
	// content-like types are tracked; without a resolver every type is.
	Types entity.TypeResolver

	// Source types to track. Empty means all content-like types.
	SourceTypes []string

	// Target types to record. Empty means all types.
	TargetTypes []string

	// Ids of the extractors to run. Empty means all of them.
	EnabledExtractors []string

	// Scan base fields in addition to the configurable ones.
	IncludeBaseFields bool

	// Vetoes evaluated in order before an edge is registered.
	Vetoes []VetoFunc

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Registry == nil {
		err = multierror.Append(err, fmt.Errorf("registry not provided"))
	}

	if len(config.Extractors) == 0 {
		err = multierror.Append(err, fmt.Errorf("no extractors provided"))
	}

	for _, id := range config.EnabledExtractors {
		if _, ok := config.Extractors.Lookup(id); !ok {
			err = multierror.Append(err, fmt.Errorf("unknown extractor %q enabled", id))
		}
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
