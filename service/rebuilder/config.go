package rebuilder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/rebuild"
)

const defaultSandboxKey = "rebuild"

// Rebuilder defines the rebuild operations driven by the service.
type Rebuilder interface {
	// Start returns the sandbox of a new run over types.
	Start(types []string) *rebuild.Sandbox

	// Step advances sb by a single unit of work.
	Step(ctx context.Context, sb *rebuild.Sandbox) error
}

// StepObserver is notified after every successful rebuild step.
type StepObserver interface {
	ObserveStep(entityType string, sb *rebuild.Sandbox)
}

// Config defines configurations for the rebuild service.
type Config struct {
	// The rebuilder that executes the steps of a run.
	Rebuilder Rebuilder

	// Store that persists the sandbox of an unfinished run so it can be
	// resumed by the next pass or after a restart.
	Sandboxes rebuild.SandboxStore

	// Key of the sandbox in Sandboxes. Defaults to "rebuild".
	SandboxKey string

	// Types to rebuild, in order.
	Types []string

	// An optional observer of rebuild progress.
	Observer StepObserver

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The duration between subsequent rebuild passes.
	Interval time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Rebuilder == nil {
		err = multierror.Append(err, fmt.Errorf("rebuilder not provided"))
	}

	if config.Sandboxes == nil {
		err = multierror.Append(err, fmt.Errorf("sandbox store not provided"))
	}

	if len(config.Types) == 0 {
		err = multierror.Append(err, fmt.Errorf("no types to rebuild provided"))
	}

	if config.SandboxKey == "" {
		config.SandboxKey = defaultSandboxKey
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Interval <= 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for rebuild interval"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
