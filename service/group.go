/*
	service package runs the long-lived parts of the entityusage binary,
	such as the background rebuilder and the metrics endpoint, side by side.
*/

package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Service describes a long-running component of the engine.
type Service interface {
	// Name returns the name of the service.
	Name() string

	// Run executes the service and blocks until the context gets cancelled
	// or an error occurs.
	Run(context.Context) error
}

// Group runs a set of services in parallel.
type Group struct {
	Services []Service

	// Time the services are given to return once the group is cancelled.
	// Zero waits for as long as they take.
	ShutdownTimeout time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

type exit struct {
	index int
	err   error
}

// Execute runs every service of the group with a context derived from ctx.
// The first service to fail cancels the others. Execute returns once all of
// them have exited, or the shutdown timeout elapsed, with the accumulated
// errors of the failed services.
func (g *Group) Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(g.Services) == 0 {
		return nil
	}

	logger := g.Logger
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	executionCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	exits := make(chan exit, len(g.Services))

	for i, s := range g.Services {
		logger.WithField("service", s.Name()).Debug("launching service")

		go func(i int, s Service) {
			err := s.Run(executionCtx)
			if err != nil {
				cancelFn()
			}

			exits <- exit{index: i, err: err}
		}(i, s)
	}

	<-executionCtx.Done()

	var timeout <-chan time.Time
	if g.ShutdownTimeout > 0 {
		timer := time.NewTimer(g.ShutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var err error
	stopped := make([]bool, len(g.Services))

	for remaining := len(g.Services); remaining > 0; remaining-- {
		select {
		case ex := <-exits:
			stopped[ex.index] = true
			name := g.Services[ex.index].Name()

			if ex.err != nil {
				logger.WithFields(logrus.Fields{
					"service": name,
					"err":     ex.err,
				}).Error("service failed")
				err = multierror.Append(err, fmt.Errorf("%s: %w", name, ex.err))

				continue
			}

			logger.WithField("service", name).Debug("service stopped")
		case <-timeout:
			var pending []string
			for i, s := range g.Services {
				if !stopped[i] {
					pending = append(pending, s.Name())
				}
			}

			logger.WithField("services", pending).Warn("abandoning services that did not stop in time")

			return multierror.Append(err, fmt.Errorf(
				"services did not stop within %s: %s", g.ShutdownTimeout, strings.Join(pending, ", "),
			))
		}
	}

	return err
}
