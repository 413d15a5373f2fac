package rebuilder

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/rebuild"
)

// Service periodically rebuilds the usage index of the configured types.
// It satisfies the service.Service interface.
type Service struct {
	config Config
}

// New creates and returns a fully configured rebuild service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("rebuilder service: config validation failed: %w", err)
	}

	return &Service{config: config}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "rebuilder" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"update_interval", svc.config.Interval.String(),
	).Info("starting service")
	defer svc.config.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-svc.config.Clock.After(svc.config.Interval):
			if err := svc.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce resumes the persisted run, or starts a new one, and steps it until
// it is done or ctx is cancelled. A failed step ends the pass and is retried
// by the next one; only sandbox persistence failures are returned.
func (svc *Service) RunOnce(ctx context.Context) error {
	sb, err := svc.config.Sandboxes.Load(ctx, svc.config.SandboxKey)
	switch {
	case errors.Is(err, rebuild.ErrSandboxNotFound):
		sb = svc.config.Rebuilder.Start(svc.config.Types)
		svc.config.Logger.WithFields(logrus.Fields{
			"run_id": sb.RunID.String(),
			"types":  sb.Types,
		}).Info("starting new rebuild run")
	case err != nil:
		return fmt.Errorf("rebuilder: unable to load sandbox: %w", err)
	default:
		svc.config.Logger.WithFields(logrus.Fields{
			"run_id":   sb.RunID.String(),
			"type":     sb.CurrentType(),
			"progress": sb.Progress(),
		}).Info("resuming rebuild run")
	}

	startedAt := svc.config.Clock.Now()
	var steps int

	for !sb.Done {
		if ctx.Err() != nil {
			return nil
		}

		entityType := sb.CurrentType()
		if err := svc.config.Rebuilder.Step(ctx, sb); err != nil {
			svc.config.Logger.WithFields(logrus.Fields{
				"run_id": sb.RunID.String(),
				"type":   entityType,
				"err":    err,
			}).Warn("deferring rebuild run: step failed")

			return nil
		}
		steps++

		if svc.config.Observer != nil {
			svc.config.Observer.ObserveStep(entityType, sb)
		}

		if sb.Done {
			break
		}

		if err := svc.config.Sandboxes.Save(ctx, svc.config.SandboxKey, sb); err != nil {
			return fmt.Errorf("rebuilder: unable to save sandbox: %w", err)
		}
	}

	if err := svc.config.Sandboxes.Delete(ctx, svc.config.SandboxKey); err != nil {
		return fmt.Errorf("rebuilder: unable to delete sandbox: %w", err)
	}

	svc.config.Logger.WithFields(logrus.Fields{
		"run_id":         sb.RunID.String(),
		"steps":          steps,
		"failed_objects": len(sb.Failed),
		"elapsed_time":   svc.config.Clock.Now().Sub(startedAt).String(),
	}).Info("completed rebuild run")

	return nil
}
