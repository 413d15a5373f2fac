/*
	rebuild package regenerates the usage index of whole object types as a
	sequence of small, resumable steps. The state of a run lives in a
	Sandbox that callers may persist between steps.
*/

package rebuild

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// DefaultPageSize is the number of revisions tracked per step.
const DefaultPageSize = 15

var errRevisionsFailed = errors.New("some revisions could not be tracked")

// Registry defines the registry operations used to clear a type before it
// is rebuilt.
type Registry interface {
	DeleteBySourceType(ctx context.Context, sourceType string) error
}

// Tracker records the references of a single object.
type Tracker interface {
	OnCreate(ctx context.Context, e entity.Entity) error
}

// Config encapsulates the settings for configuring a Rebuilder.
type Config struct {
	// The storage used to walk the objects of each type.
	Storage entity.Storage

	// The registry cleared before a type is rebuilt.
	Registry Registry

	// The tracker that records the references of every object.
	Tracker Tracker

	// Number of revisions tracked per step. Defaults to DefaultPageSize.
	PageSize int

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Storage == nil {
		err = multierror.Append(err, fmt.Errorf("entity storage not provided"))
	}

	if config.Registry == nil {
		err = multierror.Append(err, fmt.Errorf("registry not provided"))
	}

	if config.Tracker == nil {
		err = multierror.Append(err, fmt.Errorf("tracker not provided"))
	}

	if config.PageSize == 0 {
		config.PageSize = DefaultPageSize
	} else if config.PageSize < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for revision page size, must be > 0"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Rebuilder runs the steps of a rebuild.
type Rebuilder struct {
	config Config
}

// New returns a fully configured Rebuilder.
func New(config Config) (*Rebuilder, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("rebuild: config validation failed: %w", err)
	}

	return &Rebuilder{config: config}, nil
}

// Start returns the sandbox of a new run over types.
func (rb *Rebuilder) Start(types []string) *Sandbox {
	sb := &Sandbox{
		RunID: uuid.New(),
		Types: append([]string(nil), types...),
	}

	if len(sb.Types) == 0 {
		sb.Done, sb.Finished = true, 1
	}

	return sb
}

// Step advances sb by a single object, or by a single page of revisions of
// the current object. Failures to track an object are logged and the object
// is skipped. Storage failures outside of an object are returned and leave
// sb untouched, so the step can be retried.
func (rb *Rebuilder) Step(ctx context.Context, sb *Sandbox) error {
	if sb.Done {
		return nil
	}

	if sb.TypeIndex >= len(sb.Types) {
		rb.finish(sb)

		return nil
	}

	entityType := sb.Types[sb.TypeIndex]
	logger := rb.config.Logger.WithFields(logrus.Fields{
		"run_id": sb.RunID.String(),
		"type":   entityType,
	})

	if !sb.Started {
		if err := rb.config.Registry.DeleteBySourceType(ctx, entityType); err != nil {
			return fmt.Errorf("rebuild %s: %w", entityType, err)
		}

		total, err := rb.config.Storage.Count(ctx, entityType)
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", entityType, err)
		}

		sb.Started = true
		sb.Total = total
		sb.Processed = 0
		sb.Finished = 0
		sb.LastProcessedID = ""
		sb.CurrentID = ""
		sb.Revision = RevisionCursor{}

		logger.WithField("total", total).Info("started usage rebuild of type")
	}

	if sb.Processed >= sb.Total && !sb.Revision.Active {
		rb.completeType(sb, logger)

		return nil
	}

	var (
		e   entity.Entity
		err error
	)

	if sb.Revision.Active {
		e, err = rb.config.Storage.Load(ctx, entityType, sb.CurrentID)
		if errors.Is(err, graph.ErrNotFound) {
			// Deleted while its revisions were being paged.
			logger.WithField("id", string(sb.CurrentID)).Warn("object vanished during rebuild")
			rb.advance(sb, entityType, sb.CurrentID, false)
			rb.updateFinished(sb, logger)

			return nil
		}
	} else {
		e, err = rb.config.Storage.NextAfter(ctx, entityType, sb.LastProcessedID)
	}

	if err != nil {
		return fmt.Errorf("rebuild %s: %w", entityType, err)
	}

	if e == nil {
		rb.completeType(sb, logger)

		return nil
	}

	if !sb.Revision.Active {
		sb.Processed++
		sb.CurrentID = e.ID()
	}

	info, _ := rb.config.Storage.TypeInfo(entityType)

	if err := rb.process(ctx, sb, e, info.Revisionable); err != nil {
		logger.WithFields(logrus.Fields{
			"id":  string(e.ID()),
			"err": err,
		}).Error("unable to rebuild usage of object; skipping")

		rb.advance(sb, entityType, e.ID(), false)
	} else if !sb.Revision.Active {
		rb.advance(sb, entityType, e.ID(), true)
	}

	rb.updateFinished(sb, logger)

	return nil
}

// process tracks e, or the next page of its revisions. A returned error or
// panic fails the whole object. Revisions that fail are logged and paging
// goes on; the object is failed once its last page has been tracked.
func (rb *Rebuilder) process(ctx context.Context, sb *Sandbox, e entity.Entity, revisionable bool) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if !revisionable {
		return rb.config.Tracker.OnCreate(ctx, e)
	}

	ids, err := rb.config.Storage.RevisionIDs(ctx, e, sb.Revision.Offset, rb.config.PageSize)
	if err != nil {
		return err
	}

	var trackErr error
	for _, id := range ids {
		rev, err := rb.config.Storage.LoadRevision(ctx, e.Type(), id)
		if err != nil {
			trackErr = multierror.Append(trackErr, err)

			continue
		}

		if err := rb.config.Tracker.OnCreate(ctx, rev); err != nil {
			trackErr = multierror.Append(trackErr, fmt.Errorf("revision %d: %w", id, err))
		}
	}

	if trackErr != nil {
		rb.config.Logger.WithFields(logrus.Fields{
			"type": e.Type(),
			"id":   string(e.ID()),
			"err":  trackErr,
		}).Warn("unable to rebuild usage of some revisions")
	}

	failed := sb.Revision.Failed || trackErr != nil

	if len(ids) == rb.config.PageSize {
		sb.Revision.Active = true
		sb.Revision.Offset += rb.config.PageSize
		sb.Revision.LastRevisionID = ids[len(ids)-1]
		sb.Revision.Failed = failed

		return nil
	}

	sb.Revision = RevisionCursor{}
	if failed {
		return errRevisionsFailed
	}

	return nil
}

// advance marks id as fully processed.
func (rb *Rebuilder) advance(sb *Sandbox, entityType string, id graph.ID, ok bool) {
	marker := entityType + ":" + string(id)

	sb.LastProcessedID = id
	sb.CurrentID = ""
	sb.Revision = RevisionCursor{}
	sb.Results = append(sb.Results, marker)

	if !ok {
		sb.Failed = append(sb.Failed, marker)
	}
}

func (rb *Rebuilder) updateFinished(sb *Sandbox, logger *logrus.Entry) {
	if sb.Total == 0 {
		sb.Finished = 1
	} else {
		sb.Finished = float64(sb.Processed) / float64(sb.Total)
		if sb.Finished > 1 {
			sb.Finished = 1
		}
	}

	if sb.Processed >= sb.Total && !sb.Revision.Active {
		rb.completeType(sb, logger)
	}
}

func (rb *Rebuilder) completeType(sb *Sandbox, logger *logrus.Entry) {
	logger.WithFields(logrus.Fields{
		"processed": sb.Processed,
		"total":     sb.Total,
	}).Info("completed usage rebuild of type")

	sb.TypeIndex++
	sb.Started = false
	sb.CurrentID = ""
	sb.Revision = RevisionCursor{}

	if sb.TypeIndex >= len(sb.Types) {
		rb.finish(sb)

		return
	}

	sb.Finished = 0
}

func (rb *Rebuilder) finish(sb *Sandbox) {
	sb.Done = true
	sb.Finished = 1
}
