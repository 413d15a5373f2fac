/*
	lifecycle package keeps the usage index in sync with the create, edit
	and delete hooks of the hosting system. Every tracked object is fanned
	out across its translations and handed to the enabled extractors.
*/

package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// ErrInvalidDeletionKind is returned by OnDelete for an unknown kind.
var ErrInvalidDeletionKind = errors.New("invalid deletion kind")

// DeletionKind selects the edges removed by OnDelete.
type DeletionKind int

const (
	// DeleteFull removes the object: every edge it is the source of, in
	// any language and revision, and every edge it is the target of.
	DeleteFull DeletionKind = iota + 1

	// DeleteTranslation removes the edges of a single translation.
	DeleteTranslation

	// DeleteRevision removes the edges of a single revision.
	DeleteRevision
)

// String returns the name of the kind.
func (k DeletionKind) String() string {
	switch k {
	case DeleteFull:
		return "full"
	case DeleteTranslation:
		return "translation"
	case DeleteRevision:
		return "revision"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Coordinator drives the extractors from object lifecycle events.
type Coordinator struct {
	config      Config
	trackers    []*extractor.Tracker
	sourceTypes map[string]struct{}
}

// New returns a fully configured Coordinator.
func New(config Config) (*Coordinator, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("lifecycle: config validation failed: %w", err)
	}

	var registrar extractor.Registrar = config.Registry
	if len(config.Vetoes) != 0 {
		registrar = &vetoRegistrar{next: config.Registry, vetoes: config.Vetoes}
	}

	co := &Coordinator{config: config}

	for _, ext := range config.Extractors.Enabled(config.EnabledExtractors) {
		tracker, err := extractor.NewTracker(ext, extractor.TrackerConfig{
			Registrar:         registrar,
			IncludeBaseFields: config.IncludeBaseFields,
			TargetTypes:       config.TargetTypes,
			Logger:            config.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("lifecycle: %w", err)
		}

		co.trackers = append(co.trackers, tracker)
	}

	if len(config.SourceTypes) != 0 {
		co.sourceTypes = make(map[string]struct{}, len(config.SourceTypes))
		for _, t := range config.SourceTypes {
			co.sourceTypes[t] = struct{}{}
		}
	}

	return co, nil
}

// Tracks reports whether objects of entityType are tracked as sources.
func (co *Coordinator) Tracks(entityType string) bool {
	if co.sourceTypes != nil {
		_, ok := co.sourceTypes[entityType]

		return ok
	}

	if co.config.Types == nil {
		return true
	}

	info, ok := co.config.Types.TypeInfo(entityType)

	return ok && info.ContentLike
}

// OnCreate records the references of every translation of a new object.
func (co *Coordinator) OnCreate(ctx context.Context, e entity.Entity) error {
	if !co.Tracks(e.Type()) {
		return nil
	}

	var err error
	for _, variant := range translationsOf(e) {
		for _, tracker := range co.trackers {
			tracker := tracker
			if tErr := co.run(tracker, variant, func() error {
				return tracker.TrackOnCreation(ctx, variant)
			}); tErr != nil {
				err = multierror.Append(err, tErr)
			}
		}
	}

	return err
}

// OnEdit records the reference changes between previous and current. Each
// translation of current is compared with the same translation of
// previous; translations missing from previous are tracked as created.
func (co *Coordinator) OnEdit(ctx context.Context, current, previous entity.Entity) error {
	if !co.Tracks(current.Type()) {
		return nil
	}

	var err error
	for _, variant := range translationsOf(current) {
		before := translationOf(previous, variant.Language())

		for _, tracker := range co.trackers {
			tracker := tracker
			if tErr := co.run(tracker, variant, func() error {
				return tracker.TrackOnUpdate(ctx, variant, before)
			}); tErr != nil {
				err = multierror.Append(err, tErr)
			}
		}
	}

	return err
}

// OnDelete removes the edges of a deleted object, translation or revision.
func (co *Coordinator) OnDelete(ctx context.Context, e entity.Entity, kind DeletionKind) error {
	ref := entity.Ref(e)

	switch kind {
	case DeleteFull:
		if err := co.config.Registry.DeleteBySource(ctx, ref, graph.SourceFilter{}); err != nil {
			return fmt.Errorf("on delete %s: %w", ref, err)
		}

		if err := co.config.Registry.DeleteByTarget(ctx, ref); err != nil {
			return fmt.Errorf("on delete %s: %w", ref, err)
		}
	case DeleteTranslation:
		filter := graph.ForLanguage(entity.LanguageOf(e))
		if err := co.config.Registry.DeleteBySource(ctx, ref, filter); err != nil {
			return fmt.Errorf("on delete %s translation: %w", ref, err)
		}
	case DeleteRevision:
		filter := graph.ForRevision(entity.RevisionOf(e))
		if err := co.config.Registry.DeleteBySource(ctx, ref, filter); err != nil {
			return fmt.Errorf("on delete %s revision: %w", ref, err)
		}
	default:
		return fmt.Errorf("on delete %s: %w: %s", ref, ErrInvalidDeletionKind, kind)
	}

	co.config.Logger.WithFields(logrus.Fields{
		"source": ref.String(),
		"kind":   kind.String(),
	}).Debug("removed usage")

	return nil
}

// OnFieldDelete removes the edges recorded for a field that no longer
// exists on sourceType.
func (co *Coordinator) OnFieldDelete(ctx context.Context, sourceType, field string) error {
	if err := co.config.Registry.DeleteByField(ctx, sourceType, field); err != nil {
		return fmt.Errorf("on field delete %s.%s: %w", sourceType, field, err)
	}

	return nil
}

// run invokes fn, turning a panic escaping the tracker into a log entry.
func (co *Coordinator) run(tracker *extractor.Tracker, e entity.Entity, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			co.config.Logger.WithFields(logrus.Fields{
				"method": tracker.Method(),
				"source": entity.Ref(e).String(),
				"panic":  rec,
			}).Error("usage tracking panicked")
			err = nil
		}
	}()

	return fn()
}

func translationsOf(e entity.Entity) []entity.Entity {
	tr, ok := e.(entity.Translatable)
	if !ok {
		return []entity.Entity{e}
	}

	var variants []entity.Entity
	for _, lang := range tr.Languages() {
		if variant, ok := tr.Translation(lang); ok {
			variants = append(variants, variant)
		}
	}

	return variants
}

// translationOf returns the lang variant of e, or nil if there is none.
func translationOf(e entity.Entity, lang string) entity.Entity {
	if e == nil {
		return nil
	}

	tr, ok := e.(entity.Translatable)
	if !ok {
		if e.Language() == lang {
			return e
		}

		return nil
	}

	variant, ok := tr.Translation(lang)
	if !ok {
		return nil
	}

	return variant
}

// vetoRegistrar skips the registrations rejected by any veto. Removals are
// always forwarded.
type vetoRegistrar struct {
	next   extractor.Registrar
	vetoes []VetoFunc
}

func (r *vetoRegistrar) Upsert(ctx context.Context, edge graph.Edge, count int) error {
	if count > 0 {
		for _, veto := range r.vetoes {
			if veto(ctx, edge) {
				return nil
			}
		}
	}

	return r.next.Upsert(ctx, edge, count)
}
