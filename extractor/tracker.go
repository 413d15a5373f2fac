package extractor

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// TrackerConfig encapsulates the settings for configuring a Tracker.
type TrackerConfig struct {
	// The registrar that receives the computed edge deltas.
	Registrar Registrar

	// Scan base fields (author, parent...) in addition to the
	// configurable ones.
	IncludeBaseFields bool

	// Target types that may be recorded. An empty list allows every type.
	TargetTypes []string

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *TrackerConfig) validate() error {
	var err error

	if config.Registrar == nil {
		err = multierror.Append(err, fmt.Errorf("registrar not provided"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Tracker runs the creation and update tracking algorithm on behalf of a
// single extractor.
type Tracker struct {
	ext         Extractor
	config      TrackerConfig
	fieldTypes  map[string]struct{}
	targetTypes map[string]struct{}
}

// NewTracker returns a Tracker for ext.
func NewTracker(ext Extractor, config TrackerConfig) (*Tracker, error) {
	if ext == nil {
		return nil, fmt.Errorf("tracker: extractor not provided")
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("tracker %s: config validation failed: %w", ext.ID(), err)
	}

	t := &Tracker{
		ext:        ext,
		config:     config,
		fieldTypes: make(map[string]struct{}),
	}

	for _, ft := range ext.ApplicableFieldTypes() {
		t.fieldTypes[ft] = struct{}{}
	}

	if len(config.TargetTypes) != 0 {
		t.targetTypes = make(map[string]struct{}, len(config.TargetTypes))
		for _, tt := range config.TargetTypes {
			t.targetTypes[tt] = struct{}{}
		}
	}

	return t, nil
}

// Method returns the id of the wrapped extractor.
func (t *Tracker) Method() string { return t.ext.ID() }

// CandidateFields returns the fields of e that the extractor can scan.
func (t *Tracker) CandidateFields(e entity.Entity) []entity.FieldDefinition {
	var fields []entity.FieldDefinition
	for _, def := range e.Fields() {
		if def.Base && !t.config.IncludeBaseFields {
			continue
		}

		if _, ok := t.fieldTypes[def.Type]; ok {
			fields = append(fields, def)
		}
	}

	return fields
}

// TrackOnCreation records every reference held by e.
func (t *Tracker) TrackOnCreation(ctx context.Context, e entity.Entity) error {
	src := entity.SourceOf(e)

	var err error
	for _, field := range t.CandidateFields(e) {
		value := e.Value(field.Name)
		if value.IsEmpty() {
			continue
		}

		current, ok := t.occurrencesOf(ctx, e, field, value)
		if !ok {
			continue
		}

		for _, target := range current.order {
			if wErr := t.upsert(ctx, src, field, target, current.counts[target]); wErr != nil {
				err = multierror.Append(err, wErr)
			}
		}
	}

	return err
}

// TrackOnUpdate records the difference between the references held by
// current and previous. A nil previous, or a previous carrying a different
// revision, makes the update a creation of current.
func (t *Tracker) TrackOnUpdate(ctx context.Context, current, previous entity.Entity) error {
	if previous == nil {
		return t.TrackOnCreation(ctx, current)
	}

	curRev, prevRev := entity.RevisionOf(current), entity.RevisionOf(previous)
	if curRev != 0 && prevRev != 0 && curRev != prevRev {
		return t.TrackOnCreation(ctx, current)
	}

	src := entity.SourceOf(current)

	var err error
	for _, field := range t.CandidateFields(current) {
		now, ok := t.occurrencesOf(ctx, current, field, current.Value(field.Name))
		if !ok {
			continue
		}

		before, ok := t.occurrencesOf(ctx, previous, field, previous.Value(field.Name))
		if !ok {
			continue
		}

		for _, target := range now.order {
			if now.counts[target] == before.counts[target] {
				continue
			}

			if wErr := t.upsert(ctx, src, field, target, now.counts[target]); wErr != nil {
				err = multierror.Append(err, wErr)
			}
		}

		for _, target := range before.order {
			if _, kept := now.counts[target]; kept {
				continue
			}

			if wErr := t.upsert(ctx, src, field, target, 0); wErr != nil {
				err = multierror.Append(err, wErr)
			}
		}
	}

	return err
}

func (t *Tracker) upsert(
	ctx context.Context, src graph.Source, field entity.FieldDefinition, target graph.EntityRef, count int,
) error {

	edge := graph.Edge{
		Target: target,
		Source: src,
		Method: t.ext.ID(),
		Field:  field.Name,
	}

	if err := t.config.Registrar.Upsert(ctx, edge, count); err != nil {
		return fmt.Errorf("%s: %s -> %s: %w", t.ext.ID(), src.Entity(), target, err)
	}

	return nil
}

// occurrences counts the references found in one field value, keeping the
// order in which targets first appeared.
type occurrences struct {
	order  []graph.EntityRef
	counts map[graph.EntityRef]int
}

// occurrencesOf runs the extractor against a single field value. Extraction
// errors and panics are logged and reported through ok.
func (t *Tracker) occurrencesOf(
	ctx context.Context, e entity.Entity, field entity.FieldDefinition, value entity.Value,
) (occ occurrences, ok bool) {

	occ.counts = make(map[graph.EntityRef]int)
	if value.IsEmpty() {
		return occ, true
	}

	logger := t.config.Logger.WithFields(logrus.Fields{
		"method": t.ext.ID(),
		"source": entity.Ref(e).String(),
		"field":  field.Name,
	})

	defer func() {
		if rec := recover(); rec != nil {
			logger.WithField("panic", rec).Error("extractor panicked; skipping field")
			occ, ok = occurrences{}, false
		}
	}()

	targets, err := t.ext.ExtractTargets(ctx, e, field, value)
	if err != nil {
		logger.WithField("err", err).Warn("unable to extract targets; skipping field")

		return occurrences{}, false
	}

	for _, target := range targets {
		if target.Type == "" || target.ID == "" {
			continue
		}

		if t.targetTypes != nil {
			if _, allowed := t.targetTypes[target.Type]; !allowed {
				continue
			}
		}

		if _, seen := occ.counts[target]; !seen {
			occ.order = append(occ.order, target)
		}
		occ.counts[target]++
	}

	return occ, true
}
