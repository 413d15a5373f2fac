/*
	registry package implements the public contract of the usage index: it
	validates and persists edge deltas through a graph.Store, answers the
	"what references this" / "what does this reference" queries and notifies
	observers about every mutation.
*/

package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// Registry owns the usage edges persisted by a graph.Store. Extractors and
// lifecycle hooks communicate deltas through it and never touch the store.
type Registry struct {
	store  graph.Store
	logger *logrus.Entry

	mu        sync.RWMutex
	observers []Observer
}

// New returns a Registry that persists edges in store. A nil logger
// discards output.
func New(store graph.Store, logger *logrus.Entry) *Registry {
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return &Registry{store: store, logger: logger}
}

// Subscribe registers an observer that is notified after every successful
// mutation, in registration order.
func (r *Registry) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.observers = append(r.observers, o)
}

// Upsert records count occurrences of edge. A count <= 0 removes the edge.
func (r *Registry) Upsert(ctx context.Context, edge graph.Edge, count int) error {
	if err := edge.Validate(); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	edge.Count = count
	if edge.Count < 0 {
		edge.Count = 0
	}

	if err := r.store.UpsertEdge(ctx, &edge); err != nil {
		if edge.Count == 0 && errors.Is(err, graph.ErrNotFound) {
			// Nothing was recorded for the edge.
			return nil
		}

		return err
	}

	kind := EventUpsert
	if edge.Count == 0 {
		kind = EventDelete
	}
	r.notify(Event{Kind: kind, Edge: edge})

	return nil
}

// DeleteByTarget removes every edge that points to target.
func (r *Registry) DeleteByTarget(ctx context.Context, target graph.EntityRef) error {
	if err := r.store.DeleteByTarget(ctx, target); err != nil {
		return err
	}

	r.notify(Event{Kind: EventDeleteByTarget, Edge: graph.Edge{Target: target}})

	return nil
}

// DeleteBySource removes the edges that originate from source. The filter
// restricts the deletion to one translation and / or revision; an empty
// filter removes the edges of every translation and revision.
func (r *Registry) DeleteBySource(ctx context.Context, source graph.EntityRef, filter graph.SourceFilter) error {
	if err := r.store.DeleteBySource(ctx, source, filter); err != nil {
		return err
	}

	r.notify(Event{
		Kind:   EventDeleteBySource,
		Edge:   graph.Edge{Source: graph.Source{Type: source.Type, ID: source.ID}},
		Filter: filter,
	})

	return nil
}

// DeleteBySourceType removes every edge whose source is of sourceType.
func (r *Registry) DeleteBySourceType(ctx context.Context, sourceType string) error {
	if err := r.store.DeleteBySourceType(ctx, sourceType); err != nil {
		return err
	}

	r.notify(Event{Kind: EventDeleteBySourceType, Edge: graph.Edge{Source: graph.Source{Type: sourceType}}})

	return nil
}

// DeleteByTargetType removes every edge whose target is of targetType.
func (r *Registry) DeleteByTargetType(ctx context.Context, targetType string) error {
	if err := r.store.DeleteByTargetType(ctx, targetType); err != nil {
		return err
	}

	r.notify(Event{Kind: EventDeleteByTargetType, Edge: graph.Edge{Target: graph.EntityRef{Type: targetType}}})

	return nil
}

// DeleteByField removes the edges of field across all sources of sourceType.
func (r *Registry) DeleteByField(ctx context.Context, sourceType, field string) error {
	if err := r.store.DeleteByField(ctx, sourceType, field); err != nil {
		return err
	}

	r.notify(Event{
		Kind: EventDeleteByField,
		Edge: graph.Edge{Source: graph.Source{Type: sourceType}, Field: field},
	})

	return nil
}

// ListSources returns the edges that point to target.
func (r *Registry) ListSources(ctx context.Context, target graph.EntityRef, includeZero bool) ([]*graph.Edge, error) {
	return r.store.Sources(ctx, target, includeZero)
}

// ListTargets returns the edges that originate from source. A non-nil
// revision pins the listing to that revision.
func (r *Registry) ListTargets(ctx context.Context, source graph.EntityRef, revision *int64) ([]*graph.Edge, error) {
	return r.store.Targets(ctx, source, revision)
}

// Aggregate is the total number of occurrences between two objects,
// summed across revisions and translations.
type Aggregate struct {
	// Method is only set by AggregateUsage when splitting by method.
	Method string
	Entity graph.EntityRef
	Count  int
}

// AggregateUsage sums, per referencing object, the occurrences of target.
// When splitByMethod is set, totals are kept per method first.
func (r *Registry) AggregateUsage(ctx context.Context, target graph.EntityRef, splitByMethod bool) ([]Aggregate, error) {
	edges, err := r.store.Sources(ctx, target, false)
	if err != nil {
		return nil, err
	}

	return aggregate(edges, splitByMethod, func(e *graph.Edge) graph.EntityRef {
		return e.Source.Entity()
	}), nil
}

// AggregateReferencedEntities sums, per referenced object, the occurrences
// recorded for source.
func (r *Registry) AggregateReferencedEntities(ctx context.Context, source graph.EntityRef) ([]Aggregate, error) {
	edges, err := r.store.Targets(ctx, source, nil)
	if err != nil {
		return nil, err
	}

	return aggregate(edges, false, func(e *graph.Edge) graph.EntityRef {
		return e.Target
	}), nil
}

// Close closes the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}

func aggregate(edges []*graph.Edge, splitByMethod bool, entityOf func(*graph.Edge) graph.EntityRef) []Aggregate {
	type aggKey struct {
		method string
		entity graph.EntityRef
	}

	totals := make(map[aggKey]*Aggregate)
	var list []Aggregate
	var order []aggKey

	for _, e := range edges {
		k := aggKey{entity: entityOf(e)}
		if splitByMethod {
			k.method = e.Method
		}

		agg, exists := totals[k]
		if !exists {
			agg = &Aggregate{Method: k.method, Entity: k.entity}
			totals[k] = agg
			order = append(order, k)
		}
		agg.Count += e.Count
	}

	for _, k := range order {
		list = append(list, *totals[k])
	}

	// Store order is kept within each method.
	sort.SliceStable(list, func(l, r int) bool { return list[l].Method < list[r].Method })

	return list
}
