package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure InMemoryStore implements
// graph.Store interface.
var _ graph.Store = (*InMemoryStore)(nil)

// keySet contains the keys of the edges that share a source or target.
type keySet map[graph.Key]struct{}

// InMemoryStore implements an in-memory usage edge store that can be
// concurrently accessed by multiple clients.
type InMemoryStore struct {
	mu       sync.RWMutex
	edges    map[graph.Key]*graph.Edge
	bySource map[graph.EntityRef]keySet // Maps source objects to their edges.
	byTarget map[graph.EntityRef]keySet // Maps target objects to the edges pointing to them.
}

// NewInMemoryStore creates a new in-memory usage store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		edges:    make(map[graph.Key]*graph.Edge),
		bySource: make(map[graph.EntityRef]keySet),
		byTarget: make(map[graph.EntityRef]keySet),
	}
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// UpsertEdge creates a new or replaces the count of an existing edge.
// An edge with a count <= 0 is removed instead.
func (s *InMemoryStore) UpsertEdge(_ context.Context, edge *graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edge.Key()
	if edge.Count <= 0 {
		if !s.remove(key) {
			return fmt.Errorf("upsert edge: %w", graph.ErrNotFound)
		}

		return nil
	}

	// Keep a private copy so that callers can't mutate stored data.
	eCopy := new(graph.Edge)
	*eCopy = *edge

	s.edges[key] = eCopy
	index(s.bySource, key.Source.Entity(), key)
	index(s.byTarget, key.Target, key)

	return nil
}

// DeleteByTarget removes every edge that points to target.
func (s *InMemoryStore) DeleteByTarget(_ context.Context, target graph.EntityRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.byTarget[target] {
		s.remove(key)
	}

	return nil
}

// DeleteBySource removes the edges that originate from source and match filter.
func (s *InMemoryStore) DeleteBySource(
	_ context.Context, source graph.EntityRef, filter graph.SourceFilter,
) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.bySource[source] {
		if filter.Matches(key.Source) {
			s.remove(key)
		}
	}

	return nil
}

// DeleteBySourceType removes every edge whose source is of sourceType.
func (s *InMemoryStore) DeleteBySourceType(_ context.Context, sourceType string) error {
	return s.removeWhere(func(key graph.Key) bool {
		return key.Source.Type == sourceType
	})
}

// DeleteByTargetType removes every edge whose target is of targetType.
func (s *InMemoryStore) DeleteByTargetType(_ context.Context, targetType string) error {
	return s.removeWhere(func(key graph.Key) bool {
		return key.Target.Type == targetType
	})
}

// DeleteByField removes the edges recorded for field across all the
// sources of sourceType.
func (s *InMemoryStore) DeleteByField(_ context.Context, sourceType, field string) error {
	return s.removeWhere(func(key graph.Key) bool {
		return key.Source.Type == sourceType && key.Field == field
	})
}

// Sources returns the edges that point to target.
func (s *InMemoryStore) Sources(
	_ context.Context, target graph.EntityRef, includeZero bool,
) ([]*graph.Edge, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.collect(s.byTarget[target], func(e *graph.Edge) bool {
		return includeZero || e.Count > 0
	})
	graph.SortSources(list)

	return list, nil
}

// Targets returns the edges that originate from source, optionally pinned
// to a single revision.
func (s *InMemoryStore) Targets(
	_ context.Context, source graph.EntityRef, revision *int64,
) ([]*graph.Edge, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.collect(s.bySource[source], func(e *graph.Edge) bool {
		return e.Count > 0 && (revision == nil || e.Source.Revision == *revision)
	})
	graph.SortTargets(list)

	return list, nil
}

// collect returns copies of the indexed edges accepted by keep. Callers
// must hold at least the read lock.
func (s *InMemoryStore) collect(keys keySet, keep func(*graph.Edge) bool) []*graph.Edge {
	var list []*graph.Edge

	for key := range keys {
		e := s.edges[key]
		if !keep(e) {
			continue
		}

		eCopy := new(graph.Edge)
		*eCopy = *e
		list = append(list, eCopy)
	}

	return list
}

func (s *InMemoryStore) removeWhere(match func(graph.Key) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.edges {
		if match(key) {
			s.remove(key)
		}
	}

	return nil
}

// remove drops an edge and its index entries and reports whether it existed.
// Callers must hold the write lock.
func (s *InMemoryStore) remove(key graph.Key) bool {
	if _, exists := s.edges[key]; !exists {
		return false
	}

	delete(s.edges, key)
	unindex(s.bySource, key.Source.Entity(), key)
	unindex(s.byTarget, key.Target, key)

	return true
}

func index(idx map[graph.EntityRef]keySet, ref graph.EntityRef, key graph.Key) {
	set, exists := idx[ref]
	if !exists {
		set = make(keySet)
		idx[ref] = set
	}

	set[key] = struct{}{}
}

func unindex(idx map[graph.EntityRef]keySet, ref graph.EntityRef, key graph.Key) {
	set := idx[ref]
	delete(set, key)

	if len(set) == 0 {
		delete(idx, ref)
	}
}
