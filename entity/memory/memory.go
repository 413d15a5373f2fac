package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure Repository implements
// entity.Storage interface.
var _ entity.Storage = (*Repository)(nil)

// Repository is an in-memory entity.Storage that keeps every revision of
// the records saved into it. It can be concurrently accessed by multiple
// clients.
type Repository struct {
	mu        sync.RWMutex
	types     map[string]entity.TypeInfo
	current   map[graph.EntityRef]*entity.Record
	revisions map[string]map[int64]*entity.Record // Revisions per object type.
	history   map[graph.EntityRef][]int64         // Revision ids per object, oldest first.
	lastRevID map[string]int64
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		types:     make(map[string]entity.TypeInfo),
		current:   make(map[graph.EntityRef]*entity.Record),
		revisions: make(map[string]map[int64]*entity.Record),
		history:   make(map[graph.EntityRef][]int64),
		lastRevID: make(map[string]int64),
	}
}

// DefineType registers an object type.
func (r *Repository) DefineType(info entity.TypeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[info.Name] = info
}

// TypeInfo looks up an object type.
func (r *Repository) TypeInfo(entityType string) (entity.TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.types[entityType]

	return info, ok
}

// Types returns the names of the registered types in lexical order.
func (r *Repository) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Save stores rec as the current state of its object. For revisionable
// types a new revision is recorded; a zero rec.Revision is replaced with the
// next free revision id of the type. Save returns the state it stored.
func (r *Repository) Save(rec *entity.Record) (*entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.types[rec.EntityType]
	if !ok {
		return nil, fmt.Errorf("save %s: unknown type %q", rec.EntityID, rec.EntityType)
	}

	stored := rec.Clone()
	ref := entity.Ref(stored)

	if !info.Revisionable {
		stored.Revision = 0
		r.current[ref] = stored

		return stored.Clone(), nil
	}

	if stored.Revision == 0 {
		stored.Revision = r.lastRevID[stored.EntityType] + 1
	}

	revs := r.revisions[stored.EntityType]
	if revs == nil {
		revs = make(map[int64]*entity.Record)
		r.revisions[stored.EntityType] = revs
	}

	if _, exists := revs[stored.Revision]; exists {
		return nil, fmt.Errorf("save %s: revision %d already exists", ref, stored.Revision)
	}

	if stored.Revision > r.lastRevID[stored.EntityType] {
		r.lastRevID[stored.EntityType] = stored.Revision
	}

	revs[stored.Revision] = stored
	r.history[ref] = append(r.history[ref], stored.Revision)
	r.current[ref] = stored

	return stored.Clone(), nil
}

// Delete removes an object and all of its revisions.
func (r *Repository) Delete(entityType string, id graph.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := graph.EntityRef{Type: entityType, ID: id}
	for _, rev := range r.history[ref] {
		delete(r.revisions[entityType], rev)
	}

	delete(r.history, ref)
	delete(r.current, ref)
}

// Count returns the number of objects of entityType.
func (r *Repository) Count(_ context.Context, entityType string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int
	for ref := range r.current {
		if ref.Type == entityType {
			n++
		}
	}

	return n, nil
}

// Load returns the current state of an object.
func (r *Repository) Load(_ context.Context, entityType string, id graph.ID) (entity.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.current[graph.EntityRef{Type: entityType, ID: id}]
	if !ok {
		return nil, fmt.Errorf("load %s:%s: %w", entityType, id, graph.ErrNotFound)
	}

	return rec.Clone(), nil
}

// NextAfter returns the object with the smallest id strictly greater than after.
func (r *Repository) NextAfter(_ context.Context, entityType string, after graph.ID) (entity.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var next *entity.Record
	for ref, rec := range r.current {
		if ref.Type != entityType {
			continue
		}

		if after != "" && !after.Less(ref.ID) {
			continue
		}

		if next == nil || ref.ID.Less(next.EntityID) {
			next = rec
		}
	}

	if next == nil {
		return nil, nil
	}

	return next.Clone(), nil
}

// RevisionIDs returns up to limit revision ids of e, newest first.
func (r *Repository) RevisionIDs(_ context.Context, e entity.Entity, offset, limit int) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.history[entity.Ref(e)]

	var ids []int64
	for i := len(history) - 1 - offset; i >= 0 && len(ids) < limit; i-- {
		ids = append(ids, history[i])
	}

	return ids, nil
}

// LoadRevision returns an object as it was at revision.
func (r *Repository) LoadRevision(_ context.Context, entityType string, revision int64) (entity.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.revisions[entityType][revision]
	if !ok {
		return nil, fmt.Errorf("load %s revision %d: %w", entityType, revision, graph.ErrNotFound)
	}

	return rec.Clone(), nil
}
