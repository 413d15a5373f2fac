package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// EventKind identifies the registry mutation that produced an Event.
type EventKind int

const (
	// EventUpsert is emitted when an edge count is created or replaced.
	EventUpsert EventKind = iota
	// EventDelete is emitted when an edge is removed by a non-positive count.
	EventDelete
	EventDeleteByTarget
	EventDeleteBySource
	EventDeleteBySourceType
	EventDeleteByTargetType
	EventDeleteByField
)

var eventKindNames = map[EventKind]string{
	EventUpsert:             "upsert",
	EventDelete:             "delete",
	EventDeleteByTarget:     "delete_by_target",
	EventDeleteBySource:     "delete_by_source",
	EventDeleteBySourceType: "delete_by_source_type",
	EventDeleteByTargetType: "delete_by_target_type",
	EventDeleteByField:      "delete_by_field",
}

// String returns the snake case name of the kind.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", int(k))
}

// Event describes a registry mutation. For single edge mutations Edge holds
// the full edge and its new count; bulk deletions only populate the parts of
// Edge that were used to select the removed rows.
type Event struct {
	Kind   EventKind
	Edge   graph.Edge
	Filter graph.SourceFilter
}

// Observer is notified synchronously after every successful registry
// mutation.
type Observer interface {
	UsageChanged(Event)
}

// ObserverFunc serves as an adapter that allows the use of plain functions
// as observers.
type ObserverFunc func(Event)

// UsageChanged calls f(ev).
func (f ObserverFunc) UsageChanged(ev Event) {
	f(ev)
}

// notify hands ev to every observer. A panicking observer is logged and
// skipped so it can never fail the write that produced the event.
func (r *Registry) notify(ev Event) {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()

	for _, o := range observers {
		r.safeNotify(o, ev)
	}
}

func (r *Registry) safeNotify(o Observer, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{
				"event": ev.Kind.String(),
				"panic": rec,
			}).Error("usage observer panicked")
		}
	}()

	o.UsageChanged(ev)
}
