/*
	metric package exposes the activity of the usage engine as Prometheus
	metrics: registry mutations, observed through the registry observer
	list, and the progress of rebuild runs.
*/

package metric

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mycok/entityusage/rebuild"
	"github.com/mycok/entityusage/registry"
)

const namespace = "entityusage"

// Static and compile-time check to ensure Collector implements
// registry.Observer interface.
var _ registry.Observer = (*Collector)(nil)

// Collector holds the metrics of the usage engine.
type Collector struct {
	// By event kind and method. Bulk deletions carry an empty method.
	events *prometheus.CounterVec

	// Occurrence count of the last upserted edge, by method.
	edgeCount *prometheus.HistogramVec

	// By type.
	rebuildProgress *prometheus.GaugeVec
	rebuildObjects  *prometheus.GaugeVec
	rebuildFailed   *prometheus.GaugeVec
	rebuildSteps    prometheus.Counter
	rebuildRuns     prometheus.Counter
}

// NewCollector creates the engine metrics. They must be registered with
// Register before being scraped.
func NewCollector() *Collector {
	return &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "events_total",
			Help:      "Total number of usage registry mutations",
		}, []string{"kind", "method"}),

		edgeCount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "edge_count",
			Help:      "Occurrence count written by usage upserts",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 100},
		}, []string{"method"}),

		rebuildProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "progress_ratio",
			Help:      "Completion of the rebuild of a type",
		}, []string{"type"}),

		rebuildObjects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "processed_objects",
			Help:      "Number of objects processed by the current rebuild of a type",
		}, []string{"type"}),

		rebuildFailed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "failed_objects",
			Help:      "Number of objects skipped by the current rebuild run",
		}, []string{"type"}),

		rebuildSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "steps_total",
			Help:      "Total number of rebuild steps executed",
		}),

		rebuildRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "completed_runs_total",
			Help:      "Total number of rebuild runs completed",
		}),
	}
}

// Register registers every metric of c with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.events, c.edgeCount,
		c.rebuildProgress, c.rebuildObjects, c.rebuildFailed, c.rebuildSteps, c.rebuildRuns,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}

	return nil
}

// UsageChanged records a registry mutation.
func (c *Collector) UsageChanged(ev registry.Event) {
	c.events.WithLabelValues(ev.Kind.String(), ev.Edge.Method).Inc()

	if ev.Kind == registry.EventUpsert {
		c.edgeCount.WithLabelValues(ev.Edge.Method).Observe(float64(ev.Edge.Count))
	}
}

// ObserveStep records the state of sb after a rebuild step. entityType is
// the type the step worked on.
func (c *Collector) ObserveStep(entityType string, sb *rebuild.Sandbox) {
	c.rebuildSteps.Inc()

	if entityType != "" {
		progress := sb.Finished
		if sb.CurrentType() != entityType {
			// The step completed the type.
			progress = 1
		}

		c.rebuildProgress.WithLabelValues(entityType).Set(progress)
		c.rebuildObjects.WithLabelValues(entityType).Set(float64(sb.Processed))
		c.rebuildFailed.WithLabelValues(entityType).Set(float64(countFailed(sb, entityType)))
	}

	if sb.Done {
		c.rebuildRuns.Inc()
	}
}

func countFailed(sb *rebuild.Sandbox, entityType string) int {
	prefix := entityType + ":"

	var n int
	for _, marker := range sb.Failed {
		if strings.HasPrefix(marker, prefix) {
			n++
		}
	}

	return n
}
