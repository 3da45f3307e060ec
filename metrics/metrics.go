// ABOUTME: Prometheus counters for collection runs, written out as a node-exporter textfile
// ABOUTME: The Recorder observes broadcast progress and records the export outcome
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harperreed/heyreport/collector"
)

// Recorder holds one registry per process.
type Recorder struct {
	registry *prometheus.Registry

	broadcasts    *prometheus.CounterVec
	contacts      prometheus.Counter
	conversations prometheus.Counter
	exports       *prometheus.CounterVec
	duration      prometheus.Histogram
	lastRun       prometheus.Gauge
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		broadcasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyreport_broadcasts_total",
				Help: "Broadcasts handled, partitioned by result",
			},
			[]string{"result"},
		),
		contacts: factory.NewCounter(prometheus.CounterOpts{
			Name: "heyreport_contacts_enriched_total",
			Help: "Contact rows produced",
		}),
		conversations: factory.NewCounter(prometheus.CounterOpts{
			Name: "heyreport_conversation_fetch_failures_total",
			Help: "Conversation fetches that failed and left message columns empty",
		}),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyreport_exports_total",
				Help: "Export attempts, partitioned by outcome",
			},
			[]string{"outcome"},
		),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "heyreport_run_duration_seconds",
			Help:    "Wall time of a collection run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heyreport_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Discovered implements collector.Observer.
func (r *Recorder) Discovered(lists, broadcasts int) {}

// BroadcastFinished implements collector.Observer.
func (r *Recorder) BroadcastFinished(p collector.Progress) {
	switch {
	case p.Skipped:
		r.broadcasts.WithLabelValues("skipped").Inc()
	case p.Err != nil:
		r.broadcasts.WithLabelValues("failed").Inc()
	default:
		r.broadcasts.WithLabelValues("processed").Inc()
		r.contacts.Add(float64(p.Rows))
	}
}

// ConversationFailed counts one absorbed conversation failure.
func (r *Recorder) ConversationFailed(error) {
	r.conversations.Inc()
}

// RunFinished records the outcome label (a run status) and duration.
func (r *Recorder) RunFinished(outcome string, elapsed time.Duration) {
	r.exports.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile atomically writes the registry in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
