// Package metrics exposes prometheus counters for patch attempts and
// watcher events.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modlist_cleaner"

// Event results recorded by the watcher.
const (
	EventScheduled = "scheduled"
	EventDebounced = "debounced"
	EventPaused    = "paused"
	EventInFlight  = "in_flight"
	EventQueueFull = "queue_full"
	EventBusy      = "busy"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	patches  *prometheus.CounterVec
	events   *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
// Collectors that are already registered are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		patches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patches_total",
			Help:      "Patch attempts by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Filesystem notifications by handling result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "patch_duration_seconds",
			Help:      "Time spent reading, patching and writing one save.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	var err error
	m.patches, err = register(reg, m.patches)
	if err != nil {
		return nil, err
	}
	m.events, err = register(reg, m.events)
	if err != nil {
		return nil, err
	}
	m.duration, err = register(reg, m.duration)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObservePatch records one patch attempt. outcome is the attempt's outcome
// name, or the error class when it failed.
func (m *Metrics) ObservePatch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.patches.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveEvent records how a filesystem notification was handled.
func (m *Metrics) ObserveEvent(result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(result).Inc()
}
