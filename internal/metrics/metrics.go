// Package metrics exposes the connector's Prometheus collectors.
//
// Collectors are registered on an injected registry so tests and multiple
// servers in one process never collide on the global default.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "biconnector"

// Cache event labels.
const (
	CacheHit          = "hit"
	CacheMiss         = "miss"
	CacheWriteFailure = "write_failure"
)

// Metrics groups every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	cacheEvents    *prometheus.CounterVec
	droppedFilters prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Connector actions handled, by action, dialect and HTTP status.",
		}, []string{"action", "dialect", "status"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Wall time spent handling one connector action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "dialect"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Schema cache lookups and write failures, by entry kind.",
		}, []string{"kind", "event"}),
		droppedFilters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filters_dropped_total",
			Help:      "Filter conditions ignored because of an unknown operator.",
		}),
	}

	reg.MustRegister(m.actions, m.actionDuration, m.cacheEvents, m.droppedFilters)
	return m
}

// ObserveAction records one finished action.
func (m *Metrics) ObserveAction(action, dialect string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, dialect, statusLabel(status)).Inc()
	m.actionDuration.WithLabelValues(action, dialect).Observe(elapsed.Seconds())
}

// CacheEvent records a cache hit, miss or write failure for kind.
func (m *Metrics) CacheEvent(kind, event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(kind, event).Inc()
}

// FilterDropped counts one ignored filter condition.
func (m *Metrics) FilterDropped() {
	if m == nil {
		return
	}
	m.droppedFilters.Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
