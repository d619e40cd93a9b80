// Package metrics counts what the pipeline does. Counters are kept both as
// atomics for the JSON status endpoint and as Prometheus series.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

const namespace = "metrics_sync"

var breakerStateValues = map[models.BreakerStateValue]float64{
	models.BreakerClosed:   0,
	models.BreakerHalfOpen: 1,
	models.BreakerOpen:     2,
}

// Snapshot is the JSON view of the counters.
type Snapshot struct {
	EventsProcessed int64      `json:"events_processed"`
	MetricsSynced   int64      `json:"metrics_synced"`
	ErrorCount      int64      `json:"error_count"`
	Rejected        int64      `json:"rejected"`
	Duplicates      int64      `json:"duplicates"`
	LastSyncTime    *time.Time `json:"last_sync_time"`
}

type Collector struct {
	now func() time.Time

	eventsProcessed atomic.Int64
	metricsSynced   atomic.Int64
	errorCount      atomic.Int64
	rejected        atomic.Int64
	duplicates      atomic.Int64
	lastSync        atomic.Int64

	registry          *prometheus.Registry
	eventsTotal       *prometheus.CounterVec
	metricsTotal      prometheus.Counter
	errorsTotal       *prometheus.CounterVec
	processingSeconds prometheus.Histogram
	breakerState      *prometheus.GaugeVec
	breakerChanges    *prometheus.CounterVec
}

func New(now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}

	c := &Collector{
		now:      now,
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Provider events by final processing stage",
			},
			[]string{"stage", "event_type"},
		),
		metricsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metrics_synced_total",
				Help:      "Metric records accepted by the analytics platform",
			},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Processing errors by kind",
			},
			[]string{"kind"},
		),
		processingSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "event_processing_seconds",
				Help:      "Time spent processing one provider event",
				Buckets:   prometheus.DefBuckets,
			},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "0 closed, 1 half-open, 2 open",
			},
			[]string{"breaker"},
		),
		breakerChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_transitions_total",
				Help:      "Circuit breaker state transitions",
			},
			[]string{"breaker", "to"},
		),
	}

	c.registry.MustRegister(
		c.eventsTotal,
		c.metricsTotal,
		c.errorsTotal,
		c.processingSeconds,
		c.breakerState,
		c.breakerChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordOutcome accounts for one processed event.
func (c *Collector) RecordOutcome(outcome models.ProcessingOutcome) {
	// provider event names are free-form; the kind keeps the label set bounded
	c.eventsTotal.WithLabelValues(string(outcome.Stage), string(models.KindOf(outcome.EventType))).Inc()
	c.processingSeconds.Observe(outcome.Duration.Seconds())

	switch outcome.Stage {
	case models.StageDuplicate:
		c.duplicates.Add(1)
		return
	case models.StageRejected:
		c.rejected.Add(1)
	default:
		c.eventsProcessed.Add(1)
	}

	c.recordDelivery(outcome.Delivery)
	c.recordError(outcome.Err)
}

// RecordBatch accounts for one batch push of many events.
func (c *Collector) RecordBatch(outcome models.BatchOutcome) {
	c.eventsProcessed.Add(int64(outcome.Events))
	c.eventsTotal.WithLabelValues("batch", "").Add(float64(outcome.Events))

	c.recordDelivery(outcome.Delivery)
	c.recordError(outcome.Err)
}

func (c *Collector) recordDelivery(delivery models.DeliveryResult) {
	if delivery.Delivered == 0 {
		return
	}
	c.metricsSynced.Add(int64(delivery.Delivered))
	c.metricsTotal.Add(float64(delivery.Delivered))
	c.lastSync.Store(c.now().UnixNano())
}

func (c *Collector) recordError(err error) {
	if err == nil {
		return
	}
	c.errorCount.Add(1)
	c.errorsTotal.WithLabelValues(internalErrors.Kind(err)).Inc()
}

// BreakerStateChanged has the shape of resilience.StateChangeFunc.
func (c *Collector) BreakerStateChanged(name string, _, to models.BreakerStateValue) {
	c.breakerState.WithLabelValues(name).Set(breakerStateValues[to])
	c.breakerChanges.WithLabelValues(name, string(to)).Inc()
}

func (c *Collector) Snapshot() Snapshot {
	snapshot := Snapshot{
		EventsProcessed: c.eventsProcessed.Load(),
		MetricsSynced:   c.metricsSynced.Load(),
		ErrorCount:      c.errorCount.Load(),
		Rejected:        c.rejected.Load(),
		Duplicates:      c.duplicates.Load(),
	}
	if nanos := c.lastSync.Load(); nanos != 0 {
		last := time.Unix(0, nanos)
		snapshot.LastSyncTime = &last
	}
	return snapshot
}

// Handler exposes the Prometheus registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
