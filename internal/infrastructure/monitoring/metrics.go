package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector manages Prometheus metrics for a running ecs.World:
// occupancy gauges sampled once per tick, plus counters/histograms the
// runtime and host application feed as events happen.
type MetricsCollector struct {
	entitiesAlive  prometheus.Gauge
	ghostEntities  prometheus.Gauge
	componentCount *prometheus.GaugeVec
	querySize      *prometheus.GaugeVec
	poolHitRate    *prometheus.GaugeVec
	poolSize       *prometheus.GaugeVec
	deferredQueue  prometheus.Gauge

	systemExecuteSeconds *prometheus.HistogramVec
	tickDuration         prometheus.Histogram
	ticksTotal           prometheus.Counter

	eventsFired   *prometheus.CounterVec
	eventsHandled *prometheus.CounterVec

	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram

	server *http.Server
	mu     sync.RWMutex
}

// NewMetricsCollector registers every ecsy Prometheus collector against
// the default registry.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		entitiesAlive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsy_entities_alive",
			Help: "Current number of live (non-ghost) entities",
		}),
		ghostEntities: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsy_ghost_entities",
			Help: "Current number of disposed entities retained as ghosts by a system-state component",
		}),
		componentCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecsy_component_count",
			Help: "Current number of attached instances by component type",
		}, []string{"component"}),
		querySize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecsy_query_size",
			Help: "Current number of entities matching a query, by query key",
		}, []string{"query"}),
		poolHitRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecsy_pool_hit_rate",
			Help: "Fraction of a component pool currently checked out (used/total)",
		}, []string{"component"}),
		poolSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecsy_pool_size",
			Help: "Total instances a component pool has grown to",
		}, []string{"component"}),
		deferredQueue: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsy_deferred_queue_depth",
			Help: "Entities and components currently queued for deferred removal",
		}),
		systemExecuteSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecsy_system_execute_seconds",
			Help:    "Per-system Execute duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"system"}),
		tickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecsy_tick_duration_seconds",
			Help:    "Total World.Execute duration per tick",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.016, 0.033, 0.1},
		}),
		ticksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ecsy_ticks_total",
			Help: "Total number of completed ticks",
		}),
		eventsFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecsy_query_events_fired_total",
			Help: "Total reactive query events dispatched, by event type",
		}, []string{"event_type"}),
		eventsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ecsy_query_events_handled_total",
			Help: "Total listener invocations for reactive query events, by event type",
		}, []string{"event_type"}),
		memoryUsage: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsy_memory_usage_bytes",
			Help: "Current process memory usage in bytes",
		}),
		goroutineCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ecsy_goroutines",
			Help: "Current number of goroutines",
		}),
		gcPauseTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecsy_gc_pause_seconds",
			Help:    "GC pause duration",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}
}

// StartServer starts the Prometheus metrics HTTP server.
func (mc *MetricsCollector) StartServer(port int) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.server != nil {
		return fmt.Errorf("metrics server already running")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mc.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := mc.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}

// StopServer stops the metrics server.
func (mc *MetricsCollector) StopServer() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := mc.server.Shutdown(ctx)
	mc.server = nil
	return err
}

// UpdateEntityMetrics sets the live and ghost entity gauges.
func (mc *MetricsCollector) UpdateEntityMetrics(alive, ghosts int) {
	mc.entitiesAlive.Set(float64(alive))
	mc.ghostEntities.Set(float64(ghosts))
}

// UpdateComponentCount sets the attachment count gauge for one component.
func (mc *MetricsCollector) UpdateComponentCount(component string, count int64) {
	mc.componentCount.WithLabelValues(component).Set(float64(count))
}

// UpdateQuerySize sets the matching-entity gauge for one query key.
func (mc *MetricsCollector) UpdateQuerySize(queryKey string, size int) {
	mc.querySize.WithLabelValues(queryKey).Set(float64(size))
}

// UpdatePoolMetrics sets the hit-rate and size gauges for one component's
// pool.
func (mc *MetricsCollector) UpdatePoolMetrics(component string, hitRate float64, total int) {
	mc.poolHitRate.WithLabelValues(component).Set(hitRate)
	mc.poolSize.WithLabelValues(component).Set(float64(total))
}

// UpdateDeferredQueueDepth sets the pending-removal queue depth gauge.
func (mc *MetricsCollector) UpdateDeferredQueueDepth(depth int) {
	mc.deferredQueue.Set(float64(depth))
}

// RecordSystemExecute records one system's Execute duration for a tick.
func (mc *MetricsCollector) RecordSystemExecute(system string, duration time.Duration) {
	mc.systemExecuteSeconds.WithLabelValues(system).Observe(duration.Seconds())
}

// RecordTick records one completed World.Execute call.
func (mc *MetricsCollector) RecordTick(duration time.Duration) {
	mc.ticksTotal.Inc()
	mc.tickDuration.Observe(duration.Seconds())
}

// RecordQueryEvent records one dispatched query event and how many
// listeners handled it.
func (mc *MetricsCollector) RecordQueryEvent(eventType string, handled int) {
	mc.eventsFired.WithLabelValues(eventType).Inc()
	mc.eventsHandled.WithLabelValues(eventType).Add(float64(handled))
}

// UpdateMemoryUsage updates the process memory usage gauge.
func (mc *MetricsCollector) UpdateMemoryUsage(bytes uint64) {
	mc.memoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count gauge.
func (mc *MetricsCollector) UpdateGoroutineCount(count int) {
	mc.goroutineCount.Set(float64(count))
}

// RecordGCPause records one GC pause duration.
func (mc *MetricsCollector) RecordGCPause(duration time.Duration) {
	mc.gcPauseTime.Observe(duration.Seconds())
}
