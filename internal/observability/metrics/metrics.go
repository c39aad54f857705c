package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"

	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (o Outcome) String() string {
	return string(o)
}

// CacheOutcome labels a single cache read with how it was served.
type CacheOutcome string

const (
	CacheHit           CacheOutcome = "hit"
	CacheRefresh       CacheOutcome = "refresh"
	CacheStaleFallback CacheOutcome = "stale_fallback"
	CacheMissError     CacheOutcome = "miss_error"
)

var (
	once                         sync.Once
	initialized                  bool
	metricsRouter                *chi.Mux
	ledgerClientLatency          *prometheus.HistogramVec
	cacheReadCounter             *prometheus.CounterVec
	eventProcessingDuration      *prometheus.HistogramVec
	duplicateEventCounter        prometheus.Counter
	feedInsertErrorCounter       prometheus.Counter
	reconcilerBacklogGauge       prometheus.Gauge
	composerNotPossibleCounter   *prometheus.CounterVec
	subscriptionReconnectCounter prometheus.Counter
	dbLatency                    *prometheus.HistogramVec
)

// Init starts the /metrics endpoint and registers all collectors. Safe to
// call once; recording functions are no-ops before that.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
		initialized = true
	})
}

func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	go func() {
		log.Info().Msgf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	ledgerClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_client_latency_seconds",
			Help:    "Histogram of ledger RPC call durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	cacheReadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "read_cache_requests_total",
			Help: "Cache reads by resource and how they were served.",
		},
		[]string{"resource", "outcome"},
	)

	eventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Histogram of ledger event processing durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"event_type", "status"},
	)

	duplicateEventCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_events_total",
			Help: "Events skipped because their (signature, index) pair was already processed.",
		},
	)

	feedInsertErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_insert_errors_total",
			Help: "Failed activity feed inserts.",
		},
	)

	reconcilerBacklogGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconciler_backlog",
			Help: "Events queued for the reconciler and not yet processed.",
		},
	)

	composerNotPossibleCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "composer_not_possible_total",
			Help: "Compose requests declined before building operations, by reason.",
		},
		[]string{"request", "reason"},
	)

	subscriptionReconnectCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "log_subscription_reconnects_total",
			Help: "Websocket log subscription reconnect attempts.",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_latency_seconds",
			Help:    "Histogram of database operation durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		ledgerClientLatency,
		cacheReadCounter,
		eventProcessingDuration,
		duplicateEventCounter,
		feedInsertErrorCounter,
		reconcilerBacklogGauge,
		composerNotPossibleCounter,
		subscriptionReconnectCounter,
		dbLatency,
	)
}

func RecordLedgerClientLatency(method string, duration time.Duration, outcome Outcome) {
	if !initialized {
		return
	}
	ledgerClientLatency.WithLabelValues(method, outcome.String()).Observe(duration.Seconds())
}

func RecordCacheRead(resource string, outcome CacheOutcome) {
	if !initialized {
		return
	}
	cacheReadCounter.WithLabelValues(resource, string(outcome)).Inc()
}

func RecordEventProcessing(eventType string, duration time.Duration, outcome Outcome) {
	if !initialized {
		return
	}
	eventProcessingDuration.WithLabelValues(eventType, outcome.String()).Observe(duration.Seconds())
}

func RecordDuplicateEvent() {
	if !initialized {
		return
	}
	duplicateEventCounter.Inc()
}

func RecordFeedInsertError() {
	if !initialized {
		return
	}
	feedInsertErrorCounter.Inc()
}

func SetReconcilerBacklog(n int) {
	if !initialized {
		return
	}
	reconcilerBacklogGauge.Set(float64(n))
}

func RecordComposerNotPossible(request, reason string) {
	if !initialized {
		return
	}
	composerNotPossibleCounter.WithLabelValues(request, reason).Inc()
}

func RecordSubscriptionReconnect() {
	if !initialized {
		return
	}
	subscriptionReconnectCounter.Inc()
}

func RecordDbLatency(method string, duration time.Duration, outcome Outcome) {
	if !initialized {
		return
	}
	dbLatency.WithLabelValues(method, outcome.String()).Observe(duration.Seconds())
}
