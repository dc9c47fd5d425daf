package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentimenttracker_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentimenttracker_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Source metrics
	SourceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_source_fetches_total",
			Help: "Total number of source fetches by outcome",
		},
		[]string{"source", "status"}, // status: ok|empty|partial|unavailable|rate_limited|timeout|failed|mock
	)

	SourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentimenttracker_source_latency_seconds",
			Help:    "Source fetch latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"source"},
	)

	PostsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_posts_fetched_total",
			Help: "Total number of posts fetched per source",
		},
		[]string{"source"},
	)

	// Run metrics
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_runs_total",
			Help: "Total number of tracker runs",
		},
		[]string{"status"}, // status: ok|no_data|cached|error
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentimenttracker_run_duration_seconds",
			Help:    "Tracker run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// Cache metrics
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_cache_requests_total",
			Help: "Report cache lookups",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)

	TelegramMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentimenttracker_telegram_messages_total",
			Help: "Total Telegram messages handled",
		},
		[]string{"direction", "status"}, // direction: in|out
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		// Worker metrics
		prometheus.MustRegister(WorkerExecutions)
		prometheus.MustRegister(WorkerDuration)
		prometheus.MustRegister(WorkerLastRun)

		// Source metrics
		prometheus.MustRegister(SourceFetches)
		prometheus.MustRegister(SourceLatency)
		prometheus.MustRegister(PostsFetched)

		// Run metrics
		prometheus.MustRegister(Runs)
		prometheus.MustRegister(RunDuration)
		prometheus.MustRegister(CacheRequests)

		// System metrics
		prometheus.MustRegister(KafkaMessages)
		prometheus.MustRegister(TelegramMessages)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordSourceFetch records one adapter invocation within a run
func RecordSourceFetch(source, status string, latency time.Duration, posts int) {
	SourceFetches.WithLabelValues(source, status).Inc()
	SourceLatency.WithLabelValues(source).Observe(latency.Seconds())
	if posts > 0 {
		PostsFetched.WithLabelValues(source).Add(float64(posts))
	}
}

// RecordRun records a finished tracker run
func RecordRun(status string, duration time.Duration) {
	Runs.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a report cache lookup
func RecordCacheLookup(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// RecordKafkaMessage records a produced message
func RecordKafkaMessage(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessages.WithLabelValues(topic, status).Inc()
}

// RecordTelegramMessage records an incoming command or an outgoing reply
func RecordTelegramMessage(direction string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TelegramMessages.WithLabelValues(direction, status).Inc()
}
