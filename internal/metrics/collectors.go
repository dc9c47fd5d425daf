package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/logger"
)

// CacheSizer reports how many entries a cache holds
type CacheSizer interface {
	Len(ctx context.Context) (int, error)
}

// StateCollector exposes point-in-time gauges that are read on scrape
// rather than updated inline: source credential readiness and the number
// of cached reports.
type StateCollector struct {
	log   *logger.Logger
	ready func(sentiment.Source) bool
	cache CacheSizer

	// Descriptors
	sourceConfigured *prometheus.Desc
	cachedReports    *prometheus.Desc
}

// NewStateCollector creates a collector. cache may be nil when caching is off.
func NewStateCollector(log *logger.Logger, ready func(sentiment.Source) bool, cache CacheSizer) *StateCollector {
	if log == nil {
		log = logger.NewNop()
	}
	return &StateCollector{
		log:   log.With("component", "metrics_collector"),
		ready: ready,
		cache: cache,

		sourceConfigured: prometheus.NewDesc(
			"sentimenttracker_source_configured",
			"Whether a source has the credentials it needs (1=ready, 0=missing)",
			[]string{"source"}, nil,
		),
		cachedReports: prometheus.NewDesc(
			"sentimenttracker_cached_reports",
			"Number of reports currently held in the cache",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sourceConfigured
	ch <- c.cachedReports
}

// Collect implements prometheus.Collector
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	if c.ready != nil {
		for _, src := range sentiment.AllSources() {
			value := 0.0
			if c.ready(src) {
				value = 1.0
			}
			ch <- prometheus.MustNewConstMetric(c.sourceConfigured, prometheus.GaugeValue, value, string(src))
		}
	}

	if c.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := c.cache.Len(ctx)
	if err != nil {
		c.log.Warnw("Failed to count cached reports", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.cachedReports, prometheus.GaugeValue, float64(n))
}

// RegisterStateCollector registers the collector with the default registry
func RegisterStateCollector(collector *StateCollector) error {
	return prometheus.Register(collector)
}
