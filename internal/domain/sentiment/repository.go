package sentiment

import (
	"context"
	"time"
)

// ReportCache stores finished reports for a short TTL (Redis).
// A cached report is served verbatim; nothing is derived from it.
type ReportCache interface {
	Get(ctx context.Context, key string) (*Report, bool, error)
	Set(ctx context.Context, key string, report *Report, ttl time.Duration) error
}

// RunPublisher emits run events for downstream consumers (Kafka)
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error
}
