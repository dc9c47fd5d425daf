package redis

import (
	"context"
	"time"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

// ReportKeyPrefix namespaces cached reports
const ReportKeyPrefix = "sentiment:report:"

// ReportCache stores finished reports as JSON with a TTL
type ReportCache struct {
	client *Client
}

// NewReportCache creates a report cache on top of client
func NewReportCache(client *Client) *ReportCache {
	return &ReportCache{client: client}
}

// Get implements sentiment.ReportCache
func (c *ReportCache) Get(ctx context.Context, key string) (*sentiment.Report, bool, error) {
	var report sentiment.Report
	err := c.client.Get(ctx, ReportKeyPrefix+key, &report)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get cached report")
	}
	return &report, true, nil
}

// Set implements sentiment.ReportCache
func (c *ReportCache) Set(ctx context.Context, key string, report *sentiment.Report, ttl time.Duration) error {
	if err := c.client.Set(ctx, ReportKeyPrefix+key, report, ttl); err != nil {
		return errors.Wrap(err, "cache report")
	}
	return nil
}

// Len counts cached reports
func (c *ReportCache) Len(ctx context.Context) (int, error) {
	return c.client.CountKeys(ctx, ReportKeyPrefix+"*")
}
