// Package sources holds the upstream platform adapters. Each adapter turns
// one platform's API into normalized posts for a ticker.
package sources

import (
	"context"
	"net/http"
	"time"

	"sentimenttracker/internal/adapters/ratelimit"
	"sentimenttracker/internal/adapters/retry"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/logger"
)

// Query describes what to fetch from a source
type Query struct {
	Ticker      string
	CompanyName string
	// Limit caps the number of posts; <= 0 selects the adapter default
	Limit int
}

// Fetcher pulls posts mentioning a ticker from one platform.
//
// Fetch returns ErrSourceUnavailable for missing or rejected credentials and
// ErrRateLimited when the quota is exhausted. No matches is an empty slice
// with a nil error. When a failure happens after some pages were read, the
// posts collected so far are returned together with the error.
type Fetcher interface {
	Source() sentiment.Source
	Fetch(ctx context.Context, q Query) ([]sentiment.Post, error)
}

// SocialProvider returns an aggregated social sentiment snapshot for a ticker
type SocialProvider interface {
	FetchSocialSentiment(ctx context.Context, ticker string) (*sentiment.SocialSentiment, error)
}

// Options are the collaborators shared by every adapter
type Options struct {
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
	Retry      retry.Config
	UserAgent  string
	Log        *logger.Logger
	// Now is the clock used for date windows; defaults to time.Now
	Now func() time.Time
}

const defaultUserAgent = "sentimenttracker/1.0"

func (o Options) withDefaults(src sentiment.Source) Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Limiter == nil {
		o.Limiter = ratelimit.NewMinInterval(string(src), ratelimit.DefaultIntervals[src])
	}
	if o.Retry.MaxRetries == 0 && o.Retry.InitialDelay == 0 {
		o.Retry = retry.DefaultConfig()
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Log == nil {
		o.Log = logger.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Log = o.Log.With("component", "source", "source", string(src))
	return o
}

func limitOr(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}
