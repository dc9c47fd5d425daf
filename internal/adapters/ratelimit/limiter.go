package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

// Limiter spaces out calls to one upstream API
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewMinInterval creates a limiter that lets one request through every
// interval with no burst. A non-positive interval never blocks.
func NewMinInterval(name string, interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request. When the next
// slot falls after the ctx deadline it fails at once with ErrTimeout,
// before the deadline itself fires.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			return errors.Wrapf(errors.ErrTimeout, "rate limiter %s: %v", l.name, err)
		}
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}

// Default minimum spacing between requests per source
var DefaultIntervals = map[sentiment.Source]time.Duration{
	sentiment.SourceTwitter:    1200 * time.Millisecond,
	sentiment.SourceReddit:     1000 * time.Millisecond,
	sentiment.SourceYouTube:    1000 * time.Millisecond,
	sentiment.SourceStockTwits: 700 * time.Millisecond,
	sentiment.SourceFinnhub:    800 * time.Millisecond,
}

// SourceLimiters holds one limiter per source. Limiters are shared by every
// run in the process so concurrent runs cannot burst a single API.
type SourceLimiters struct {
	limiters map[sentiment.Source]*Limiter
	mu       sync.RWMutex
}

// NewSourceLimiters creates limiters with the given intervals; sources
// missing from intervals fall back to DefaultIntervals
func NewSourceLimiters(intervals map[sentiment.Source]time.Duration) *SourceLimiters {
	s := &SourceLimiters{limiters: make(map[sentiment.Source]*Limiter)}
	for _, src := range sentiment.AllSources() {
		interval, ok := intervals[src]
		if !ok {
			interval = DefaultIntervals[src]
		}
		s.limiters[src] = NewMinInterval(string(src), interval)
	}
	return s
}

// For returns the limiter of a source, creating an unthrottled one for
// unknown sources
func (s *SourceLimiters) For(src sentiment.Source) *Limiter {
	s.mu.RLock()
	l, ok := s.limiters[src]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok = s.limiters[src]; ok {
		return l
	}
	l = NewMinInterval(string(src), 0)
	s.limiters[src] = l
	return l
}
