package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentimenttracker/internal/domain/sentiment"
)

const mockSpacing = 6 * time.Hour

var mockTemplates = []string{
	"$%s looks strong after earnings. Guidance was better than expected.",
	"I'm worried %s is overvalued here. Macro headwinds are real.",
	"Neutral take: %s might trade sideways until the next catalyst.",
	"Bull case: %s product cycle + margin expansion could drive upside.",
	"Bear case: %s competition increasing; watch revenue growth.",
}

// MockPosts returns the fixed demo posts for a source. Timestamps step back
// six hours from now so the time series has more than one point.
func MockPosts(src sentiment.Source, ticker string, now time.Time) []sentiment.Post {
	t := strings.ToUpper(ticker)
	posts := make([]sentiment.Post, 0, len(mockTemplates))
	for i, tmpl := range mockTemplates {
		posts = append(posts, sentiment.Post{
			Source:    src,
			ID:        fmt.Sprintf("mock-%s-%d", src, i),
			Text:      fmt.Sprintf(tmpl, t),
			Author:    "mock",
			Timestamp: now.UTC().Add(-time.Duration(i) * mockSpacing),
			Extra:     map[string]string{"mock": "true"},
		})
	}
	return posts
}

// Mock is a Fetcher that always returns the demo posts
type Mock struct {
	src sentiment.Source
	now func() time.Time
}

// NewMock creates a demo fetcher for src
func NewMock(src sentiment.Source, now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	return &Mock{src: src, now: now}
}

// Source implements Fetcher
func (m *Mock) Source() sentiment.Source { return m.src }

// Fetch implements Fetcher
func (m *Mock) Fetch(ctx context.Context, q Query) ([]sentiment.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	posts := MockPosts(m.src, q.Ticker, m.now())
	if q.Limit > 0 && q.Limit < len(posts) {
		posts = posts[:q.Limit]
	}
	return posts, nil
}
