package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func sampleReport() *sentiment.Report {
	earliest := now.Add(-48 * time.Hour)
	post := sentiment.ScoredPost{
		Post: sentiment.Post{
			Source:    sentiment.SourceReddit,
			ID:        "abc",
			Text:      "TSLA to the moon | seriously\nbuying more",
			Timestamp: now.Add(-3 * time.Hour),
			URL:       "https://reddit.com/r/stocks/abc",
		},
		Compound: 0.6249,
		Label:    sentiment.LabelPositive,
	}
	return &sentiment.Report{
		RunID:       uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Ticker:      "TSLA",
		CompanyName: "Tesla",
		GeneratedAt: now.Add(-5 * time.Minute),
		Sources: []sentiment.SourceStatus{
			{Source: sentiment.SourceTwitter, Status: sentiment.StatusUnavailable, Error: "source unavailable: missing | token"},
			{Source: sentiment.SourceReddit, Status: sentiment.StatusOK, Posts: 1234, Duration: 1500 * time.Millisecond},
		},
		Summary: sentiment.AggregateSummary{
			Total:        1234,
			MeanCompound: 0.1234,
			PctPositive:  50,
			PctNeutral:   30,
			PctNegative:  20,
			Earliest:     &earliest,
		},
		Breakdown:    []sentiment.BreakdownRow{{Source: sentiment.SourceReddit, Mentions: 1234, MeanCompound: 0.1234}},
		Distribution: []sentiment.DistributionRow{{Label: sentiment.LabelPositive, Count: 617}},
		Topics: []sentiment.Topic{{Index: 0, Terms: []sentiment.TermWeight{
			{Term: "earnings", Weight: 1.2}, {Term: "delivery", Weight: 0.7},
		}}},
		Words:    []sentiment.TermCount{{Term: "tesla", Count: 1500}},
		Sample:   []sentiment.ScoredPost{post},
		Social:   &sentiment.SocialSentiment{Symbol: "TSLA", RedditMentions: 42, RedditPositiveScore: 0.7},
		Warnings: []string{"X unavailable: missing bearer token"},
	}
}

func TestMarkdown(t *testing.T) {
	out, err := MarkdownString(sampleReport(), now)
	require.NoError(t, err)

	assert.Contains(t, out, "# TSLA social sentiment (Tesla)")
	assert.Contains(t, out, "5 minutes ago")
	assert.Contains(t, out, "| Reddit | ok | 1,234 | 1.5s |")
	assert.Contains(t, out, `missing \| token`, "pipes inside cells are escaped")
	assert.Contains(t, out, "Data from Reddit.")
	assert.Contains(t, out, "Failed: X.")
	assert.Contains(t, out, "| Mean compound | +0.123 |")
	assert.Contains(t, out, "| Positive | 50.0% |")
	assert.Contains(t, out, "| Earliest post | 2 days ago |")
	assert.Contains(t, out, "1. earnings, delivery")
	assert.Contains(t, out, "tesla (1,500)")
	assert.Contains(t, out, "**Reddit** +0.625 (positive), 3 hours ago: TSLA to the moon | seriously buying more")
	assert.Contains(t, out, "## Finnhub social sentiment")
	assert.Contains(t, out, "- X unavailable: missing bearer token")
	assert.NotContains(t, out, "No data")
}

func TestMarkdown_NoData(t *testing.T) {
	report := &sentiment.Report{
		Ticker:      "ZZZZ",
		GeneratedAt: now,
		Sources:     []sentiment.SourceStatus{{Source: sentiment.SourceStockTwits, Status: sentiment.StatusEmpty}},
		NoData:      true,
	}

	out, err := MarkdownString(report, now)
	require.NoError(t, err)
	assert.Contains(t, out, "**No data.**")
	assert.Contains(t, out, "| StockTwits | empty | 0 | - |")
	assert.NotContains(t, out, "## Summary")
	assert.NotContains(t, out, "## Warnings")
	assert.NotContains(t, out, "Data from")
	assert.NotContains(t, out, "Failed:")
}

func TestTelegram(t *testing.T) {
	report := sampleReport()
	report.Cached = true

	out, err := Telegram(report, now)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "TSLA (Tesla) social sentiment"))
	assert.Contains(t, out, "(cached, 5 minutes ago)")
	assert.Contains(t, out, "Mentions: 1,234")
	assert.Contains(t, out, "Reddit: 1,234 posts, mean +0.123")
	assert.Contains(t, out, "X: unavailable")
	assert.Contains(t, out, "Failed: X")
	assert.Contains(t, out, "1. earnings, delivery")
	assert.NotContains(t, out, "{{")
}

func TestTelegram_NoData(t *testing.T) {
	out, err := Telegram(&sentiment.Report{Ticker: "ZZZZ", NoData: true}, now)
	require.NoError(t, err)
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "Mentions")
}

func TestRender_NilReport(t *testing.T) {
	_, err := MarkdownString(nil, now)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "", bar(0, 10))
	assert.Equal(t, "`██████████`", bar(5, 10))
	assert.Equal(t, "`█`", bar(1, 1000))
	assert.Equal(t, "-", dur(0))
	assert.Equal(t, "250ms", dur(250*time.Millisecond))
	assert.Equal(t, "unknown", ago((*time.Time)(nil), now))
	assert.Equal(t, "a b c", quote("a\n b\t\tc", 50))
}
