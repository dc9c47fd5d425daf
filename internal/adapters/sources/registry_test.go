package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
)

func TestRegistry(t *testing.T) {
	opts := testOptions()
	r := NewRegistry(
		NewStockTwits(StockTwitsConfig{}, opts),
		NewTwitter(TwitterConfig{}, opts),
		NewFinnhub(FinnhubConfig{}, opts),
		nil,
	)

	assert.Equal(t, []sentiment.Source{sentiment.SourceTwitter, sentiment.SourceFinnhub, sentiment.SourceStockTwits}, r.Sources())

	f, ok := r.Get(sentiment.SourceTwitter)
	require.True(t, ok)
	assert.Equal(t, sentiment.SourceTwitter, f.Source())

	_, ok = r.Get(sentiment.SourceYouTube)
	assert.False(t, ok)

	sp, ok := r.SocialProvider()
	require.True(t, ok)
	assert.IsType(t, &Finnhub{}, sp)

	r.Register(NewMock(sentiment.SourceTwitter, nil))
	f, _ = r.Get(sentiment.SourceTwitter)
	assert.IsType(t, &Mock{}, f)
}

func TestRegistry_NoSocialProvider(t *testing.T) {
	_, ok := NewRegistry(NewMock(sentiment.SourceReddit, nil)).SocialProvider()
	assert.False(t, ok)
}

func TestMockPosts(t *testing.T) {
	posts := MockPosts(sentiment.SourceReddit, "aapl", fixedNow)
	require.Len(t, posts, 5)

	for i, p := range posts {
		assert.Equal(t, sentiment.SourceReddit, p.Source)
		assert.Equal(t, "mock", p.Author)
		assert.Equal(t, "true", p.Extra["mock"])
		assert.Equal(t, fixedNow.Add(-6*time.Duration(i)*time.Hour), p.Timestamp)
	}
	assert.Equal(t, "mock-reddit-0", posts[0].ID)
	assert.Equal(t, "$AAPL looks strong after earnings. Guidance was better than expected.", posts[0].Text)
	assert.Equal(t, posts, MockPosts(sentiment.SourceReddit, "AAPL", fixedNow))
}

func TestMockFetcher(t *testing.T) {
	m := NewMock(sentiment.SourceYouTube, func() time.Time { return fixedNow })
	posts, err := m.Fetch(context.Background(), Query{Ticker: "TSLA", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Fetch(ctx, Query{Ticker: "TSLA"})
	assert.ErrorIs(t, err, context.Canceled)
}
