package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no stray .env

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sentimenttracker", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 150, cfg.Collection.XLimit)
	assert.Equal(t, []string{"stocks", "investing", "wallstreetbets"}, cfg.Collection.RedditSubreddits)
	assert.Equal(t, 7, cfg.Collection.FinnhubDays)
	assert.Equal(t, 20*time.Second, cfg.Pipeline.SourceTimeout)
	assert.Equal(t, 5, cfg.Pipeline.MaxConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.CacheTTL)
	assert.False(t, cfg.Pipeline.MockFallback)
	assert.True(t, cfg.Pipeline.EnableFinnhubSocial)
	assert.Equal(t, 15*time.Minute, cfg.Workers.WatchlistInterval)

	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
	assert.Equal(t, "sentiment.runs.completed", cfg.Kafka.Topic)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TWITTER_BEARER_TOKEN", "  tok  ")
	t.Setenv("REDDIT_SUBREDDITS", "stocks,options")
	t.Setenv("SOURCE_TIMEOUT", "5s")
	t.Setenv("MOCK_FALLBACK", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WATCHLIST_TICKERS", "AAPL,TSLA")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.Credentials.TwitterBearerToken)
	assert.Equal(t, []string{"stocks", "options"}, cfg.Collection.RedditSubreddits)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.SourceTimeout)
	assert.True(t, cfg.Pipeline.MockFallback)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"AAPL", "TSLA"}, cfg.Workers.WatchlistTickers)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SOURCE_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("concurrency out of range", func(t *testing.T) {
		t.Setenv("SOURCE_CONCURRENCY", "9")
		_, err := Load()
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("sentry without dsn", func(t *testing.T) {
		t.Setenv("ERROR_TRACKING_ENABLED", "true")
		_, err := Load()
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestCredentials_Status(t *testing.T) {
	c := Credentials{
		TwitterBearerToken: "t",
		RedditClientID:     "id",
		RedditClientSecret: "secret",
		FinnhubAPIKey:      "f",
	}

	got := map[string]bool{}
	for _, s := range c.Status() {
		got[s.Name] = s.Configured
	}
	assert.Equal(t, map[string]bool{
		"TWITTER_BEARER_TOKEN": true,
		"TWITTER_OAUTH1_SET":   false,
		"REDDIT_KEYS":          false,
		"YOUTUBE_API_KEY":      false,
		"FINNHUB_API_KEY":      true,
		"STOCKTWITS_TOKEN":     false,
	}, got)

	assert.True(t, c.Ready(sentiment.SourceTwitter))
	assert.False(t, c.Ready(sentiment.SourceReddit))
	assert.False(t, c.Ready(sentiment.SourceYouTube))
	assert.True(t, c.Ready(sentiment.SourceFinnhub))
	assert.True(t, c.Ready(sentiment.SourceStockTwits))
}
