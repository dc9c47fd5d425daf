package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Credentials   Credentials
	Collection    CollectionConfig
	Pipeline      PipelineConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"sentimenttracker"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

// Credentials are the upstream API secrets. Every field is optional; a
// source without its credentials reports itself unavailable.
type Credentials struct {
	TwitterBearerToken       string `envconfig:"TWITTER_BEARER_TOKEN"`
	TwitterConsumerKey       string `envconfig:"TWITTER_CONSUMER_KEY"`
	TwitterConsumerSecret    string `envconfig:"TWITTER_CONSUMER_SECRET"`
	TwitterAccessToken       string `envconfig:"TWITTER_ACCESS_TOKEN"`
	TwitterAccessTokenSecret string `envconfig:"TWITTER_ACCESS_TOKEN_SECRET"`

	RedditClientID     string `envconfig:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `envconfig:"REDDIT_CLIENT_SECRET"`
	RedditUserAgent    string `envconfig:"REDDIT_USER_AGENT"`

	YouTubeAPIKey   string `envconfig:"YOUTUBE_API_KEY"`
	FinnhubAPIKey   string `envconfig:"FINNHUB_API_KEY"`
	StockTwitsToken string `envconfig:"STOCKTWITS_TOKEN"`
}

// KeyStatus reports whether one credential (or credential set) is present
type KeyStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Status lists which credentials are present without exposing their values
func (c Credentials) Status() []KeyStatus {
	return []KeyStatus{
		{"TWITTER_BEARER_TOKEN", c.TwitterBearerToken != ""},
		{"TWITTER_OAUTH1_SET", c.TwitterConsumerKey != "" && c.TwitterConsumerSecret != "" &&
			c.TwitterAccessToken != "" && c.TwitterAccessTokenSecret != ""},
		{"REDDIT_KEYS", c.RedditClientID != "" && c.RedditClientSecret != "" && c.RedditUserAgent != ""},
		{"YOUTUBE_API_KEY", c.YouTubeAPIKey != ""},
		{"FINNHUB_API_KEY", c.FinnhubAPIKey != ""},
		{"STOCKTWITS_TOKEN", c.StockTwitsToken != ""},
	}
}

// Ready reports whether src has what it needs to attempt a live fetch.
// StockTwits allows anonymous reads.
func (c Credentials) Ready(src sentiment.Source) bool {
	switch src {
	case sentiment.SourceTwitter:
		return c.TwitterBearerToken != ""
	case sentiment.SourceReddit:
		return c.RedditClientID != "" && c.RedditClientSecret != "" && c.RedditUserAgent != ""
	case sentiment.SourceYouTube:
		return c.YouTubeAPIKey != ""
	case sentiment.SourceFinnhub:
		return c.FinnhubAPIKey != ""
	case sentiment.SourceStockTwits:
		return true
	}
	return false
}

func (c *Credentials) trim() {
	for _, s := range []*string{
		&c.TwitterBearerToken, &c.TwitterConsumerKey, &c.TwitterConsumerSecret,
		&c.TwitterAccessToken, &c.TwitterAccessTokenSecret,
		&c.RedditClientID, &c.RedditClientSecret, &c.RedditUserAgent,
		&c.YouTubeAPIKey, &c.FinnhubAPIKey, &c.StockTwitsToken,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// CollectionConfig holds per-source fetch sizes
type CollectionConfig struct {
	XLimit                  int           `envconfig:"X_LIMIT" default:"150"`
	RedditPostsPerSub       int           `envconfig:"REDDIT_POSTS_PER_SUB" default:"25"`
	RedditCommentsPerPost   int           `envconfig:"REDDIT_COMMENTS_PER_POST" default:"8"`
	RedditSubreddits        []string      `envconfig:"REDDIT_SUBREDDITS" default:"stocks,investing,wallstreetbets"`
	YouTubeVideos           int           `envconfig:"YOUTUBE_VIDEOS" default:"7"`
	YouTubeCommentsPerVideo int           `envconfig:"YOUTUBE_COMMENTS_PER_VIDEO" default:"50"`
	StockTwitsLimit         int           `envconfig:"STOCKTWITS_LIMIT" default:"80"`
	FinnhubDays             int           `envconfig:"FINNHUB_DAYS" default:"7"`
	FinnhubLimit            int           `envconfig:"FINNHUB_LIMIT" default:"100"`
	HTTPTimeout             time.Duration `envconfig:"SOURCE_HTTP_TIMEOUT" default:"20s"`
}

// PipelineConfig tunes a tracker run
type PipelineConfig struct {
	SourceTimeout       time.Duration `envconfig:"SOURCE_TIMEOUT" default:"20s"`
	MaxConcurrency      int           `envconfig:"SOURCE_CONCURRENCY" default:"5"`
	MaxLimit            int           `envconfig:"MAX_LIMIT" default:"500"`
	TopicCount          int           `envconfig:"TOPIC_COUNT" default:"5"`
	TopicTerms          int           `envconfig:"TOPIC_TERMS" default:"8"`
	SampleSize          int           `envconfig:"SAMPLE_SIZE" default:"50"`
	WordCloudTerms      int           `envconfig:"WORDCLOUD_TERMS" default:"100"`
	TimeSeriesFrequency string        `envconfig:"TIMESERIES_FREQUENCY" default:"day"`
	MockFallback        bool          `envconfig:"MOCK_FALLBACK" default:"false"`
	EnableFinnhubSocial bool          `envconfig:"ENABLE_FINNHUB_SOCIAL" default:"true"`
	LexiconPath         string        `envconfig:"VADER_LEXICON_PATH"`
	CacheTTL            time.Duration `envconfig:"CACHE_TTL" default:"10m"`
}

// RedisConfig is optional; an empty host disables the report cache
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig is optional; no brokers disables run events
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_RUNS_TOPIC" default:"sentiment.runs.completed"`
	Async   bool     `envconfig:"KAFKA_ASYNC" default:"false"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// TelegramConfig is optional; no token disables the bot
type TelegramConfig struct {
	BotToken   string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminIDs   []int64 `envconfig:"TELEGRAM_ADMIN_IDS"`
	RatePerSec float64 `envconfig:"TELEGRAM_RATE_PER_SEC" default:"1"`
}

func (c TelegramConfig) Enabled() bool { return c.BotToken != "" }

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig drives the background watchlist refresher
type WorkerConfig struct {
	WatchlistTickers  []string      `envconfig:"WATCHLIST_TICKERS"`
	WatchlistInterval time.Duration `envconfig:"WATCHLIST_INTERVAL" default:"15m"`
	WatchlistLimit    int           `envconfig:"WATCHLIST_LIMIT" default:"50"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	cfg.Credentials.trim()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express
func (c *Config) Validate() error {
	if c.Pipeline.SourceTimeout <= 0 {
		return errors.Wrap(errors.ErrInvalidInput, "SOURCE_TIMEOUT must be positive")
	}
	if c.Pipeline.MaxConcurrency < 1 || c.Pipeline.MaxConcurrency > len(sentiment.AllSources()) {
		return errors.Wrapf(errors.ErrInvalidInput, "SOURCE_CONCURRENCY must be between 1 and %d", len(sentiment.AllSources()))
	}
	if c.Pipeline.MaxLimit < 1 {
		return errors.Wrap(errors.ErrInvalidInput, "MAX_LIMIT must be positive")
	}
	if c.ErrorTracking.Enabled && c.ErrorTracking.Provider == "sentry" && c.ErrorTracking.SentryDSN == "" {
		return errors.Wrap(errors.ErrInvalidInput, "SENTRY_DSN is required when error tracking is enabled")
	}
	return nil
}
