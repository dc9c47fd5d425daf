package bootstrap

import (
	"context"
	"net/http"
	"time"

	"sentimenttracker/internal/adapters/config"
	errnoop "sentimenttracker/internal/adapters/errors/noop"
	"sentimenttracker/internal/adapters/errors/sentry"
	"sentimenttracker/internal/adapters/kafka"
	"sentimenttracker/internal/adapters/ratelimit"
	redisclient "sentimenttracker/internal/adapters/redis"
	"sentimenttracker/internal/adapters/retry"
	"sentimenttracker/internal/adapters/sources"
	"sentimenttracker/internal/adapters/telegram"
	"sentimenttracker/internal/api"
	"sentimenttracker/internal/api/health"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/metrics"
	"sentimenttracker/internal/services/aggregation"
	"sentimenttracker/internal/services/scoring"
	"sentimenttracker/internal/services/topics"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/internal/vader"
	"sentimenttracker/internal/workers"
	"sentimenttracker/internal/workers/watchlist"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects optional data stores. Redis only backs
// the report cache, so a failed connection degrades to uncached runs.
func (c *Container) MustInitInfrastructure() {
	if !c.Config.Redis.Enabled() {
		c.Log.Info("Redis not configured, report cache disabled")
		return
	}

	c.Log.Infow("Connecting to Redis...", "addr", c.Config.Redis.Addr())
	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()

	client, err := redisclient.NewClient(ctx, c.Config.Redis)
	if err != nil {
		c.Log.Warnw("Redis unavailable, report cache disabled", "error", err)
		return
	}
	c.Redis = client
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: External Adapters
// ========================================

// MustInitAdapters builds the source adapters, the report cache and the
// run event producer
func (c *Container) MustInitAdapters() {
	c.Adapters.Sources = provideSources(c.Config, c.Log)
	c.Log.Infow("✓ Source adapters registered", "sources", c.Adapters.Sources.Sources())

	if c.Redis != nil {
		c.Adapters.ReportCache = redisclient.NewReportCache(c.Redis)
	}

	if c.Config.Kafka.Enabled() {
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	}
}

// ========================================
// Phase 4: Services
// ========================================

// MustInitServices builds the scoring, topic and tracker services
func (c *Container) MustInitServices() {
	pipeline := c.Config.Pipeline

	// nil selects the bundled lexicon
	var valences vader.Valences
	if pipeline.LexiconPath != "" {
		lexicon, err := vader.LoadLexicon(pipeline.LexiconPath)
		if err != nil {
			c.Log.Fatalf("failed to load lexicon %s: %v", pipeline.LexiconPath, err)
		}
		c.Log.Infow("✓ Lexicon loaded", "path", pipeline.LexiconPath, "entries", len(lexicon))
		valences = lexicon
	}

	frequency, err := aggregation.ParseFrequency(pipeline.TimeSeriesFrequency)
	if err != nil {
		c.Log.Fatalf("invalid TIMESERIES_FREQUENCY: %v", err)
	}

	c.Services.Scoring = scoring.NewService(vader.New(valences), c.Log)
	c.Services.Topics = topics.NewService(topics.Config{TopTerms: pipeline.TopicTerms}, c.Log)

	var opts []tracker.Option
	if c.Adapters.ReportCache != nil {
		opts = append(opts, tracker.WithCache(c.Adapters.ReportCache))
	}
	if c.Adapters.KafkaProducer != nil {
		opts = append(opts, tracker.WithPublisher(c.Adapters.KafkaProducer))
	}

	c.Services.Tracker = tracker.NewService(
		tracker.Config{
			SourceTimeout:  pipeline.SourceTimeout,
			MaxConcurrency: pipeline.MaxConcurrency,
			MaxLimit:       pipeline.MaxLimit,
			TopicCount:     pipeline.TopicCount,
			SampleSize:     pipeline.SampleSize,
			WordCloudTerms: pipeline.WordCloudTerms,
			Frequency:      frequency,
			MockFallback:   pipeline.MockFallback,
			EnableSocial:   pipeline.EnableFinnhubSocial,
			CacheTTL:       pipeline.CacheTTL,
		},
		c.Adapters.Sources,
		c.Services.Scoring,
		c.Services.Topics,
		c.Log,
		opts...,
	)
	c.Log.Info("✓ Tracker service initialized")
}

// ========================================
// Phase 5: Application Layer
// ========================================

// MustInitApplication builds the HTTP API, metrics and the optional bot
func (c *Container) MustInitApplication() {
	metrics.Init()

	var cacheSizer metrics.CacheSizer
	if c.Adapters.ReportCache != nil {
		cacheSizer = c.Adapters.ReportCache
	}
	collector := metrics.NewStateCollector(c.Log, c.Config.Credentials.Ready, cacheSizer)
	if err := metrics.RegisterStateCollector(collector); err != nil {
		c.Log.Warnw("Failed to register state collector", "error", err)
	}

	checks := map[string]health.Checker{}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	c.Application.HealthHandler = health.New(c.Log, c.Config.App.Name, Version, checks)

	handlers := api.NewHandlers(c.Services.Tracker, c.Config.Credentials, c.Adapters.Sources.Sources(), c.Log)
	c.Application.HTTPServer = api.NewServer(
		api.ServerConfig{
			Port:        c.Config.HTTP.Port,
			ServiceName: c.Config.App.Name,
			Version:     Version,
			RunTimeout:  c.Config.Pipeline.SourceTimeout,
		},
		c.Application.HealthHandler,
		handlers,
		c.Log,
	)

	if c.Config.Telegram.Enabled() {
		c.Application.TelegramBot, c.Application.TelegramHandler = provideTelegramBot(c.Config, c.Services.Tracker, c.Log)
	}
}

// ========================================
// Phase 6: Background Processing
// ========================================

// MustInitBackground registers the periodic workers
func (c *Container) MustInitBackground() {
	c.Background.WorkerScheduler = workers.NewScheduler()

	w := c.Config.Workers
	refresher := watchlist.NewRefresher(c.Services.Tracker, w.WatchlistTickers, w.WatchlistLimit, w.WatchlistInterval)
	if c.Redis != nil {
		refresher.SetLocker(c.Redis)
	}
	c.Background.WorkerScheduler.RegisterWorker(refresher)
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	sentryTracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Name+"@"+Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return sentryTracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Infow("Initializing Kafka producer...", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:   cfg.Kafka.Brokers,
		Async:     cfg.Kafka.Async,
		RunsTopic: cfg.Kafka.Topic,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

// provideSources registers every platform adapter. Adapters without
// credentials stay registered and report themselves unavailable per run.
func provideSources(cfg *config.Config, log *logger.Logger) *sources.Registry {
	creds := cfg.Credentials
	coll := cfg.Collection

	httpClient := &http.Client{Timeout: coll.HTTPTimeout}
	limiters := ratelimit.NewSourceLimiters(nil)
	options := func(src sentiment.Source) sources.Options {
		return sources.Options{
			HTTPClient: httpClient,
			Limiter:    limiters.For(src),
			Retry:      retry.DefaultConfig(),
			Log:        log,
		}
	}

	registry := sources.NewRegistry(
		sources.NewTwitter(sources.TwitterConfig{
			BearerToken: creds.TwitterBearerToken,
			Limit:       coll.XLimit,
		}, options(sentiment.SourceTwitter)),
		sources.NewReddit(sources.RedditConfig{
			ClientID:        creds.RedditClientID,
			ClientSecret:    creds.RedditClientSecret,
			UserAgent:       creds.RedditUserAgent,
			Subreddits:      coll.RedditSubreddits,
			PostsPerSub:     coll.RedditPostsPerSub,
			CommentsPerPost: coll.RedditCommentsPerPost,
		}, options(sentiment.SourceReddit)),
		sources.NewYouTube(sources.YouTubeConfig{
			APIKey:           creds.YouTubeAPIKey,
			Videos:           coll.YouTubeVideos,
			CommentsPerVideo: coll.YouTubeCommentsPerVideo,
		}, options(sentiment.SourceYouTube)),
		sources.NewFinnhub(sources.FinnhubConfig{
			APIKey: creds.FinnhubAPIKey,
			Days:   coll.FinnhubDays,
			Limit:  coll.FinnhubLimit,
		}, options(sentiment.SourceFinnhub)),
		sources.NewStockTwits(sources.StockTwitsConfig{
			Token: creds.StockTwitsToken,
			Limit: coll.StockTwitsLimit,
		}, options(sentiment.SourceStockTwits)),
	)

	for _, src := range sentiment.AllSources() {
		if !creds.Ready(src) {
			log.Warnw("Source has no credentials and will report unavailable", "source", src)
		}
	}
	return registry
}

func provideTelegramBot(cfg *config.Config, runner telegram.Runner, log *logger.Logger) (*telegram.Bot, *telegram.CommandHandler) {
	log.Info("Initializing Telegram bot...")
	bot, err := telegram.NewBot(telegram.Config{
		Token:      cfg.Telegram.BotToken,
		Debug:      cfg.App.Debug,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log)
	if err != nil {
		log.Errorw("Telegram bot disabled", "error", err)
		return nil, nil
	}

	handler := telegram.NewCommandHandler(runner, bot, cfg.Credentials, cfg.Telegram.AdminIDs, log)
	bot.SetMessageHandler(handler.HandleUpdate)
	log.Info("✓ Telegram bot initialized")
	return bot, handler
}
