package bootstrap

import (
	"context"
	"sync"

	"sentimenttracker/internal/adapters/config"
	"sentimenttracker/internal/adapters/kafka"
	redisclient "sentimenttracker/internal/adapters/redis"
	"sentimenttracker/internal/adapters/sources"
	"sentimenttracker/internal/adapters/telegram"
	"sentimenttracker/internal/api"
	"sentimenttracker/internal/api/health"
	"sentimenttracker/internal/services/scoring"
	"sentimenttracker/internal/services/topics"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/internal/workers"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

// Version is stamped at build time with -ldflags "-X ...bootstrap.Version=..."
var Version = "dev"

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional data stores)
	Redis *redisclient.Client

	// External Adapters
	Adapters *Adapters

	// Domain Layer - Services
	Services *Services

	// Application Layer
	Application *Application

	// Background Processing
	Background *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Adapters groups all external adapters
type Adapters struct {
	Sources       *sources.Registry
	ReportCache   *redisclient.ReportCache
	KafkaProducer *kafka.Producer
}

// Services groups the pipeline services
type Services struct {
	Scoring *scoring.Service
	Topics  *topics.Service
	Tracker *tracker.Service
}

// Application groups application layer components
type Application struct {
	HTTPServer      *api.Server
	HealthHandler   *health.Handler
	TelegramBot     *telegram.Bot
	TelegramHandler *telegram.CommandHandler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Adapters:    &Adapters{},
		Services:    &Services{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes every component the long-running server needs
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitPipeline()
	c.MustInitApplication()
	c.MustInitBackground()
}

// MustInitPipeline initializes only what a single tracker run needs. The
// one-shot CLI commands stop here.
func (c *Container) MustInitPipeline() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitAdapters()
	c.MustInitServices()
}

// Start starts the HTTP server, the worker scheduler and the bot
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	if bot := c.Application.TelegramBot; bot != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := bot.Start(c.Context); err != nil {
				c.Log.Errorw("Telegram bot failed", "error", err)
			}
		}()
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all other components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Application.TelegramBot,
		c.Adapters.KafkaProducer,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// Close releases what MustInitPipeline opened. Used by the one-shot CLI
// commands that never call Start.
func (c *Container) Close() {
	c.Cancel()
	c.Lifecycle.Shutdown(c.WG, nil, nil, nil, c.Adapters.KafkaProducer, c.Redis, c.ErrorTracker, c.Log)
}
