package telegram

import (
	"context"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"sentimenttracker/internal/metrics"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

// maxMessageLength is Telegram's limit for one text message
const maxMessageLength = 4096

// botAPI is the subset of tgbotapi.BotAPI the bot uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot represents a Telegram bot instance
type Bot struct {
	api         botAPI
	log         *logger.Logger
	mu          sync.RWMutex
	running     bool
	msgHandler  func(context.Context, tgbotapi.Update)
	rateLimiter *rate.Limiter
	wg          sync.WaitGroup
}

// Config contains Telegram bot configuration
type Config struct {
	Token       string
	Debug       bool
	Timeout     int // Update timeout in seconds
	HTTPTimeout time.Duration
	// RatePerSec caps outgoing messages
	RatePerSec float64
}

// NewBot creates a new Telegram bot instance
func NewBot(cfg Config, log *logger.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram bot token is required")
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 90 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	api.Debug = cfg.Debug

	log.Infow("Authorized on Telegram", "account", api.Self.UserName)
	return newBot(api, cfg, log), nil
}

func newBot(api botAPI, cfg Config, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	burst := int(cfg.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Bot{
		api:         api,
		log:         log.With("component", "telegram_bot"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
	}
}

// SetMessageHandler registers a handler for incoming updates
func (b *Bot) SetMessageHandler(handler func(context.Context, tgbotapi.Update)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgHandler = handler
}

// Start long-polls for updates until ctx is cancelled. Each update is
// handled in its own goroutine; Start waits for them before returning.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	handler := b.msgHandler
	b.mu.Unlock()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Infow("✓ Telegram bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.Stop()
			b.wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			if handler == nil {
				continue
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						b.log.Errorw("Telegram handler panicked", "update_id", update.UpdateID, "panic", r)
					}
				}()
				handler(ctx, update)
			}()
		}
	}
}

// Stop stops receiving updates
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return
	}
	b.log.Infow("Stopping Telegram bot...")
	b.api.StopReceivingUpdates()
	b.running = false
}

// SendText sends a plain-text message, waiting on the outgoing rate limit.
// Text beyond Telegram's message limit is truncated.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	start := time.Now()
	msg := tgbotapi.NewMessage(chatID, nlp.Truncate(text, maxMessageLength))
	msg.DisableWebPagePreview = true

	_, err := b.api.Send(msg)
	metrics.RecordTelegramMessage("out", err)
	if err != nil {
		b.log.Errorw("Failed to send message",
			"chat_id", chatID,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return errors.Wrap(err, "failed to send message")
	}

	b.log.Debugw("Message sent", "chat_id", chatID, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
