package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sentimenttracker/internal/adapters/config"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/metrics"
	"sentimenttracker/internal/render"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const helpText = `Stock social sentiment bot

/sentiment TICKER [company name] - score recent posts about a ticker
/sources - show which sources are configured
/help - this message`

// Runner executes one tracker run
type Runner interface {
	Run(ctx context.Context, req tracker.Request) (*sentiment.Report, error)
}

// Messenger delivers replies
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// CommandHandler answers bot commands
type CommandHandler struct {
	runner      Runner
	messenger   Messenger
	credentials config.Credentials
	admins      map[int64]bool
	now         func() time.Time
	log         *logger.Logger
}

// NewCommandHandler creates the command handler. When admins is non-empty
// only those user IDs may use the bot.
func NewCommandHandler(runner Runner, messenger Messenger, creds config.Credentials, admins []int64, log *logger.Logger) *CommandHandler {
	if log == nil {
		log = logger.NewNop()
	}
	allowed := make(map[int64]bool, len(admins))
	for _, id := range admins {
		allowed[id] = true
	}
	return &CommandHandler{
		runner:      runner,
		messenger:   messenger,
		credentials: creds,
		admins:      allowed,
		now:         time.Now,
		log:         log.With("component", "telegram_commands"),
	}
}

// HandleUpdate dispatches one update. Non-command messages are ignored.
func (h *CommandHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	log := h.log.With("chat_id", msg.Chat.ID, "command", msg.Command())
	if len(h.admins) > 0 && (msg.From == nil || !h.admins[msg.From.ID]) {
		log.Warnw("Ignoring command from unauthorized user")
		metrics.RecordTelegramMessage("in", errors.New("unauthorized"))
		return
	}
	metrics.RecordTelegramMessage("in", nil)

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = helpText
	case "sources":
		reply = h.sourcesText()
	case "sentiment":
		reply = h.sentiment(ctx, log, msg.Chat.ID, msg.CommandArguments())
	default:
		reply = fmt.Sprintf("Unknown command /%s\n\n%s", msg.Command(), helpText)
	}

	if reply == "" {
		return
	}
	if err := h.messenger.SendText(ctx, msg.Chat.ID, reply); err != nil {
		log.Errorw("Failed to reply", "error", err)
	}
}

func (h *CommandHandler) sentiment(ctx context.Context, log *logger.Logger, chatID int64, args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "Usage: /sentiment TICKER [company name]"
	}
	req := tracker.Request{
		Ticker:      fields[0],
		CompanyName: strings.Join(fields[1:], " "),
	}

	if err := h.messenger.SendText(ctx, chatID, fmt.Sprintf("Collecting posts for %s...", strings.ToUpper(req.Ticker))); err != nil {
		log.Warnw("Failed to send progress message", "error", err)
	}

	report, err := h.runner.Run(ctx, req)
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return fmt.Sprintf("%q is not a valid ticker.", fields[0])
	case errors.Is(err, context.Canceled):
		return ""
	case err != nil:
		log.Errorw("Sentiment run failed", "ticker", req.Ticker, "error", err)
		return "Something went wrong while collecting posts. Try again later."
	}

	text, err := render.Telegram(report, h.now())
	if err != nil {
		log.Errorw("Failed to render report", "error", err)
		return "Something went wrong while formatting the report."
	}
	return text
}

func (h *CommandHandler) sourcesText() string {
	var b strings.Builder
	b.WriteString("Sources:\n")
	for _, src := range sentiment.AllSources() {
		state := "missing credentials"
		if h.credentials.Ready(src) {
			state = "ready"
		}
		fmt.Fprintf(&b, "%s: %s\n", src.DisplayName(), state)
	}
	b.WriteString("\nKeys:\n")
	for _, k := range h.credentials.Status() {
		mark := "no"
		if k.Configured {
			mark = "yes"
		}
		fmt.Fprintf(&b, "%s: %s\n", k.Name, mark)
	}
	return strings.TrimSpace(b.String())
}
