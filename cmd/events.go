package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"sentimenttracker/internal/adapters/config"
	"sentimenttracker/internal/adapters/kafka"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/logger"
)

// eventsCmd tails the run-completed topic
type eventsCmd struct {
	group string
}

func (*eventsCmd) Name() string     { return "events" }
func (*eventsCmd) Synopsis() string { return "tail completed-run events from Kafka" }
func (*eventsCmd) Usage() string {
	return `events [-group <consumer group>]

  Prints one line per finished run published to KAFKA_RUNS_TOPIC.
`
}

func (c *eventsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.group, "group", "sentimenttracker-events-cli", "Kafka consumer group")
}

func (c *eventsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	if !cfg.Kafka.Enabled() {
		fmt.Fprintln(os.Stderr, "KAFKA_BROKERS is not set")
		return subcommands.ExitUsageError
	}
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: c.group,
		Topic:   cfg.Kafka.Topic,
	})
	defer consumer.Close()

	err = consumer.ConsumeRuns(ctx, func(_ context.Context, e sentiment.RunCompletedEvent) error {
		fmt.Println(eventLine(e))
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error consuming events: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func eventLine(e sentiment.RunCompletedEvent) string {
	if e.NoData {
		return fmt.Sprintf("%s %-6s no data", e.GeneratedAt.Format("2006-01-02 15:04:05"), e.Ticker)
	}
	return fmt.Sprintf("%s %-6s %s mentions, mean %+.3f, %.0f%% positive, %d topics",
		e.GeneratedAt.Format("2006-01-02 15:04:05"),
		e.Ticker,
		humanize.Comma(int64(e.Summary.Total)),
		e.Summary.MeanCompound,
		e.Summary.PctPositive,
		e.TopicCount,
	)
}
