package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/adapters/kafka"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/testsupport"
)

func TestProducerConsumer_RunEvents(t *testing.T) {
	cfg := testsupport.RequireKafka(t)

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Brokers, RunsTopic: cfg.Topic})
	defer producer.Close()
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Brokers,
		GroupID: testsupport.UniqueName("sentimenttracker-test"),
		Topic:   cfg.Topic,
	})
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	want := sentiment.RunCompletedEvent{RunID: uuid.New(), Ticker: "TSLA", TopicCount: 5}
	received := make(chan sentiment.RunCompletedEvent, 1)
	go func() {
		_ = consumer.ConsumeRuns(ctx, func(_ context.Context, e sentiment.RunCompletedEvent) error {
			if e.RunID == want.RunID {
				select {
				case received <- e:
				default:
				}
			}
			return nil
		})
	}()

	// The consumer starts at the newest offset, so keep publishing until
	// it has joined and sees one.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		require.NoError(t, producer.PublishRunCompleted(ctx, want))
		select {
		case got := <-received:
			assert.Equal(t, "TSLA", got.Ticker)
			assert.Equal(t, 5, got.TopicCount)
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("run event was not consumed")
		}
	}
}
