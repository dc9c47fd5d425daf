package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "sentimenttracker/internal/adapters/redis"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/testsupport"
)

func TestReportCache_RoundTrip(t *testing.T) {
	client := testsupport.NewRedisClient(t)
	cache := redisclient.NewReportCache(client)
	ctx := context.Background()
	key := testsupport.UniqueCacheKey("TSLA")

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "miss before set")

	report := &sentiment.Report{
		RunID:       uuid.New(),
		Ticker:      "TSLA",
		GeneratedAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		Summary:     sentiment.AggregateSummary{Total: 3, MeanCompound: 0.4},
		Warnings:    []string{"X unavailable: missing bearer token"},
	}
	require.NoError(t, cache.Set(ctx, key, report, time.Minute))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report.RunID, got.RunID)
	assert.Equal(t, 3, got.Summary.Total)
	assert.Equal(t, report.Warnings, got.Warnings)

	n, err := cache.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReportCache_Expires(t *testing.T) {
	client := testsupport.NewRedisClient(t)
	cache := redisclient.NewReportCache(client)
	ctx := context.Background()
	key := testsupport.UniqueCacheKey("AAPL")

	require.NoError(t, cache.Set(ctx, key, &sentiment.Report{Ticker: "AAPL"}, 1100*time.Millisecond))
	time.Sleep(1500 * time.Millisecond)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Health(t *testing.T) {
	client := testsupport.NewRedisClient(t)
	assert.NoError(t, client.Health(context.Background()))
}
