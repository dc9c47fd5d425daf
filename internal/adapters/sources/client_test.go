package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/adapters/ratelimit"
	"sentimenttracker/internal/adapters/retry"
	"sentimenttracker/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// testOptions disables spacing and shortens backoff so tests stay fast
func testOptions() Options {
	return Options{
		Limiter: ratelimit.NewMinInterval("test", 0),
		Retry: retry.Config{
			MaxRetries:   2,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
			Strategy:     retry.StrategyFixed,
		},
		Now: func() time.Time { return fixedNow },
	}
}

func testClient() *apiClient {
	return newAPIClient(testOptions().withDefaults("test"), nil)
}

func TestAPIClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	var out struct {
		Value string `json:"value"`
	}
	err := testClient().getJSON(context.Background(), srv.URL, nil, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAPIClient_GivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testClient().getJSON(context.Background(), srv.URL, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstream)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAPIClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrSourceUnavailable},
		{"forbidden", http.StatusForbidden, errors.ErrSourceUnavailable},
		{"too many requests", http.StatusTooManyRequests, errors.ErrRateLimited},
		{"not found", http.StatusNotFound, errors.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := testClient().getJSON(context.Background(), srv.URL, nil, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retried")
		})
	}
}

func TestAPIClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := testClient().getJSON(context.Background(), srv.URL, nil, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstream)
}

func TestAPIClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := testClient().getJSON(ctx, srv.URL, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseHelpers(t *testing.T) {
	assert.True(t, parseRFC3339("").IsZero())
	assert.True(t, parseRFC3339("yesterday").IsZero())
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), parseRFC3339("2024-01-02T04:04:05+01:00"))

	assert.True(t, unixTime(0).IsZero())
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), unixTime(float64(fixedNow.Unix())))
}
