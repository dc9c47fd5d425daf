package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/adapters/config"
	"sentimenttracker/internal/api/health"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, req tracker.Request) (*sentiment.Report, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*sentiment.Report)
	return report, args.Error(1)
}

func newTestServer(runner Runner, creds config.Credentials) http.Handler {
	log := logger.NewNop()
	handlers := NewHandlers(runner, creds, []sentiment.Source{sentiment.SourceReddit, sentiment.SourceStockTwits}, log)
	srv := NewServer(ServerConfig{ServiceName: "sentimenttracker", Version: "test"}, health.New(log, "sentimenttracker", "test", nil), handlers, log)
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleSentiment(t *testing.T) {
	runner := &mockRunner{}
	want := tracker.Request{
		Ticker:      "aapl",
		CompanyName: "Apple",
		Limit:       20,
		Sources:     []sentiment.Source{sentiment.SourceTwitter, sentiment.SourceReddit},
		TopicCount:  3,
	}
	runner.On("Run", mock.Anything, want).Return(&sentiment.Report{Ticker: "AAPL", NoData: true}, nil).Once()

	rec := get(t, newTestServer(runner, config.Credentials{}), "/api/v1/sentiment?ticker=aapl&company=Apple&limit=20&sources=x,reddit&topics=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report sentiment.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "AAPL", report.Ticker)
	assert.True(t, report.NoData)
	runner.AssertExpectations(t)
}

func TestHandleSentiment_BadRequests(t *testing.T) {
	runner := &mockRunner{}
	srv := newTestServer(runner, config.Credentials{})

	for _, target := range []string{
		"/api/v1/sentiment",
		"/api/v1/sentiment?ticker=AAPL&limit=abc",
		"/api/v1/sentiment?ticker=AAPL&limit=-1",
		"/api/v1/sentiment?ticker=AAPL&topics=0",
		"/api/v1/sentiment?ticker=AAPL&topics=11",
		"/api/v1/sentiment?ticker=AAPL&sources=myspace",
		"/api/v1/sentiment?ticker=AAPL&refresh=maybe",
	} {
		rec := get(t, srv, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"error"`, target)
	}
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestHandleSentiment_RunErrors(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.MatchedBy(func(r tracker.Request) bool { return r.Ticker == "$$" })).
		Return(nil, errors.Wrap(errors.ErrInvalidInput, "invalid ticker"))
	runner.On("Run", mock.Anything, mock.MatchedBy(func(r tracker.Request) bool { return r.Ticker == "BOOM" })).
		Return(nil, fmt.Errorf("unexpected"))
	srv := newTestServer(runner, config.Credentials{})

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/v1/sentiment?ticker="+url.QueryEscape("$$")).Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, srv, "/api/v1/sentiment?ticker=BOOM").Code)
}

func TestHandleSources(t *testing.T) {
	creds := config.Credentials{YouTubeAPIKey: "secret-key", FinnhubAPIKey: "fh"}
	rec := get(t, newTestServer(&mockRunner{}, creds), "/api/v1/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-key")

	var resp SourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 5)

	bySource := map[sentiment.Source]SourceInfo{}
	for _, s := range resp.Sources {
		bySource[s.Source] = s
	}
	assert.True(t, bySource[sentiment.SourceYouTube].Ready)
	assert.False(t, bySource[sentiment.SourceYouTube].Registered)
	assert.True(t, bySource[sentiment.SourceReddit].Registered)
	assert.False(t, bySource[sentiment.SourceTwitter].Ready)
	assert.True(t, bySource[sentiment.SourceStockTwits].Ready)

	keys := map[string]bool{}
	for _, k := range resp.Keys {
		keys[k.Name] = k.Configured
	}
	assert.True(t, keys["YOUTUBE_API_KEY"])
	assert.False(t, keys["REDDIT_KEYS"])
}

func TestServer_MethodAndRoutes(t *testing.T) {
	srv := newTestServer(&mockRunner{}, config.Credentials{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sentiment?ticker=AAPL", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/live").Code)

	root := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, root.Code)
	assert.Contains(t, root.Body.String(), "sentimenttracker")
}

func TestParseSources(t *testing.T) {
	srcs, err := ParseSources(" X, youtube ,,StockTwits")
	require.NoError(t, err)
	assert.Equal(t, []sentiment.Source{sentiment.SourceTwitter, sentiment.SourceYouTube, sentiment.SourceStockTwits}, srcs)

	_, err = ParseSources("reddit,friendster")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
