package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/pkg/errors"
)

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, `("$AAPL") OR "Apple" -is:retweet lang:en`, SearchQuery("aapl", "Apple"))
	assert.Equal(t, `("$TSLA") -is:retweet lang:en`, SearchQuery("TSLA", "  "))
}

func TestTwitter_MissingToken(t *testing.T) {
	tw := NewTwitter(TwitterConfig{}, testOptions())
	posts, err := tw.Fetch(context.Background(), Query{Ticker: "AAPL"})
	assert.Empty(t, posts)
	assert.ErrorIs(t, err, errors.ErrSourceUnavailable)
	assert.Equal(t, sentiment.SourceTwitter, tw.Source())
}

func TestTwitter_PaginatesAndMapsAuthors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, `("$AAPL") -is:retweet lang:en`, r.URL.Query().Get("query"))

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			assert.Empty(t, r.URL.Query().Get("next_token"))
			assert.Equal(t, "10", r.URL.Query().Get("max_results"))
			fmt.Fprint(w, `{
				"data": [
					{"id":"1","text":"$AAPL to the moon","author_id":"u1","created_at":"2024-03-14T10:00:00Z","lang":"en"},
					{"id":"2","text":"   ","author_id":"u1"},
					{"id":"","text":"no id"}
				],
				"includes": {"users":[{"id":"u1","username":"alice"}]},
				"meta": {"next_token":"page2","result_count":3}
			}`)
		default:
			assert.Equal(t, "page2", r.URL.Query().Get("next_token"))
			fmt.Fprint(w, `{
				"data": [{"id":"3","text":"Selling my AAPL","author_id":"u2","created_at":"2024-03-14T11:00:00Z"}],
				"includes": {"users":[{"id":"u2","username":"bob"}]},
				"meta": {"result_count":1}
			}`)
		}
	}))
	defer srv.Close()

	tw := NewTwitter(TwitterConfig{BearerToken: "tok", BaseURL: srv.URL}, testOptions())
	posts, err := tw.Fetch(context.Background(), Query{Ticker: "AAPL", Limit: 5})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "1", posts[0].ID)
	assert.Equal(t, "alice", posts[0].Author)
	assert.Equal(t, "https://x.com/i/web/status/1", posts[0].URL)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), posts[0].Timestamp)
	assert.Equal(t, sentiment.SourceTwitter, posts[0].Source)

	assert.Equal(t, "bob", posts[1].Author)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTwitter_PartialResultOnRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) > 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"1","text":"AAPL earnings beat"}],"meta":{"next_token":"more"}}`)
	}))
	defer srv.Close()

	tw := NewTwitter(TwitterConfig{BearerToken: "tok", BaseURL: srv.URL}, testOptions())
	posts, err := tw.Fetch(context.Background(), Query{Ticker: "AAPL", Limit: 50})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRateLimited)
	require.Len(t, posts, 1)
	assert.Equal(t, "1", posts[0].ID)
}

func TestTwitter_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta":{"result_count":0}}`)
	}))
	defer srv.Close()

	tw := NewTwitter(TwitterConfig{BearerToken: "tok", BaseURL: srv.URL}, testOptions())
	posts, err := tw.Fetch(context.Background(), Query{Ticker: "ZZZZ"})
	require.NoError(t, err)
	assert.Empty(t, posts)
}
