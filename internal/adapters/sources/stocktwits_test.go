package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentimenttracker/pkg/errors"
)

func TestStockTwits_PagesWithCursor(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2/streams/symbol/AAPL.json", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("access_token"))

		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Empty(t, r.URL.Query().Get("max"))
			fmt.Fprint(w, `{"cursor":{"more":true,"max":90},"messages":[
				{"id":100,"body":"$AAPL breakout","created_at":"2024-03-14T10:00:00Z","user":{"username":"trader"},"entities":{"sentiment":{"basic":"Bullish"}}},
				{"id":99,"body":"   ","user":{"username":"blank"}}
			]}`)
			return
		}
		assert.Equal(t, "90", r.URL.Query().Get("max"))
		fmt.Fprint(w, `{"cursor":{"more":false,"max":80},"messages":[
			{"id":90,"body":"$AAPL fading","created_at":"2024-03-14T09:00:00Z","user":{"username":"bear"},"entities":{"sentiment":null}}
		]}`)
	}))
	defer srv.Close()

	st := NewStockTwits(StockTwitsConfig{BaseURL: srv.URL}, testOptions())
	posts, err := st.Fetch(context.Background(), Query{Ticker: "aapl"})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "100", posts[0].ID)
	assert.Equal(t, "trader", posts[0].Author)
	assert.Equal(t, "https://stocktwits.com/message/100", posts[0].URL)
	assert.Equal(t, "Bullish", posts[0].Extra["stocktwits_sentiment"])

	assert.Equal(t, "90", posts[1].ID)
	_, ok := posts[1].Extra["stocktwits_sentiment"]
	assert.False(t, ok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStockTwits_TokenAndTruncation(t *testing.T) {
	long := strings.Repeat("a", stocktwitsMaxBody+100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		fmt.Fprintf(w, `{"cursor":{"more":false},"messages":[{"id":1,"body":"%s"}]}`, long)
	}))
	defer srv.Close()

	posts, err := NewStockTwits(StockTwitsConfig{Token: "tok", BaseURL: srv.URL}, testOptions()).
		Fetch(context.Background(), Query{Ticker: "AAPL"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].Text, stocktwitsMaxBody)
}

func TestStockTwits_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	posts, err := NewStockTwits(StockTwitsConfig{BaseURL: srv.URL}, testOptions()).
		Fetch(context.Background(), Query{Ticker: "AAPL"})
	assert.Empty(t, posts)
	assert.ErrorIs(t, err, errors.ErrRateLimited)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
}
