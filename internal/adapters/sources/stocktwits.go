package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const (
	defaultStockTwitsBaseURL = "https://api.stocktwits.com"
	stocktwitsMaxBody        = 5000
)

// StockTwitsConfig configures the StockTwits adapter. The token is
// optional; the symbol stream allows anonymous reads.
type StockTwitsConfig struct {
	Token   string
	BaseURL string
	Limit   int
}

// StockTwits reads a symbol's message stream
type StockTwits struct {
	cfg    StockTwitsConfig
	client *apiClient
	log    *logger.Logger
}

// NewStockTwits creates the StockTwits adapter
func NewStockTwits(cfg StockTwitsConfig, opts Options) *StockTwits {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultStockTwitsBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 80
	}
	opts = opts.withDefaults(sentiment.SourceStockTwits)
	return &StockTwits{
		cfg:    cfg,
		client: newAPIClient(opts, nil),
		log:    opts.Log,
	}
}

// Source implements Fetcher
func (s *StockTwits) Source() sentiment.Source { return sentiment.SourceStockTwits }

type stocktwitsStream struct {
	Cursor struct {
		More  bool  `json:"more"`
		Since int64 `json:"since"`
		Max   int64 `json:"max"`
	} `json:"cursor"`
	Messages []stocktwitsMessage `json:"messages"`
}

type stocktwitsMessage struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Username string `json:"username"`
	} `json:"user"`
	Entities struct {
		Sentiment *struct {
			Basic string `json:"basic"`
		} `json:"sentiment"`
	} `json:"entities"`
}

// Fetch implements Fetcher
func (s *StockTwits) Fetch(ctx context.Context, q Query) ([]sentiment.Post, error) {
	limit := limitOr(q.Limit, s.cfg.Limit)
	symbol := strings.ToUpper(q.Ticker)
	endpoint := s.cfg.BaseURL + "/api/2/streams/symbol/" + url.PathEscape(symbol) + ".json"

	var (
		posts  []sentiment.Post
		cursor int64
		pages  int
	)
	for len(posts) < limit {
		params := url.Values{}
		if s.cfg.Token != "" {
			params.Set("access_token", s.cfg.Token)
		}
		if cursor > 0 {
			params.Set("max", strconv.FormatInt(cursor, 10))
		}

		var stream stocktwitsStream
		if err := s.client.getJSON(ctx, endpoint, params, nil, &stream); err != nil {
			return posts, errors.Wrapf(err, "stocktwits stream page %d", pages+1)
		}
		pages++

		for _, m := range stream.Messages {
			if len(posts) >= limit {
				break
			}
			body := truncateRunes(m.Body, stocktwitsMaxBody)
			if m.ID == 0 || nlp.CleanText(body) == "" {
				continue
			}
			id := strconv.FormatInt(m.ID, 10)
			extra := map[string]string{"symbol": symbol}
			if m.Entities.Sentiment != nil && m.Entities.Sentiment.Basic != "" {
				extra["stocktwits_sentiment"] = m.Entities.Sentiment.Basic
			}
			posts = append(posts, sentiment.Post{
				Source:    sentiment.SourceStockTwits,
				ID:        id,
				Text:      strings.TrimSpace(body),
				Author:    m.User.Username,
				Timestamp: parseRFC3339(m.CreatedAt),
				URL:       "https://stocktwits.com/message/" + id,
				Extra:     extra,
			})
		}

		if !stream.Cursor.More || stream.Cursor.Max == 0 || stream.Cursor.Max == cursor || len(stream.Messages) == 0 {
			break
		}
		cursor = stream.Cursor.Max
	}

	s.log.Debugw("Fetched StockTwits messages", "ticker", symbol, "posts", len(posts), "pages", pages)
	return posts, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
