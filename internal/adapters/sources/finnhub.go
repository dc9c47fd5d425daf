package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const (
	defaultFinnhubBaseURL = "https://finnhub.io"
	finnhubDateLayout     = "2006-01-02"
)

// FinnhubConfig configures the Finnhub adapter
type FinnhubConfig struct {
	APIKey  string
	BaseURL string
	// Days is the lookback window for news and social sentiment
	Days  int
	Limit int
}

// Finnhub reads company news as posts and exposes Finnhub's aggregated
// social sentiment
type Finnhub struct {
	cfg    FinnhubConfig
	client *apiClient
	log    *logger.Logger
	now    func() time.Time
}

// NewFinnhub creates the Finnhub adapter
func NewFinnhub(cfg FinnhubConfig, opts Options) *Finnhub {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultFinnhubBaseURL
	}
	if cfg.Days <= 0 {
		cfg.Days = 7
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	opts = opts.withDefaults(sentiment.SourceFinnhub)
	return &Finnhub{
		cfg:    cfg,
		client: newAPIClient(opts, nil),
		log:    opts.Log,
		now:    opts.Now,
	}
}

// Source implements Fetcher
func (f *Finnhub) Source() sentiment.Source { return sentiment.SourceFinnhub }

type finnhubNewsItem struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Related  string `json:"related"`
}

type finnhubSocialRow struct {
	AtTime        string  `json:"atTime"`
	Mention       int     `json:"mention"`
	PositiveScore float64 `json:"positiveScore"`
	NegativeScore float64 `json:"negativeScore"`
	Score         float64 `json:"score"`
}

type finnhubSocialResponse struct {
	Symbol  string             `json:"symbol"`
	Reddit  []finnhubSocialRow `json:"reddit"`
	Twitter []finnhubSocialRow `json:"twitter"`
}

func (f *Finnhub) window() (string, string) {
	to := f.now().UTC()
	from := to.AddDate(0, 0, -f.cfg.Days)
	return from.Format(finnhubDateLayout), to.Format(finnhubDateLayout)
}

// Fetch implements Fetcher
func (f *Finnhub) Fetch(ctx context.Context, q Query) ([]sentiment.Post, error) {
	if f.cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, "FINNHUB_API_KEY not configured")
	}

	limit := limitOr(q.Limit, f.cfg.Limit)
	symbol := strings.ToUpper(q.Ticker)
	from, to := f.window()

	var news []finnhubNewsItem
	err := f.client.getJSON(ctx, f.cfg.BaseURL+"/api/v1/company-news", url.Values{
		"symbol": {symbol},
		"from":   {from},
		"to":     {to},
		"token":  {f.cfg.APIKey},
	}, nil, &news)
	if err != nil {
		return nil, errors.Wrap(err, "finnhub company news")
	}

	posts := make([]sentiment.Post, 0, min(limit, len(news)))
	for _, n := range news {
		if len(posts) >= limit {
			break
		}
		text := strings.TrimSpace(n.Headline + "\n" + n.Summary)
		if n.ID == 0 || nlp.CleanText(text) == "" {
			continue
		}
		posts = append(posts, sentiment.Post{
			Source:    sentiment.SourceFinnhub,
			ID:        strconv.FormatInt(n.ID, 10),
			Text:      text,
			Author:    n.Source,
			Timestamp: unixTime(float64(n.Datetime)),
			URL:       n.URL,
			Extra:     map[string]string{"symbol": symbol, "category": n.Category},
		})
	}

	f.log.Debugw("Fetched Finnhub news", "ticker", symbol, "posts", len(posts))
	return posts, nil
}

// FetchSocialSentiment implements SocialProvider. Only the most recent
// reddit and twitter datapoints in the window are reported.
func (f *Finnhub) FetchSocialSentiment(ctx context.Context, ticker string) (*sentiment.SocialSentiment, error) {
	if f.cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, "FINNHUB_API_KEY not configured")
	}

	symbol := strings.ToUpper(ticker)
	from, to := f.window()

	var resp finnhubSocialResponse
	err := f.client.getJSON(ctx, f.cfg.BaseURL+"/api/v1/stock/social-sentiment", url.Values{
		"symbol": {symbol},
		"from":   {from},
		"to":     {to},
		"token":  {f.cfg.APIKey},
	}, nil, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "finnhub social sentiment")
	}

	out := &sentiment.SocialSentiment{Symbol: symbol}
	if n := len(resp.Reddit); n > 0 {
		last := resp.Reddit[n-1]
		out.RedditMentions = last.Mention
		out.RedditPositiveScore = last.PositiveScore
		out.RedditNegativeScore = last.NegativeScore
	}
	if n := len(resp.Twitter); n > 0 {
		last := resp.Twitter[n-1]
		out.TwitterMentions = last.Mention
		out.TwitterPositiveScore = last.PositiveScore
		out.TwitterNegativeScore = last.NegativeScore
	}
	return out, nil
}
