package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const (
	defaultTwitterBaseURL = "https://api.twitter.com"
	twitterMinPage        = 10
	twitterMaxPage        = 100
)

// TwitterConfig configures the X (Twitter) recent search adapter
type TwitterConfig struct {
	BearerToken string
	BaseURL     string
	Limit       int
}

// Twitter searches recent tweets via the X API v2
type Twitter struct {
	cfg    TwitterConfig
	client *apiClient
	log    *logger.Logger
}

// NewTwitter creates the X adapter
func NewTwitter(cfg TwitterConfig, opts Options) *Twitter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwitterBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 150
	}
	opts = opts.withDefaults(sentiment.SourceTwitter)
	return &Twitter{
		cfg:    cfg,
		client: newAPIClient(opts, nil),
		log:    opts.Log,
	}
}

// Source implements Fetcher
func (t *Twitter) Source() sentiment.Source { return sentiment.SourceTwitter }

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken   string `json:"next_token"`
		ResultCount int    `json:"result_count"`
	} `json:"meta"`
}

type twitterTweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
	Lang      string `json:"lang"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SearchQuery builds the recent search query for a ticker and optional
// company name, e.g. ("$AAPL") OR "Apple" -is:retweet lang:en
func SearchQuery(ticker, company string) string {
	parts := []string{fmt.Sprintf(`("$%s")`, strings.ToUpper(ticker))}
	if c := strings.TrimSpace(company); c != "" {
		parts = append(parts, strconv.Quote(c))
	}
	return strings.Join(parts, " OR ") + " -is:retweet lang:en"
}

// Fetch implements Fetcher
func (t *Twitter) Fetch(ctx context.Context, q Query) ([]sentiment.Post, error) {
	if t.cfg.BearerToken == "" {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, "TWITTER_BEARER_TOKEN not configured")
	}

	limit := limitOr(q.Limit, t.cfg.Limit)
	query := SearchQuery(q.Ticker, q.CompanyName)
	header := http.Header{"Authorization": []string{"Bearer " + t.cfg.BearerToken}}

	var (
		posts     []sentiment.Post
		nextToken string
		pages     int
	)
	for len(posts) < limit {
		remaining := limit - len(posts)
		pageSize := twitterMaxPage
		if remaining < twitterMaxPage {
			pageSize = max(twitterMinPage, remaining)
		}

		params := url.Values{
			"query":        {query},
			"max_results":  {strconv.Itoa(pageSize)},
			"tweet.fields": {"created_at,lang,author_id"},
			"expansions":   {"author_id"},
			"user.fields":  {"username"},
		}
		if nextToken != "" {
			params.Set("next_token", nextToken)
		}

		var resp twitterSearchResponse
		if err := t.client.getJSON(ctx, t.cfg.BaseURL+"/2/tweets/search/recent", params, header, &resp); err != nil {
			return posts, errors.Wrapf(err, "x search page %d", pages+1)
		}
		pages++

		users := make(map[string]string, len(resp.Includes.Users))
		for _, u := range resp.Includes.Users {
			users[u.ID] = u.Username
		}

		for _, tw := range resp.Data {
			if len(posts) >= limit {
				break
			}
			if tw.ID == "" || nlp.CleanText(tw.Text) == "" {
				continue
			}
			posts = append(posts, sentiment.Post{
				Source:    sentiment.SourceTwitter,
				ID:        tw.ID,
				Text:      strings.TrimSpace(tw.Text),
				Author:    users[tw.AuthorID],
				Timestamp: parseRFC3339(tw.CreatedAt),
				URL:       "https://x.com/i/web/status/" + tw.ID,
				Extra:     map[string]string{"query": query, "lang": tw.Lang},
			})
		}

		nextToken = resp.Meta.NextToken
		if nextToken == "" || len(resp.Data) == 0 {
			break
		}
	}

	t.log.Debugw("Fetched tweets", "ticker", q.Ticker, "posts", len(posts), "pages", pages)
	return posts, nil
}
