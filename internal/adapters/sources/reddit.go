package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const (
	defaultRedditAuthURL = "https://www.reddit.com"
	defaultRedditAPIURL  = "https://oauth.reddit.com"
)

// DefaultSubreddits are searched when none are configured
var DefaultSubreddits = []string{"stocks", "investing", "wallstreetbets"}

// RedditConfig configures the Reddit adapter
type RedditConfig struct {
	ClientID        string
	ClientSecret    string
	UserAgent       string
	Subreddits      []string
	PostsPerSub     int
	CommentsPerPost int
	Limit           int
	AuthURL         string
	APIURL          string
}

// Reddit searches finance subreddits and pulls top-level comments of the
// matching submissions
type Reddit struct {
	cfg    RedditConfig
	client *apiClient
	log    *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewReddit creates the Reddit adapter
func NewReddit(cfg RedditConfig, opts Options) *Reddit {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultRedditAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultRedditAPIURL
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
	}
	if cfg.PostsPerSub <= 0 {
		cfg.PostsPerSub = 25
	}
	if cfg.CommentsPerPost < 0 {
		cfg.CommentsPerPost = 0
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 500
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	opts = opts.withDefaults(sentiment.SourceReddit)
	return &Reddit{
		cfg:    cfg,
		client: newAPIClient(opts, nil),
		log:    opts.Log,
		now:    opts.Now,
	}
}

// Source implements Fetcher
func (r *Reddit) Source() sentiment.Source { return sentiment.SourceReddit }

type redditOAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

type redditListing struct {
	Data struct {
		Children []redditThing `json:"children"`
		After    string        `json:"after"`
	} `json:"data"`
}

type redditThing struct {
	Kind string          `json:"kind"`
	Data redditThingData `json:"data"`
}

type redditThingData struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
}

// RedditSearchQuery builds the subreddit search expression,
// e.g. "AAPL" OR "$AAPL" OR "Apple"
func RedditSearchQuery(ticker, company string) string {
	t := strings.ToUpper(ticker)
	parts := []string{strconv.Quote(t), strconv.Quote("$" + t)}
	if c := strings.TrimSpace(company); c != "" {
		parts = append(parts, strconv.Quote(c))
	}
	return strings.Join(parts, " OR ")
}

// commentReserve is the least time that must remain before the ctx
// deadline to start another comment request
const commentReserve = 2 * time.Second

type redditSubmission struct {
	sub string
	id  string
}

// Fetch implements Fetcher. Every subreddit is searched before any comments
// are read; comments are then pulled round-robin across subreddits until
// the limit or the time budget runs out.
func (r *Reddit) Fetch(ctx context.Context, q Query) ([]sentiment.Post, error) {
	if r.cfg.ClientID == "" || r.cfg.ClientSecret == "" || r.cfg.UserAgent == "" {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, "REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET and REDDIT_USER_AGENT must be set")
	}

	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{"Authorization": []string{"Bearer " + token}}

	limit := limitOr(q.Limit, r.cfg.Limit)
	posts, threads, err := r.search(ctx, header, RedditSearchQuery(q.Ticker, q.CompanyName), limit)
	if err != nil {
		return posts, err
	}

	if r.cfg.CommentsPerPost > 0 {
		comments, err := r.commentRounds(ctx, header, threads, limit-len(posts))
		posts = append(posts, comments...)
		if err != nil {
			return posts, err
		}
	}

	r.log.Debugw("Fetched Reddit posts", "ticker", q.Ticker, "posts", len(posts))
	return posts, nil
}

// search runs the subreddit searches and returns the submissions as posts
// together with the threads to read comments from, grouped by subreddit
func (r *Reddit) search(ctx context.Context, header http.Header, query string, limit int) ([]sentiment.Post, [][]redditSubmission, error) {
	var (
		posts   []sentiment.Post
		threads [][]redditSubmission
	)
	for _, sub := range r.cfg.Subreddits {
		if len(posts) >= limit {
			break
		}

		params := url.Values{
			"q":           {query},
			"restrict_sr": {"1"},
			"sort":        {"hot"},
			"t":           {"week"},
			"limit":       {strconv.Itoa(r.cfg.PostsPerSub)},
			"raw_json":    {"1"},
		}
		var listing redditListing
		if err := r.client.getJSON(ctx, r.cfg.APIURL+"/r/"+url.PathEscape(sub)+"/search", params, header, &listing); err != nil {
			return posts, threads, errors.Wrapf(err, "reddit search r/%s", sub)
		}

		var subThreads []redditSubmission
		for _, child := range listing.Data.Children {
			if len(posts) >= limit {
				break
			}
			d := child.Data
			if d.ID == "" {
				continue
			}
			subThreads = append(subThreads, redditSubmission{sub: sub, id: d.ID})

			text := strings.TrimSpace(d.Title + "\n" + d.Selftext)
			if nlp.CleanText(text) == "" {
				continue
			}
			link := d.URL
			if link == "" {
				link = "https://www.reddit.com" + d.Permalink
			}
			posts = append(posts, sentiment.Post{
				Source:    sentiment.SourceReddit,
				ID:        d.ID,
				Text:      text,
				Author:    d.Author,
				Timestamp: unixTime(d.CreatedUTC),
				URL:       link,
				Extra:     map[string]string{"subreddit": sub, "kind": "post"},
			})
		}
		threads = append(threads, subThreads)
	}
	return posts, threads, nil
}

// commentRounds reads the top comments of the n-th thread of every
// subreddit before moving to thread n+1. It stops quietly when the ctx
// deadline is too close for another request.
func (r *Reddit) commentRounds(ctx context.Context, header http.Header, threads [][]redditSubmission, budget int) ([]sentiment.Post, error) {
	var out []sentiment.Post
	for round := 0; ; round++ {
		more := false
		for _, subThreads := range threads {
			if round >= len(subThreads) {
				continue
			}
			more = true
			if len(out) >= budget {
				return out, nil
			}
			if !r.timeLeft(ctx) {
				r.log.Debugw("Comment budget exhausted", "round", round, "comments", len(out))
				return out, nil
			}

			t := subThreads[round]
			comments, err := r.comments(ctx, header, t.sub, t.id, min(r.cfg.CommentsPerPost, budget-len(out)))
			switch {
			case err == nil:
				out = append(out, comments...)
			case errors.Is(err, errors.ErrTimeout) && ctx.Err() == nil:
				// the limiter cannot fit another request before the deadline
				r.log.Debugw("Comment budget exhausted", "round", round, "comments", len(out))
				return out, nil
			case errors.Is(err, errors.ErrRateLimited) || errors.Is(err, errors.ErrSourceUnavailable) || ctx.Err() != nil:
				return out, errors.Wrapf(err, "reddit comments %s", t.id)
			default:
				// locked or deleted threads fail individually
				r.log.Debugw("Skipping comments", "post_id", t.id, "error", err)
			}
		}
		if !more {
			return out, nil
		}
	}
}

func (r *Reddit) timeLeft(ctx context.Context) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= commentReserve
}

func (r *Reddit) comments(ctx context.Context, header http.Header, sub, postID string, n int) ([]sentiment.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	params := url.Values{
		"limit":    {strconv.Itoa(n)},
		"depth":    {"1"},
		"sort":     {"top"},
		"raw_json": {"1"},
	}
	// the response is [submission listing, comment listing]
	var listings []redditListing
	endpoint := r.cfg.APIURL + "/r/" + url.PathEscape(sub) + "/comments/" + url.PathEscape(postID)
	if err := r.client.getJSON(ctx, endpoint, params, header, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var out []sentiment.Post
	for _, child := range listings[1].Data.Children {
		if len(out) >= n {
			break
		}
		d := child.Data
		if child.Kind != "t1" || d.ID == "" || nlp.CleanText(d.Body) == "" {
			continue
		}
		out = append(out, sentiment.Post{
			Source:    sentiment.SourceReddit,
			ID:        d.ID,
			Text:      strings.TrimSpace(d.Body),
			Author:    d.Author,
			Timestamp: unixTime(d.CreatedUTC),
			URL:       "https://www.reddit.com" + d.Permalink,
			Extra:     map[string]string{"subreddit": sub, "kind": "comment", "post_id": postID},
		})
	}
	return out, nil
}

// token returns a cached application-only OAuth token, refreshing it a
// minute before expiry
func (r *Reddit) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && r.now().Before(r.tokenExpiry) {
		return r.accessToken, nil
	}

	var oauth redditOAuthResponse
	err := r.client.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.AuthURL+"/api/v1/access_token",
			strings.NewReader("grant_type=client_credentials"))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(r.cfg.ClientID, r.cfg.ClientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, &oauth)
	if err != nil {
		return "", errors.Wrap(err, "reddit oauth")
	}
	if oauth.AccessToken == "" {
		return "", errors.Wrap(errors.ErrSourceUnavailable, "reddit oauth returned no token")
	}

	r.accessToken = oauth.AccessToken
	r.tokenExpiry = r.now().Add(time.Duration(oauth.ExpiresIn)*time.Second - time.Minute)
	r.log.Debugw("Reddit OAuth token refreshed", "expires_in", oauth.ExpiresIn)
	return r.accessToken, nil
}
