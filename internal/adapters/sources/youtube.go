package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com"

// errCommentsDisabled marks a video whose comment threads cannot be listed
var errCommentsDisabled = errors.New("comments disabled")

// YouTubeConfig configures the YouTube Data API adapter
type YouTubeConfig struct {
	APIKey           string
	BaseURL          string
	Videos           int
	CommentsPerVideo int
}

// YouTube searches videos about a ticker and reads their top-level comments
type YouTube struct {
	cfg    YouTubeConfig
	client *apiClient
	log    *logger.Logger
}

// NewYouTube creates the YouTube adapter
func NewYouTube(cfg YouTubeConfig, opts Options) *YouTube {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultYouTubeBaseURL
	}
	if cfg.Videos <= 0 {
		cfg.Videos = 7
	}
	if cfg.CommentsPerVideo <= 0 {
		cfg.CommentsPerVideo = 50
	}
	opts = opts.withDefaults(sentiment.SourceYouTube)
	return &YouTube{
		cfg:    cfg,
		client: newAPIClient(opts, classifyYouTube),
		log:    opts.Log,
	}
}

// Source implements Fetcher
func (y *YouTube) Source() sentiment.Source { return sentiment.SourceYouTube }

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// classifyYouTube maps the Data API error reasons onto the shared sentinels.
// Quota errors arrive as 403, so the status code alone is not enough.
func classifyYouTube(status int, body []byte) error {
	var resp youtubeErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		for _, e := range resp.Error.Errors {
			switch e.Reason {
			case "quotaExceeded", "rateLimitExceeded", "dailyLimitExceeded", "userRateLimitExceeded":
				return errors.Wrapf(errors.ErrRateLimited, "youtube %s", e.Reason)
			case "commentsDisabled":
				return errCommentsDisabled
			case "keyInvalid", "keyExpired", "accessNotConfigured", "forbidden":
				return errors.Wrapf(errors.ErrSourceUnavailable, "youtube %s", e.Reason)
			}
		}
	}
	return defaultClassifier(status, body)
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubeCommentThreads struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay       string `json:"textDisplay"`
					AuthorDisplayName string `json:"authorDisplayName"`
					PublishedAt       string `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// VideoQuery builds the video search string, e.g. "AAPL Apple stock analysis"
func VideoQuery(ticker, company string) string {
	t := strings.ToUpper(ticker)
	if c := strings.TrimSpace(company); c != "" {
		return t + " " + c + " stock analysis"
	}
	return t + " stock analysis"
}

// Fetch implements Fetcher
func (y *YouTube) Fetch(ctx context.Context, q Query) ([]sentiment.Post, error) {
	if y.cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrSourceUnavailable, "YOUTUBE_API_KEY not configured")
	}

	limit := limitOr(q.Limit, y.cfg.Videos*y.cfg.CommentsPerVideo)
	query := VideoQuery(q.Ticker, q.CompanyName)

	var search youtubeSearchResponse
	err := y.client.getJSON(ctx, y.cfg.BaseURL+"/youtube/v3/search", url.Values{
		"part":       {"id,snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(min(10, y.cfg.Videos))},
		"key":        {y.cfg.APIKey},
	}, nil, &search)
	if err != nil {
		return nil, errors.Wrap(err, "youtube video search")
	}

	var videoIDs []string
	for _, it := range search.Items {
		if it.ID.VideoID != "" {
			videoIDs = append(videoIDs, it.ID.VideoID)
		}
	}
	if len(videoIDs) > y.cfg.Videos {
		videoIDs = videoIDs[:y.cfg.Videos]
	}

	var posts []sentiment.Post
	for _, vid := range videoIDs {
		if len(posts) >= limit {
			break
		}
		comments, err := y.comments(ctx, vid, query, min(y.cfg.CommentsPerVideo, limit-len(posts)))
		posts = append(posts, comments...)
		if err != nil {
			if errors.Is(err, errCommentsDisabled) {
				y.log.Debugw("Comments disabled", "video_id", vid)
				continue
			}
			return posts, errors.Wrapf(err, "youtube comments %s", vid)
		}
	}

	y.log.Debugw("Fetched YouTube comments", "ticker", q.Ticker, "videos", len(videoIDs), "posts", len(posts))
	return posts, nil
}

func (y *YouTube) comments(ctx context.Context, videoID, query string, n int) ([]sentiment.Post, error) {
	var (
		out       []sentiment.Post
		pageToken string
	)
	for len(out) < n {
		params := url.Values{
			"part":       {"snippet"},
			"videoId":    {videoID},
			"maxResults": {strconv.Itoa(min(100, n-len(out)))},
			"textFormat": {"plainText"},
			"key":        {y.cfg.APIKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp youtubeCommentThreads
		if err := y.client.getJSON(ctx, y.cfg.BaseURL+"/youtube/v3/commentThreads", params, nil, &resp); err != nil {
			return out, err
		}

		for _, th := range resp.Items {
			if len(out) >= n {
				break
			}
			top := th.Snippet.TopLevelComment.Snippet
			if th.ID == "" || nlp.CleanText(top.TextDisplay) == "" {
				continue
			}
			out = append(out, sentiment.Post{
				Source:    sentiment.SourceYouTube,
				ID:        th.ID,
				Text:      strings.TrimSpace(top.TextDisplay),
				Author:    top.AuthorDisplayName,
				Timestamp: parseRFC3339(top.PublishedAt),
				URL:       "https://www.youtube.com/watch?v=" + videoID,
				Extra:     map[string]string{"video_id": videoID, "query": query},
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(resp.Items) == 0 {
			break
		}
	}
	return out, nil
}
