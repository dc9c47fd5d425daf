package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"sentimenttracker/internal/adapters/ratelimit"
	"sentimenttracker/internal/adapters/retry"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

const maxResponseBytes = 8 << 20

// statusClassifier turns a non-2xx response into an error. body is the
// full (bounded) response body.
type statusClassifier func(status int, body []byte) error

func defaultClassifier(status int, body []byte) error {
	return errors.NewHTTPStatusError(status, string(body))
}

// apiClient performs rate-limited, retried JSON requests against one upstream
type apiClient struct {
	http      *http.Client
	limiter   *ratelimit.Limiter
	retry     *retry.Middleware
	userAgent string
	classify  statusClassifier
	log       *logger.Logger
}

func newAPIClient(opts Options, classify statusClassifier) *apiClient {
	if classify == nil {
		classify = defaultClassifier
	}
	retryCfg := opts.Retry
	log := opts.Log
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Debugw("Retrying upstream request", "attempt", attempt, "delay", delay, "error", err)
	}
	return &apiClient{
		http:      opts.HTTPClient,
		limiter:   opts.Limiter,
		retry:     retry.New(retryCfg),
		userAgent: opts.UserAgent,
		classify:  classify,
		log:       log,
	}
}

// getJSON issues a GET and decodes the JSON response into out
func (c *apiClient) getJSON(ctx context.Context, endpoint string, params url.Values, header http.Header, out interface{}) error {
	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		return req, nil
	}, out)
}

// doJSON runs a request built by newReq through the limiter and retry
// middleware. newReq is called once per attempt so bodies can be replayed.
func (c *apiClient) doJSON(ctx context.Context, newReq func() (*http.Request, error), out interface{}) error {
	return c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := newReq()
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return errors.Wrap(err, "request failed")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return errors.Wrap(err, "read response")
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return c.classify(resp.StatusCode, body)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrapf(errors.ErrUpstream, "decode response: %v", err)
		}
		return nil
	})
}

func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func unixTime(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
