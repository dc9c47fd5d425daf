package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sentimenttracker/internal/adapters/config"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/services/topics"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

// Runner executes one tracker run
type Runner interface {
	Run(ctx context.Context, req tracker.Request) (*sentiment.Report, error)
}

// SourceInfo is one row of GET /api/v1/sources
type SourceInfo struct {
	Source      sentiment.Source `json:"source"`
	DisplayName string           `json:"display_name"`
	Registered  bool             `json:"registered"`
	Ready       bool             `json:"ready"`
}

// SourcesResponse is the body of GET /api/v1/sources
type SourcesResponse struct {
	Sources []SourceInfo       `json:"sources"`
	Keys    []config.KeyStatus `json:"keys"`
}

// Handlers serves the JSON API
type Handlers struct {
	runner      Runner
	credentials config.Credentials
	registered  []sentiment.Source
	log         *logger.Logger
}

// NewHandlers creates the API handlers. registered lists the sources that
// have an adapter wired in.
func NewHandlers(runner Runner, creds config.Credentials, registered []sentiment.Source, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handlers{
		runner:      runner,
		credentials: creds,
		registered:  registered,
		log:         log.With("component", "api"),
	}
}

// HandleSentiment runs the pipeline for the query string parameters
func (h *Handlers) HandleSentiment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.runner.Run(r.Context(), req)
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.Canceled):
		h.log.Debugw("Client went away during run", "ticker", req.Ticker)
		return
	case err != nil:
		h.log.Errorw("Sentiment run failed", "ticker", req.Ticker, "error", err)
		writeError(w, http.StatusInternalServerError, "run failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// HandleSources reports which sources are wired and have credentials.
// Secret values are never included.
func (h *Handlers) HandleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	registered := make(map[sentiment.Source]bool, len(h.registered))
	for _, src := range h.registered {
		registered[src] = true
	}

	resp := SourcesResponse{Keys: h.credentials.Status()}
	for _, src := range sentiment.AllSources() {
		resp.Sources = append(resp.Sources, SourceInfo{
			Source:      src,
			DisplayName: src.DisplayName(),
			Registered:  registered[src],
			Ready:       h.credentials.Ready(src),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ParseRequest validates the query parameters of a sentiment request
func ParseRequest(q url.Values) (tracker.Request, error) {
	req := tracker.Request{
		Ticker:      strings.TrimSpace(q.Get("ticker")),
		CompanyName: strings.TrimSpace(q.Get("company")),
	}
	if req.Ticker == "" {
		return req, errors.Wrap(errors.ErrInvalidInput, "ticker is required")
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errors.Wrapf(errors.ErrInvalidInput, "limit must be a non-negative integer, got %q", v)
		}
		req.Limit = n
	}

	if v := q.Get("topics"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > topics.MaxTopics {
			return req, errors.Wrapf(errors.ErrInvalidInput, "topics must be between 1 and %d, got %q", topics.MaxTopics, v)
		}
		req.TopicCount = n
	}

	if v := q.Get("sources"); v != "" {
		srcs, err := ParseSources(v)
		if err != nil {
			return req, err
		}
		req.Sources = srcs
	}

	if v := q.Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.Wrapf(errors.ErrInvalidInput, "refresh must be a boolean, got %q", v)
		}
		req.Refresh = b
	}
	return req, nil
}

// ParseSources parses a comma separated source list
func ParseSources(list string) ([]sentiment.Source, error) {
	var out []sentiment.Source
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		src, ok := sentiment.ParseSource(name)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown source %q", strings.TrimSpace(name))
		}
		out = append(out, src)
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
