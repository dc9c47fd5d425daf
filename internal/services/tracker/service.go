// Package tracker runs the end-to-end pipeline for one ticker: fan out to
// the enabled sources, score every post and derive the report views.
package tracker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentimenttracker/internal/adapters/sources"
	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/metrics"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/internal/services/aggregation"
	"sentimenttracker/internal/services/scoring"
	"sentimenttracker/internal/services/topics"
	"sentimenttracker/pkg/errors"
	"sentimenttracker/pkg/logger"
)

// Config tunes a run. Zero values select the defaults.
type Config struct {
	SourceTimeout  time.Duration
	MaxConcurrency int
	MaxLimit       int
	TopicCount     int
	SampleSize     int
	WordCloudTerms int
	Frequency      aggregation.Frequency
	MockFallback   bool
	EnableSocial   bool
	CacheTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = 20 * time.Second
	}
	if n := len(sentiment.AllSources()); c.MaxConcurrency <= 0 || c.MaxConcurrency > n {
		c.MaxConcurrency = n
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 500
	}
	if c.TopicCount <= 0 {
		c.TopicCount = topics.DefaultTopics
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 50
	}
	if c.WordCloudTerms <= 0 {
		c.WordCloudTerms = 100
	}
	if c.Frequency == "" {
		c.Frequency = aggregation.FrequencyDay
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	return c
}

// Request describes one run
type Request struct {
	Ticker      string
	CompanyName string
	// Limit caps posts per source; <= 0 selects each adapter's default
	Limit int
	// Sources to query; empty means every source
	Sources []sentiment.Source
	// TopicCount <= 0 selects the configured default
	TopicCount int
	// Refresh bypasses the report cache lookup
	Refresh bool
}

// Service runs the pipeline
type Service struct {
	cfg       Config
	registry  *sources.Registry
	scorer    *scoring.Service
	topics    *topics.Service
	cache     sentiment.ReportCache
	publisher sentiment.RunPublisher
	now       func() time.Time
	log       *logger.Logger
}

// Option configures optional collaborators
type Option func(*Service)

// WithCache enables the report cache
func WithCache(cache sentiment.ReportCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithPublisher enables run events
func WithPublisher(p sentiment.RunPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the tracker
func NewService(cfg Config, registry *sources.Registry, scorer *scoring.Service, topicSvc *topics.Service, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if scorer == nil {
		scorer = scoring.NewService(nil, log)
	}
	if topicSvc == nil {
		topicSvc = topics.NewService(topics.Config{}, log)
	}
	s := &Service{
		cfg:      cfg.withDefaults(),
		registry: registry,
		scorer:   scorer,
		topics:   topicSvc,
		now:      time.Now,
		log:      log.With("component", "tracker"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sourceResult is what one fan-out goroutine hands back
type sourceResult struct {
	posts  []sentiment.Post
	status sentiment.SourceStatus
}

// Run executes the pipeline. The only errors are an invalid ticker and a
// cancelled caller context; source failures are reported in the result.
func (s *Service) Run(ctx context.Context, req Request) (*sentiment.Report, error) {
	start := s.now()

	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := s.log.With("ticker", req.Ticker)
	key := CacheKey(req)

	if s.cache != nil && !req.Refresh {
		if report := s.cached(ctx, log, key); report != nil {
			metrics.RecordRun("cached", s.now().Sub(start))
			return report, nil
		}
	}

	log.Infow("Starting run", "sources", req.Sources, "limit", req.Limit)

	var (
		results []sourceResult
		social  *sentiment.SocialSentiment
		warning string
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		social, warning = s.fetchSocial(ctx, log, req)
	}()
	results = s.fetchAll(ctx, log, req)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		metrics.RecordRun("error", s.now().Sub(start))
		return nil, errors.Wrap(err, "run cancelled")
	}

	report := s.buildReport(req, results)
	report.Social = social
	if warning != "" {
		report.Warnings = append(report.Warnings, warning)
	}

	status := "ok"
	if report.NoData {
		status = "no_data"
	}
	metrics.RecordRun(status, s.now().Sub(start))
	log.Infow("Run completed",
		"run_id", report.RunID,
		"posts", report.Summary.Total,
		"mean_compound", report.Summary.MeanCompound,
		"topics", len(report.Topics),
		"no_data", report.NoData,
		"duration", s.now().Sub(start),
	)

	s.publish(ctx, log, report)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, s.cfg.CacheTTL); err != nil {
			log.Warnw("Failed to cache report", "error", err)
		}
	}
	return report, nil
}

func (s *Service) normalize(req Request) (Request, error) {
	ticker := nlp.EnsureTicker(req.Ticker)
	if ticker == "" {
		return req, errors.Wrapf(errors.ErrInvalidInput, "invalid ticker %q", req.Ticker)
	}
	req.Ticker = ticker
	req.CompanyName = nlp.CleanText(req.CompanyName)

	if req.Limit < 0 {
		req.Limit = 0
	}
	if req.Limit > s.cfg.MaxLimit {
		req.Limit = s.cfg.MaxLimit
	}
	if req.TopicCount <= 0 {
		req.TopicCount = s.cfg.TopicCount
	}
	if req.TopicCount > topics.MaxTopics {
		req.TopicCount = topics.MaxTopics
	}

	req.Sources = canonicalSources(req.Sources)
	return req, nil
}

// canonicalSources dedupes and orders sources; empty selects all
func canonicalSources(in []sentiment.Source) []sentiment.Source {
	if len(in) == 0 {
		return sentiment.AllSources()
	}
	want := make(map[sentiment.Source]bool, len(in))
	for _, src := range in {
		want[src] = true
	}
	out := make([]sentiment.Source, 0, len(want))
	for _, src := range sentiment.AllSources() {
		if want[src] {
			out = append(out, src)
		}
	}
	return out
}

func (s *Service) cached(ctx context.Context, log *logger.Logger, key string) *sentiment.Report {
	report, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		log.Warnw("Report cache lookup failed", "error", err)
		return nil
	case !ok || report == nil:
		metrics.RecordCacheLookup("miss")
		return nil
	}
	metrics.RecordCacheLookup("hit")
	log.Debugw("Serving cached report", "run_id", report.RunID)
	report.Cached = true
	return report
}

// fetchAll runs every requested adapter concurrently and returns results in
// request order. Failures stay inside their own result.
func (s *Service) fetchAll(ctx context.Context, log *logger.Logger, req Request) []sourceResult {
	results := make([]sourceResult, len(req.Sources))
	query := sources.Query{Ticker: req.Ticker, CompanyName: req.CompanyName, Limit: req.Limit}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.cfg.MaxConcurrency)

	for i, src := range req.Sources {
		fetcher, ok := s.registry.Get(src)
		if !ok {
			results[i] = s.finish(log, src, nil, errors.Wrap(errors.ErrSourceUnavailable, "no adapter registered"), 0, req.Ticker)
			continue
		}

		wg.Add(1)
		go func(i int, src sentiment.Source, f sources.Fetcher) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results[i] = s.finish(log, src, nil, ctx.Err(), 0, req.Ticker)
				return
			}
			defer func() { <-semaphore }()

			results[i] = s.fetchOne(ctx, log, src, f, query)
		}(i, src, fetcher)
	}

	wg.Wait()
	return results
}

func (s *Service) fetchOne(ctx context.Context, log *logger.Logger, src sentiment.Source, f sources.Fetcher, q sources.Query) (res sourceResult) {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Source adapter panicked", "source", src, "panic", r, "stack", string(debug.Stack()))
			res = s.finish(log, src, nil, errors.Newf("panic: %v", r), time.Since(start), q.Ticker)
		}
	}()

	posts, err := f.Fetch(sctx, q)
	if err != nil && sctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = errors.Wrapf(errors.ErrTimeout, "no response within %s: %v", s.cfg.SourceTimeout, err)
	}
	return s.finish(log, src, posts, err, time.Since(start), q.Ticker)
}

// finish classifies one source's outcome and applies the mock fallback
func (s *Service) finish(log *logger.Logger, src sentiment.Source, posts []sentiment.Post, err error, took time.Duration, ticker string) sourceResult {
	posts = dedupe(posts)
	status := classify(posts, err)

	st := sentiment.SourceStatus{Source: src, Status: status, Posts: len(posts), Duration: took}
	if err != nil {
		st.Error = err.Error()
	}

	fields := []interface{}{"source", src, "status", status, "posts", len(posts), "duration", took}
	switch status {
	case sentiment.StatusFailed:
		log.Errorw("Source fetch failed", append(fields, "error", err)...)
	case sentiment.StatusUnavailable, sentiment.StatusRateLimited, sentiment.StatusTimeout, sentiment.StatusPartial:
		log.Warnw("Source fetch degraded", append(fields, "error", err)...)
	default:
		log.Debugw("Source fetch finished", fields...)
	}
	metrics.RecordSourceFetch(string(src), string(status), took, len(posts))

	if s.cfg.MockFallback && len(posts) == 0 && isFailure(status) {
		posts = sources.MockPosts(src, ticker, s.now())
		st.Status = sentiment.StatusMock
		st.Posts = len(posts)
		metrics.SourceFetches.WithLabelValues(string(src), string(sentiment.StatusMock)).Inc()
	}
	return sourceResult{posts: posts, status: st}
}

func classify(posts []sentiment.Post, err error) sentiment.FetchStatus {
	switch {
	case err == nil && len(posts) == 0:
		return sentiment.StatusEmpty
	case err == nil:
		return sentiment.StatusOK
	case len(posts) > 0:
		return sentiment.StatusPartial
	case errors.Is(err, errors.ErrRateLimited):
		return sentiment.StatusRateLimited
	case errors.Is(err, errors.ErrSourceUnavailable):
		return sentiment.StatusUnavailable
	case errors.Is(err, errors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return sentiment.StatusTimeout
	default:
		return sentiment.StatusFailed
	}
}

func isFailure(st sentiment.FetchStatus) bool {
	switch st {
	case sentiment.StatusUnavailable, sentiment.StatusRateLimited, sentiment.StatusTimeout, sentiment.StatusFailed:
		return true
	}
	return false
}

// dedupe drops exact duplicates within one source: same ID, or same URL
// and text when the ID is missing
func dedupe(posts []sentiment.Post) []sentiment.Post {
	if len(posts) < 2 {
		return posts
	}
	seen := make(map[string]struct{}, len(posts))
	out := make([]sentiment.Post, 0, len(posts))
	for _, p := range posts {
		key := "id:" + p.ID
		if p.ID == "" {
			key = "url:" + p.URL + "\x00" + p.Text
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (s *Service) fetchSocial(ctx context.Context, log *logger.Logger, req Request) (social *sentiment.SocialSentiment, warning string) {
	if !s.cfg.EnableSocial || !containsSource(req.Sources, sentiment.SourceFinnhub) {
		return nil, ""
	}
	provider, ok := s.registry.SocialProvider()
	if !ok {
		return nil, ""
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Social sentiment provider panicked", "panic", r, "stack", string(debug.Stack()))
			social, warning = nil, fmt.Sprintf("Finnhub aggregated sentiment skipped: panic: %v", r)
		}
	}()

	social, err := provider.FetchSocialSentiment(sctx, req.Ticker)
	if err != nil {
		log.Warnw("Finnhub social sentiment unavailable", "error", err)
		return nil, fmt.Sprintf("Finnhub aggregated sentiment skipped: %v", err)
	}
	return social, ""
}

func containsSource(list []sentiment.Source, src sentiment.Source) bool {
	for _, s := range list {
		if s == src {
			return true
		}
	}
	return false
}

func (s *Service) buildReport(req Request, results []sourceResult) *sentiment.Report {
	report := &sentiment.Report{
		RunID:       uuid.New(),
		Ticker:      req.Ticker,
		CompanyName: req.CompanyName,
		GeneratedAt: s.now().UTC(),
		Sources:     make([]sentiment.SourceStatus, 0, len(results)),
		Warnings:    []string{},
	}

	var posts []sentiment.Post
	for _, r := range results {
		report.Sources = append(report.Sources, r.status)
		posts = append(posts, r.posts...)
		if w := warningFor(r.status); w != "" {
			report.Warnings = append(report.Warnings, w)
		}
	}

	scored := s.scorer.ScorePosts(posts)
	texts := make([]string, len(scored))
	for i, p := range scored {
		texts[i] = p.Post.Text
	}

	report.Summary = aggregation.Aggregate(scored)
	report.Breakdown = aggregation.Breakdown(scored)
	report.Distribution = aggregation.Distribution(scored)
	report.TimeSeries = aggregation.TimeSeries(scored, s.cfg.Frequency)
	report.Posts = aggregation.Sample(scored, 0)
	report.Sample = aggregation.Sample(scored, s.cfg.SampleSize)
	report.Topics = s.topics.Model(texts, req.TopicCount)
	report.Words = topics.WordFrequencies(texts, s.cfg.WordCloudTerms)
	report.NoData = len(scored) == 0

	return report
}

func warningFor(st sentiment.SourceStatus) string {
	name := st.Source.DisplayName()
	switch st.Status {
	case sentiment.StatusPartial:
		return fmt.Sprintf("%s: partial results (%d posts) after error: %s", name, st.Posts, st.Error)
	case sentiment.StatusUnavailable:
		return fmt.Sprintf("%s unavailable: %s", name, st.Error)
	case sentiment.StatusRateLimited:
		return fmt.Sprintf("%s rate limit hit: %s", name, st.Error)
	case sentiment.StatusTimeout:
		return fmt.Sprintf("%s timed out: %s", name, st.Error)
	case sentiment.StatusFailed:
		return fmt.Sprintf("%s fetch failed: %s", name, st.Error)
	case sentiment.StatusMock:
		if st.Error != "" {
			return fmt.Sprintf("%s: using demo data (%s)", name, st.Error)
		}
		return fmt.Sprintf("%s: using demo data", name)
	}
	return ""
}

func (s *Service) publish(ctx context.Context, log *logger.Logger, report *sentiment.Report) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRunCompleted(ctx, sentiment.NewRunCompletedEvent(report)); err != nil {
		log.Warnw("Failed to publish run event", "run_id", report.RunID, "error", err)
	}
}
