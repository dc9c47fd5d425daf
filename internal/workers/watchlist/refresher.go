// Package watchlist keeps reports for a configured set of tickers fresh so
// interactive requests for them are served from the cache.
package watchlist

import (
	"context"
	"time"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/services/tracker"
	"sentimenttracker/internal/workers"
	"sentimenttracker/pkg/errors"
)

// Runner executes one tracker run
type Runner interface {
	Run(ctx context.Context, req tracker.Request) (*sentiment.Report, error)
}

// Locker is a distributed lock (Redis) that keeps replicas from refreshing
// the same watchlist at once
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

const lockKey = "watchlist_refresher"

// Refresher re-runs the pipeline for every watchlist ticker on each tick
type Refresher struct {
	*workers.BaseWorker
	runner  Runner
	tickers []string
	limit   int
	locker  Locker
}

// NewRefresher creates the watchlist worker. It is disabled when the
// watchlist is empty.
func NewRefresher(runner Runner, tickers []string, limit int, interval time.Duration) *Refresher {
	return &Refresher{
		BaseWorker: workers.NewBaseWorker("watchlist_refresher", interval, len(tickers) > 0),
		runner:     runner,
		tickers:    tickers,
		limit:      limit,
	}
}

// SetLocker makes each pass take locker first; a pass that loses the
// race is skipped
func (r *Refresher) SetLocker(locker Locker) {
	r.locker = locker
}

// Run refreshes each ticker in turn. A failing ticker does not stop the
// pass; the combined error is returned at the end.
func (r *Refresher) Run(ctx context.Context) error {
	if r.locker != nil {
		ok, err := r.locker.AcquireLock(ctx, lockKey, r.Interval())
		if err != nil {
			return errors.Wrap(err, "acquire watchlist lock")
		}
		if !ok {
			r.Log().Debugw("Watchlist refresh held by another instance, skipping")
			return nil
		}
		defer func() {
			// The run context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.locker.ReleaseLock(releaseCtx, lockKey); err != nil {
				r.Log().Warnw("Failed to release watchlist lock", "error", err)
			}
		}()
	}

	var (
		errs      errors.MultiError
		refreshed int
		noData    int
	)

	for i, ticker := range r.tickers {
		select {
		case <-ctx.Done():
			r.Log().Infow("Watchlist refresh interrupted by shutdown",
				"refreshed", refreshed,
				"remaining", len(r.tickers)-i,
			)
			return ctx.Err()
		default:
		}

		report, err := r.runner.Run(ctx, tracker.Request{Ticker: ticker, Limit: r.limit, Refresh: true})
		if err != nil {
			r.Log().Errorw("Watchlist refresh failed", "ticker", ticker, "error", err)
			errs.Add(errors.Wrapf(err, "refresh %s", ticker))
			continue
		}

		refreshed++
		if report.NoData {
			noData++
		}
		r.Log().Debugw("Watchlist ticker refreshed",
			"ticker", report.Ticker,
			"posts", report.Summary.Total,
			"mean_compound", report.Summary.MeanCompound,
			"failed_sources", report.FailedSources(),
		)
	}

	r.Log().Infow("Watchlist refresh completed",
		"tickers", len(r.tickers),
		"refreshed", refreshed,
		"no_data", noData,
	)
	return errs.ToError()
}

var _ workers.WorkerWithHealth = (*Refresher)(nil)
