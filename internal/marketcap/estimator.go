package marketcap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/star/exotransit/internal/metrics"
)

// quoteJob is a unit of work for the worker pool.
type quoteJob struct {
	index  int
	ticker string
}

// quoteResult is the output of a single ticker estimate.
type quoteResult struct {
	index  int
	ticker string
	series Series
	err    error
}

// Estimator fans ticker fetches out over a fixed number of workers.
type Estimator struct {
	source  Source
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

// NewEstimator creates an Estimator with the given number of workers.
func NewEstimator(source Source, workers int, logger *slog.Logger) *Estimator {
	if workers < 1 {
		workers = 1
	}
	return &Estimator{
		source:  source,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// Estimate builds a snapshot for tickers over the window ending now. A
// ticker that fails is recorded in Snapshot.Failed; the rest still count.
// ErrAllFailed is returned alongside the snapshot when nothing succeeded.
func (e *Estimator) Estimate(ctx context.Context, tickers []string, window time.Duration) (*Snapshot, error) {
	to := e.now().UTC()
	if window <= 0 {
		window = DefaultWindow
	}
	from := to.Add(-window)
	snap := &Snapshot{GeneratedAt: to, From: from, To: to}
	if len(tickers) == 0 {
		return snap, nil
	}

	jobs := make(chan quoteJob, e.workers*2)
	results := make(chan quoteResult, e.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := e.estimateOne(ctx, job, from, to)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range tickers {
			select {
			case jobs <- quoteJob{index: i, ticker: t}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*quoteResult, len(tickers))
	for result := range results {
		r := result
		ordered[r.index] = &r
	}

	for i, r := range ordered {
		if r == nil {
			// Never dispatched or dropped on cancellation.
			snap.Failed = append(snap.Failed, Failure{Ticker: tickers[i], Error: "cancelled"})
			continue
		}
		if r.err != nil {
			metrics.RecordMarketCapFetch("error")
			e.logger.Warn("market cap estimate failed", "ticker", r.ticker, "error", r.err)
			snap.Failed = append(snap.Failed, Failure{Ticker: r.ticker, Error: r.err.Error()})
			continue
		}
		metrics.RecordMarketCapFetch("ok")
		snap.Series = append(snap.Series, r.series)
	}

	snap.Partial = len(snap.Failed) > 0
	if len(snap.Series) == 0 {
		if err := ctx.Err(); err != nil {
			return snap, fmt.Errorf("%w: %w", ErrAllFailed, err)
		}
		return snap, ErrAllFailed
	}
	return snap, nil
}

func (e *Estimator) estimateOne(ctx context.Context, job quoteJob, from, to time.Time) quoteResult {
	res := quoteResult{index: job.index, ticker: job.ticker}
	q, err := e.source.Quote(ctx, job.ticker, from, to)
	if err != nil {
		res.err = err
		return res
	}
	res.series, res.err = Estimate(job.ticker, q)
	return res
}

// Estimate converts one quote into a market-cap series: each close times
// the current share count, in trillions of USD. Non-positive closes are
// dropped.
func Estimate(ticker string, q *Quote) (Series, error) {
	if q == nil || !(q.SharesOutstanding > 0) {
		return Series{}, ErrNoShares
	}
	name := strings.TrimSpace(q.Name)
	if name == "" {
		name = CompanyName(ticker)
	}

	s := Series{Ticker: ticker, Name: name, SharesOutstanding: q.SharesOutstanding}
	for _, c := range q.Closes {
		if !(c.Price > 0) {
			continue
		}
		s.Points = append(s.Points, Point{Date: c.Date, Trillions: c.Price * q.SharesOutstanding / TrillionUSD})
	}
	if len(s.Points) == 0 {
		return Series{}, ErrNoHistory
	}
	s.Latest = s.Points[len(s.Points)-1].Trillions
	return s, nil
}
