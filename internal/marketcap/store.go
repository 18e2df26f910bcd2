package marketcap

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/exotransit/internal/metrics"
)

// Store provides thread-safe access to the latest snapshot.
type Store struct {
	snapshot atomic.Pointer[Snapshot]
	mu       sync.Mutex // serializes refreshes
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot, or nil if none has been built.
func (s *Store) Get() *Snapshot {
	return s.snapshot.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.snapshot.Store(snap)
}

// AgeSeconds returns the age of the current snapshot in seconds.
// Returns -1 if no snapshot is loaded.
func (s *Store) AgeSeconds() float64 {
	snap := s.snapshot.Load()
	if snap == nil {
		return -1
	}
	return time.Since(snap.GeneratedAt).Seconds()
}

// RefresherConfig controls what a Refresher estimates.
type RefresherConfig struct {
	Tickers  []string
	Window   time.Duration
	Interval time.Duration
}

// Refresher rebuilds the snapshot in the store, on demand or on a timer.
type Refresher struct {
	est    *Estimator
	store  *Store
	cfg    RefresherConfig
	logger *slog.Logger
}

// NewRefresher creates a Refresher. An empty ticker list means DefaultTickers.
func NewRefresher(est *Estimator, store *Store, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if len(cfg.Tickers) == 0 {
		cfg.Tickers = DefaultTickers()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Refresher{est: est, store: store, cfg: cfg, logger: logger}
}

// Store returns the store the refresher writes to.
func (r *Refresher) Store() *Store {
	return r.store
}

// Refresh builds a new snapshot. When every ticker fails, the previous
// snapshot is kept if there is one; otherwise the failed snapshot is
// stored so callers can report which tickers failed.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	start := time.Now()
	snap, err := r.est.Estimate(ctx, r.cfg.Tickers, r.cfg.Window)
	metrics.ObserveMarketCapRefresh(time.Since(start))

	if errors.Is(err, ErrAllFailed) {
		r.logger.Error("market cap refresh failed for every ticker", "tickers", len(r.cfg.Tickers))
		if r.store.Get() == nil {
			r.store.Set(snap)
		}
		return snap, err
	}

	r.store.Set(snap)
	metrics.SetMarketCapSnapshotAge(0)
	r.logger.Info("market cap snapshot refreshed",
		"series", len(snap.Series),
		"failed", len(snap.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// Run refreshes immediately and then every Interval until ctx is done. The
// snapshot age gauge is updated on the same ticker.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	r.Refresh(ctx)

	refresh := time.NewTicker(interval)
	defer refresh.Stop()
	age := time.NewTicker(10 * time.Second)
	defer age.Stop()

	for {
		select {
		case <-refresh.C:
			r.Refresh(ctx)
		case <-age.C:
			if a := r.store.AgeSeconds(); a >= 0 {
				metrics.SetMarketCapSnapshotAge(a)
			}
		case <-ctx.Done():
			return
		}
	}
}
