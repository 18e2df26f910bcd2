package api

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/star/exotransit/internal/marketcap"
	"github.com/star/exotransit/internal/observability"
)

type marketCapResponse struct {
	*marketcap.Snapshot
	AgeSeconds float64 `json:"age_seconds"`
}

// handleMarketCap returns the latest estimated market-cap snapshot.
// GET /api/v1/marketcap
func (s *Server) handleMarketCap(w http.ResponseWriter, r *http.Request) {
	if s.opts.MarketCap == nil {
		writeError(w, http.StatusServiceUnavailable, "market cap estimator disabled")
		return
	}
	store := s.opts.MarketCap.Store()
	snap := store.Get()
	if snap == nil {
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusServiceUnavailable, "no market cap snapshot yet")
		return
	}
	writeSnapshot(w, snap, store.AgeSeconds())
}

// handleMarketCapRefresh rebuilds the snapshot synchronously.
// POST /api/v1/marketcap/refresh
func (s *Server) handleMarketCapRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.MarketCap == nil {
		writeError(w, http.StatusServiceUnavailable, "market cap estimator disabled")
		return
	}
	ctx, span := observability.Tracer().Start(r.Context(), "marketcap.Refresh")
	defer span.End()

	snap, err := s.opts.MarketCap.Refresh(ctx)
	if err != nil {
		observability.RecordError(span, err)
		s.logger.WarnContext(ctx, "market cap refresh failed", "error", err)
	}
	span.SetAttributes(
		attribute.Int("marketcap.series", len(snap.Series)),
		attribute.Int("marketcap.failed", len(snap.Failed)),
	)
	writeSnapshot(w, snap, 0)
}

// writeSnapshot answers 502 when no ticker could be estimated, since the
// fault lies with the upstream quote source.
func writeSnapshot(w http.ResponseWriter, snap *marketcap.Snapshot, age float64) {
	status := http.StatusOK
	if len(snap.Series) == 0 && len(snap.Failed) > 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, marketCapResponse{Snapshot: snap, AgeSeconds: age})
}
