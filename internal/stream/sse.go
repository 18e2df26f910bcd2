// Package stream implements Server-Sent Events (SSE) streaming of the orbit
// animation. Clients connect via GET /api/v1/stream/orbit and receive one
// frame per interval, cycling through the orbit projection of the requested
// system.
//
// SSE message format:
//
//	data: {"type":"frame","i":12,"x":4.64,"y":1.87,"separation":4.64,"brightness":1,"regime":"no_overlap"}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","stream_id":"...","frames":200,"interval_ms":50,...}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval while no
// frame has gone out. With loops=N the stream ends after N revolutions with
// an "end" message; loops=0 (default) streams until disconnect.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/star/exotransit/internal/httputil"
	"github.com/star/exotransit/internal/metrics"
	"github.com/star/exotransit/internal/transit"
)

// MaxLoops bounds the loops query parameter.
const MaxLoops = 1000

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	BandwidthLimit     int           // Bytes per second per stream (default: 1048576).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	FrameInterval      time.Duration // Delay between frames (default: 50ms).
	TrustProxy         bool          // Take the client IP from proxy headers.
	MaxSamples         int           // Frames per orbit ceiling (default and cap: transit.MaxSamples).
}

// Handler manages SSE streaming connections.
type Handler struct {
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(config Config, logger *slog.Logger) *Handler {
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = 50 * time.Millisecond
	}
	if config.MaxSamples <= 0 || config.MaxSamples > transit.MaxSamples {
		config.MaxSamples = transit.MaxSamples
	}
	return &Handler{
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// HandleOrbit serves the SSE orbit stream.
// GET /api/v1/stream/orbit?planet_radius=0.5&star_radius=1&distance=5&samples=200&loops=0
func (h *Handler) HandleOrbit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := transit.ParamsFromValues(q, transit.OrbitDefaults())
	if err == nil {
		// The animation is always an orbit, whatever policy was asked for.
		params.Policy = transit.PolicyOrbit
		err = params.Validate()
	}
	if err == nil && params.Samples > h.config.MaxSamples {
		err = &transit.ParameterError{
			Field:  "samples",
			Value:  params.Samples,
			Reason: fmt.Sprintf("must be <= %d", h.config.MaxSamples),
		}
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loops := 0
	if v := q.Get("loops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > MaxLoops {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid loops parameter, must be 0-%d", MaxLoops))
			return
		}
		loops = n
	}

	lc, err := transit.ComputeLightCurve(params)
	metrics.RecordLightCurve(string(params.Policy), params.Samples, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	streamID := uuid.NewString()
	metrics.IncStreamConnections()
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"stream_id", streamID,
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"frames", len(lc.Samples),
		"loops", loops,
	)

	c := &client{ip: ip, logger: h.logger}

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.release(ip)
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"stream_id", streamID,
			"remote_ip", ip,
			"messages", c.messagesSent,
			"bytes", c.bytesSent,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.Header().Set("X-Stream-ID", streamID)
	w.WriteHeader(http.StatusOK)

	// ResponseController reaches through middleware wrappers via Unwrap.
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		metrics.IncStreamErrors("flush_unsupported")
		h.logger.Error("streaming not supported", "stream_id", streamID, "error", err)
		return
	}

	// Clear the server's default WriteTimeout for this connection; each
	// write sets its own deadline.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c.w = w
	c.rc = rc
	c.bandwidth = newBandwidthLimiter(h.config.BandwidthLimit)

	ctx := r.Context()
	if err := h.run(ctx, c, streamID, lc, loops); err != nil && ctx.Err() == nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "stream_id", streamID, "remote_ip", ip, "error", err)
	}
}

// run writes the retry hint, metadata and frames until the loop budget is
// spent or ctx is done.
func (h *Handler) run(ctx context.Context, c *client, streamID string, lc *transit.LightCurve, loops int) error {
	// Jittered retry interval (3-7s) spreads reconnects after a restart.
	if _, err := c.write(ctx, fmt.Sprintf("retry: %d\n\n", 3000+rand.Intn(4000))); err != nil {
		return err
	}

	if err := c.sendJSON(ctx, "metadata", buildMetadata(streamID, lc, h.config.FrameInterval, loops)); err != nil {
		return err
	}

	ticker := time.NewTicker(h.config.FrameInterval)
	defer ticker.Stop()
	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	n := len(lc.Samples)
	for sent := 0; loops == 0 || sent < loops*n; {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := c.sendJSON(ctx, "frame", buildFrame(lc, sent%n)); err != nil {
				return err
			}
			sent++
			keepalive.Reset(h.config.KeepaliveInterval)

		case <-keepalive.C:
			if err := c.sendKeepalive(ctx); err != nil {
				return err
			}
		}
	}

	return c.sendJSON(ctx, "end", endMessage{Type: "end", Loops: loops, Frames: loops * n})
}

func buildMetadata(streamID string, lc *transit.LightCurve, interval time.Duration, loops int) metadataMessage {
	return metadataMessage{
		Type:         "metadata",
		StreamID:     streamID,
		StarRadius:   lc.Lengths.StarRadius,
		PlanetRadius: lc.Lengths.PlanetRadius,
		Distance:     lc.Lengths.Distance,
		Units:        string(lc.Params.Units),
		Frames:       len(lc.Samples),
		IntervalMs:   interval.Milliseconds(),
		Loops:        loops,
		Depth:        lc.Summary.Depth,
	}
}

func buildFrame(lc *transit.LightCurve, i int) frameMessage {
	p := lc.Positions[i]
	sep := p.X
	if sep < 0 {
		sep = -sep
	}
	return frameMessage{
		Type:       "frame",
		I:          i,
		X:          p.X,
		Y:          p.Y,
		Separation: sep,
		Brightness: lc.Samples[i].Brightness,
		Regime:     transit.Classify(lc.Lengths.StarRadius, lc.Lengths.PlanetRadius, sep),
	}
}

// SSE message payload types.

type metadataMessage struct {
	Type         string  `json:"type"`
	StreamID     string  `json:"stream_id"`
	StarRadius   float64 `json:"star_radius"`
	PlanetRadius float64 `json:"planet_radius"`
	Distance     float64 `json:"distance"`
	Units        string  `json:"units"`
	Frames       int     `json:"frames"`
	IntervalMs   int64   `json:"interval_ms"`
	Loops        int     `json:"loops"`
	Depth        float64 `json:"depth"`
}

type frameMessage struct {
	Type       string         `json:"type"`
	I          int            `json:"i"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Separation float64        `json:"separation"`
	Brightness float64        `json:"brightness"`
	Regime     transit.Regime `json:"regime"`
}

type endMessage struct {
	Type   string `json:"type"`
	Loops  int    `json:"loops"`
	Frames int    `json:"frames"`
}
