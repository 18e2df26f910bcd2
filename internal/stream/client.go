package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/star/exotransit/internal/metrics"
)

const writeTimeout = 30 * time.Second

// client manages a single SSE connection's write operations.
type client struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	bandwidth *rate.Limiter // bytes per second
	ip        string
	logger    *slog.Logger

	messagesSent int64
	bytesSent    int64
}

// throttle blocks until n bytes fit the stream's bandwidth budget. Writes
// larger than the burst are charged as one full burst.
func (c *client) throttle(ctx context.Context, n int) error {
	if c.bandwidth == nil {
		return nil
	}
	return c.bandwidth.WaitN(ctx, min(n, c.bandwidth.Burst()))
}

// write sends one raw SSE chunk and flushes it.
func (c *client) write(ctx context.Context, payload string) (int, error) {
	if err := c.throttle(ctx, len(payload)); err != nil {
		return 0, err
	}

	// Extend write deadline before each write to prevent timeout on long-lived connections.
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "error", err)
	}

	n, err := fmt.Fprint(c.w, payload)
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}
	if err := c.rc.Flush(); err != nil {
		return n, fmt.Errorf("flush: %w", err)
	}
	c.bytesSent += int64(n)
	metrics.AddStreamBytes(n)
	return n, nil
}

// sendJSON marshals v as JSON and sends it as an SSE "data:" message.
// SSE format: "data: {json}\n\n"
func (c *client) sendJSON(ctx context.Context, msgType string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if _, err := c.write(ctx, "data: "+string(data)+"\n\n"); err != nil {
		return err
	}
	c.messagesSent++
	metrics.IncStreamMessages(msgType)
	return nil
}

// sendKeepalive sends an SSE comment line to keep the connection alive.
// SSE comment format: ":\n\n"
func (c *client) sendKeepalive(ctx context.Context) error {
	if _, err := c.write(ctx, ":\n\n"); err != nil {
		return fmt.Errorf("keepalive: %w", err)
	}
	return nil
}
