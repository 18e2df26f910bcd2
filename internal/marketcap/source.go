package marketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes caps a single quote response.
const maxBodyBytes = 8 << 20

const dateLayout = "2006-01-02"

// Source fetches quotes for one ticker over [from, to].
type Source interface {
	Quote(ctx context.Context, ticker string, from, to time.Time) (*Quote, error)
}

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// HTTPSource reads quotes from a JSON API at
// {BaseURL}/quote/{ticker}?from=YYYY-MM-DD&to=YYYY-MM-DD.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// NewHTTPSource creates an HTTPSource. Non-positive rate settings fall back
// to 2 requests/s with a burst of 4.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// wait blocks for any 429 backoff and then for a token.
func (s *HTTPSource) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return s.limiter.Wait(ctx)
}

func (s *HTTPSource) backoff(retryAfter string) {
	secs, err := strconv.Atoi(retryAfter)
	if err != nil || secs <= 0 {
		secs = 60
	}
	s.mu.Lock()
	s.retryAt = time.Now().Add(time.Duration(secs) * time.Second)
	s.mu.Unlock()
}

// Quote performs one rate-limited GET and decodes the response.
func (s *HTTPSource) Quote(ctx context.Context, ticker string, from, to time.Time) (*Quote, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("from", from.UTC().Format(dateLayout))
	q.Set("to", to.UTC().Format(dateLayout))
	u := s.baseURL + "/quote/" + url.PathEscape(ticker) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching quote: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		s.backoff(resp.Header.Get("Retry-After"))
		return nil, fmt.Errorf("rate limited by %s", s.baseURL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, ticker)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxBodyBytes)
	}

	var raw struct {
		Ticker            string   `json:"ticker"`
		Name              string   `json:"name"`
		SharesOutstanding *float64 `json:"shares_outstanding"`
		Closes            []struct {
			Date  string  `json:"date"`
			Close float64 `json:"close"`
		} `json:"closes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding quote: %w", err)
	}

	out := &Quote{Ticker: ticker, Name: raw.Name}
	if raw.SharesOutstanding == nil {
		return nil, ErrNoShares
	}
	out.SharesOutstanding = *raw.SharesOutstanding
	for _, c := range raw.Closes {
		d, err := time.Parse(dateLayout, c.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing close date %q: %w", c.Date, err)
		}
		out.Closes = append(out.Closes, Close{Date: d, Price: c.Close})
	}
	return out, nil
}
