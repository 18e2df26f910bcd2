package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/exotransit/internal/auth"
	"github.com/star/exotransit/internal/catalog"
	"github.com/star/exotransit/internal/health"
	"github.com/star/exotransit/internal/marketcap"
	"github.com/star/exotransit/internal/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testSites(t *testing.T) *catalog.Store {
	t.Helper()
	sites, err := catalog.LoadBuiltin(testLogger())
	require.NoError(t, err)
	return sites
}

func newTestServer(t *testing.T, mutate func(*Options)) http.Handler {
	t.Helper()
	opts := Options{
		Addr:   ":0",
		Logger: testLogger(),
		Sites:  testSites(t),
		Stream: stream.NewHandler(stream.Config{
			MaxConcurrentPerIP: 2,
			FrameInterval:      time.Millisecond,
		}, testLogger()),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewServer(opts).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out), "body: %s", w.Body.String())
	return out
}

func TestProbes(t *testing.T) {
	rd := health.NewReadiness()
	h := newTestServer(t, func(o *Options) { o.Readiness = rd })

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/readyz").Code)

	rd.Add("marketcap", func() error { return errors.New("no snapshot yet") })
	w := get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	m := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "exotransit_http_requests_total")
}

func TestNewServerWithoutLogger(t *testing.T) {
	h := NewServer(Options{Addr: ":0"}).Handler()
	require.NotPanics(t, func() {
		assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/nope").Code)
	})
}

func TestLightCurveDefaults(t *testing.T) {
	h := newTestServer(t, nil)
	w := get(t, h, "/api/v1/lightcurve")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decode(t, w)
	samples := body["samples"].([]any)
	assert.Len(t, samples, 200)
	assert.NotNil(t, body["body"], "physical units carry body info")
	assert.NotNil(t, body["timing"])
	assert.NotNil(t, body["contacts"], "sweep carries contacts")

	summary := body["summary"].(map[string]any)
	assert.Equal(t, true, summary["transiting"])
}

func TestLightCurveOrbit(t *testing.T) {
	h := newTestServer(t, nil)
	w := get(t, h, "/api/v1/lightcurve?policy=orbit&units=arbitrary&planet_radius=0.5&star_radius=1&distance=5&samples=100")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Len(t, body["positions"], 100)
	assert.Nil(t, body["body"])
	assert.Nil(t, body["contacts"])
}

func TestLightCurveRejects(t *testing.T) {
	h := newTestServer(t, func(o *Options) { o.MaxSamples = 500 })

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"zero star radius", "star_radius=0", "star_radius"},
		{"negative distance", "distance=-1", "distance"},
		{"non-numeric planet", "planet_radius=big", "planet_radius"},
		{"bad policy", "policy=spiral", "policy"},
		{"bad units", "units=parsecs", "units"},
		{"above configured max", "samples=501", "samples"},
		{"one sample", "samples=1", "samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, "/api/v1/lightcurve?"+tt.query)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.field, body["field"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOcclusion(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		query    string
		regime   string
		fraction float64
	}{
		{"star_radius=1&planet_radius=0.1&separation=2", "no_overlap", 0},
		{"star_radius=1&planet_radius=0.1&separation=0", "full_containment", 0.01},
		{"star_radius=1&planet_radius=2&separation=0", "full_containment", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(t, h, "/api/v1/occlusion?"+tt.query)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, tt.regime, body["regime"])
			assert.InDelta(t, tt.fraction, body["fraction"], 1e-12)
			assert.InDelta(t, 1-tt.fraction, body["brightness"], 1e-12)
		})
	}

	partial := decode(t, get(t, h, "/api/v1/occlusion?star_radius=1&planet_radius=1&separation=1"))
	assert.Equal(t, "partial_overlap", partial["regime"])

	for _, q := range []string{"star_radius=1&planet_radius=1", "star_radius=0&planet_radius=1&separation=0", "star_radius=x&planet_radius=1&separation=0"} {
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/occlusion?"+q).Code, q)
	}
}

func TestStar(t *testing.T) {
	h := newTestServer(t, nil)
	w := get(t, h, "/api/v1/star?temperature=5.772")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.InDelta(t, 5772, body["temperature_k"], 1e-9)
	assert.InDelta(t, 1, body["luminosity_solar"], 0.01)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/star?units=arbitrary").Code)
}

func TestEphemeris(t *testing.T) {
	h := newTestServer(t, nil)

	w := get(t, h, "/api/v1/ephemeris?epoch=2024-03-01T06:00:00Z&period_hours=24&duration_hours=2&from=2024-03-03T00:00:00Z&count=3")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ephemerisResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Transits, 3)
	assert.False(t, resp.Derived)
	assert.Equal(t, int64(2), resp.Transits[0].Cycle)
	assert.Equal(t, time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC), resp.Transits[0].Mid.UTC())
	assert.Equal(t, 2*time.Hour, resp.Transits[0].Egress.Sub(resp.Transits[0].Ingress))
}

func TestEphemerisDerivedPeriod(t *testing.T) {
	h := newTestServer(t, nil)
	w := get(t, h, "/api/v1/ephemeris?epoch=2024-03-01T06:00:00Z&count=2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ephemerisResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Derived)
	// Earth-like orbit of a solar-mass star: about one year.
	assert.InDelta(t, 365.25*24, resp.Period, 24)
	assert.Len(t, resp.Transits, 2)
}

func TestEphemerisRejects(t *testing.T) {
	h := newTestServer(t, nil)
	tests := []struct {
		query string
		field string
	}{
		{"period_hours=24", "epoch"},
		{"epoch=yesterday&period_hours=24", "epoch"},
		{"epoch=2024-03-01T06:00:00Z&period_hours=abc", "period_hours"},
		{"epoch=2024-03-01T06:00:00Z&period_hours=0", "period_hours"},
		{"epoch=2024-03-01T06:00:00Z&period_hours=2&duration_hours=3", "duration_hours"},
		{"epoch=2024-03-01T06:00:00Z&period_hours=24&count=1000", "count"},
		{"epoch=2024-03-01T06:00:00Z&units=arbitrary", "period_hours"},
		{"epoch=2024-03-01T06:00:00Z&period_hours=1e12", "period_hours"},
		{"epoch=2000-01-01T00:00:00Z&period_hours=1&from=2400-01-01T00:00:00Z", "from"},
		{"epoch=2400-01-01T00:00:00Z&period_hours=24&from=2000-01-01T00:00:00Z", "from"},
		{"epoch=2024-03-01T06:00:00Z&distance=50", "distance"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(t, h, "/api/v1/ephemeris?"+tt.query)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.field, decode(t, w)["field"])
		})
	}
}

func TestSites(t *testing.T) {
	h := newTestServer(t, nil)

	list := decode(t, get(t, h, "/api/v1/sites"))
	assert.Len(t, list["collections"], 2)

	w := get(t, h, "/api/v1/sites/france?selected=louvre-museum")
	require.Equal(t, http.StatusOK, w.Code)
	var c catalog.Collection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&c))
	var selected []string
	for _, s := range c.Sites {
		if s.Selected {
			selected = append(selected, s.ID)
		}
	}
	assert.Equal(t, []string{"louvre-museum"}, selected)

	site := decode(t, get(t, h, "/api/v1/sites/france/Eiffel%20Tower"))
	assert.Equal(t, "eiffel-tower", site["id"])

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/sites/atlantis").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/sites/france/atlantis").Code)
}

func quoteServer(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"name":"Apple Inc.","shares_outstanding":15000000000,"closes":[{"date":"2026-01-02","close":200},{"date":"2026-01-05","close":210}]}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func testRefresher(url string) *marketcap.Refresher {
	src := marketcap.NewHTTPSource(marketcap.HTTPSourceConfig{BaseURL: url, RequestsPerSecond: 100})
	est := marketcap.NewEstimator(src, 2, testLogger())
	return marketcap.NewRefresher(est, marketcap.NewStore(), marketcap.RefresherConfig{Tickers: []string{"AAPL"}}, testLogger())
}

func TestMarketCapDisabled(t *testing.T) {
	h := newTestServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/marketcap").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/marketcap/refresh", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMarketCapRefresh(t *testing.T) {
	ref := testRefresher(quoteServer(t, false).URL)
	h := newTestServer(t, func(o *Options) { o.MarketCap = ref })

	w := get(t, h, "/api/v1/marketcap")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no snapshot before first refresh")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/marketcap/refresh", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(t, h, "/api/v1/marketcap")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Series []marketcap.Series `json:"series"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Series, 1)
	assert.InDelta(t, 3.15, resp.Series[0].Latest, 1e-9)

	// GET must not trigger a refresh.
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/api/v1/marketcap/refresh").Code)
}

func TestMarketCapAllFailed(t *testing.T) {
	ref := testRefresher(quoteServer(t, true).URL)
	h := newTestServer(t, func(o *Options) { o.MarketCap = ref })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/marketcap/refresh", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	assert.Len(t, body["failed"], 1)
}

func TestAuth(t *testing.T) {
	h := newTestServer(t, func(o *Options) {
		o.Auth = auth.Config{Enabled: true, Token: "s3cret"}
	})

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/v1/star").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/sites/france").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/star", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Browser EventSource clients pass the token in the query string.
	w = get(t, h, "/api/v1/stream/orbit?samples=4&loops=1&access_token=s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/v1/star?access_token=s3cret").Code)
}

func TestOrbitStreamRoute(t *testing.T) {
	h := newTestServer(t, nil)
	w := get(t, h, "/api/v1/stream/orbit?samples=5&loops=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 7, strings.Count(w.Body.String(), "data: "))
}

func TestNotFound(t *testing.T) {
	h := newTestServer(t, nil)
	w := get(t, h, "/api/v2/nothing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", decode(t, w)["error"])
}
