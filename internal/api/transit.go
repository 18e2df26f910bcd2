package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/star/exotransit/internal/ephemeris"
	"github.com/star/exotransit/internal/metrics"
	"github.com/star/exotransit/internal/observability"
	"github.com/star/exotransit/internal/transit"
	"github.com/star/exotransit/internal/units"
)

// defaultEphemerisCount is used when the count parameter is absent.
const defaultEphemerisCount = 10

// params reads the light-curve inputs from the query, on top of the
// defaults, and applies the configured sample limit.
func (s *Server) params(r *http.Request) (transit.Params, error) {
	base := transit.DefaultParams()
	base.Samples = s.opts.DefaultSamples
	p, err := transit.ParamsFromValues(r.URL.Query(), base)
	if err != nil {
		return p, err
	}
	if p.Samples > s.opts.MaxSamples {
		return p, &transit.ParameterError{
			Field:  "samples",
			Value:  p.Samples,
			Reason: "must be <= " + strconv.Itoa(s.opts.MaxSamples),
		}
	}
	return p, p.Validate()
}

// handleLightCurve computes a full light curve.
// GET /api/v1/lightcurve?planet_radius=1&star_radius=1&distance=1&policy=sweep&samples=200
func (s *Server) handleLightCurve(w http.ResponseWriter, r *http.Request) {
	_, span := observability.Tracer().Start(r.Context(), "transit.ComputeLightCurve")
	defer span.End()

	p, err := s.params(r)
	if err == nil {
		span.SetAttributes(
			attribute.String("transit.policy", string(p.Policy)),
			attribute.String("transit.units", string(p.Units)),
			attribute.Int("transit.samples", p.Samples),
		)
		var lc *transit.LightCurve
		lc, err = transit.ComputeLightCurve(p)
		metrics.RecordLightCurve(string(p.Policy), p.Samples, err)
		if err == nil {
			span.SetAttributes(attribute.Float64("transit.depth", lc.Summary.Depth))
			writeJSON(w, http.StatusOK, lc)
			return
		}
	}
	observability.RecordError(span, err)
	writeParamError(w, err)
}

type occlusionResponse struct {
	StarRadius   float64        `json:"star_radius"`
	PlanetRadius float64        `json:"planet_radius"`
	Separation   float64        `json:"separation"`
	Regime       transit.Regime `json:"regime"`
	Fraction     float64        `json:"fraction"`
	Brightness   float64        `json:"brightness"`
}

// handleOcclusion evaluates the overlap calculator for one configuration.
// All three lengths share one unit.
// GET /api/v1/occlusion?star_radius=1&planet_radius=0.1&separation=0.5
func (s *Server) handleOcclusion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var g transit.Geometry
	fields := []struct {
		key string
		dst *float64
	}{
		{"star_radius", &g.StarRadius},
		{"planet_radius", &g.PlanetRadius},
		{"separation", &g.Separation},
	}
	for _, f := range fields {
		v := strings.TrimSpace(q.Get(f.key))
		if v == "" {
			writeParamError(w, &transit.ParameterError{Field: f.key, Value: v, Reason: "is required"})
			return
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeParamError(w, &transit.ParameterError{Field: f.key, Value: v, Reason: "must be a number"})
			return
		}
		*f.dst = x
	}

	frac, err := g.Occlusion()
	if err != nil {
		writeParamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occlusionResponse{
		StarRadius:   g.StarRadius,
		PlanetRadius: g.PlanetRadius,
		Separation:   g.Separation,
		Regime:       g.Regime(),
		Fraction:     frac,
		Brightness:   1 - frac,
	})
}

// handleStar returns the informational scalars for physical inputs.
// GET /api/v1/star?star_radius=1&planet_radius=1&temperature=5.7
func (s *Server) handleStar(w http.ResponseWriter, r *http.Request) {
	p, err := s.params(r)
	if err != nil {
		writeParamError(w, err)
		return
	}
	if p.Units != units.Physical {
		writeParamError(w, &transit.ParameterError{Field: "units", Value: p.Units, Reason: "must be physical"})
		return
	}
	l := p.Units.Convert(p.PlanetRadius, p.StarRadius, p.Distance)
	writeJSON(w, http.StatusOK, transit.Describe(l, p.Temperature))
}

type ephemerisResponse struct {
	Epoch    time.Time           `json:"epoch"`
	Period   float64             `json:"period_hours"`
	Duration float64             `json:"duration_hours"`
	Derived  bool                `json:"derived"`
	Transits []ephemeris.Transit `json:"transits"`
}

// handleEphemeris lists upcoming transits. Without period_hours the period
// and duration are derived from the physical light-curve parameters.
// GET /api/v1/ephemeris?epoch=2024-03-01T06:00:00Z&period_hours=72&duration_hours=3&count=5
func (s *Server) handleEphemeris(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	epoch, err := parseTime(q.Get("epoch"), "epoch", true)
	if err != nil {
		writeParamError(w, err)
		return
	}
	from, err := parseTime(q.Get("from"), "from", false)
	if err != nil {
		writeParamError(w, err)
		return
	}
	count := defaultEphemerisCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeParamError(w, &transit.ParameterError{Field: "count", Value: v, Reason: "must be an integer"})
			return
		}
		count = n
	}

	var req ephemeris.Request
	derived := !q.Has("period_hours")
	if derived {
		p, err := s.params(r)
		if err != nil {
			writeParamError(w, err)
			return
		}
		lc, err := transit.ComputeLightCurve(p)
		if err != nil {
			writeParamError(w, err)
			return
		}
		if lc.Timing == nil {
			writeParamError(w, &transit.ParameterError{
				Field:  "period_hours",
				Value:  "",
				Reason: "is required unless physical units and a positive distance are given",
			})
			return
		}
		if req, err = ephemeris.FromPeriod(epoch, *lc.Timing, from, count); err != nil {
			writeParamError(w, err)
			return
		}
	} else {
		period, err := parseHours(q.Get("period_hours"), "period_hours")
		if err != nil {
			writeParamError(w, err)
			return
		}
		duration := time.Duration(0)
		if q.Has("duration_hours") {
			if duration, err = parseHours(q.Get("duration_hours"), "duration_hours"); err != nil {
				writeParamError(w, err)
				return
			}
		}
		req = ephemeris.Request{Epoch: epoch, Period: period, Duration: duration, From: from, Count: count}
	}

	transits, err := ephemeris.Next(req)
	if err != nil {
		writeParamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ephemerisResponse{
		Epoch:    req.Epoch,
		Period:   req.Period.Hours(),
		Duration: req.Duration.Hours(),
		Derived:  derived,
		Transits: transits,
	})
}

func parseTime(v, field string, required bool) (time.Time, error) {
	if v == "" {
		if required {
			return time.Time{}, &transit.ParameterError{Field: field, Value: v, Reason: "is required"}
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &transit.ParameterError{Field: field, Value: v, Reason: "must be an RFC 3339 timestamp"}
	}
	return t, nil
}

func parseHours(v, field string) (time.Duration, error) {
	h, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &transit.ParameterError{Field: field, Value: v, Reason: "must be a number"}
	}
	return ephemeris.Hours(field, h)
}
