// Package ephemeris predicts upcoming transit times from a reference epoch
// and orbital period.
package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/joshuaferrara/go-satellite"

	"github.com/star/exotransit/internal/transit"
)

// MaxCount bounds the number of transits returned by one request.
const MaxCount = 100

// MaxSpan bounds how far any predicted transit, and From, may lie from the
// epoch. It keeps every cycle offset inside time.Duration.
const MaxSpan = 200 * 8766 * time.Hour

// Request holds the parameters for a transit ephemeris.
type Request struct {
	Epoch    time.Time     // a known mid-transit instant
	Period   time.Duration // orbital period
	Duration time.Duration // first to fourth contact
	From     time.Time     // list transits with mid-time at or after this
	Count    int
}

// Transit is one predicted transit.
type Transit struct {
	Cycle      int64     `json:"cycle"` // orbits since Epoch; negative before it
	Ingress    time.Time `json:"ingress"`
	Mid        time.Time `json:"mid"`
	Egress     time.Time `json:"egress"`
	JulianDate float64   `json:"julian_date"`
}

// Validate checks the request and returns a *transit.ParameterError on the
// first problem.
func (r Request) Validate() error {
	switch {
	case r.Epoch.IsZero():
		return &transit.ParameterError{Field: "epoch", Value: r.Epoch, Reason: "is required"}
	case r.Period <= 0:
		return &transit.ParameterError{Field: "period_hours", Value: r.Period.Hours(), Reason: "must be > 0"}
	case r.Duration < 0:
		return &transit.ParameterError{Field: "duration_hours", Value: r.Duration.Hours(), Reason: "must be >= 0"}
	case r.Duration >= r.Period:
		return &transit.ParameterError{Field: "duration_hours", Value: r.Duration.Hours(), Reason: "must be shorter than the period"}
	case r.Period > MaxSpan:
		return &transit.ParameterError{Field: "period_hours", Value: r.Period.Hours(), Reason: fmt.Sprintf("must be at most %.0f", MaxSpan.Hours())}
	case r.Count < 1 || r.Count > MaxCount:
		return &transit.ParameterError{Field: "count", Value: r.Count, Reason: "must be between 1 and 100"}
	}
	var span float64
	if !r.From.IsZero() {
		span = math.Abs(secondsBetween(r.From, r.Epoch))
	}
	if span > MaxSpan.Seconds() {
		return &transit.ParameterError{Field: "from", Value: r.From, Reason: "must be within 200 years of the epoch"}
	}
	if span+float64(r.Count+1)*r.Period.Seconds() > MaxSpan.Seconds() {
		return &transit.ParameterError{Field: "count", Value: r.Count, Reason: "reaches more than 200 years from the epoch"}
	}
	return nil
}

// secondsBetween is a.Sub(b) in seconds without saturating.
func secondsBetween(a, b time.Time) float64 {
	return float64(a.Unix()-b.Unix()) + float64(a.Nanosecond()-b.Nanosecond())/1e9
}

// Next lists the next r.Count transits whose mid-time is at or after r.From.
// A zero From means Epoch.
func Next(r Request) ([]Transit, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	from := r.From
	if from.IsZero() {
		from = r.Epoch
	}

	first := int64(math.Ceil(float64(from.Sub(r.Epoch)) / float64(r.Period)))
	half := r.Duration / 2

	out := make([]Transit, 0, r.Count)
	// Floating-point ceil can land one cycle early, never more.
	for n := first; len(out) < r.Count && n <= first+int64(r.Count); n++ {
		mid := r.Epoch.Add(time.Duration(n) * r.Period)
		if mid.Before(from) {
			continue
		}
		out = append(out, Transit{
			Cycle:      n,
			Ingress:    mid.Add(-half),
			Mid:        mid,
			Egress:     mid.Add(half),
			JulianDate: JulianDate(mid),
		})
	}
	return out, nil
}

// JulianDate converts t to a Julian date, keeping sub-second precision.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return jd + float64(t.Nanosecond())/float64(24*time.Hour)
}

// FromPeriod builds a request from the timing of a computed light curve.
// Orbits longer than MaxSpan are reported against "distance", the input
// that produced them.
func FromPeriod(epoch time.Time, t transit.Timing, from time.Time, count int) (Request, error) {
	if t.PeriodSeconds > MaxSpan.Seconds() {
		return Request{}, &transit.ParameterError{
			Field:  "distance",
			Value:  t.PeriodSeconds / 3600,
			Reason: "gives an orbital period longer than 200 years",
		}
	}
	return Request{
		Epoch:    epoch,
		Period:   time.Duration(t.PeriodSeconds * float64(time.Second)),
		Duration: time.Duration(t.DurationSeconds * float64(time.Second)),
		From:     from,
		Count:    count,
	}, nil
}

// Hours converts h hours to a duration, rejecting values that cannot be
// represented.
func Hours(field string, h float64) (time.Duration, error) {
	if math.IsNaN(h) || math.Abs(h) > MaxSpan.Hours() {
		return 0, &transit.ParameterError{Field: field, Value: h, Reason: fmt.Sprintf("must be at most %.0f", MaxSpan.Hours())}
	}
	return time.Duration(h * float64(time.Hour)), nil
}
