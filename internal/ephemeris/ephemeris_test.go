package ephemeris

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/star/exotransit/internal/transit"
)

var epoch = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func year(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want float64
	}{
		{"J2000", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"unix epoch", time.Unix(0, 0), 2440587.5},
		{"half second", time.Date(2000, 1, 1, 12, 0, 0, 500_000_000, time.UTC), 2451545.0 + 0.5/86400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JulianDate(tt.t); math.Abs(got-tt.want) > 1e-8 {
				t.Errorf("JulianDate(%v) = %.9f, want %.9f", tt.t, got, tt.want)
			}
		})
	}
}

func TestNextFromEpoch(t *testing.T) {
	got, err := Next(Request{
		Epoch:    epoch,
		Period:   72 * time.Hour,
		Duration: 3 * time.Hour,
		Count:    3,
	})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, tr := range got {
		wantMid := epoch.Add(time.Duration(i) * 72 * time.Hour)
		if !tr.Mid.Equal(wantMid) {
			t.Errorf("transit %d mid = %v, want %v", i, tr.Mid, wantMid)
		}
		if tr.Cycle != int64(i) {
			t.Errorf("transit %d cycle = %d", i, tr.Cycle)
		}
		if tr.Egress.Sub(tr.Ingress) != 3*time.Hour {
			t.Errorf("transit %d duration = %v", i, tr.Egress.Sub(tr.Ingress))
		}
	}
}

func TestNextSkipsPastTransits(t *testing.T) {
	from := epoch.Add(100 * time.Hour)
	got, err := Next(Request{
		Epoch:    epoch,
		Period:   24 * time.Hour,
		Duration: time.Hour,
		From:     from,
		Count:    2,
	})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got[0].Cycle != 5 || !got[0].Mid.Equal(epoch.Add(120*time.Hour)) {
		t.Errorf("first transit = cycle %d at %v", got[0].Cycle, got[0].Mid)
	}
	if got[1].Cycle != 6 {
		t.Errorf("second cycle = %d, want 6", got[1].Cycle)
	}
}

func TestNextBeforeEpoch(t *testing.T) {
	got, err := Next(Request{
		Epoch:    epoch,
		Period:   24 * time.Hour,
		Duration: time.Hour,
		From:     epoch.Add(-50 * time.Hour),
		Count:    1,
	})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got[0].Cycle != -2 {
		t.Errorf("cycle = %d, want -2", got[0].Cycle)
	}
}

func TestNextOnExactTransit(t *testing.T) {
	from := epoch.Add(48 * time.Hour)
	got, err := Next(Request{Epoch: epoch, Period: 24 * time.Hour, Duration: time.Hour, From: from, Count: 1})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !got[0].Mid.Equal(from) {
		t.Errorf("mid = %v, want %v", got[0].Mid, from)
	}
}

func TestNextRejects(t *testing.T) {
	valid := Request{Epoch: epoch, Period: 24 * time.Hour, Duration: time.Hour, Count: 1}
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"missing epoch", func(r *Request) { r.Epoch = time.Time{} }, "epoch"},
		{"zero period", func(r *Request) { r.Period = 0 }, "period_hours"},
		{"negative duration", func(r *Request) { r.Duration = -time.Minute }, "duration_hours"},
		{"duration exceeds period", func(r *Request) { r.Duration = 25 * time.Hour }, "duration_hours"},
		{"zero count", func(r *Request) { r.Count = 0 }, "count"},
		{"count too large", func(r *Request) { r.Count = MaxCount + 1 }, "count"},
		{"period too long", func(r *Request) { r.Period = MaxSpan + time.Hour }, "period_hours"},
		{"from far after epoch", func(r *Request) { r.From = year(2400) }, "from"},
		{"from far before epoch", func(r *Request) { r.From = year(1700) }, "from"},
		{"from past the year 2262", func(r *Request) { r.Epoch, r.From = year(2000), year(2400) }, "from"},
		{"epoch far after from", func(r *Request) { r.Epoch, r.From = year(2400), year(2000) }, "from"},
		{"cycles run past the span", func(r *Request) { r.Period, r.Count = 3*8766*time.Hour, MaxCount }, "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			_, err := Next(r)
			var pe *transit.ParameterError
			if !errors.As(err, &pe) || pe.Field != tt.field {
				t.Fatalf("err = %v, want ParameterError on %s", err, tt.field)
			}
			if !errors.Is(err, transit.ErrInvalidParameter) {
				t.Error("error does not wrap ErrInvalidParameter")
			}
		})
	}
}

func TestNextFarBeforeEpoch(t *testing.T) {
	far := time.Date(2150, 6, 1, 12, 0, 0, 0, time.UTC)
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := Next(Request{Epoch: far, Period: 24 * time.Hour, Duration: time.Hour, From: from, Count: 2})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got[0].Mid.Before(from) || got[0].Mid.Sub(from) >= 24*time.Hour {
		t.Errorf("first mid = %v, want within one period after %v", got[0].Mid, from)
	}
	if got[1].Cycle != got[0].Cycle+1 || got[0].Cycle >= 0 {
		t.Errorf("cycles = %d, %d", got[0].Cycle, got[1].Cycle)
	}
}

func TestNextFarAfterEpoch(t *testing.T) {
	from := time.Date(2190, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := Next(Request{Epoch: epoch, Period: 7 * time.Hour, From: from, Count: MaxCount})
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != MaxCount {
		t.Fatalf("got %d transits, want %d", len(got), MaxCount)
	}
	if got[0].Mid.Before(from) || got[0].Mid.Sub(from) >= 7*time.Hour {
		t.Errorf("first mid = %v, want within one period after %v", got[0].Mid, from)
	}
}

func TestFromPeriod(t *testing.T) {
	r, err := FromPeriod(epoch, transit.Timing{PeriodSeconds: 86400, DurationSeconds: 3600}, time.Time{}, 4)
	if err != nil {
		t.Fatalf("FromPeriod: %v", err)
	}
	if r.Period != 24*time.Hour || r.Duration != time.Hour || r.Count != 4 {
		t.Errorf("request = %+v", r)
	}
}

func TestFromPeriodTooLong(t *testing.T) {
	// About 300 years: past what time.Duration can hold.
	_, err := FromPeriod(epoch, transit.Timing{PeriodSeconds: 9.5e9, DurationSeconds: 3600}, time.Time{}, 1)
	var pe *transit.ParameterError
	if !errors.As(err, &pe) || pe.Field != "distance" {
		t.Fatalf("err = %v, want ParameterError on distance", err)
	}
}

func TestHours(t *testing.T) {
	d, err := Hours("period_hours", 1.5)
	if err != nil || d != 90*time.Minute {
		t.Errorf("Hours(1.5) = %v, %v", d, err)
	}
	for _, h := range []float64{3e6, -3e6, math.NaN(), math.Inf(1)} {
		_, err := Hours("period_hours", h)
		var pe *transit.ParameterError
		if !errors.As(err, &pe) || pe.Field != "period_hours" {
			t.Errorf("Hours(%v) err = %v, want ParameterError on period_hours", h, err)
		}
	}
}
