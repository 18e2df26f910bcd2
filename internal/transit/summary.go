package transit

import "math"

// inTransitTolerance separates in-transit samples from out-of-transit noise.
const inTransitTolerance = 1e-12

// Summary describes the dip(s) in a light curve.
type Summary struct {
	Transiting bool    `json:"transiting"`
	Depth      float64 `json:"depth"`
	MinIndex   int     `json:"min_index"`
	MinT       float64 `json:"min_t"`
	// IngressIndex and EgressIndex are the first and last samples below
	// unity, or -1 when the curve never dips.
	IngressIndex      int     `json:"ingress_index"`
	EgressIndex       int     `json:"egress_index"`
	InTransitFraction float64 `json:"in_transit_fraction"`
	// Events counts separate dips.
	Events int `json:"events"`
}

// Summarize scans samples once, tracking the deepest point and every
// entry into and exit from transit.
func Summarize(samples []FluxSample) Summary {
	s := Summary{IngressIndex: -1, EgressIndex: -1}
	if len(samples) == 0 {
		return s
	}

	minB := math.Inf(1)
	var inCount int
	var wasIn bool
	for i, fs := range samples {
		if fs.Brightness < minB {
			minB = fs.Brightness
			s.MinIndex = i
			s.MinT = fs.T
		}

		in := fs.Brightness < 1-inTransitTolerance
		if in {
			inCount++
			if !wasIn {
				s.Events++
				if s.IngressIndex < 0 {
					s.IngressIndex = i
				}
			}
			s.EgressIndex = i
		}
		wasIn = in
	}

	s.Transiting = inCount > 0
	s.Depth = 1 - minB
	s.InTransitFraction = float64(inCount) / float64(len(samples))
	return s
}

// Contacts are the four contact instants of a linear sweep, on the same
// normalised time axis as the light curve. Second and third contact mark
// the planet disk becoming fully internal (or fully covering the star when
// the planet is larger).
type Contacts struct {
	OuterSeparation float64 `json:"outer_separation"`
	InnerSeparation float64 `json:"inner_separation"`
	T1              float64 `json:"t1"`
	T2              float64 `json:"t2"`
	T3              float64 `json:"t3"`
	T4              float64 `json:"t4"`
}

// SweepContacts computes contact times analytically for LinearSweep.
func SweepContacts(starRadius, planetRadius float64) Contacts {
	half := LinearSweep{StarRadius: starRadius, PlanetRadius: planetRadius}.HalfWidth()
	outer := starRadius + planetRadius
	inner := math.Abs(starRadius - planetRadius)

	// x(t) = half*(2t-1), so x = -s at t = (1 - s/half)/2.
	t1 := (1 - outer/half) / 2
	t2 := (1 - inner/half) / 2
	return Contacts{
		OuterSeparation: outer,
		InnerSeparation: inner,
		T1:              t1,
		T2:              t2,
		T3:              1 - t2,
		T4:              1 - t1,
	}
}
