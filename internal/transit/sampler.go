package transit

import (
	"fmt"
	"math"
	"strings"
)

// DefaultSamples is the sample count used when none is requested.
const DefaultSamples = 200

// sweepMargin stretches the linear sweep past first and last contact so the
// whole transition is always visible.
const sweepMargin = 1.2

// Position is the planet centre relative to the star centre, in the shared
// linear unit. The projected separation is |X|.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sampler produces an ordered set of planet positions. Calling Positions
// again with the same n yields the same sequence.
type Sampler interface {
	Positions(n int) []Position
}

// Policy names a Sampler implementation.
type Policy string

const (
	PolicySweep Policy = "sweep"
	PolicyOrbit Policy = "orbit"
)

// ParsePolicy maps a query/flag value to a Policy. Empty means PolicySweep.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicySweep):
		return PolicySweep, nil
	case string(PolicyOrbit):
		return PolicyOrbit, nil
	default:
		return "", paramErr("policy", s, fmt.Sprintf("must be %q or %q", PolicySweep, PolicyOrbit))
	}
}

// LinearSweep moves the planet along a straight chord through the stellar
// centre, from -1.2(Rs+Rp) to +1.2(Rs+Rp).
type LinearSweep struct {
	StarRadius   float64
	PlanetRadius float64
}

// HalfWidth is the distance from the stellar centre to either end of the sweep.
func (s LinearSweep) HalfWidth() float64 {
	return sweepMargin * (s.StarRadius + s.PlanetRadius)
}

// Positions samples n points; positions i and n-1-i are exact mirror images.
func (s LinearSweep) Positions(n int) []Position {
	if n <= 0 {
		return nil
	}
	half := s.HalfWidth()
	if n == 1 {
		return []Position{{X: -half}}
	}
	out := make([]Position, n)
	span := float64(n - 1)
	for i := range out {
		k := float64(2*i - (n - 1))
		out[i] = Position{X: half * k / span}
	}
	return out
}

// OrbitProjection moves the planet around a circle of radius Distance,
// starting on the +X axis, at n equally spaced angles over [0, 2pi).
type OrbitProjection struct {
	Distance float64
}

func (o OrbitProjection) Positions(n int) []Position {
	if n <= 0 {
		return nil
	}
	out := make([]Position, n)
	for i := range out {
		theta := 2 * math.Pi * float64(i) / float64(n)
		out[i] = Position{
			X: o.Distance * math.Cos(theta),
			Y: o.Distance * math.Sin(theta),
		}
	}
	return out
}

// Separations projects positions onto the separation axis.
func Separations(ps []Position) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = math.Abs(p.X)
	}
	return out
}
