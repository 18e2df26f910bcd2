// Package transit implements the transit photometry model: the fraction of a
// stellar disk hidden by a planet, the trajectories the planet is sampled
// along, and the resulting light curve.
package transit

import "math"

// Regime is the geometric relationship between the two disks.
type Regime int

const (
	// NoOverlap: the disks are separated (d >= Rs + Rp).
	NoOverlap Regime = iota
	// FullContainment: one disk lies entirely inside the other (d <= |Rs - Rp|).
	FullContainment
	// PartialOverlap: the disk edges intersect.
	PartialOverlap
)

func (r Regime) String() string {
	switch r {
	case NoOverlap:
		return "no_overlap"
	case FullContainment:
		return "full_containment"
	case PartialOverlap:
		return "partial_overlap"
	default:
		return "unknown"
	}
}

// MarshalText lets Regime serialize by name.
func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Geometry is the instantaneous configuration of star and planet. All three
// lengths share one linear unit.
type Geometry struct {
	StarRadius   float64
	PlanetRadius float64
	Separation   float64
}

// Validate rejects non-positive radii and negative separations.
func (g Geometry) Validate() error {
	if !(g.StarRadius > 0) || math.IsInf(g.StarRadius, 0) {
		return paramErr("star_radius", g.StarRadius, "must be a finite value > 0")
	}
	if !(g.PlanetRadius > 0) || math.IsInf(g.PlanetRadius, 0) {
		return paramErr("planet_radius", g.PlanetRadius, "must be a finite value > 0")
	}
	if !(g.Separation >= 0) {
		return paramErr("separation", g.Separation, "must be >= 0")
	}
	return nil
}

// Regime classifies the configuration. Callers must have validated g.
func (g Geometry) Regime() Regime {
	return Classify(g.StarRadius, g.PlanetRadius, g.Separation)
}

// Occlusion returns the fraction of the stellar disk hidden by the planet.
func (g Geometry) Occlusion() (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return occlusion(g.StarRadius, g.PlanetRadius, g.Separation), nil
}

// OcclusionFraction is the validating form of the overlap calculator.
func OcclusionFraction(starRadius, planetRadius, separation float64) (float64, error) {
	return Geometry{StarRadius: starRadius, PlanetRadius: planetRadius, Separation: separation}.Occlusion()
}

// Classify picks the regime for radii rs, rp at separation d. The
// containment test comes before the lens formula so that d == 0 never
// reaches it.
func Classify(rs, rp, d float64) Regime {
	switch {
	case d >= rs+rp:
		return NoOverlap
	case d <= math.Abs(rs-rp):
		return FullContainment
	default:
		return PartialOverlap
	}
}

// occlusion assumes rs, rp > 0 and d >= 0.
func occlusion(rs, rp, d float64) float64 {
	var f float64
	switch Classify(rs, rp, d) {
	case NoOverlap:
		return 0
	case FullContainment:
		f = containedFraction(rs, rp)
	case PartialOverlap:
		f = lensArea(rs, rp, d) / (math.Pi * rs * rs)
	}
	return clamp(f, 0, 1)
}

// containedFraction covers the case where one disk sits inside the other.
// A planet at least as large as the star hides all of it.
func containedFraction(rs, rp float64) float64 {
	if rp <= rs {
		k := rp / rs
		return k * k
	}
	return 1
}

// lensArea is the intersection area of two circles whose edges cross.
func lensArea(rs, rp, d float64) float64 {
	alpha := math.Acos(clamp((d*d+rs*rs-rp*rp)/(2*d*rs), -1, 1))
	beta := math.Acos(clamp((d*d+rp*rp-rs*rs)/(2*d*rp), -1, 1))

	k := (-d + rs + rp) * (d + rs - rp) * (d - rs + rp) * (d + rs + rp)
	if k < 0 {
		k = 0
	}
	return rs*rs*alpha + rp*rp*beta - 0.5*math.Sqrt(k)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
