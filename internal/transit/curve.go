package transit

import "github.com/star/exotransit/internal/units"

// FluxSample is one point of a light curve.
type FluxSample struct {
	T          float64 `json:"t"`
	Brightness float64 `json:"brightness"`
}

// BuildCurve maps ordered separations to relative brightness on a normalised
// time axis t_i = i/(N-1). All lengths share one unit; radii must be > 0.
func BuildCurve(starRadius, planetRadius float64, separations []float64) []FluxSample {
	out := make([]FluxSample, len(separations))
	span := float64(len(separations) - 1)
	for i, d := range separations {
		var t float64
		if span > 0 {
			t = float64(i) / span
		}
		if d < 0 {
			d = -d
		}
		out[i] = FluxSample{
			T:          t,
			Brightness: 1 - occlusion(starRadius, planetRadius, d),
		}
	}
	return out
}

// BodyInfo holds the informational scalars shown next to the curve.
type BodyInfo struct {
	StarRadiusKm    float64 `json:"star_radius_km"`
	PlanetRadiusKm  float64 `json:"planet_radius_km"`
	TemperatureK    float64 `json:"temperature_k"`
	LuminosityW     float64 `json:"luminosity_w"`
	LuminositySolar float64 `json:"luminosity_solar"`
}

// Timing converts the geometry into wall-clock scales.
type Timing struct {
	PeriodSeconds   float64 `json:"period_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// LightCurve is the complete result of one computation.
type LightCurve struct {
	Params    Params        `json:"params"`
	Lengths   units.Lengths `json:"lengths"`
	Body      *BodyInfo     `json:"body,omitempty"`
	Timing    *Timing       `json:"timing,omitempty"`
	Samples   []FluxSample  `json:"samples"`
	Positions []Position    `json:"positions"`
	Summary   Summary       `json:"summary"`
	Contacts  *Contacts     `json:"contacts,omitempty"`
}

// SamplerFor returns the trajectory policy of p over converted lengths.
func SamplerFor(p Params, l units.Lengths) Sampler {
	if p.Policy == PolicyOrbit {
		return OrbitProjection{Distance: l.Distance}
	}
	return LinearSweep{StarRadius: l.StarRadius, PlanetRadius: l.PlanetRadius}
}

// ComputeLightCurve validates p and runs the full pipeline:
// unit conversion, trajectory sampling, overlap per sample, curve assembly.
func ComputeLightCurve(p Params) (*LightCurve, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l := p.Units.Convert(p.PlanetRadius, p.StarRadius, p.Distance)
	positions := SamplerFor(p, l).Positions(p.Samples)
	samples := BuildCurve(l.StarRadius, l.PlanetRadius, Separations(positions))

	lc := &LightCurve{
		Params:    p,
		Lengths:   l,
		Samples:   samples,
		Positions: positions,
		Summary:   Summarize(samples),
	}

	if p.Policy == PolicySweep {
		c := SweepContacts(l.StarRadius, l.PlanetRadius)
		lc.Contacts = &c
	}

	if p.Units == units.Physical {
		lc.Body = Describe(l, p.Temperature)
		if l.Distance > 0 {
			period := units.OrbitalPeriodSeconds(l.Distance, p.StellarMass)
			lc.Timing = &Timing{
				PeriodSeconds:   period,
				DurationSeconds: units.TransitDurationSeconds(period, l.Distance, l.StarRadius, l.PlanetRadius),
			}
		}
	}

	return lc, nil
}

// Describe builds the informational scalars for lengths in km and a
// temperature in thousands of Kelvin.
func Describe(l units.Lengths, temperatureKK float64) *BodyInfo {
	tk := units.KiloKelvinToKelvin(temperatureKK)
	lum := units.Luminosity(l.StarRadius, tk)
	return &BodyInfo{
		StarRadiusKm:    l.StarRadius,
		PlanetRadiusKm:  l.PlanetRadius,
		TemperatureK:    tk,
		LuminosityW:     lum,
		LuminositySolar: lum / units.SolarLuminosityW,
	}
}
