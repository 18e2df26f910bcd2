// Package units converts user-facing astronomical units to kilometres and
// derives informational stellar quantities.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Fixed conversion constants.
const (
	EarthRadiusKm = 6371.0
	SolarRadiusKm = 696340.0
	AUKm          = 149597870.7

	// StefanBoltzmann is sigma in W m^-2 K^-4.
	StefanBoltzmann = 5.67e-8

	// SolarLuminosityW is the IAU nominal solar luminosity.
	SolarLuminosityW = 3.828e26

	// GravitationalConstant in m^3 kg^-1 s^-2.
	GravitationalConstant = 6.674e-11

	// SolarMassKg is the nominal solar mass.
	SolarMassKg = 1.98892e30
)

// System selects how raw user inputs are interpreted.
type System string

const (
	// Physical: planet radius in Earth radii, star radius in Solar radii,
	// distance in AU.
	Physical System = "physical"
	// Arbitrary: all lengths are taken as-is in a shared unitless scale.
	Arbitrary System = "arbitrary"
)

// ParseSystem maps a query/flag value to a System. Empty means Physical.
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Physical):
		return Physical, nil
	case string(Arbitrary):
		return Arbitrary, nil
	default:
		return "", fmt.Errorf("unknown unit system %q (want physical or arbitrary)", s)
	}
}

// EarthRadiiToKm converts Earth radii to kilometres.
func EarthRadiiToKm(r float64) float64 { return r * EarthRadiusKm }

// SolarRadiiToKm converts Solar radii to kilometres.
func SolarRadiiToKm(r float64) float64 { return r * SolarRadiusKm }

// AUToKm converts astronomical units to kilometres.
func AUToKm(d float64) float64 { return d * AUKm }

// KiloKelvinToKelvin converts a temperature given in thousands of Kelvin.
func KiloKelvinToKelvin(t float64) float64 { return t * 1000 }

// Lengths holds the three geometry inputs in a common linear unit.
type Lengths struct {
	PlanetRadius float64 `json:"planet_radius"`
	StarRadius   float64 `json:"star_radius"`
	Distance     float64 `json:"distance"`
}

// Convert maps raw inputs into a common linear unit. For Physical the unit is
// km; for Arbitrary the inputs pass through unchanged.
func (s System) Convert(planetRadius, starRadius, distance float64) Lengths {
	if s == Arbitrary {
		return Lengths{PlanetRadius: planetRadius, StarRadius: starRadius, Distance: distance}
	}
	return Lengths{
		PlanetRadius: EarthRadiiToKm(planetRadius),
		StarRadius:   SolarRadiiToKm(starRadius),
		Distance:     AUToKm(distance),
	}
}

// Luminosity returns the Stefan-Boltzmann black-body luminosity in watts for a
// star of the given radius (km) and effective temperature (K).
func Luminosity(radiusKm, temperatureK float64) float64 {
	rm := radiusKm * 1000
	return 4 * math.Pi * rm * rm * StefanBoltzmann * math.Pow(temperatureK, 4)
}

// OrbitalPeriodSeconds applies Kepler's third law for a circular orbit of
// semi-major axis aKm around a star of massSolar solar masses.
func OrbitalPeriodSeconds(aKm, massSolar float64) float64 {
	am := aKm * 1000
	return 2 * math.Pi * math.Sqrt(am*am*am/(GravitationalConstant*massSolar*SolarMassKg))
}

// TransitDurationSeconds is the first-to-fourth contact duration of a central
// transit on a circular orbit. When the bodies span the whole orbit the
// duration saturates at half the period.
func TransitDurationSeconds(periodSec, aKm, starRadiusKm, planetRadiusKm float64) float64 {
	ratio := (starRadiusKm + planetRadiusKm) / aKm
	if ratio >= 1 {
		return periodSec / 2
	}
	return periodSec / math.Pi * math.Asin(ratio)
}
