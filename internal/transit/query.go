package transit

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/star/exotransit/internal/units"
)

// OrbitDefaults are the unitless defaults of the orbit animation: a planet
// of radius 0.5 circling a unit star at distance 5, in 200 frames.
func OrbitDefaults() Params {
	p := DefaultParams()
	p.PlanetRadius = 0.5
	p.StarRadius = 1
	p.Distance = 5
	p.Units = units.Arbitrary
	p.Policy = PolicyOrbit
	return p
}

// ParamsFromValues overlays query values onto base. Absent keys keep the
// base value; present keys must parse. The result is not validated.
func ParamsFromValues(v url.Values, base Params) (Params, error) {
	p := base
	floats := []struct {
		key string
		dst *float64
	}{
		{"planet_radius", &p.PlanetRadius},
		{"star_radius", &p.StarRadius},
		{"distance", &p.Distance},
		{"temperature", &p.Temperature},
		{"stellar_mass", &p.StellarMass},
	}
	for _, f := range floats {
		s := strings.TrimSpace(v.Get(f.key))
		if s == "" {
			continue
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return p, paramErr(f.key, s, "must be a number")
		}
		*f.dst = x
	}

	if s := strings.TrimSpace(v.Get("samples")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, paramErr("samples", s, "must be an integer")
		}
		p.Samples = n
	}

	if v.Has("units") {
		sys, err := units.ParseSystem(v.Get("units"))
		if err != nil {
			return p, paramErr("units", v.Get("units"), "must be physical or arbitrary")
		}
		p.Units = sys
	}

	if v.Has("policy") {
		pol, err := ParsePolicy(v.Get("policy"))
		if err != nil {
			return p, err
		}
		p.Policy = pol
	}
	return p, nil
}
