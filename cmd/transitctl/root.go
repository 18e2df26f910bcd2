package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/star/exotransit/internal/transit"
	"github.com/star/exotransit/internal/units"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "transitctl",
	Short: "Model exoplanet transits from the command line",
	Long: `transitctl computes the brightness of a star as a planet crosses its disk.

Lengths are read in physical units (Earth radii, Solar radii, AU) unless
--units arbitrary is given, in which case all lengths share one scale.`,
	SilenceUsage: true,
}

// modelFlags holds the light-curve inputs shared by several commands.
type modelFlags struct {
	planetRadius float64
	starRadius   float64
	distance     float64
	temperature  float64
	stellarMass  float64
	samples      int
	units        string
	policy       string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	d := transit.DefaultParams()
	fs := cmd.Flags()
	fs.Float64Var(&f.planetRadius, "planet-radius", d.PlanetRadius, "planet radius (Earth radii, or arbitrary)")
	fs.Float64Var(&f.starRadius, "star-radius", d.StarRadius, "star radius (Solar radii, or arbitrary)")
	fs.Float64Var(&f.distance, "distance", d.Distance, "orbital distance (AU, or arbitrary)")
	fs.Float64Var(&f.temperature, "temperature", d.Temperature, "stellar temperature in thousands of Kelvin")
	fs.Float64Var(&f.stellarMass, "stellar-mass", d.StellarMass, "stellar mass in Solar masses")
	fs.IntVarP(&f.samples, "samples", "n", d.Samples, "number of curve samples")
	fs.StringVar(&f.units, "units", string(d.Units), "unit system: physical or arbitrary")
	fs.StringVar(&f.policy, "policy", string(d.Policy), "trajectory: sweep or orbit")
}

// params converts the flags into validated light-curve parameters.
func (f *modelFlags) params() (transit.Params, error) {
	sys, err := units.ParseSystem(f.units)
	if err != nil {
		return transit.Params{}, err
	}
	policy, err := transit.ParsePolicy(f.policy)
	if err != nil {
		return transit.Params{}, err
	}
	p := transit.Params{
		PlanetRadius: f.planetRadius,
		StarRadius:   f.starRadius,
		Distance:     f.distance,
		Temperature:  f.temperature,
		StellarMass:  f.stellarMass,
		Units:        sys,
		Policy:       policy,
		Samples:      f.samples,
	}
	return p, p.Validate()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
