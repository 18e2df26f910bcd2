package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/star/exotransit/internal/transit"
	"github.com/star/exotransit/internal/units"
)

var (
	starModel modelFlags
	starJSON  bool
)

var starCmd = &cobra.Command{
	Use:   "star",
	Short: "Show stellar radius, temperature and luminosity",
	Args:  cobra.NoArgs,
	RunE:  runStar,
}

func init() {
	starModel.register(starCmd)
	starCmd.Flags().BoolVar(&starJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(starCmd)
}

func runStar(cmd *cobra.Command, _ []string) error {
	p, err := starModel.params()
	if err != nil {
		return err
	}
	if p.Units != units.Physical {
		return errors.New("star information needs --units physical")
	}
	info := transit.Describe(p.Units.Convert(p.PlanetRadius, p.StarRadius, p.Distance), p.Temperature)
	if starJSON {
		return printJSON(cmd, info)
	}
	fmt.Fprintln(cmd.OutOrStdout(), panel("Star",
		field("star radius", "%.6g km", info.StarRadiusKm),
		field("planet radius", "%.6g km", info.PlanetRadiusKm),
		field("temperature", "%.0f K", info.TemperatureK),
		field("luminosity", "%.4g W", info.LuminosityW),
		field("luminosity", "%.4f L☉", info.LuminositySolar),
	))
	return nil
}
