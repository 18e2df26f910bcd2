package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/star/exotransit/internal/transit"
)

var occlusionJSON bool

var occlusionCmd = &cobra.Command{
	Use:   "occlusion <star-radius> <planet-radius> <separation>",
	Short: "Fraction of a stellar disk hidden by a planet",
	Long: `Evaluates the overlap of two disks. The three lengths must share one unit;
the separation is the projected distance between the disk centres.`,
	Args: cobra.ExactArgs(3),
	RunE: runOcclusion,
}

func init() {
	occlusionCmd.Flags().BoolVar(&occlusionJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(occlusionCmd)
}

func runOcclusion(cmd *cobra.Command, args []string) error {
	var vals [3]float64
	for i, name := range []string{"star-radius", "planet-radius", "separation"} {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", name, args[i])
		}
		vals[i] = v
	}
	g := transit.Geometry{StarRadius: vals[0], PlanetRadius: vals[1], Separation: vals[2]}
	frac, err := g.Occlusion()
	if err != nil {
		return err
	}

	if occlusionJSON {
		return printJSON(cmd, map[string]any{
			"regime":     g.Regime(),
			"fraction":   frac,
			"brightness": 1 - frac,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), panel("Occlusion",
		field("regime", "%s", g.Regime()),
		field("fraction", "%.10g", frac),
		field("brightness", "%.10g", 1-frac),
	))
	return nil
}
