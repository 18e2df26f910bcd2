package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/exotransit/internal/ephemeris"
	"github.com/star/exotransit/internal/transit"
)

var (
	ephemModel    modelFlags
	ephemEpoch    string
	ephemFrom     string
	ephemPeriod   float64
	ephemDuration float64
	ephemCount    int
	ephemJSON     bool
)

var ephemerisCmd = &cobra.Command{
	Use:   "ephemeris",
	Short: "Predict upcoming transit times",
	Long: `Lists the next transits after --from (default: the epoch).

Without --period-hours the period and duration are derived from the model
flags with Kepler's third law, which requires physical units.`,
	Example: `  transitctl ephemeris --epoch 2024-03-01T06:00:00Z --period-hours 72 --duration-hours 3
  transitctl ephemeris --epoch 2024-03-01T06:00:00Z --distance 0.05 --star-radius 0.9`,
	Args: cobra.NoArgs,
	RunE: runEphemeris,
}

func init() {
	ephemModel.register(ephemerisCmd)
	fs := ephemerisCmd.Flags()
	fs.StringVar(&ephemEpoch, "epoch", "", "a known mid-transit time (RFC 3339)")
	fs.StringVar(&ephemFrom, "from", "", "list transits from this time (RFC 3339)")
	fs.Float64Var(&ephemPeriod, "period-hours", 0, "orbital period in hours")
	fs.Float64Var(&ephemDuration, "duration-hours", 0, "transit duration in hours")
	fs.IntVar(&ephemCount, "count", 5, "number of transits")
	fs.BoolVar(&ephemJSON, "json", false, "output as JSON")
	_ = ephemerisCmd.MarkFlagRequired("epoch")
	rootCmd.AddCommand(ephemerisCmd)
}

func runEphemeris(cmd *cobra.Command, _ []string) error {
	epoch, err := time.Parse(time.RFC3339, ephemEpoch)
	if err != nil {
		return fmt.Errorf("--epoch: %w", err)
	}
	var from time.Time
	if ephemFrom != "" {
		if from, err = time.Parse(time.RFC3339, ephemFrom); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}

	var req ephemeris.Request
	if cmd.Flags().Changed("period-hours") {
		period, err := ephemeris.Hours("period-hours", ephemPeriod)
		if err != nil {
			return err
		}
		duration, err := ephemeris.Hours("duration-hours", ephemDuration)
		if err != nil {
			return err
		}
		req = ephemeris.Request{
			Epoch:    epoch,
			Period:   period,
			Duration: duration,
			From:     from,
			Count:    ephemCount,
		}
	} else {
		p, err := ephemModel.params()
		if err != nil {
			return err
		}
		lc, err := transit.ComputeLightCurve(p)
		if err != nil {
			return err
		}
		if lc.Timing == nil {
			return errors.New("--period-hours is required unless physical units and a positive distance are given")
		}
		if req, err = ephemeris.FromPeriod(epoch, *lc.Timing, from, ephemCount); err != nil {
			return err
		}
	}

	transits, err := ephemeris.Next(req)
	if err != nil {
		return err
	}
	if ephemJSON {
		return printJSON(cmd, transits)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, panel("Ephemeris",
		field("epoch", "%s", req.Epoch.UTC().Format(time.RFC3339)),
		field("period", "%s", req.Period.Round(time.Second)),
		field("duration", "%s", req.Duration.Round(time.Second)),
	))
	fmt.Fprintf(out, "%6s  %-20s  %-20s  %-20s  %s\n", "cycle", "ingress", "mid", "egress", "JD")
	for _, tr := range transits {
		fmt.Fprintf(out, "%6d  %-20s  %-20s  %-20s  %.5f\n",
			tr.Cycle,
			tr.Ingress.UTC().Format(time.RFC3339),
			tr.Mid.UTC().Format(time.RFC3339),
			tr.Egress.UTC().Format(time.RFC3339),
			tr.JulianDate,
		)
	}
	return nil
}
