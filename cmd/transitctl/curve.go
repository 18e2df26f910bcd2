package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/exotransit/internal/transit"
)

var (
	curveModel modelFlags
	curveJSON  bool
	curveRows  int
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Compute a transit light curve",
	Long: `Computes the relative brightness of the star along the chosen trajectory.

The table shows --rows evenly spaced samples; --json prints every sample
together with the summary, contacts and timing.`,
	Args: cobra.NoArgs,
	RunE: runCurve,
}

func init() {
	curveModel.register(curveCmd)
	curveCmd.Flags().BoolVar(&curveJSON, "json", false, "output the full light curve as JSON")
	curveCmd.Flags().IntVar(&curveRows, "rows", 21, "number of table rows")
	rootCmd.AddCommand(curveCmd)
}

func runCurve(cmd *cobra.Command, _ []string) error {
	p, err := curveModel.params()
	if err != nil {
		return err
	}
	lc, err := transit.ComputeLightCurve(p)
	if err != nil {
		return err
	}
	if curveJSON {
		return printJSON(cmd, lc)
	}

	out := cmd.OutOrStdout()
	s := lc.Summary
	lines := []string{
		field("policy", "%s (%s units)", p.Policy, p.Units),
		field("samples", "%d", len(lc.Samples)),
		field("depth", "%.6g", s.Depth),
		field("minimum brightness", "%.6f at t=%.4f", 1-s.Depth, s.MinT),
		field("in transit", "%.1f%% of samples, %d event(s)", 100*s.InTransitFraction, s.Events),
	}
	if c := lc.Contacts; c != nil {
		lines = append(lines, field("contacts t1..t4", "%.4f %.4f %.4f %.4f", c.T1, c.T2, c.T3, c.T4))
	}
	if tm := lc.Timing; tm != nil {
		lines = append(lines,
			field("orbital period", "%s", roundDuration(tm.PeriodSeconds)),
			field("transit duration", "%s", roundDuration(tm.DurationSeconds)),
		)
	}
	fmt.Fprintln(out, panel("Light curve", lines...))

	values := make([]float64, len(lc.Samples))
	for i, fs := range lc.Samples {
		values[i] = fs.Brightness
	}
	fmt.Fprintln(out, dipStyle.Render(sparkline(values, 1-s.Depth, 1, 60)))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%8s  %12s\n", "t", "brightness")
	for _, i := range rowIndices(len(lc.Samples), curveRows) {
		fmt.Fprintf(out, "%8.4f  %12.8f\n", lc.Samples[i].T, lc.Samples[i].Brightness)
	}
	return nil
}

// rowIndices picks up to rows evenly spaced indices in [0, n), always
// including the first and last.
func rowIndices(n, rows int) []int {
	if n <= 0 || rows <= 0 {
		return nil
	}
	if rows >= n {
		rows = n
	}
	if rows == 1 {
		return []int{0}
	}
	out := make([]int, rows)
	for i := range out {
		out[i] = i * (n - 1) / (rows - 1)
	}
	return out
}

func roundDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Second)
}
