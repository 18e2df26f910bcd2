// Command transitctl computes transit light curves, occlusion fractions and
// transit ephemerides from the command line.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
