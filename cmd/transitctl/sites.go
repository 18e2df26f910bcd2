package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/star/exotransit/internal/catalog"
)

var (
	sitesSelected string
	sitesJSON     bool
)

var sitesCmd = &cobra.Command{
	Use:   "sites [collection]",
	Short: "List the built-in map site collections",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSites,
}

func init() {
	sitesCmd.Flags().StringVar(&sitesSelected, "selected", "", "site to highlight (id, name or local name)")
	sitesCmd.Flags().BoolVar(&sitesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := catalog.LoadBuiltin(logger)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		list := store.List()
		if sitesJSON {
			return printJSON(cmd, list)
		}
		for _, c := range list {
			fmt.Fprintln(out, field(c.Name, "%s (%d sites)", c.Title, c.SiteCount))
		}
		return nil
	}

	c, ok := store.Collection(args[0], sitesSelected)
	if !ok {
		return fmt.Errorf("unknown collection %q", args[0])
	}
	if sitesJSON {
		return printJSON(cmd, c)
	}

	fmt.Fprintln(out, titleStyle.Render(c.Title))
	for _, s := range c.Sites {
		marker := "  "
		if s.Selected {
			marker = dipStyle.Render("*") + " "
		}
		name := s.Name
		if s.LocalName != "" {
			name += " / " + s.LocalName
		}
		fmt.Fprintf(out, "%s%-24s %9.4f %10.4f  %s\n", marker, s.ID, s.Location.Lat, s.Location.Lon, name)
	}
	return nil
}
