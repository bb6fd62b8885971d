// Package main provides the entry point for the admscrape CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for admscrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admscrape",
		Short: "Scrape Taiwanese university admission results",
		Long: `admscrape crawls the public admission-results site for five admission
methods (exam placement, star recommendation, cross-check application,
vocational selection and vocational placement), reads the image glyphs
the site uses for names and statuses, and stores the admitted candidates
in a SQLite or libSQL database.

Requests that hit a Cloudflare challenge are retried through FlareSolverr.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: ./admscrape.yaml or the XDG config directory)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewYearsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "admscrape:", err)
		os.Exit(1)
	}
}
