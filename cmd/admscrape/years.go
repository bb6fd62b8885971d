package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comtw/admscrape/internal/pipeline"
	"github.com/comtw/admscrape/internal/report"
)

// NewYearsCmd creates the years command.
func NewYearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the academic years offered for each admission method",
		Long: `Years fetches the landing page and prints, per admission method, the
academic years that can be passed to "admscrape scrape --year".

Example:
  admscrape years`,
		Args: cobra.NoArgs,
		RunE: runYearsCmd,
	}
}

// runYearsCmd executes the years command.
func runYearsCmd(cmd *cobra.Command, _ []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := withShutdown(cmd.Context(), e.logger)
	defer cancel()

	f, err := newFetcher(e.cfg, e.logger)
	if err != nil {
		return err
	}

	o := pipeline.NewOrchestrator(f, nil, nil,
		pipeline.WithOrchestratorLogger(e.logger),
		pipeline.WithBaseURL(e.cfg.Fetcher.BaseURL),
	)
	available, err := o.Years(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover years: %w", err)
	}

	return report.WriteYearsTable(cmd.OutOrStdout(), available)
}
