package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/comtw/admscrape/internal/config"
)

//go:embed templates/admscrape.yaml
var configTemplate embed.FS

const templatePath = "templates/admscrape.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented admscrape configuration file",
		Long: `Init writes a configuration file listing every option with its default.

By default the file is admscrape.yaml in the current directory, which
admscrape picks up automatically. --global writes the per-user file in
the XDG config directory instead.

Examples:
  # Create ./admscrape.yaml
  admscrape init

  # Create the per-user configuration
  admscrape init --global

  # Overwrite an existing file
  admscrape init -o custom.yaml -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("global", "g", false,
		"Write to the XDG config directory (ignores --output)")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	global, err := cmd.Flags().GetBool("global")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if global {
		outputPath = filepath.Join(config.XDGConfigDir(), "config.yaml")
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	// The file may hold session cookies or a database token.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nUncomment and edit the options you need, for example:")
	fmt.Fprintln(out, "  - fetcher.cookie to reuse a Cloudflare clearance cookie")
	fmt.Fprintln(out, "  - database.driver and database.dsn to write to libSQL")
	fmt.Fprintln(out, "  - ocr.tessdata_prefix when Tesseract data lives elsewhere")

	return nil
}
