package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/mdscrape/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mdscrape configuration file",
		Long: `Initialize creates a new .mdscrape configuration file in the current directory.

The generated file includes:
- Default selectors, crawl policy, naming policy and extraction mode
- Commented examples for site-specific configurations
- Documentation for all available options

Examples:
  # Create .mdscrape in current directory
  mdscrape init

  # Create config file at a specific path
  mdscrape init -o myconfig.yaml

  # Force overwrite existing file
  mdscrape init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := config.WriteTemplate(outputPath, force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%w (use -f to overwrite)", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure site-specific settings such as:")
	fmt.Fprintln(out, "  - Content and navigation selectors")
	fmt.Fprintln(out, "  - Crawl policy, naming policy and extraction mode")
	fmt.Fprintln(out, "  - Authentication cookies and headers")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")

	return nil
}
