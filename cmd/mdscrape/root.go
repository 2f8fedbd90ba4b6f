package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mdscrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdscrape",
		Short: "Crawl documentation sites and save every page as Markdown",
		Long: `mdscrape crawls a documentation site starting from a seed URL and writes
each page as a Markdown file built from its headings, paragraphs and code
samples. Pages can also be rendered to HTML and PDF.

By default only the seed page and the pages linked from its navigation
sidebar are fetched. Use --policy unscoped to follow every link.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
