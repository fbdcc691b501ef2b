package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ria-search",
		Short: "RIA Hunter - natural-language search over registered investment advisers",
		Long: `ria-search inspects and exercises the RIA search pipeline.

The parse-location, classify and decompose commands run offline.
The search command runs the pipeline in-process against the configured stores.
The submit command starts the search process on the workflow engine.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("format", "json", "output format (json, text)")

	rootCmd.AddCommand(
		parseLocationCmd(),
		classifyCmd(),
		decomposeCmd(),
		searchCmd(),
		submitCmd(),
		registryCmd(),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ria-search %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
