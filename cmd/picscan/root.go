package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for picscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picscan",
		Short: "Concurrent self-expanding crawler that discovers images",
		Long: `picscan starts at a seed page, follows every link it finds and reports
every image it finds. Each distinct page and image is handled once per run.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Config file (yaml, json, toml or .env)")

	cmd.AddCommand(NewCrawlCmd())
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
