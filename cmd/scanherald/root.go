// Package main provides the entry point for the scanherald CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for scanherald.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scanherald",
		Short: "Report courier for Acunetix-compatible scanners",
		Long: `scanherald polls an Acunetix-compatible scanning service for completed
scans, generates and downloads their reports, and emails a summary with the
reports attached. Delivered scans are remembered, so running scanherald from
cron never mails the same scan twice.

Run 'scanherald init' to generate a configuration file to get started.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
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
