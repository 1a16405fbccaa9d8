package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for vigireport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vigireport",
		Short: "De-obfuscated adverse drug reaction reports from VigiAccess",
		Long: `vigireport retrieves adverse drug reaction (ADR) statistics for a drug from
the WHO VigiAccess service and writes them as a readable report.

VigiAccess replaces letters in its labels with look-alike Unicode characters.
vigireport maps them back to ASCII, drops invisible filler characters and
records any character it does not recognise in the run log and history
database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewFetchCmd())
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
