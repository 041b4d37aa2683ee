// Package main is the entry point for the stepflow binary: a declarative
// multi-step pipeline executor with acceptance-gate validation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepflow-io/stepflow/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for stepflow.
func newRootCmd() *cobra.Command {
	var (
		logLevel string
		pretty   bool
	)

	rootCmd := &cobra.Command{
		Use:   "stepflow",
		Short: "Declarative pipeline executor with acceptance gates",
		Long: `stepflow runs a sequence of dependent data-production steps in
deterministic order, validating each step's output directory against
declarative acceptance gates and recording structured execution state.

Example:
  stepflow run --pipeline pipeline.yaml --vars ticker=7203,year=2025`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.NewLogger(logging.Config{Level: logLevel, Pretty: pretty})
			slog.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Enable pretty console logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newGateCmd())

	return rootCmd
}
