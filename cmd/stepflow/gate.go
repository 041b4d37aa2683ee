package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepflow-io/stepflow/pkg/config"
	"github.com/stepflow-io/stepflow/pkg/gate"
)

var errGateFailed = errors.New("gate validation failed")

// newGateCmd creates the `gate` subcommand: the standalone acceptance-gate
// validator. Pipelines invoke gates in-process, but the standalone form
// lets operators re-check a directory of artifacts by hand. Exit code 0 on
// overall pass, 1 otherwise.
func newGateCmd() *cobra.Command {
	var (
		gatesPath  string
		dataDir    string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Evaluate acceptance gates against a data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(dataDir)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("data directory not found: %s", dataDir)
			}

			specs, err := config.LoadGates(gatesPath)
			if err != nil {
				return err
			}

			report := gate.Evaluate(dataDir, specs)
			report.GatesFile = gatesPath

			if outputPath != "" {
				if err := gate.WriteReport(outputPath, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputPath)
			} else {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}

			if report.OverallPass {
				fmt.Fprintln(cmd.OutOrStdout(), "Overall: PASS")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Overall: FAIL")
			return errGateFailed
		},
	}

	cmd.Flags().StringVar(&gatesPath, "gates", "", "Path to the gate definition (YAML)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory containing the produced artifacts")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path for the gate report JSON (default: stdout)")
	_ = cmd.MarkFlagRequired("gates")
	_ = cmd.MarkFlagRequired("data-dir")

	return cmd
}
