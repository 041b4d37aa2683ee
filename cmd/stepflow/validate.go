package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepflow-io/stepflow/pkg/config"
	"github.com/stepflow-io/stepflow/pkg/engine"
)

// newValidateCmd creates the `validate` subcommand: well-formedness,
// referential integrity and acyclicity of a pipeline definition. It never
// mutates the filesystem and is idempotent.
func newValidateCmd() *cobra.Command {
	var pipelinePath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a pipeline definition without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := config.LoadPipeline(pipelinePath)
			if err != nil {
				return err
			}
			ordered, err := engine.Resolve(pipeline.Steps)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %q is valid (%d steps)\n", pipeline.Name, len(ordered))
			fmt.Fprintln(cmd.OutOrStdout(), "Execution order:")
			for i, step := range ordered {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, step.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "Path to the pipeline definition (YAML)")
	_ = cmd.MarkFlagRequired("pipeline")

	return cmd
}
