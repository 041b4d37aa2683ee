package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/stepflow-io/stepflow/pkg/config"
	"github.com/stepflow-io/stepflow/pkg/domain"
	"github.com/stepflow-io/stepflow/pkg/engine"
	"github.com/stepflow-io/stepflow/pkg/telemetry"
)

var errRunFailed = errors.New("pipeline run failed")

// newRunCmd creates the `run` subcommand. Exit code 0 means the record
// completed; any step failure makes the process exit non-zero so calling
// automation sees it.
func newRunCmd() *cobra.Command {
	var (
		pipelinePath string
		varsFlag     string
		logPath      string
		onFailure    string
		workDir      string
		stepTimeout  time.Duration
		metricsPath  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := config.ParseVars(varsFlag)
			if err != nil {
				return err
			}
			policy, err := engine.ParsePolicy(onFailure)
			if err != nil {
				return err
			}
			pipeline, err := config.LoadPipeline(pipelinePath)
			if err != nil {
				return err
			}

			if logPath == "" {
				logPath = defaultLogPath(pipeline.Name)
			}

			var metrics *telemetry.Metrics
			if metricsPath != "" {
				metrics = telemetry.NewMetrics()
			}

			runner := engine.NewRunner(engine.RunnerOptions{
				Logger:      slog.Default(),
				WorkDir:     workDir,
				StepTimeout: stepTimeout,
				Policy:      policy,
				Metrics:     metrics,
			})

			rec, err := runner.Run(cmd.Context(), pipeline, vars, logPath)
			if err != nil {
				return err
			}

			if metrics != nil {
				if err := metrics.WriteTextfile(metricsPath); err != nil {
					slog.Warn("Failed to write metrics file", "path", metricsPath, "error", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatRecord(rec))
			fmt.Fprintf(cmd.OutOrStdout(), "\nExecution record: %s\n", logPath)

			if rec.Status != domain.RunCompleted {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "Path to the pipeline definition (YAML)")
	cmd.Flags().StringVar(&varsFlag, "vars", "", "Run variables as k=v,k2=v2")
	cmd.Flags().StringVar(&logPath, "log", "", "Path for the execution record (default derived from pipeline name and timestamp)")
	cmd.Flags().StringVar(&onFailure, "on-failure", string(engine.PolicyAbort), "Failure policy: abort or skip")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for step commands")
	cmd.Flags().DurationVar(&stepTimeout, "step-timeout", 0, "Per-step command timeout (0 disables)")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Write Prometheus textfile metrics to this path after the run")
	_ = cmd.MarkFlagRequired("pipeline")

	return cmd
}

func defaultLogPath(pipelineName string) string {
	return fmt.Sprintf("%s_%s.json", pipelineName, time.Now().UTC().Format("20060102T150405"))
}
