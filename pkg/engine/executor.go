package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/pkg/config"
	"github.com/stepflow-io/stepflow/pkg/domain"
	"github.com/stepflow-io/stepflow/pkg/gate"
	"github.com/stepflow-io/stepflow/pkg/telemetry"
)

// FailurePolicy is the run-level rule governing how a step failure affects
// not-yet-run steps.
type FailurePolicy string

// Failure policies. Abort stops the run and marks every not-yet-started
// step skipped. Skip prunes only the steps that transitively depend on the
// failed one; independent steps keep executing.
const (
	PolicyAbort FailurePolicy = "abort"
	PolicySkip  FailurePolicy = "skip"
)

// ParsePolicy validates a user-supplied failure policy string.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case PolicyAbort, PolicySkip:
		return FailurePolicy(s), nil
	}
	return "", fmt.Errorf("unknown failure policy %q (want abort or skip)", s)
}

// Captured process output is kept as a bounded tail in the step record.
const outputTailLimit = 8 * 1024

// RunnerOptions holds dependencies and settings for a Runner.
type RunnerOptions struct {
	Logger *slog.Logger
	// WorkDir is the working directory for step commands and the base for
	// relative gate and output paths. Empty means the process cwd.
	WorkDir string
	// StepTimeout bounds each external command. Zero disables the bound:
	// a hung command then hangs the run until the operator intervenes.
	StepTimeout time.Duration
	Policy      FailurePolicy
	Metrics     *telemetry.Metrics
}

// Runner executes pipelines sequentially, one step at a time. Steps never
// run concurrently even when the DAG allows it: downstream prev_output
// bindings and shared-directory conventions are only well-defined once a
// dependency has fully completed, and deterministic audit logs depend on a
// reproducible order.
//
// A Runner is not safe for concurrent use, but independent Runner instances
// may run different pipelines in the same process: all run state lives on
// the instance, not in package globals.
type Runner struct {
	logger      *slog.Logger
	workDir     string
	stepTimeout time.Duration
	policy      FailurePolicy
	metrics     *telemetry.Metrics

	// outputs maps completed step IDs to their resolved output directories;
	// it is the mutable state that lets later steps reference earlier ones.
	outputs map[string]string
}

// NewRunner creates a runner with the given options. The failure policy
// defaults to abort.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyAbort
	}
	return &Runner{
		logger:      logger,
		workDir:     opts.WorkDir,
		stepTimeout: opts.StepTimeout,
		policy:      policy,
		metrics:     opts.Metrics,
	}
}

// Run executes the pipeline and returns its execution record. Definition
// errors (unknown dependency, cycle) abort before any step starts and are
// returned directly; step-level failures are recorded in the returned
// record instead, with a nil error.
//
// The record is flushed to logPath after every step; pass an empty path to
// keep the record in memory only.
func (r *Runner) Run(ctx context.Context, p *domain.Pipeline, vars map[string]string, logPath string) (*domain.ExecutionRecord, error) {
	ordered, err := Resolve(p.Steps)
	if err != nil {
		return nil, err
	}

	if vars == nil {
		vars = map[string]string{}
	}
	r.outputs = make(map[string]string, len(ordered))

	rec := &domain.ExecutionRecord{
		RunID:         uuid.NewString(),
		PipelineName:  p.Name,
		Status:        domain.RunRunning,
		FailurePolicy: string(r.policy),
		Vars:          vars,
		StartedAt:     time.Now().UTC(),
		Steps:         make([]domain.StepRecord, len(ordered)),
	}
	for i, step := range ordered {
		rec.Steps[i] = domain.StepRecord{ID: step.ID, Skill: step.Skill, Status: domain.StepPending}
	}

	writer := NewRecordWriter(logPath)
	r.flush(writer, rec)

	r.logger.Info("Run started", "pipeline", p.Name, "run_id", rec.RunID, "steps", len(ordered), "policy", r.policy)

	skipped := make(map[string]bool)
	aborted := false
	for i, step := range ordered {
		sr := &rec.Steps[i]

		if aborted || skipped[step.ID] {
			sr.Status = domain.StepSkipped
			r.logger.Warn("Skipping step due to upstream failure", "step", step.ID)
			r.metrics.ObserveStep(step.ID, sr.Status, 0)
			r.flush(writer, rec)
			continue
		}

		r.runStep(ctx, step, vars, sr)
		r.metrics.ObserveStep(step.ID, sr.Status, stepDuration(sr))

		if sr.Status == domain.StepFailed {
			switch r.policy {
			case PolicySkip:
				for id := range TransitiveDependents(p.Steps, step.ID) {
					skipped[id] = true
				}
			default:
				aborted = true
			}
		}
		r.flush(writer, rec)
	}

	completed := time.Now().UTC()
	rec.CompletedAt = &completed
	rec.Status = domain.RunCompleted
	if rec.Failed() {
		rec.Status = domain.RunFailed
	}
	r.flush(writer, rec)

	r.logger.Info("Run finished", "pipeline", p.Name, "run_id", rec.RunID, "status", rec.Status)
	return rec, nil
}

// runStep drives one step through its state machine:
// pending -> running -> completed|failed.
func (r *Runner) runStep(ctx context.Context, step domain.Step, vars map[string]string, sr *domain.StepRecord) {
	start := time.Now().UTC()
	sr.Status = domain.StepRunning
	sr.StartedAt = &start

	fail := func(err error) {
		r.finish(sr, start)
		sr.Status = domain.StepFailed
		sr.Error = err.Error()
		r.logger.Error("Step failed", "step", step.ID, "error", err)
	}

	bindings := r.stepBindings(step, vars)

	outputDir, err := Expand(step.OutputDir, bindings)
	if err != nil {
		fail(fmt.Errorf("output_dir: %w", err))
		return
	}
	command, err := Expand(step.Command, bindings)
	if err != nil {
		fail(fmt.Errorf("command: %w", err))
		return
	}

	r.logger.Info("Step started", "step", step.ID, "skill", step.Skill, "command", command)

	stdout, stderr, err := r.invoke(ctx, command)
	sr.Stdout = stdout
	sr.Stderr = stderr
	if err != nil {
		fail(err)
		return
	}

	if step.Gates != "" {
		report, err := r.evaluateGates(step, outputDir)
		if report != nil {
			sr.GateReport = report
			r.metrics.ObserveGate(report.OverallPass)
		}
		if err != nil {
			fail(err)
			return
		}
		if !report.OverallPass {
			fail(errors.New("gate validation failed"))
			return
		}
	}

	r.outputs[step.ID] = outputDir
	r.finish(sr, start)
	sr.Status = domain.StepCompleted
	r.logger.Info("Step completed", "step", step.ID, "duration_sec", *sr.DurationSec)
}

func (r *Runner) finish(sr *domain.StepRecord, start time.Time) {
	end := time.Now().UTC()
	sr.CompletedAt = &end
	d := end.Sub(start).Seconds()
	sr.DurationSec = &d
}

// stepBindings assembles the expansion bindings for one step: the run vars,
// prev_output from the first listed dependency, and a named <dep>.output
// binding per completed dependency. prev_output follows declaration order
// of depends_on, kept for compatibility with existing pipelines; the named
// form is the documented alternative.
//
// Derived bindings win over run vars: a var that happens to be named
// prev_output must not mask the computed dependency output.
func (r *Runner) stepBindings(step domain.Step, vars map[string]string) map[string]string {
	bindings := make(map[string]string, len(r.outputs)+len(vars)+1)
	for k, v := range vars {
		bindings[k] = v
	}
	for k, v := range r.outputs {
		bindings[k+".output"] = v
	}
	if len(step.DependsOn) > 0 {
		if out, ok := r.outputs[step.DependsOn[0]]; ok {
			bindings["prev_output"] = out
		}
	}
	return bindings
}

// invoke runs the expanded command through the shell, blocking until it
// exits. stdout/stderr are captured as bounded tails.
func (r *Runner) invoke(ctx context.Context, command string) (string, string, error) {
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.workDir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout := tail(outBuf.String())
	stderr := tail(errBuf.String())

	if runErr == nil {
		return stdout, stderr, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout, stderr, fmt.Errorf("command timed out after %s", r.stepTimeout)
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return stdout, stderr, &domain.ExternalCommandError{
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr),
		}
	}
	return stdout, stderr, fmt.Errorf("failed to invoke command: %w", runErr)
}

// evaluateGates loads the step's gate definition, evaluates it against the
// resolved output directory and writes the report artifact next to the
// run's other outputs. A missing or malformed gate definition is a
// configuration error that fails the step; silently skipping validation
// would defeat the gate's purpose.
func (r *Runner) evaluateGates(step domain.Step, outputDir string) (*domain.GateReport, error) {
	specs, err := config.LoadGates(r.resolvePath(step.Gates))
	if err != nil {
		return nil, fmt.Errorf("gate configuration: %w", err)
	}

	report := gate.Evaluate(r.resolvePath(outputDir), specs)
	report.GatesFile = step.Gates

	artifact := r.resolvePath(step.ID + "_gate_results.json")
	if err := gate.WriteReport(artifact, report); err != nil {
		return &report, err
	}
	r.logger.Info("Gate report written", "step", step.ID, "path", artifact, "overall_pass", report.OverallPass)
	return &report, nil
}

// resolvePath anchors a relative path at the runner's working directory.
func (r *Runner) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || r.workDir == "" {
		return path
	}
	return filepath.Join(r.workDir, path)
}

func (r *Runner) flush(writer *RecordWriter, rec *domain.ExecutionRecord) {
	if err := writer.Flush(rec); err != nil {
		r.logger.Warn("Failed to flush execution record", "error", err)
	}
}

func stepDuration(sr *domain.StepRecord) time.Duration {
	if sr.DurationSec == nil {
		return 0
	}
	return time.Duration(*sr.DurationSec * float64(time.Second))
}

func tail(s string) string {
	if len(s) <= outputTailLimit {
		return s
	}
	return s[len(s)-outputTailLimit:]
}
