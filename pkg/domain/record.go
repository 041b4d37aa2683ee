package domain

import "time"

// RunStatus is the lifecycle state of a whole pipeline run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// StepStatus is the lifecycle state of a single step within a run.
type StepStatus string

// Step statuses. A step moves pending -> running -> completed|failed, or
// straight to skipped when an upstream failure prunes it.
const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// ExecutionRecord is the persisted, structured account of a pipeline run.
// It is flushed to disk after every step so a crashed run leaves a partial,
// inspectable record behind.
type ExecutionRecord struct {
	RunID         string            `json:"run_id"`
	PipelineName  string            `json:"pipeline_name"`
	Status        RunStatus         `json:"status"`
	FailurePolicy string            `json:"failure_policy"`
	Vars          map[string]string `json:"vars"`
	StartedAt     time.Time         `json:"started_at"`
	CompletedAt   *time.Time        `json:"completed_at"`
	Steps         []StepRecord      `json:"steps"`
}

// StepRecord captures the outcome of one step. Stdout and Stderr hold
// bounded tails of the captured process output; they are retained for the
// record and never echoed elsewhere.
type StepRecord struct {
	ID          string      `json:"id"`
	Skill       string      `json:"skill,omitempty"`
	Status      StepStatus  `json:"status"`
	StartedAt   *time.Time  `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	DurationSec *float64    `json:"duration_sec"`
	GateReport  *GateReport `json:"gate_result"`
	Error       string      `json:"error,omitempty"`
	Stdout      string      `json:"stdout,omitempty"`
	Stderr      string      `json:"stderr,omitempty"`
}

// Failed reports whether any step in the record failed.
func (r *ExecutionRecord) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

// StepByID returns a pointer into the record's step slice, or nil when the
// step is not part of the record.
func (r *ExecutionRecord) StepByID(id string) *StepRecord {
	for i := range r.Steps {
		if r.Steps[i].ID == id {
			return &r.Steps[i]
		}
	}
	return nil
}
