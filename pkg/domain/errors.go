package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrPipelineInvalid = errors.New("invalid pipeline definition")
	ErrGatesInvalid    = errors.New("invalid gate definition")
	ErrRecordNotFound  = errors.New("execution record not found")
)

// UnknownDependencyError reports a step that depends on an ID not declared
// in the same pipeline. Raised before cycle detection.
type UnknownDependencyError struct {
	StepID     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("step %q depends on unknown step %q", e.StepID, e.Dependency)
}

// CycleError reports a dependency cycle, naming at least one step on it.
type CycleError struct {
	StepID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected involving step %q", e.StepID)
}

// UnboundVariableError reports a template placeholder with no binding.
// The engine surfaces it as a step-level failure rather than invoking a
// command with a literal placeholder token.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("unbound variable {%s}", e.Name)
}

// ExternalCommandError reports a non-zero exit from an invoked process.
type ExternalCommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExternalCommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("command exited with code %d", e.ExitCode)
}

// UnknownGateTypeError reports a gate type outside the closed enumeration.
// It is a configuration error, not a silent skip.
type UnknownGateTypeError struct {
	GateID string
	Type   string
}

func (e *UnknownGateTypeError) Error() string {
	return fmt.Sprintf("gate %q has unknown type %q", e.GateID, e.Type)
}
