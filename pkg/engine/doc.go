// Package engine implements the pipeline orchestration core: variable
// expansion, DAG resolution, sequential step execution with configurable
// failure policies, and incremental execution-record persistence.
package engine
