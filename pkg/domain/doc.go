// Package domain defines the core types shared across the pipeline engine:
// pipeline definitions, execution records, gate specifications and the
// error taxonomy. It has no dependencies on the engine or config layers.
package domain
