package domain

import "time"

// GateType enumerates the supported acceptance gate rule types. The set is
// closed: unknown types are rejected when a gate definition is decoded.
type GateType string

// Gate rule types.
const (
	GateFileExists  GateType = "file_exists"
	GateJSONSchema  GateType = "json_schema"
	GateNullRate    GateType = "null_rate"
	GateKeyCoverage GateType = "key_coverage"
	GateValueRange  GateType = "value_range"
)

// KnownGateTypes lists every member of the closed gate type enumeration.
var KnownGateTypes = []GateType{
	GateFileExists,
	GateJSONSchema,
	GateNullRate,
	GateKeyCoverage,
	GateValueRange,
}

// GateSpec is one declarative acceptance rule. Exactly one of the parameter
// fields is set, matching Type; the loader enforces this tagged-variant
// shape so the evaluator never has to re-validate it.
type GateSpec struct {
	ID   string
	Type GateType

	FileExists  *FileExistsParams
	JSONSchema  *JSONSchemaParams
	NullRate    *NullRateParams
	KeyCoverage KeyCoverageParams
	ValueRange  ValueRangeParams
}

// FileExistsParams requires every listed file to exist, non-empty, under
// the validated data directory.
type FileExistsParams struct {
	RequiredFiles []string `yaml:"required_files"`
}

// JSONSchemaParams requires every listed key to be present at the top level
// of the financial artifact.
type JSONSchemaParams struct {
	RequiredKeys []string `yaml:"required_keys"`
}

// NullRateParams bounds the fraction of null value cells across all
// concepts and periods.
type NullRateParams struct {
	Threshold float64 `yaml:"threshold"`
}

// KeyCoverageParams maps a section name (bs, pl, cf) to its coverage
// requirement.
type KeyCoverageParams map[string]CoverageRequirement

// CoverageRequirement passes when at least MinRequired of Keys are non-null
// in every period of the section.
type CoverageRequirement struct {
	Keys        []string `yaml:"keys"`
	MinRequired int      `yaml:"min_required"`
}

// ValueRangeParams maps a concept name to its numeric bounds.
type ValueRangeParams map[string]RangeRule

// RangeRule bounds every observed value of a concept. Nil means the bound
// is not enforced.
type RangeRule struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// GateResult is the outcome of evaluating a single gate. Detail carries
// diagnostic values specific to the gate type (counts, violating keys).
type GateResult struct {
	ID     string         `json:"id"`
	Pass   bool           `json:"pass"`
	Detail map[string]any `json:"detail"`
}

// GateReport aggregates the results of one validator invocation.
// OverallPass is the logical AND of all individual results; an empty gate
// list never passes.
type GateReport struct {
	Timestamp   time.Time    `json:"timestamp"`
	GatesFile   string       `json:"gates_file,omitempty"`
	DataDir     string       `json:"data_dir"`
	OverallPass bool         `json:"overall_pass"`
	Gates       []GateResult `json:"gates"`
}
