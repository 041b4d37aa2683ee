package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// gatesFile mirrors the on-disk YAML shape:
//
//	gates:
//	  - id: data-complete
//	    type: null_rate
//	    params:
//	      threshold: 0.1
type gatesFile struct {
	Gates []gateNode `yaml:"gates"`
}

type gateNode struct {
	ID     string    `yaml:"id"`
	Type   string    `yaml:"type"`
	Params yaml.Node `yaml:"params"`
}

// LoadGates reads a gate definition document and decodes each gate's params
// into the variant matching its type. Unknown gate types are rejected here,
// at load time, so a misconfigured gate never reaches evaluation.
func LoadGates(path string) ([]domain.GateSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gates file %s: %w", path, err)
	}

	var file gatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse gates file %s: %w", path, err)
	}
	if len(file.Gates) == 0 {
		return nil, fmt.Errorf("%w: no gates defined in %s", domain.ErrGatesInvalid, path)
	}

	specs := make([]domain.GateSpec, 0, len(file.Gates))
	for i, g := range file.Gates {
		if g.ID == "" {
			return nil, fmt.Errorf("%w: gate %d is missing an id", domain.ErrGatesInvalid, i)
		}
		spec, err := decodeGate(g)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func decodeGate(g gateNode) (domain.GateSpec, error) {
	spec := domain.GateSpec{ID: g.ID, Type: domain.GateType(g.Type)}

	decode := func(out any) error {
		if g.Params.IsZero() {
			return nil
		}
		if err := g.Params.Decode(out); err != nil {
			return fmt.Errorf("%w: gate %q params: %w", domain.ErrGatesInvalid, g.ID, err)
		}
		return nil
	}

	switch spec.Type {
	case domain.GateFileExists:
		spec.FileExists = &domain.FileExistsParams{}
		if err := decode(spec.FileExists); err != nil {
			return spec, err
		}
	case domain.GateJSONSchema:
		spec.JSONSchema = &domain.JSONSchemaParams{}
		if err := decode(spec.JSONSchema); err != nil {
			return spec, err
		}
	case domain.GateNullRate:
		spec.NullRate = &domain.NullRateParams{Threshold: 0.5}
		if err := decode(spec.NullRate); err != nil {
			return spec, err
		}
	case domain.GateKeyCoverage:
		spec.KeyCoverage = domain.KeyCoverageParams{}
		if err := decode(&spec.KeyCoverage); err != nil {
			return spec, err
		}
	case domain.GateValueRange:
		spec.ValueRange = domain.ValueRangeParams{}
		if err := decode(&spec.ValueRange); err != nil {
			return spec, err
		}
	default:
		return spec, &domain.UnknownGateTypeError{GateID: g.ID, Type: g.Type}
	}
	return spec, nil
}
