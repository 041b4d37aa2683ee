// Package config provides loading and structural validation for the
// declarative pipeline and gate definition documents.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// pipelineFile mirrors the on-disk YAML shape:
//
//	pipeline:
//	  name: quarterly-report
//	  description: ...
//	  steps:
//	    - id: collect
//	      skill: disclosure-collector
//	      command: "collect --ticker {ticker}"
//	      output_dir: "data/{ticker}/raw"
//	      depends_on: []
//	      gates: gates/collect.yaml
type pipelineFile struct {
	Pipeline *pipelineSection `yaml:"pipeline"`
}

type pipelineSection struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []stepNode `yaml:"steps"`
}

type stepNode struct {
	ID        string   `yaml:"id"`
	Skill     string   `yaml:"skill"`
	Command   string   `yaml:"command"`
	OutputDir string   `yaml:"output_dir"`
	DependsOn []string `yaml:"depends_on"`
	Gates     string   `yaml:"gates"`
}

// LoadPipeline reads and structurally validates a pipeline definition.
// All structural problems are collected and returned joined, so `validate`
// can print the complete picture in one pass.
func LoadPipeline(path string) (*domain.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}

	var file pipelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}
	if file.Pipeline == nil {
		return nil, fmt.Errorf("%w: missing top-level 'pipeline' key", domain.ErrPipelineInvalid)
	}

	p := &domain.Pipeline{
		Name:        file.Pipeline.Name,
		Description: file.Pipeline.Description,
	}
	if p.Name == "" {
		p.Name = "unnamed"
	}

	var problems []error
	if len(file.Pipeline.Steps) == 0 {
		problems = append(problems, errors.New("pipeline must declare at least one step"))
	}

	seen := make(map[string]bool, len(file.Pipeline.Steps))
	for i, s := range file.Pipeline.Steps {
		for field, value := range map[string]string{
			"id":         s.ID,
			"command":    s.Command,
			"output_dir": s.OutputDir,
		} {
			if value == "" {
				problems = append(problems, fmt.Errorf("step %d: missing required field %q", i, field))
			}
		}
		if s.ID != "" && seen[s.ID] {
			problems = append(problems, fmt.Errorf("duplicate step id %q", s.ID))
		}
		seen[s.ID] = true

		p.Steps = append(p.Steps, domain.Step{
			ID:        s.ID,
			Skill:     s.Skill,
			Command:   s.Command,
			OutputDir: s.OutputDir,
			DependsOn: s.DependsOn,
			Gates:     s.Gates,
		})
	}

	// Referential integrity is part of the same pass so one validate run
	// reports dangling depends_on entries alongside structural problems.
	// The resolver re-checks with typed errors before cycle detection.
	for _, s := range file.Pipeline.Steps {
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				problems = append(problems, fmt.Errorf("step %q depends on undeclared step %q", s.ID, dep))
			}
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrPipelineInvalid, errors.Join(problems...))
	}
	return p, nil
}
