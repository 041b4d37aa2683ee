package gate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// Evaluate runs every gate spec against the data directory and returns the
// aggregated report. Evaluation never short-circuits: all gates run and all
// results are reported even after the first failure, so one invocation
// surfaces the complete diagnostic picture. The financial artifact is
// loaded once and shared across the data-bearing gates.
func Evaluate(dataDir string, specs []domain.GateSpec) domain.GateReport {
	report := domain.GateReport{
		Timestamp: time.Now().UTC(),
		DataDir:   dataDir,
		Gates:     make([]domain.GateResult, 0, len(specs)),
	}

	fin, finErr := LoadFinancials(dataDir)

	for _, spec := range specs {
		result := domain.GateResult{ID: spec.ID}
		switch {
		case finErr != nil && spec.Type != domain.GateFileExists:
			// An unreadable artifact fails each data-bearing gate on its
			// own, without aborting the siblings.
			result.Detail = map[string]any{"error": finErr.Error()}
		case spec.Type == domain.GateFileExists:
			result.Pass, result.Detail = evalFileExists(dataDir, spec.FileExists)
		case spec.Type == domain.GateJSONSchema:
			result.Pass, result.Detail = evalJSONSchema(fin, spec.JSONSchema)
		case spec.Type == domain.GateNullRate:
			result.Pass, result.Detail = evalNullRate(fin, spec.NullRate)
		case spec.Type == domain.GateKeyCoverage:
			result.Pass, result.Detail = evalKeyCoverage(fin, spec.KeyCoverage)
		case spec.Type == domain.GateValueRange:
			result.Pass, result.Detail = evalValueRange(fin, spec.ValueRange)
		default:
			// The loader rejects unknown types, but a hand-built spec can
			// still reach here.
			err := &domain.UnknownGateTypeError{GateID: spec.ID, Type: string(spec.Type)}
			result.Detail = map[string]any{"error": err.Error()}
		}
		report.Gates = append(report.Gates, result)
	}

	report.OverallPass = len(report.Gates) > 0
	for _, g := range report.Gates {
		if !g.Pass {
			report.OverallPass = false
			break
		}
	}
	return report
}

// WriteReport persists a gate report as indented JSON, creating parent
// directories as needed.
func WriteReport(path string, report domain.GateReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode gate report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write gate report %s: %w", path, err)
	}
	return nil
}
