// Package gate implements the acceptance-gate validator: it inspects a
// directory of produced artifacts against declarative gate specifications
// and returns typed pass/fail diagnostics.
package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FinancialsFile is the canonical artifact name the data-bearing gates
// inspect inside a step's output directory.
const FinancialsFile = "financials.json"

// Sections are the statement sections a period carries: balance sheet,
// profit and loss, cash flow.
var Sections = []string{"bs", "pl", "cf"}

// Financials is the decoded financial artifact. TopLevel keeps the raw
// top-level document for schema-key checks; Periods is the normalized view
// the cell-counting gates iterate.
type Financials struct {
	TopLevel map[string]json.RawMessage
	Periods  []Period
}

// Period is one reporting period: its end date plus one concept-to-value
// map per section. A nil value is a null cell.
type Period struct {
	PeriodEnd string
	Sections  map[string]map[string]*float64
}

// Value returns the cell for a concept in a section, and whether the
// concept exists at all in that section.
func (p Period) Value(section, concept string) (*float64, bool) {
	cells, ok := p.Sections[section]
	if !ok {
		return nil, false
	}
	v, ok := cells[concept]
	return v, ok
}

type rawPeriod struct {
	PeriodEnd string              `json:"period_end"`
	BS        map[string]*float64 `json:"bs"`
	PL        map[string]*float64 `json:"pl"`
	CF        map[string]*float64 `json:"cf"`
}

// LoadFinancials reads and decodes financials.json from the data directory.
// A missing file is reported as (nil, nil): gates that need the artifact
// fail with a diagnostic rather than erroring the whole evaluation.
func LoadFinancials(dataDir string) (*Financials, error) {
	path := filepath.Join(dataDir, FinancialsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	fin := &Financials{TopLevel: top}
	rawIndex, ok := top["period_index"]
	if !ok {
		return fin, nil
	}

	var rawPeriods []rawPeriod
	if err := json.Unmarshal(rawIndex, &rawPeriods); err != nil {
		return nil, fmt.Errorf("failed to decode period_index in %s: %w", path, err)
	}
	for _, rp := range rawPeriods {
		fin.Periods = append(fin.Periods, Period{
			PeriodEnd: rp.PeriodEnd,
			Sections: map[string]map[string]*float64{
				"bs": rp.BS,
				"pl": rp.PL,
				"cf": rp.CF,
			},
		})
	}
	return fin, nil
}
