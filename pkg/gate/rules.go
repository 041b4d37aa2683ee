package gate

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// evalFileExists checks that every required file exists under dataDir with
// non-zero size. Detail lists every checked file with its existence and
// size so failing paths are visible at a glance.
func evalFileExists(dataDir string, params *domain.FileExistsParams) (bool, map[string]any) {
	detail := make(map[string]any, len(params.RequiredFiles))
	pass := true
	for _, name := range params.RequiredFiles {
		info, err := os.Stat(filepath.Join(dataDir, name))
		exists := err == nil
		var size int64
		if exists {
			size = info.Size()
		}
		detail[name] = map[string]any{"exists": exists, "size": size}
		if !exists || size == 0 {
			pass = false
		}
	}
	return pass, detail
}

// evalJSONSchema checks that every required key is present at the top level
// of the financial artifact.
func evalJSONSchema(fin *Financials, params *domain.JSONSchemaParams) (bool, map[string]any) {
	if fin == nil {
		return false, map[string]any{"error": FinancialsFile + " not found"}
	}
	missing := []string{}
	for _, key := range params.RequiredKeys {
		if _, ok := fin.TopLevel[key]; !ok {
			missing = append(missing, key)
		}
	}
	return len(missing) == 0, map[string]any{
		"missing_keys": missing,
		"detail":       fmt.Sprintf("checked %d keys, %d missing", len(params.RequiredKeys), len(missing)),
	}
}

// evalNullRate counts all (concept, period) value cells across every
// section and passes when null_count / total_count stays at or below the
// threshold. No periods at all counts as a full null rate.
func evalNullRate(fin *Financials, params *domain.NullRateParams) (bool, map[string]any) {
	total, nulls := 0, 0
	if fin != nil {
		for _, period := range fin.Periods {
			for _, section := range Sections {
				for _, v := range period.Sections[section] {
					total++
					if v == nil {
						nulls++
					}
				}
			}
		}
	}
	rate := 1.0
	if total > 0 {
		rate = math.Round(float64(nulls)/float64(total)*10000) / 10000
	}
	pass := total > 0 && rate <= params.Threshold
	return pass, map[string]any{
		"total_cells": total,
		"null_cells":  nulls,
		"null_rate":   rate,
		"threshold":   params.Threshold,
	}
}

// evalKeyCoverage checks, per declared section, how many required keys are
// non-null in every period; the section passes when that count reaches
// min_required.
func evalKeyCoverage(fin *Financials, params domain.KeyCoverageParams) (bool, map[string]any) {
	if fin == nil {
		return false, map[string]any{"error": FinancialsFile + " not found"}
	}
	detail := make(map[string]any, len(params))
	pass := true
	for section, req := range params {
		coverage := make(map[string]int, len(req.Keys))
		for _, key := range req.Keys {
			nonNull := 0
			for _, period := range fin.Periods {
				if v, ok := period.Value(section, key); ok && v != nil {
					nonNull++
				}
			}
			coverage[key] = nonNull
		}

		allPeriodKeys := 0
		for _, key := range req.Keys {
			if coverage[key] == len(fin.Periods) {
				allPeriodKeys++
			}
		}
		sectionPass := allPeriodKeys >= req.MinRequired
		if !sectionPass {
			pass = false
		}
		detail[section] = map[string]any{
			"pass":            sectionPass,
			"all_period_keys": allPeriodKeys,
			"min_required":    req.MinRequired,
			"coverage":        coverage,
		}
	}
	return pass, detail
}

// evalValueRange checks min/max bounds for each named concept over every
// period, accumulating one violation entry per breached bound. Concepts
// absent from the data are not violations; the bound applies to observed
// values only.
func evalValueRange(fin *Financials, params domain.ValueRangeParams) (bool, map[string]any) {
	violations := []map[string]any{}
	if fin != nil {
		concepts := conceptSections(fin)
		for concept, rule := range params {
			section, ok := concepts[concept]
			if !ok {
				continue
			}
			for _, period := range fin.Periods {
				v, _ := period.Value(section, concept)
				if v == nil {
					continue
				}
				if rule.Min != nil && *v < *rule.Min {
					violations = append(violations, violation(concept, period.PeriodEnd, *v,
						fmt.Sprintf("min=%v", *rule.Min),
						fmt.Sprintf("value %v < min %v", *v, *rule.Min)))
				}
				if rule.Max != nil && *v > *rule.Max {
					violations = append(violations, violation(concept, period.PeriodEnd, *v,
						fmt.Sprintf("max=%v", *rule.Max),
						fmt.Sprintf("value %v > max %v", *v, *rule.Max)))
				}
			}
		}
	}
	return len(violations) == 0, map[string]any{
		"violations":      violations,
		"violation_count": len(violations),
	}
}

func violation(concept, periodEnd string, value float64, rule, reason string) map[string]any {
	return map[string]any{
		"concept":    concept,
		"period_end": periodEnd,
		"value":      value,
		"rule":       rule,
		"reason":     reason,
	}
}

// conceptSections maps each concept to the section it first appears in.
func conceptSections(fin *Financials) map[string]string {
	out := make(map[string]string)
	for _, period := range fin.Periods {
		for _, section := range Sections {
			for concept := range period.Sections[section] {
				if _, ok := out[concept]; !ok {
					out[concept] = section
				}
			}
		}
	}
	return out
}
