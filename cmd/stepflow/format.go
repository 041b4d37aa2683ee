package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// formatRecord renders an execution record as the human-readable per-step
// synopsis printed by `run` and `status`.
func formatRecord(rec *domain.ExecutionRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pipeline: %s\n", rec.PipelineName)
	fmt.Fprintf(&b, "Run:      %s\n", rec.RunID)
	fmt.Fprintf(&b, "Status:   %s\n", rec.Status)
	fmt.Fprintf(&b, "Started:  %s\n", rec.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	if rec.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", rec.CompletedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	if len(rec.Vars) > 0 {
		pairs := make([]string, 0, len(rec.Vars))
		for k, v := range rec.Vars {
			pairs = append(pairs, k+"="+v)
		}
		sort.Strings(pairs)
		fmt.Fprintf(&b, "Vars:     %s\n", strings.Join(pairs, " "))
	}

	b.WriteString("\nSteps:\n")
	for _, s := range rec.Steps {
		duration := "?"
		if s.DurationSec != nil {
			duration = fmt.Sprintf("%.2fs", *s.DurationSec)
		}
		gateNote := ""
		if s.GateReport != nil {
			if s.GateReport.OverallPass {
				gateNote = "  gate=PASS"
			} else {
				gateNote = "  gate=FAIL"
			}
		}
		fmt.Fprintf(&b, "  %s: %s (%s)%s\n", s.ID, s.Status, duration, gateNote)
		if s.Error != "" {
			fmt.Fprintf(&b, "    error: %s\n", s.Error)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
