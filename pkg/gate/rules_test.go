package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

func evaluateOne(t *testing.T, dir string, spec domain.GateSpec) domain.GateResult {
	t.Helper()
	report := Evaluate(dir, []domain.GateSpec{spec})
	require.Len(t, report.Gates, 1)
	return report.Gates[0]
}

func TestFileExistsRejectsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full.csv"), []byte("a,b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0o644))

	result := evaluateOne(t, dir, domain.GateSpec{
		ID:   "files",
		Type: domain.GateFileExists,
		FileExists: &domain.FileExistsParams{
			RequiredFiles: []string{"full.csv", "empty.csv", "absent.csv"},
		},
	})

	assert.False(t, result.Pass)
	full := result.Detail["full.csv"].(map[string]any)
	assert.Equal(t, true, full["exists"])
	empty := result.Detail["empty.csv"].(map[string]any)
	assert.Equal(t, int64(0), empty["size"])
	absent := result.Detail["absent.csv"].(map[string]any)
	assert.Equal(t, false, absent["exists"])
}

func TestJSONSchemaReportsMissingKeys(t *testing.T) {
	dir := writeDataDir(t, sampleFinancials)

	result := evaluateOne(t, dir, domain.GateSpec{
		ID:   "schema",
		Type: domain.GateJSONSchema,
		JSONSchema: &domain.JSONSchemaParams{
			RequiredKeys: []string{"company", "period_index", "auditor"},
		},
	})

	assert.False(t, result.Pass)
	assert.Equal(t, []string{"auditor"}, result.Detail["missing_keys"])
	assert.Equal(t, "checked 3 keys, 1 missing", result.Detail["detail"])
}

func TestNullRateCountsAllSections(t *testing.T) {
	dir := writeDataDir(t, sampleFinancials)

	// 12 cells, 2 null -> rate 0.1667.
	result := evaluateOne(t, dir, domain.GateSpec{
		ID:       "nulls",
		Type:     domain.GateNullRate,
		NullRate: &domain.NullRateParams{Threshold: 0.2},
	})

	assert.True(t, result.Pass)
	assert.Equal(t, 12, result.Detail["total_cells"])
	assert.Equal(t, 2, result.Detail["null_cells"])
	assert.Equal(t, 0.1667, result.Detail["null_rate"])

	strict := evaluateOne(t, dir, domain.GateSpec{
		ID:       "nulls",
		Type:     domain.GateNullRate,
		NullRate: &domain.NullRateParams{Threshold: 0.1},
	})
	assert.False(t, strict.Pass)
}

func TestNullRateWithNoPeriodsFails(t *testing.T) {
	dir := writeDataDir(t, `{"company": "Example KK", "period_index": []}`)

	result := evaluateOne(t, dir, domain.GateSpec{
		ID:       "nulls",
		Type:     domain.GateNullRate,
		NullRate: &domain.NullRateParams{Threshold: 0.9},
	})

	assert.False(t, result.Pass)
	assert.Equal(t, 0, result.Detail["total_cells"])
	assert.Equal(t, 1.0, result.Detail["null_rate"])
}

func TestKeyCoverageRequiresEveryPeriod(t *testing.T) {
	dir := writeDataDir(t, sampleFinancials)

	// total_assets and net_assets are non-null in both periods;
	// total_liabilities is null in the first.
	result := evaluateOne(t, dir, domain.GateSpec{
		ID:   "coverage",
		Type: domain.GateKeyCoverage,
		KeyCoverage: domain.KeyCoverageParams{
			"bs": {Keys: []string{"total_assets", "net_assets", "total_liabilities"}, MinRequired: 2},
		},
	})

	assert.True(t, result.Pass)
	section := result.Detail["bs"].(map[string]any)
	assert.Equal(t, 2, section["all_period_keys"])
	coverage := section["coverage"].(map[string]int)
	assert.Equal(t, 2, coverage["total_assets"])
	assert.Equal(t, 1, coverage["total_liabilities"])

	strict := evaluateOne(t, dir, domain.GateSpec{
		ID:   "coverage",
		Type: domain.GateKeyCoverage,
		KeyCoverage: domain.KeyCoverageParams{
			"bs": {Keys: []string{"total_assets", "total_liabilities"}, MinRequired: 2},
		},
	})
	assert.False(t, strict.Pass)
}

func TestKeyCoverageFailingSectionFailsGate(t *testing.T) {
	dir := writeDataDir(t, sampleFinancials)

	result := evaluateOne(t, dir, domain.GateSpec{
		ID:   "coverage",
		Type: domain.GateKeyCoverage,
		KeyCoverage: domain.KeyCoverageParams{
			"bs": {Keys: []string{"total_assets"}, MinRequired: 1},
			"pl": {Keys: []string{"operating_income"}, MinRequired: 1},
		},
	})

	assert.False(t, result.Pass)
	bs := result.Detail["bs"].(map[string]any)
	assert.Equal(t, true, bs["pass"])
	pl := result.Detail["pl"].(map[string]any)
	assert.Equal(t, false, pl["pass"])
}

func TestValueRangeAccumulatesViolations(t *testing.T) {
	dir := writeDataDir(t, sampleFinancials)

	// revenue is -60 in the second period; total_assets stays in range.
	result := evaluateOne(t, dir, domain.GateSpec{
		ID:   "ranges",
		Type: domain.GateValueRange,
		ValueRange: domain.ValueRangeParams{
			"revenue":      {Min: floatPtr(0)},
			"total_assets": {Min: floatPtr(0), Max: floatPtr(1e15)},
		},
	})

	assert.False(t, result.Pass)
	assert.Equal(t, 1, result.Detail["violation_count"])
	violations := result.Detail["violations"].([]map[string]any)
	require.Len(t, violations, 1)
	assert.Equal(t, "revenue", violations[0]["concept"])
	assert.Equal(t, "2025-03-31", violations[0]["period_end"])
	assert.Equal(t, -60.0, violations[0]["value"])
}

func TestValueRangeIgnoresNullsAndUnknownConcepts(t *testing.T) {
	dir := writeDataDir(t, sampleFinancials)

	result := evaluateOne(t, dir, domain.GateSpec{
		ID:   "ranges",
		Type: domain.GateValueRange,
		ValueRange: domain.ValueRangeParams{
			"operating_income": {Min: floatPtr(0)}, // null in one period, 5 in the other
			"unheard_of":       {Min: floatPtr(0)},
		},
	})

	assert.True(t, result.Pass)
	assert.Equal(t, 0, result.Detail["violation_count"])
}
