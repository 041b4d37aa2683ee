package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

func TestExpandSubstitutesBindings(t *testing.T) {
	out, err := Expand("collect --ticker {ticker} --out {dir}", map[string]string{
		"ticker": "7203",
		"dir":    "data/raw",
	})
	require.NoError(t, err)
	assert.Equal(t, "collect --ticker 7203 --out data/raw", out)
}

func TestExpandDependencyScopedBinding(t *testing.T) {
	out, err := Expand("parse --in {collect.output}", map[string]string{
		"collect.output": "out/collect",
	})
	require.NoError(t, err)
	assert.Equal(t, "parse --in out/collect", out)
}

func TestExpandUnboundVariable(t *testing.T) {
	_, err := Expand("collect --ticker {ticker}", map[string]string{})
	require.Error(t, err)

	var unbound *domain.UnboundVariableError
	require.True(t, errors.As(err, &unbound))
	assert.Equal(t, "ticker", unbound.Name)
}

func TestExpandIsSinglePass(t *testing.T) {
	// A substituted value is never re-scanned, so a binding that contains a
	// placeholder token stays literal in the output.
	out, err := Expand("{a}", map[string]string{"a": "{b}", "b": "x"})
	require.NoError(t, err)
	assert.Equal(t, "{b}", out)
}

func TestExpandLeavesNonPlaceholderBracesAlone(t *testing.T) {
	template := `echo '{"key": 1}' && awk '{print $1}'`
	out, err := Expand(template, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, template, out)
}

func TestExpandPropertyIdempotent(t *testing.T) {
	keyGen := rapid.StringMatching(`[a-z_][a-z0-9_]{0,8}`)
	valueGen := rapid.StringMatching(`[a-zA-Z0-9 /._-]{0,12}`)

	rapid.Check(t, func(t *rapid.T) {
		bindings := rapid.MapOfN(keyGen, valueGen, 1, 5).Draw(t, "bindings")

		var parts []string
		for k := range bindings {
			parts = append(parts, "{"+k+"}")
		}
		template := strings.Join(parts, " ")

		once, err := Expand(template, bindings)
		if err != nil {
			t.Fatalf("unexpected expansion error: %v", err)
		}
		twice, err := Expand(once, bindings)
		if err != nil {
			t.Fatalf("unexpected re-expansion error: %v", err)
		}
		if once != twice {
			t.Fatalf("expansion not idempotent: %q != %q", once, twice)
		}
	})
}
