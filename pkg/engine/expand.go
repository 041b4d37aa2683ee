package engine

import (
	"regexp"
	"strings"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// Placeholders are {key} tokens where key is a variable name or a
// dependency-scoped binding like {collect.output}. Brace pairs that do not
// match this shape (shell expansions, JSON literals) are left untouched.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)?)\}`)

// Expand substitutes every placeholder in template with its bound value.
// Substitution is a single textual pass: a substituted value is never
// re-scanned for placeholders, so expansion cannot loop and is idempotent
// over already-expanded input.
//
// A placeholder with no binding yields an UnboundVariableError; leaving the
// literal token in place would risk invoking a command with `{ticker}` in
// its argument list.
func Expand(template string, bindings map[string]string) (string, error) {
	var unbound string
	out := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.Trim(token, "{}")
		value, ok := bindings[name]
		if !ok {
			if unbound == "" {
				unbound = name
			}
			return token
		}
		return value
	})
	if unbound != "" {
		return "", &domain.UnboundVariableError{Name: unbound}
	}
	return out, nil
}
