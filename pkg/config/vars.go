package config

import (
	"fmt"
	"strings"
)

// ParseVars parses a comma-separated k=v list as passed to `run --vars`.
// Values may contain '=' characters; only the first one splits.
func ParseVars(s string) (map[string]string, error) {
	vars := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return vars, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed variable assignment %q, expected k=v", pair)
		}
		vars[strings.TrimSpace(key)] = value
	}
	return vars, nil
}
