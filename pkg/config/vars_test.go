package config

import (
	"reflect"
	"testing"
)

func TestParseVars(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{"empty", "", map[string]string{}, false},
		{"single", "ticker=7203", map[string]string{"ticker": "7203"}, false},
		{"multiple", "ticker=7203,year=2025", map[string]string{"ticker": "7203", "year": "2025"}, false},
		{"value with equals", "query=a=b", map[string]string{"query": "a=b"}, false},
		{"spaces around pairs", " ticker=7203 , year=2025", map[string]string{"ticker": "7203", "year": "2025"}, false},
		{"missing value separator", "ticker", nil, true},
		{"empty key", "=7203", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseVars(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
