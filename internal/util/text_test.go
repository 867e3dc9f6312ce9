// ABOUTME: Tests for text normalization helpers
// ABOUTME: Verifies tokenization, stop-word removal and truncation
package util

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"What food do I like?", []string{"food", "like"}},
		{"Loves Thai food", []string{"loves", "thai", "food"}},
		{"I'm allergic to peanuts!", []string{"allergic", "peanuts"}},
		{"", []string{}},
		{"!!! ??? ...", []string{}},
	}

	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("Truncate() = %q, want %q", got, "hé")
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate() = %q, want abc", got)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"likes":    "like",
		"peanuts":  "peanut",
		"cities":   "city",
		"class":    "class",
		"bus":      "bus",
		"famous":   "famous",
		"analysis": "analysis",
		"food":     "food",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTerms(t *testing.T) {
	got := Terms("Loves Thai restaurants")
	want := []string{"love", "thai", "restaurant"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}
