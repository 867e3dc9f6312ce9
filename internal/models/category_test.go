// ABOUTME: Tests for the category taxonomy
// ABOUTME: Verifies parsing, validation and misc normalization
package models

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{name: "personal", input: "personal", want: CategoryPersonal},
		{name: "upper case food", input: "FOOD", want: CategoryFood},
		{name: "padded travel", input: "  travel ", want: CategoryTravel},
		{name: "misc", input: "misc", want: CategoryMisc},
		{name: "unknown", input: "sports", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCategory(%q) expected error", tt.input)
				}
				if !errors.Is(err, ErrInvalidCategory) {
					t.Errorf("error = %v, want ErrInvalidCategory", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("Food"); got != CategoryFood {
		t.Errorf("NormalizeCategory(Food) = %v, want food", got)
	}
	if got := NormalizeCategory("hobbies"); got != CategoryMisc {
		t.Errorf("NormalizeCategory(hobbies) = %v, want misc", got)
	}
}

func TestCategoriesAreValid(t *testing.T) {
	if len(Categories) != 4 {
		t.Fatalf("len(Categories) = %d, want 4", len(Categories))
	}
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if Category("").Valid() {
		t.Error("empty category should not be valid")
	}
}
