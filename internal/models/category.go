// ABOUTME: Category is the closed topical taxonomy every memory belongs to
// ABOUTME: Provides validation and lenient normalization for untrusted input
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Category partitions memories for scoped retrieval
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryFood     Category = "food"
	CategoryTravel   Category = "travel"
	CategoryMisc     Category = "misc"
)

// Categories lists every valid category in display order
var Categories = []Category{CategoryPersonal, CategoryFood, CategoryTravel, CategoryMisc}

// ErrInvalidCategory is returned when a string is not one of Categories
var ErrInvalidCategory = errors.New("invalid category")

// Valid reports whether c is a member of the taxonomy
func (c Category) Valid() bool {
	switch c {
	case CategoryPersonal, CategoryFood, CategoryTravel, CategoryMisc:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses s case-insensitively, rejecting unknown values
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrInvalidCategory, s, categoryList())
	}
	return c, nil
}

// NormalizeCategory parses s and falls back to misc for anything unknown.
// Used for model output, where a bad label must not drop the fact.
func NormalizeCategory(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		return CategoryMisc
	}
	return c
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
