// ABOUTME: Keyword vocabulary per category used for query routing and local extraction
// ABOUTME: Scores stemmed terms; ties and misses report no category
package models

import "github.com/harper/factmemory/internal/util"

// categoryKeywords holds stemmed terms that signal a category.
// Sentiment verbs (like, love, hate) are deliberately absent: they say nothing about topic.
var categoryKeywords = map[Category][]string{
	CategoryFood: {
		"food", "eat", "eating", "meal", "restaurant", "cook", "cooking", "recipe",
		"vegan", "vegetarian", "pescatarian", "diet", "cuisine", "dish", "breakfast",
		"lunch", "dinner", "snack", "dessert", "pizza", "sushi", "thai", "italian",
		"mexican", "indian", "chinese", "spicy", "coffee", "tea", "chocolate", "pasta",
		"burger", "curry", "noodle", "rice", "bread", "cheese", "wine", "beer", "fruit",
		"vegetable", "seafood", "fish", "meat", "chicken", "peanut", "drink", "taste",
	},
	CategoryTravel: {
		"travel", "traveling", "travelling", "trip", "flight", "fly", "flying", "hotel",
		"visit", "visiting", "vacation", "holiday", "city", "country", "destination",
		"abroad", "airport", "tour", "cruise", "beach", "passport", "itinerary", "going",
	},
	CategoryPersonal: {
		"name", "work", "job", "family", "pet", "dog", "cat", "home", "live", "birthday",
		"age", "old", "allergic", "allergy", "wife", "husband", "partner", "kid", "child",
		"children", "son", "daughter", "brother", "sister", "mom", "dad", "parent",
		"office", "company", "born", "hometown",
	},
}

var keywordIndex = buildKeywordIndex()

// TermCategory reports the category a single stemmed term signals
func TermCategory(term string) (Category, bool) {
	c, ok := keywordIndex[term]
	return c, ok
}

func buildKeywordIndex() map[string]Category {
	idx := make(map[string]Category)
	for category, words := range categoryKeywords {
		for _, w := range words {
			idx[util.Stem(w)] = category
		}
	}
	return idx
}

// KeywordCategory scores the terms of text against the category vocabulary.
// It reports false when nothing matches or the best categories tie.
func KeywordCategory(text string) (Category, bool) {
	scores := make(map[Category]int)
	for _, term := range util.Terms(text) {
		if c, ok := keywordIndex[term]; ok {
			scores[c]++
		}
	}

	var (
		best      Category
		bestScore int
		tied      bool
	)
	for _, c := range Categories {
		s := scores[c]
		switch {
		case s > bestScore:
			best, bestScore, tied = c, s, false
		case s == bestScore && s > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return "", false
	}
	return best, true
}
