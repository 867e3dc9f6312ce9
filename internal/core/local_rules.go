// ABOUTME: LocalExtractor pulls facts from text with fixed regular-expression rules
// ABOUTME: Runs without any external service; never fails and stays linear in input size
package core

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/harper/factmemory/internal/models"
)

const (
	maxLocalInput     = 8 << 10
	maxFactsPerTurn   = 20
	minPhraseLength   = 2
	maxPhraseLength   = 120
	minFallbackLength = 6
	maxFallbackLength = 199
)

// localRule turns a regexp match into a fact; format receives the first capture group
type localRule struct {
	re       *regexp.Regexp
	category models.Category
	format   string
}

// phrase excludes clause punctuation so captures stop at the clause boundary
const phrase = `([^,;:!?.]+)`

var localRules = []localRule{
	{regexp.MustCompile(`(?i)\ballerg(?:ic|y) to ` + phrase), models.CategoryPersonal, "Allergic to %s"},
	{regexp.MustCompile(`(?i)\bi(?:'m| am)(?: an?)? (vegan|vegetarian|pescatarian|gluten[- ]free|lactose intolerant)\b`), models.CategoryFood, "Is %s"},
	{regexp.MustCompile(`(?i)\bmy (favou?rite (?:food|cuisine|dish|meal|restaurant|snack|drink) is [^,;:!?.]+)`), models.CategoryFood, "%s"},
	{regexp.MustCompile(`(?i)\bi(?:'m| am)? ?(?:going|travell?ing|flying|heading) to ` + phrase), models.CategoryTravel, "Going to %s"},
	{regexp.MustCompile(`(?i)\bi(?:'m| am) visiting ` + phrase), models.CategoryTravel, "Visiting %s"},
	{regexp.MustCompile(`(?i)\bi (?:visited|went to|travell?ed to) ` + phrase), models.CategoryTravel, "Visited %s"},
	{regexp.MustCompile(`(?i)\bi live in ` + phrase), models.CategoryPersonal, "Lives in %s"},
	{regexp.MustCompile(`(?i)\bi(?:'m| am) from ` + phrase), models.CategoryPersonal, "Is from %s"},
	{regexp.MustCompile(`(?i)\bmy name is ` + phrase), models.CategoryPersonal, "Name is %s"},
	{regexp.MustCompile(`(?i)\bi work as (?:an? )?` + phrase), models.CategoryPersonal, "Works as %s"},
	{regexp.MustCompile(`(?i)\bi work (?:at|for) ` + phrase), models.CategoryPersonal, "Works at %s"},
	{regexp.MustCompile(`(?i)\bi have (an? (?:dog|cat|pet|puppy|kitten)\b[^,;:!?.]*)`), models.CategoryPersonal, "Has %s"},
	{regexp.MustCompile(`(?i)\bmy birthday is ` + phrase), models.CategoryPersonal, "Birthday is %s"},
	{regexp.MustCompile(`(?i)\bi(?:'m| am) (\d{1,3}) years old\b`), models.CategoryPersonal, "Is %s years old"},
}

// preferenceRule captures a sentiment verb and its object; the category comes from the object
var preferenceRule = regexp.MustCompile(`(?i)\bi (?:really |absolutely |truly )?(like|love|enjoy|prefer|dislike|hate|don't like|do not like) ` + phrase)

var preferenceVerbs = map[string]string{
	"like":        "Likes",
	"love":        "Loves",
	"enjoy":       "Enjoys",
	"prefer":      "Prefers",
	"dislike":     "Dislikes",
	"hate":        "Hates",
	"don't like":  "Dislikes",
	"do not like": "Dislikes",
}

// clauseJoiner marks "..., and I ..." style joins as clause breaks
var clauseJoiner = regexp.MustCompile(`(?i),?\s+(?:and|but|also|so)\s+((?:i|i'm|my)\b)`)

var clauseSplitter = regexp.MustCompile(`[.!?;\n]+`)

var trailingFiller = []string{" too", " a lot", " so much", " very much", " as well", " now"}

// LocalExtractor is the service-free extraction strategy
type LocalExtractor struct{}

// NewLocalExtractor creates a LocalExtractor
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract never returns an error
func (e *LocalExtractor) Extract(_ context.Context, text string) ([]models.Fact, error) {
	return ExtractLocal(text), nil
}

// ExtractLocal applies the rules to text and returns deduplicated facts
func ExtractLocal(text string) []models.Fact {
	text = normalizeInput(text)
	if text == "" {
		return []models.Fact{}
	}

	var facts []models.Fact
	for _, clause := range splitClauses(text) {
		facts = append(facts, extractClause(clause)...)
		if len(facts) >= maxFactsPerTurn {
			break
		}
	}

	if len(facts) == 0 && looksFactual(text) {
		if first := firstSentence(text); first != "" {
			facts = append(facts, models.Fact{Content: first, Category: models.CategoryMisc})
		}
	}

	facts = models.DedupeFacts(facts)
	if len(facts) > maxFactsPerTurn {
		facts = facts[:maxFactsPerTurn]
	}
	return facts
}

func normalizeInput(text string) string {
	if len(text) > maxLocalInput {
		text = text[:maxLocalInput]
	}
	text = strings.ToValidUTF8(text, "")
	text = strings.NewReplacer("’", "'", "‘", "'").Replace(text)
	return strings.TrimSpace(text)
}

func splitClauses(text string) []string {
	text = clauseJoiner.ReplaceAllString(text, ". $1")
	parts := clauseSplitter.Split(text, -1)
	clauses := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clauses = append(clauses, p)
		}
	}
	return clauses
}

func extractClause(clause string) []models.Fact {
	var facts []models.Fact

	for _, rule := range localRules {
		m := rule.re.FindStringSubmatch(clause)
		if m == nil {
			continue
		}
		captured, ok := cleanPhrase(m[1])
		if !ok {
			continue
		}
		facts = append(facts, models.Fact{
			Content:  capitalize(strings.Replace(rule.format, "%s", captured, 1)),
			Category: rule.category,
		})
	}

	if m := preferenceRule.FindStringSubmatch(clause); m != nil {
		if object, ok := cleanPhrase(m[2]); ok {
			category, found := models.KeywordCategory(object)
			if !found {
				category = models.CategoryMisc
			}
			verb := preferenceVerbs[strings.ToLower(m[1])]
			facts = append(facts, models.Fact{Content: verb + " " + object, Category: category})
		}
	}

	return facts
}

// cleanPhrase trims filler and rejects phrases that are too short or long
func cleanPhrase(s string) (string, bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, filler := range trailingFiller {
		if strings.HasSuffix(lower, filler) {
			s = strings.TrimSpace(s[:len(s)-len(filler)])
			lower = strings.ToLower(s)
		}
	}
	n := utf8.RuneCountInString(s)
	if n < minPhraseLength || n > maxPhraseLength {
		return "", false
	}
	return s, true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// looksFactual separates statements about the user from questions and greetings
func looksFactual(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, q := range []string{"what", "how", "why", "when", "where", "who", "which", "can you", "could you", "?"} {
		if strings.HasPrefix(lower, q) {
			return false
		}
	}
	if strings.HasSuffix(lower, "?") {
		return false
	}
	for _, f := range []string{"i ", "my ", "i'm ", "i am ", "we ", "we're "} {
		if strings.HasPrefix(lower, f) {
			return true
		}
	}
	return strings.Contains(lower, " is ") || strings.Contains(lower, " are ") || strings.Contains(lower, " have ")
}

func firstSentence(text string) string {
	first := text
	if i := strings.IndexAny(text, ".!?\n"); i >= 0 {
		first = text[:i]
	}
	first = strings.TrimSpace(first)
	n := utf8.RuneCountInString(first)
	if n < minFallbackLength || n > maxFallbackLength {
		return ""
	}
	return first
}
