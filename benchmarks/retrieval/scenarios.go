// ABOUTME: Labelled scenarios for the retrieval benchmark
// ABOUTME: Each scenario records conversation turns, then asks queries with known relevant memories

package retrieval

import "github.com/harper/factmemory/internal/models"

// Scenario is one conversation followed by labelled queries
type Scenario struct {
	ID          string
	Name        string
	Description string
	Turns       []string
	Queries     []Query
}

// Query is a retrieval request with ground truth. Expected holds substrings
// that identify relevant memories; Category scopes the search when set.
type Query struct {
	Text     string
	Category models.Category
	Expected []string
}

// Result is the score of one scenario at one alpha
type Result struct {
	ScenarioID   string                 `json:"scenario_id"`
	ScenarioName string                 `json:"scenario_name"`
	Alpha        float64                `json:"alpha"`
	K            int                    `json:"k"`
	Stored       int                    `json:"stored"`
	Queries      int                    `json:"queries"`
	RecallAtK    float64                `json:"recall_at_k"`
	MRR          float64                `json:"mrr"`
	Status       string                 `json:"status"` // "PASS" or "FAIL"
	Details      map[string]interface{} `json:"details,omitempty"`
	ErrorMessage string                 `json:"error,omitempty"`
}

// GetFoodPreferences returns the mixed-category preference scenario
func GetFoodPreferences() Scenario {
	return Scenario{
		ID:          "food",
		Name:        "Food preferences among unrelated facts",
		Description: "Food questions should surface food memories ahead of personal and travel ones",
		Turns: []string{
			"My name is Alex",
			"I live in Portland",
			"I love Thai food",
			"I'm vegetarian",
			"I'm going to Japan in April",
			"I visited Lisbon last summer",
		},
		Queries: []Query{
			{Text: "What food do I like?", Expected: []string{"Thai"}},
			{Text: "Thai food", Expected: []string{"Thai"}},
			{Text: "Where am I going in April?", Expected: []string{"Japan"}},
		},
	}
}

// GetAllergySafety returns the allergy recall scenario
func GetAllergySafety() Scenario {
	return Scenario{
		ID:          "allergy",
		Name:        "Allergy recall",
		Description: "A health constraint stated once must be found from a related question",
		Turns: []string{
			"I'm allergic to peanuts",
			"I have a dog named Biscuit",
			"I work as a nurse",
			"I love spicy curry",
		},
		Queries: []Query{
			{Text: "Can I eat satay with peanuts?", Expected: []string{"peanuts"}},
			{Text: "peanuts", Category: models.CategoryPersonal, Expected: []string{"peanuts"}},
		},
	}
}

// GetTravelPlans returns the travel scenario
func GetTravelPlans() Scenario {
	return Scenario{
		ID:          "travel",
		Name:        "Travel plans and history",
		Description: "Scoped travel retrieval with personal facts as distractors",
		Turns: []string{
			"I'm going to Japan in April",
			"I visited Lisbon last summer",
			"I live in Portland",
			"I'm from Chicago",
		},
		Queries: []Query{
			{Text: "Japan in April", Expected: []string{"Japan"}},
			{Text: "trips", Category: models.CategoryTravel, Expected: []string{"Japan", "Lisbon"}},
		},
	}
}

// GetAllScenarios returns every scenario in run order
func GetAllScenarios() []Scenario {
	return []Scenario{
		GetFoodPreferences(),
		GetAllergySafety(),
		GetTravelPlans(),
	}
}
