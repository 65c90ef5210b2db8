package evaluation

import "time"

// Intent represents the detected search intent category.
type Intent string

const (
	IntentFacility   Intent = "facility"   // e.g., "pharmacy", "government hospital"
	IntentSpeciality Intent = "speciality" // e.g., "baby doctor", "eye hospital"
	IntentCondition  Intent = "condition"  // e.g., "cancer treatment", "bone fracture"
	IntentScheme     Intent = "scheme"     // e.g., "ayushman card"
)

// ValidIntents returns all valid intent values.
func ValidIntents() []Intent {
	return []Intent{IntentFacility, IntentSpeciality, IntentCondition, IntentScheme}
}

// IsValid checks if the intent value is one of the defined constants.
func (i Intent) IsValid() bool {
	switch i {
	case IntentFacility, IntentSpeciality, IntentCondition, IntentScheme:
		return true
	}
	return false
}

// GoldenQuery represents a labeled test query with expected outcomes. The
// catalog ships with stable record IDs, so relevance is judged against the
// IDs a query should surface.
type GoldenQuery struct {
	ID          string   `json:"id"`
	Query       string   `json:"query"`
	Intent      Intent   `json:"intent"`
	ExpectedIDs []string `json:"expected_ids"`
	Difficulty  string   `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID      string
	Query        string
	Intent       Intent
	RecallAt10   float64
	MRRAt10      float64
	ResultCount  int
	RetrievedIDs []string
	Latency      time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries    int
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgLatency      time.Duration
	QueriesWithHits int // queries that returned at least 1 result
	ByIntent        map[Intent]*IntentSummary
}

// IntentSummary holds metrics grouped by intent type.
type IntentSummary struct {
	Count         int
	AvgRecallAt10 float64
	AvgMRRAt10    float64
}
