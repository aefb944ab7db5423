package constants

const (
	DuplicateThreshold = 0.90 // strictly greater than this is a duplicate
	DefaultTopK        = 5
	PreviewLength      = 200
	NotAvailable       = "N/A"

	StatusUnique    = "Unique"
	StatusDuplicate = "⚠ Possible Duplicate"
)

// Abstract is one row of the reference corpus. Category is empty when the
// corpus row carried none; use CategoryOrDefault for display.
type Abstract struct {
	Abstract    string `json:"abstract"`
	Category    string `json:"category,omitempty"`
	HasCategory bool   `json:"-"`
}

// CategoryOrDefault - "N/A" stands in for a missing category
func (a Abstract) CategoryOrDefault() string {
	if !a.HasCategory || a.Category == "" {
		return NotAvailable
	}
	return a.Category
}

// SimilarityResult is what a client sees for one ranked corpus row.
type SimilarityResult struct {
	Abstract        string  `json:"abstract"`
	Category        string  `json:"category"`
	SimilarityScore string  `json:"similarity_score"`
	Status          string  `json:"status"`
	Score           float64 `json:"-"`
	Index           int     `json:"-"`
}
