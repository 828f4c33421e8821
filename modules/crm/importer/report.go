package importer

// Issue is one row-level problem, soft (warning) or hard (error).
type Issue struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Summary is the aggregate outcome of one import request. Per-row success
// detail is intentionally omitted; only counts and the capped issue lists
// are returned to keep response size bounded.
type Summary struct {
	TotalProcessed   int `json:"totalProcessed"`
	Successful       int `json:"successful"`
	Created          int `json:"created"`
	Updated          int `json:"updated"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`
	PaymentAttempted int `json:"paymentAttempted"`
	PaymentAdded     int `json:"paymentAdded"`

	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`

	// Truncated counts how many issues were dropped once the caps filled.
	TruncatedErrors   int `json:"truncatedErrors,omitempty"`
	TruncatedWarnings int `json:"truncatedWarnings,omitempty"`

	maxIssues int
}

func NewSummary(maxIssues int) *Summary {
	if maxIssues <= 0 {
		maxIssues = 100
	}
	return &Summary{
		Errors:    []Issue{},
		Warnings:  []Issue{},
		maxIssues: maxIssues,
	}
}

func (s *Summary) AddError(issue Issue) {
	if len(s.Errors) < s.maxIssues {
		s.Errors = append(s.Errors, issue)
		return
	}
	s.TruncatedErrors++
}

func (s *Summary) AddWarning(issue Issue) {
	if len(s.Warnings) < s.maxIssues {
		s.Warnings = append(s.Warnings, issue)
		return
	}
	s.TruncatedWarnings++
}

func (s *Summary) AddWarnings(issues []Issue) {
	for _, issue := range issues {
		s.AddWarning(issue)
	}
}
