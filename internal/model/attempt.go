package model

// VerificationAttempt is one piece of evidence from querying an external
// authority for a cluster. Attempts are append-only: they are recorded once
// and aggregated, never mutated or retried in place.
type VerificationAttempt struct {
	Strategy string `json:"strategy"` // Strategy name, e.g. "citation_lookup"
	Rank     int    `json:"rank"`     // Position in the fixed strategy order (0 = tightest)
	Query    string `json:"query"`    // What was sent to the authority
	Source   string `json:"source"`   // Authority name, e.g. "courtlistener"

	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"` // [0,1]; 0.0 for failed attempts

	CanonicalName *string `json:"canonical_name,omitempty"`
	CanonicalDate *string `json:"canonical_date,omitempty"`
	URL           *string `json:"url,omitempty"`

	Error string `json:"error,omitempty"` // Transport/timeout detail for failed attempts
}

// Better reports whether a is stronger evidence than b under the selection
// rule: sort by (verified, confidence) descending, ties broken by the
// earliest strategy in the fixed order (lowest rank). The tightest match
// criteria outrank broader searches at equal confidence.
func (a *VerificationAttempt) Better(b *VerificationAttempt) bool {
	if b == nil {
		return true
	}
	if a.Verified != b.Verified {
		return a.Verified
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Rank < b.Rank
}
