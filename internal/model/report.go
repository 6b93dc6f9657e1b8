package model

import "time"

// Report is the complete output of resolving one document: every citation
// occurrence (including unparsable ones), the parallel-citation clusters,
// and a transparent quality breakdown. The caller always receives the full
// list; unverifiable citations are marked, never dropped.
type Report struct {
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source,omitempty"` // File path or label the text came from
	ResolvedAt time.Time `json:"resolved_at"`

	Citations []*Citation `json:"citations"`
	Clusters  []*Cluster  `json:"clusters"`

	Stats Stats `json:"stats"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM summary (separate, never affects resolution)
}

// Stats is the transparent resolution-quality breakdown
type Stats struct {
	Citations     int `json:"citations"`
	Parsed        int `json:"parsed"`
	Malformed     int `json:"malformed"`
	NamesResolved int `json:"names_resolved"`
	Clusters      int `json:"clusters"`
	Clustered     int `json:"clustered"` // Citations that belong to an explicit cluster
	Verified      int `json:"verified"`

	Index      int      `json:"index"`      // Overall resolution quality (0-100)
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals"`
}

// Signal is a diagnostic with the data behind it, so every number in the
// index can be traced back to its inputs
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalNameCoverage     SignalType = "name_coverage"     // Citations with a resolved case name
	SignalVerificationRate SignalType = "verification_rate" // Citations confirmed by an authority
	SignalMalformedSpans   SignalType = "malformed_spans"   // Spans that failed component parsing
	SignalClusterCohesion  SignalType = "cluster_cohesion"  // Parallel citations grouped vs. left single
	SignalYearConflicts    SignalType = "year_conflicts"    // Pairs blocked by conflicting years
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// LLMSummary contains an optional LLM-generated summary of the report.
// It is produced after resolution and never feeds back into it.
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"` // e.g., URLs cited outside the allowlist
}
