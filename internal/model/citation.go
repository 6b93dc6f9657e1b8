package model

import "github.com/google/uuid"

// CitationSpan is a raw citation occurrence in a document. Offsets are byte
// offsets into the document text, half-open [Start, End). Spans are created
// once during extraction and never mutated.
type CitationSpan struct {
	Text       string `json:"text"`                  // The citation substring exactly as it appears
	Start      int    `json:"start"`                 // Byte offset of the first character
	End        int    `json:"end"`                   // Byte offset one past the last character
	DocumentID string `json:"document_id,omitempty"` // Owning document
}

// PublicationStatus classifies how an opinion was published
type PublicationStatus string

const (
	StatusPublished   PublicationStatus = "published"
	StatusUnpublished PublicationStatus = "unpublished"
	StatusMemorandum  PublicationStatus = "memorandum"
	StatusPerCuriam   PublicationStatus = "per_curiam"
)

// CitationComponents holds the typed parts of a citation string. Derived
// deterministically from a span by the component parser; never mutated after.
// Optional parts are nil when absent, never empty-string sentinels.
type CitationComponents struct {
	Volume       int                `json:"volume"`
	Reporter     string             `json:"reporter"`                // Reporter abbreviation as written (e.g., "Wn.2d", "P.3d")
	Page         int                `json:"page"`
	Pinpoint     *int               `json:"pinpoint,omitempty"`      // Page within the opinion, more specific than Page
	DocketNumber *string            `json:"docket_number,omitempty"` // Court-assigned number, e.g. "12-34567"
	HistoryLabel *string            `json:"history_label,omitempty"` // Case-history marker, e.g. "Doe I"
	Status       *PublicationStatus `json:"status,omitempty"`
	Year         *string            `json:"year,omitempty"` // Parenthesized decision year, if present in the span
}

// Provenance records how an extracted value was obtained from document text
type Provenance struct {
	Method     string  `json:"method"`     // Extraction strategy name
	Confidence float64 `json:"confidence"` // [0,1]
}

// SourceProvenance records which external authority produced a canonical value
type SourceProvenance struct {
	Source     string  `json:"source"`     // Authority name
	Confidence float64 `json:"confidence"` // [0,1]
}

// Citation is the mutable working record for one citation occurrence.
//
// Extracted fields are written only from document context (case-name
// resolution and cluster propagation). Canonical fields are written only from
// external verification evidence. The two sets never cross.
type Citation struct {
	ID         string              `json:"id"`
	Span       CitationSpan        `json:"span"`
	Components *CitationComponents `json:"components,omitempty"` // nil when the span did not parse

	ExtractedCaseName *string     `json:"extracted_case_name,omitempty"`
	ExtractedDate     *string     `json:"extracted_date,omitempty"`
	ExtractedBy       *Provenance `json:"extracted_by,omitempty"`

	CanonicalName *string           `json:"canonical_name,omitempty"`
	CanonicalDate *string           `json:"canonical_date,omitempty"`
	CanonicalURL  *string           `json:"canonical_url,omitempty"`
	VerifiedBy    *SourceProvenance `json:"verified_by,omitempty"`
	Verified      bool              `json:"verified"`

	ClusterID         *string  `json:"cluster_id,omitempty"`
	ParallelCitations []string `json:"parallel_citations,omitempty"` // Sibling citation IDs within the cluster
}

// NewCitation creates a working record for a span. Components may be nil when
// the span failed component parsing; such citations are reported but never
// clustered or verified.
func NewCitation(span CitationSpan, components *CitationComponents) *Citation {
	return &Citation{
		ID:         uuid.NewString(),
		Span:       span,
		Components: components,
	}
}

// SetExtracted records a document-derived case name and/or date. It returns
// true if anything changed.
//
// A non-nil extracted name is never replaced by nil or by an empty string,
// and never by a lower-confidence result. An equal-confidence result wins
// only when it is strictly longer (more specific). The date follows the same
// rule. This is the non-overwrite discipline: a failed fallback extraction
// must not blank out an earlier success.
func (c *Citation) SetExtracted(name, date *string, confidence float64, method string) bool {
	changed := false

	if usable(name) && c.allowExtractedName(*name, confidence) {
		v := *name
		c.ExtractedCaseName = &v
		c.ExtractedBy = &Provenance{Method: method, Confidence: confidence}
		changed = true
	}

	if usable(date) && c.allowExtractedDate(confidence) {
		v := *date
		c.ExtractedDate = &v
		if c.ExtractedBy == nil {
			c.ExtractedBy = &Provenance{Method: method, Confidence: confidence}
		}
		changed = true
	}

	return changed
}

func (c *Citation) allowExtractedName(candidate string, confidence float64) bool {
	if c.ExtractedCaseName == nil {
		return true
	}
	current := confidenceOf(c.ExtractedBy)
	if confidence > current {
		return true
	}
	return confidence == current && len(candidate) > len(*c.ExtractedCaseName)
}

func (c *Citation) allowExtractedDate(confidence float64) bool {
	if c.ExtractedDate == nil {
		return true
	}
	return confidence > confidenceOf(c.ExtractedBy)
}

// ApplyCanonical writes the outcome of a verified attempt into the canonical
// fields. Unverified attempts are ignored entirely: absence of canonical data
// stays structurally distinguishable from a verified-but-empty value.
//
// Once canonical fields are set, a later attempt may replace them only with
// higher confidence, and individual fields are never replaced by nil.
func (c *Citation) ApplyCanonical(a *VerificationAttempt) bool {
	if a == nil || !a.Verified {
		return false
	}
	if c.Verified && a.Confidence < confidenceOfSource(c.VerifiedBy) {
		return false
	}

	if usable(a.CanonicalName) {
		v := *a.CanonicalName
		c.CanonicalName = &v
	}
	if usable(a.CanonicalDate) {
		v := *a.CanonicalDate
		c.CanonicalDate = &v
	}
	if usable(a.URL) {
		v := *a.URL
		c.CanonicalURL = &v
	}
	c.VerifiedBy = &SourceProvenance{Source: a.Source, Confidence: a.Confidence}
	c.Verified = true
	return true
}

// usable reports whether an optional string carries actual content
func usable(s *string) bool {
	return s != nil && *s != ""
}

func confidenceOf(p *Provenance) float64 {
	if p == nil {
		return 0
	}
	return p.Confidence
}

func confidenceOfSource(p *SourceProvenance) float64 {
	if p == nil {
		return 0
	}
	return p.Confidence
}

// String returns a pointer to s. Convenience for building optional fields.
func String(s string) *string {
	return &s
}

// Int returns a pointer to n
func Int(n int) *int {
	return &n
}
