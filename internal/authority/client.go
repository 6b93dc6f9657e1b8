package authority

import (
	"context"
	"fmt"

	"github.com/pverenik/lexcite/internal/model"
)

// Result is a single lookup outcome from an authority source. Empty string
// fields mean the source did not report that value.
type Result struct {
	Found    bool
	CaseName string
	Date     string
	URL      string
	Source   string
}

// Client is a legal authority source that can be queried for canonical case
// metadata. Implementations must be safe for concurrent use.
type Client interface {
	// Name identifies the source in reports and verification attempts.
	Name() string

	// LookupCitation resolves a citation by its structured components.
	LookupCitation(ctx context.Context, comp *model.CitationComponents) (*Result, error)

	// Search runs a free-text query (case name, case name plus citation,
	// or full citation text) against the source.
	Search(ctx context.Context, query string) (*Result, error)

	// LookupDocket resolves a case by docket number.
	LookupDocket(ctx context.Context, docket string) (*Result, error)
}

// CitationString renders components back into a standard citation string for
// text-based lookups.
func CitationString(comp *model.CitationComponents) string {
	return fmt.Sprintf("%d %s %d", comp.Volume, comp.Reporter, comp.Page)
}
