package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pverenik/lexcite/internal/model"
)

// Renderer writes resolution reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Citation Report: %s\n\n", report.DocumentID)
	if report.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", report.Source)
	}
	fmt.Fprintf(&b, "Resolved: %s\n\n", report.ResolvedAt.Format("2006-01-02 15:04 UTC"))

	fmt.Fprintf(&b, "## Quality Index: %d/100 (%s confidence)\n\n", report.Stats.Index, report.Stats.Confidence)

	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Citations | %d |\n", report.Stats.Citations)
	fmt.Fprintf(&b, "| Parsed | %d |\n", report.Stats.Parsed)
	fmt.Fprintf(&b, "| Malformed | %d |\n", report.Stats.Malformed)
	fmt.Fprintf(&b, "| Names resolved | %d |\n", report.Stats.NamesResolved)
	fmt.Fprintf(&b, "| Clusters | %d |\n", report.Stats.Clusters)
	fmt.Fprintf(&b, "| Verified | %d |\n", report.Stats.Verified)
	b.WriteString("\n")

	if len(report.Stats.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range sortedSignals(report.Stats.Signals) {
			fmt.Fprintf(&b, "- %s **%s**: %s\n", severityMarker(sig.Severity), sig.Type, sig.Description)
		}
		b.WriteString("\n")
	}

	if len(report.Clusters) > 0 {
		b.WriteString("## Parallel Citation Clusters\n\n")
		byID := citationIndex(report.Citations)
		for i, cl := range report.Clusters {
			fmt.Fprintf(&b, "### Cluster %d%s\n\n", i+1, clusterTitle(cl))
			for _, id := range cl.MemberIDs {
				if c, ok := byID[id]; ok {
					fmt.Fprintf(&b, "- `%s`\n", c.Span.Text)
				}
			}
			if cl.Verified && cl.URL != nil {
				label := "opinion"
				if cl.CaseName != nil {
					label = *cl.CaseName
				}
				fmt.Fprintf(&b, "\nVerified: [%s](%s)\n", label, *cl.URL)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Citations\n\n")
	b.WriteString("| Citation | Case Name | Date | Verified |\n")
	b.WriteString("|----------|-----------|------|----------|\n")
	for _, c := range report.Citations {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n",
			c.Span.Text,
			displayName(c),
			displayDate(c),
			verifiedMark(c),
		)
	}
	b.WriteString("\n")

	if malformed := malformedSpans(report.Citations); len(malformed) > 0 {
		b.WriteString("## Unparsed Spans\n\n")
		b.WriteString("These spans matched citation patterns but failed component parsing:\n\n")
		for _, text := range malformed {
			fmt.Fprintf(&b, "- `%s`\n", text)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("Generated by [lexcite](https://github.com/pverenik/lexcite). Canonical data comes only from external authorities; unverified citations keep their document-extracted values.\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderLLMMarkdown writes the already-rendered LLM summary to its own file,
// kept separate so the deterministic report is never mixed with model output.
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	return os.WriteFile(path, []byte(markdown), 0o644)
}

// RenderSummary prints a short result line to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\n%s: %d citations (%d verified, %d malformed), %d clusters — index %d/100 (%s)\n",
		report.DocumentID,
		report.Stats.Citations,
		report.Stats.Verified,
		report.Stats.Malformed,
		report.Stats.Clusters,
		report.Stats.Index,
		report.Stats.Confidence,
	)

	for _, sig := range report.Stats.Signals {
		if sig.Severity == model.SeverityCritical || sig.Severity == model.SeverityWarning {
			fmt.Printf("  %s %s\n", severityMarker(sig.Severity), sig.Description)
		}
	}
}

func citationIndex(citations []*model.Citation) map[string]*model.Citation {
	byID := make(map[string]*model.Citation, len(citations))
	for _, c := range citations {
		byID[c.ID] = c
	}
	return byID
}

func clusterTitle(cl *model.Cluster) string {
	if cl.CaseName != nil {
		return fmt.Sprintf(": %s", *cl.CaseName)
	}
	return ""
}

func malformedSpans(citations []*model.Citation) []string {
	var spans []string
	for _, c := range citations {
		if c.Components == nil {
			spans = append(spans, c.Span.Text)
		}
	}
	return spans
}

// displayName prefers the canonical name, falls back to the extracted one
func displayName(c *model.Citation) string {
	if c.CanonicalName != nil {
		return *c.CanonicalName
	}
	if c.ExtractedCaseName != nil {
		return fmt.Sprintf("%s *(extracted)*", *c.ExtractedCaseName)
	}
	return "—"
}

func displayDate(c *model.Citation) string {
	if c.CanonicalDate != nil {
		return *c.CanonicalDate
	}
	if c.ExtractedDate != nil {
		return fmt.Sprintf("%s *(extracted)*", *c.ExtractedDate)
	}
	return "—"
}

func verifiedMark(c *model.Citation) string {
	if c.Verified {
		if c.VerifiedBy != nil {
			return fmt.Sprintf("✓ %s", c.VerifiedBy.Source)
		}
		return "✓"
	}
	if c.Components == nil {
		return "malformed"
	}
	return "✗"
}

func severityMarker(s model.SignalSeverity) string {
	switch s {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityWarning:
		return "🟡"
	default:
		return "🟢"
	}
}

// sortedSignals orders signals critical first, then warnings, then info
func sortedSignals(signals []model.Signal) []model.Signal {
	out := make([]model.Signal, len(signals))
	copy(out, signals)
	rank := map[model.SignalSeverity]int{
		model.SeverityCritical: 0,
		model.SeverityWarning:  1,
		model.SeverityInfo:     2,
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Severity] < rank[out[j].Severity]
	})
	return out
}
