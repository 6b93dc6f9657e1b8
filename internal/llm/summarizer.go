package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pverenik/lexcite/internal/model"
)

// Summarizer generates an optional LLM summary of a resolution report. It
// runs strictly after resolution: nothing it produces ever feeds back into
// parsing, clustering, verification or scoring.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. An empty provider
// yields a disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider's name, or ""
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces the LLM summary block for a report. The allowed
// URL list is exactly the set of canonical URLs verification produced; a
// summary citing anything else gets a warning attached rather than being
// dropped, so the reader can judge it.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("provider %s unavailable", s.provider.Name())},
		}, nil
	}

	allowed := collectCanonicalURLs(report)

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:      report,
		AllowedURLs: allowed,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	summary := &model.LLMSummary{
		Enabled:   true,
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		SummaryMD: resp.Summary,
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		allowedSet[u] = true
	}
	for _, cited := range resp.CitedURLs {
		if !allowedSet[cited] {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("cited URL outside the verified set: %s", cited))
		}
	}

	return summary, nil
}

// collectCanonicalURLs gathers every canonical URL in the report, deduplicated
func collectCanonicalURLs(report model.Report) []string {
	seen := make(map[string]bool)
	var urls []string

	add := func(u *string) {
		if u == nil || *u == "" || seen[*u] {
			return
		}
		seen[*u] = true
		urls = append(urls, *u)
	}

	for _, c := range report.Citations {
		add(c.CanonicalURL)
	}
	for _, cl := range report.Clusters {
		add(cl.URL)
	}
	return urls
}

// RenderSeparateMarkdown renders the LLM summary as a standalone markdown
// document, kept apart from the machine-checkable report.
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	var sb strings.Builder

	sb.WriteString("# LLM Summary\n\n")
	sb.WriteString(fmt.Sprintf("> Generated by %s", summary.Provider))
	if summary.Model != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", summary.Model))
	}
	sb.WriteString(". Advisory only: the resolution report is the source of truth.\n\n")

	sb.WriteString(summary.SummaryMD)
	sb.WriteString("\n")

	if len(summary.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range summary.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return sb.String()
}
