package llm

import (
	"context"
	"fmt"

	"github.com/pverenik/lexcite/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a summary of the report with strict citation mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the resolution report to summarize
	Report model.Report

	// AllowedURLs is the STRICT allowlist of URLs the LLM can cite: only
	// canonical URLs that verification actually produced. The LLM cannot
	// introduce sources of its own.
	AllowedURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedURLs are the URLs the LLM actually cited (for verification)
	CitedURLs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom OpenAI-compatible endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// BuildPrompt constructs the default summarization prompt. The summary
// describes resolution quality; it never re-decides what the citations are.
func BuildPrompt(report model.Report, allowedURLs []string) string {
	stats := report.Stats
	prompt := fmt.Sprintf(`You are summarizing a legal citation resolution report. The report records how citations in one document were parsed, grouped and verified against external authorities - it never judges the legal merits.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. If a citation could not be verified, state that explicitly.
4. Describe resolution quality, not the law. Use phrases like:
   - "X of Y citations were confirmed by..."
   - "No authority confirmed..."
   - "These citations were grouped as parallel references to..."
5. Never restate or interpret the cited opinions themselves.

Report Summary:
- Document: %s
- Resolution Index: %d/100 (%s confidence)
- Citations: %d found, %d parsed, %d malformed
- Case names resolved: %d
- Parallel clusters: %d (%d citations grouped)
- Verified by authority: %d

Key Signals:
`, joinURLs(allowedURLs), report.DocumentID, stats.Index, stats.Confidence,
		stats.Citations, stats.Parsed, stats.Malformed,
		stats.NamesResolved, stats.Clusters, stats.Clustered, stats.Verified)

	// Add top 3 signals
	for i, signal := range stats.Signals {
		if i >= 3 {
			break
		}
		prompt += fmt.Sprintf("- %s: %s\n", signal.Type, signal.Description)
	}

	prompt += "\nProvide a 3-4 sentence summary focusing on resolution quality."

	return prompt
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No verified URLs available)"
	}
	result := ""
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			result += fmt.Sprintf("\n... and %d more URLs", len(urls)-20)
			break
		}
		result += fmt.Sprintf("\n- %s", url)
	}
	return result
}
