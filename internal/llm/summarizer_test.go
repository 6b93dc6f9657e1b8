package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pverenik/lexcite/internal/model"
)

// mockProvider implements the Provider interface for testing
type mockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	gotReq    *SummarizeRequest
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.gotReq = &req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return m.available }

func verifiedReport() model.Report {
	c := model.NewCitation(model.CitationSpan{Text: "578 U.S. 5"}, &model.CitationComponents{Volume: 578, Reporter: "U.S.", Page: 5})
	c.CanonicalURL = model.String("https://example.com/opinion/1")
	c.Verified = true
	cl := model.NewCluster([]string{c.ID})
	cl.URL = model.String("https://example.com/opinion/1")
	return model.Report{
		DocumentID: "doc-1",
		Citations:  []*model.Citation{c},
		Clusters:   []*model.Cluster{cl},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	summarizer := &Summarizer{}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedReport())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	summarizer := &Summarizer{provider: &mockProvider{name: "openai", available: false}}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedReport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary == nil || summary.Enabled {
		t.Fatalf("Expected a disabled summary block, got %+v", summary)
	}
	if len(summary.Warnings) == 0 {
		t.Error("Expected an unavailability warning")
	}
}

func TestSummarizer_GenerateSummary_AllowlistFromVerification(t *testing.T) {
	provider := &mockProvider{
		name:      "openai",
		available: true,
		response: &SummarizeResponse{
			Summary:   "1 citation verified. https://example.com/opinion/1",
			CitedURLs: []string{"https://example.com/opinion/1"},
			Model:     "gpt-4o-mini",
		},
	}
	summarizer := &Summarizer{provider: provider}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedReport())
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if !summary.Enabled || summary.SummaryMD == "" {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if len(summary.Warnings) != 0 {
		t.Errorf("Allowed citation must not warn: %v", summary.Warnings)
	}

	// The allowlist must be exactly the canonical URLs, deduplicated
	if provider.gotReq == nil {
		t.Fatal("Provider was not called")
	}
	if len(provider.gotReq.AllowedURLs) != 1 || provider.gotReq.AllowedURLs[0] != "https://example.com/opinion/1" {
		t.Errorf("Unexpected allowlist: %v", provider.gotReq.AllowedURLs)
	}
}

func TestSummarizer_GenerateSummary_CitationLeakWarns(t *testing.T) {
	provider := &mockProvider{
		name:      "openai",
		available: true,
		response: &SummarizeResponse{
			Summary:   "See https://evil.example.com/made-up",
			CitedURLs: []string{"https://evil.example.com/made-up"},
		},
	}
	summarizer := &Summarizer{provider: provider}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedReport())
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if len(summary.Warnings) != 1 || !strings.Contains(summary.Warnings[0], "evil.example.com") {
		t.Errorf("Expected a leak warning, got %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	summarizer := &Summarizer{provider: &mockProvider{name: "openai", available: true, err: errors.New("boom")}}

	if _, err := summarizer.GenerateSummary(context.Background(), verifiedReport()); err == nil {
		t.Fatal("Expected provider error to propagate")
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	md := RenderSeparateMarkdown(&model.LLMSummary{
		Enabled:   true,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		SummaryMD: "All citations verified.",
		Warnings:  []string{"cited URL outside the verified set: https://evil.example.com"},
	})

	for _, want := range []string{"# LLM Summary", "openai", "All citations verified.", "## Warnings"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q:\n%s", want, md)
		}
	}
}
