package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pverenik/lexcite/internal/authority"
	"github.com/pverenik/lexcite/internal/cache"
	"github.com/pverenik/lexcite/internal/cite"
	"github.com/pverenik/lexcite/internal/cluster"
	"github.com/pverenik/lexcite/internal/extract"
	"github.com/pverenik/lexcite/internal/llm"
	"github.com/pverenik/lexcite/internal/model"
	"github.com/pverenik/lexcite/internal/score"
	"github.com/pverenik/lexcite/internal/verify"
	"github.com/pverenik/lexcite/internal/worker"
)

// Pipeline orchestrates the complete resolution process: span extraction,
// component parsing, case-name resolution, parallel clustering, authority
// verification and scoring.
type Pipeline struct {
	fetcher      *Fetcher
	nameResolver *extract.Resolver
	orchestrator *verify.Orchestrator
	scorer       *score.Scorer
	renderer     *Renderer
	summarizer   *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	config       *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	// Create LLM summarizer if configured
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			summarizer = s
		}
	}

	var orchestrator *verify.Orchestrator
	if cfg.Verify.Enabled {
		if clients := buildClients(cfg); len(clients) > 0 {
			orchestrator = verify.New(clients, cfg.Verify, cfg.Output.Verbose, os.Stderr)
		}
	}

	return &Pipeline{
		fetcher:      NewFetcher(cfg.HTTP),
		nameResolver: extract.NewResolver(),
		orchestrator: orchestrator,
		scorer:       score.NewScorer(),
		renderer:     NewRenderer(cfg.Output.IncludeFooter),
		summarizer:   summarizer,
		config:       cfg,
	}
}

// buildClients assembles the authority clients in order of trust. A single
// limiter and a single cache are shared between them, so the per-host
// throttle covers all concurrent verification traffic.
func buildClients(cfg *model.Config) []authority.Client {
	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				dir = filepath.Join(home, ".lexcite", "cache")
			}
		}
		if dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		}
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	var clients []authority.Client
	if cfg.Verify.Primary.Enabled && cfg.Verify.Primary.BaseURL != "" {
		clients = append(clients, authority.NewRESTClient(cfg.Verify.Primary, cfg.HTTP, cfg.RateLimiting, limiter, store, cfg.Cache.DiskTTL))
	}
	if cfg.Verify.Fallback.Enabled && cfg.Verify.Fallback.BaseURL != "" {
		clients = append(clients, authority.NewSiteClient(cfg.Verify.Fallback, cfg.HTTP, cfg.RateLimiting, limiter, store, cfg.Cache.DiskTTL))
	}
	return clients
}

// Resolve runs the full resolution flow over plain document text. It always
// returns a report: malformed spans and failed verification are recorded in
// it, not surfaced as errors.
func (p *Pipeline) Resolve(ctx context.Context, text, documentID, source string) *model.Report {
	return p.ResolveSpans(ctx, text, cite.FindSpans(text, documentID), documentID, source)
}

// ResolveSpans resolves caller-provided citation spans against the document
// text, skipping span recognition. Callers that located the spans themselves
// (or ingested them with known parallel siblings) enter here.
func (p *Pipeline) ResolveSpans(ctx context.Context, text string, spans []model.CitationSpan, documentID, source string) *model.Report {
	verbose := p.config.Output.Verbose

	// 1. Citation spans: recognized upstream or supplied by the caller
	if verbose {
		fmt.Fprintf(os.Stderr, "resolve: %d citation spans in %s\n", len(spans), documentID)
	}

	// 2. Parse components; unparsable spans are kept and marked
	citations := make([]*model.Citation, 0, len(spans))
	for _, span := range spans {
		comp, err := cite.Parse(span.Text)
		if err != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "resolve: malformed span %q: %v\n", span.Text, err)
			}
			citations = append(citations, model.NewCitation(span, nil))
			continue
		}
		citations = append(citations, model.NewCitation(span, comp))
	}

	// 3. Resolve case names and dates from surrounding context
	for _, c := range citations {
		if c.Components == nil {
			continue
		}
		res := p.nameResolver.Resolve(text, c.Span)
		if res.Name != nil || res.Year != nil {
			c.SetExtracted(res.Name, res.Year, res.Confidence, res.Method)
		}
	}

	// 4. Group parallel citations
	clusterer := cluster.New(p.config.Cluster, verbose, os.Stderr)
	clusters := clusterer.Partition(citations)

	// 5. Verify against external authorities
	if p.orchestrator != nil {
		p.orchestrator.Verify(ctx, citations, clusters)
	}

	// 6. Score
	stats := p.scorer.Calculate(citations, clusters, clusterer.YearConflicts)

	report := &model.Report{
		DocumentID: documentID,
		Source:     source,
		ResolvedAt: time.Now().UTC(),
		Citations:  citations,
		Clusters:   clusters,
		Stats:      stats,
	}

	// 7. Generate LLM summary if enabled (AFTER scoring, never affects it)
	if p.summarizer.IsEnabled() {
		llmSummary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM summary generation failed: %v\n", err)
		} else if llmSummary != nil {
			report.LLM = llmSummary
		}
	}

	return report
}

// ResolveFile resolves a local document (plain text or HTML)
func (p *Pipeline) ResolveFile(ctx context.Context, path string) (*model.Report, error) {
	text, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	documentID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.Resolve(ctx, text, documentID, path), nil
}

// ResolveURL fetches a remote document and resolves it
func (p *Pipeline) ResolveURL(ctx context.Context, rawURL string) (*model.Report, error) {
	result, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	text := result.Body
	if strings.Contains(result.ContentType, "html") || isHTMLDocument("", result.Body) {
		text, err = htmlToText(result.Body)
		if err != nil {
			return nil, err
		}
	}

	return p.Resolve(ctx, text, result.Label, result.FinalURL), nil
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// Render LLM summary to a separate file if present
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmMdPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		llmMarkdown := llm.RenderSeparateMarkdown(report.LLM)
		if err := p.renderer.RenderLLMMarkdown(llmMarkdown, llmMdPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write LLM summary: %v\n", err)
		} else if verbose {
			fmt.Printf("✓ Wrote LLM Summary: %s\n", llmMdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
