package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pverenik/lexcite/internal/model"
	"github.com/pverenik/lexcite/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	noVerify    bool
	insecureTLS bool
	apiToken    string
	httpProxy   string
	httpsProxy  string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <file-or-url>",
	Short: "Resolve and verify the citations in a single document",
	Long: `Resolve analyzes one document (a local text or HTML file, or a URL) to:
- Extract citation spans and parse their components
- Associate citations with case names and decision dates from context
- Group parallel citations that refer to the same opinion
- Verify citations against external authorities
- Generate transparent, explainable reports

Example:
  lexcite resolve brief.txt
  lexcite resolve opinion.html --json report.json --md report.md
  lexcite resolve https://example.com/opinion.html --no-verify
  lexcite resolve brief.txt --llm --llm-provider ollama`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	// Output flags
	resolveCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	resolveCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// HTTP flags
	resolveCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall resolution timeout (increase for documents with many citations)")
	resolveCmd.Flags().StringVar(&userAgent, "ua", "Lexcite/0.1 (+https://github.com/pverenik/lexcite)", "HTTP User-Agent")
	resolveCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	resolveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable authority-response cache")
	resolveCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	resolveCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	resolveCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	resolveCmd.Flags().BoolVar(&insecureTLS, "insecure-tls", false, "skip TLS certificate verification (use only behind intercepting proxies)")

	// Verification flags
	resolveCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip external verification (offline mode)")
	resolveCmd.Flags().StringVar(&apiToken, "api-token", "", "authority API token (default: COURTLISTENER_API_TOKEN env var)")

	// LLM flags
	resolveCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	resolveCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	resolveCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runResolve(cmd *cobra.Command, args []string) error {
	target := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Resolving: %s\n", target)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Verification: %v\n", !noVerify)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg)

	var report *model.Report
	if isURL(target) {
		report, err = p.ResolveURL(ctx, target)
	} else {
		report, err = p.ResolveFile(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Found %d citations (%d parsed)\n", report.Stats.Citations, report.Stats.Parsed)
		fmt.Fprintf(os.Stderr, "✓ Grouped %d parallel clusters\n", report.Stats.Clusters)
		fmt.Fprintf(os.Stderr, "✓ Verified %d citations\n", report.Stats.Verified)
		fmt.Fprintf(os.Stderr, "✓ Calculated quality index: %d/100\n", report.Stats.Index)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the configuration from flags and environment
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	cfg.Verify.Enabled = !noVerify
	if token := resolveAPIToken(); token != "" {
		cfg.Verify.Primary.APIToken = token
	}

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		default:
			return nil, fmt.Errorf("unknown LLM provider: %s", llmProvider)
		}
	}

	return cfg, nil
}

func resolveAPIToken() string {
	if apiToken != "" {
		return apiToken
	}
	return os.Getenv("COURTLISTENER_API_TOKEN")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
