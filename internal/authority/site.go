package authority

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pverenik/lexcite/internal/cache"
	"github.com/pverenik/lexcite/internal/model"
	"github.com/pverenik/lexcite/internal/util"
	"github.com/pverenik/lexcite/internal/worker"
)

// SiteClient queries a public caselaw website without a structured API. It
// honors robots.txt and scrapes the first result from the site's search
// listing.
type SiteClient struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	minDelay   time.Duration
	maxBytes   int64
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewSiteClient creates a scraping fallback client. The limiter is shared
// with the other clients so per-host throttling spans all of them. store may
// be nil to disable response caching.
func NewSiteClient(src model.SourceConfig, httpCfg model.HTTPConfig, rl model.RateLimitConfig, limiter *worker.Limiter, store cache.Cache, cacheTTL time.Duration) *SiteClient {
	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	if limiter == nil {
		limiter = worker.NewLimiter(rl.RequestsPerSecond, rl.BurstSize)
	}

	return &SiteClient{
		name:      src.Name,
		baseURL:   strings.TrimRight(src.BaseURL, "/"),
		userAgent: httpCfg.UserAgent,
		httpClient: &http.Client{
			Timeout:   httpCfg.Timeout,
			Transport: newTransport(httpCfg),
		},
		robots:   util.NewRobotsChecker(util.NormalizeUserAgent(httpCfg.UserAgent), httpCfg.Timeout),
		limiter:  limiter,
		minDelay: rl.MinHostDelay,
		maxBytes: maxBytes,
		store:    store,
		cacheTTL: cacheTTL,
	}
}

// Name identifies the source
func (c *SiteClient) Name() string {
	return c.name
}

// LookupCitation searches the site by the rendered citation string
func (c *SiteClient) LookupCitation(ctx context.Context, comp *model.CitationComponents) (*Result, error) {
	return c.Search(ctx, CitationString(comp))
}

// Search queries the site's search page and scrapes the top result
func (c *SiteClient) Search(ctx context.Context, query string) (*Result, error) {
	searchURL := c.baseURL + "/search?" + url.Values{"q": {query}}.Encode()

	cacheKey := cache.CacheKey("GET " + searchURL)
	if c.store != nil {
		if cached, ok := c.store.Get(cacheKey); ok {
			return c.parseListing(string(cached))
		}
	}

	allowed, crawlDelay, err := c.robots.CanFetch(ctx, searchURL)
	if err == nil && !allowed {
		return nil, fmt.Errorf("robots.txt disallows %s", searchURL)
	}

	delay := c.minDelay
	if crawlDelay > delay {
		delay = crawlDelay
	}
	if err := c.limiter.WaitWithDelay(ctx, searchURL, delay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result, err := c.parseListing(string(body))
	if err != nil {
		return nil, err
	}
	if c.store != nil {
		_ = c.store.Set(cacheKey, body, c.cacheTTL)
	}
	return result, nil
}

// LookupDocket searches the site by docket number
func (c *SiteClient) LookupDocket(ctx context.Context, docket string) (*Result, error) {
	return c.Search(ctx, "No. "+docket)
}

// parseListing extracts the first search hit from a result page. The
// expected markup is a link with class "case-name" and an optional sibling
// element with class "decision-date".
func (c *SiteClient) parseListing(htmlContent string) (*Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	result := &Result{Source: c.name}
	done := false
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if done {
			return
		}

		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "case-name"):
				if result.Found {
					// Second hit: everything past it belongs to other cases
					done = true
					return
				}
				result.CaseName = nodeText(n)
				if href := attrValue(n, "href"); href != "" {
					if ref, err := url.Parse(href); err == nil {
						result.URL = base.ResolveReference(ref).String()
					}
				}
				result.Found = result.CaseName != ""
			case hasClass(n, "decision-date") && result.Found && result.Date == "":
				result.Date = nodeText(n)
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(doc)
	return result, nil
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
