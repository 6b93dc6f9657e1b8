package authority

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pverenik/lexcite/internal/cache"
	"github.com/pverenik/lexcite/internal/model"
	"github.com/pverenik/lexcite/internal/util"
	"github.com/pverenik/lexcite/internal/worker"
)

const restMaxRetries = 3

// restSleepFunc is the sleep function used between retries (injectable for tests)
var restSleepFunc = time.Sleep

// RESTClient queries a CourtListener-style REST API. Responses are cached
// and requests are throttled per host.
type RESTClient struct {
	name       string
	baseURL    string
	siteRoot   string
	token      string
	userAgent  string
	httpClient *http.Client
	limiter    *worker.Limiter
	minDelay   time.Duration
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewRESTClient creates a REST authority client. The limiter is shared with
// the other clients so per-host throttling spans all of them. store may be
// nil to disable response caching.
func NewRESTClient(src model.SourceConfig, httpCfg model.HTTPConfig, rl model.RateLimitConfig, limiter *worker.Limiter, store cache.Cache, cacheTTL time.Duration) *RESTClient {
	if limiter == nil {
		limiter = worker.NewLimiter(rl.RequestsPerSecond, rl.BurstSize)
	}

	return &RESTClient{
		name:      src.Name,
		baseURL:   strings.TrimRight(src.BaseURL, "/"),
		siteRoot:  siteRoot(src.BaseURL),
		token:     src.APIToken,
		userAgent: httpCfg.UserAgent,
		httpClient: &http.Client{
			Timeout:   httpCfg.Timeout,
			Transport: newTransport(httpCfg),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:  limiter,
		minDelay: rl.MinHostDelay,
		store:    store,
		cacheTTL: cacheTTL,
	}
}

// newTransport builds the HTTP transport shared between authority clients,
// honoring proxy settings and the insecure-TLS switch.
func newTransport(httpCfg model.HTTPConfig) *http.Transport {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
	}
	if httpCfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return transport
}

// Name identifies the source
func (c *RESTClient) Name() string {
	return c.name
}

// citationLookupEntry mirrors one entry of the citation-lookup response
type citationLookupEntry struct {
	Citation string `json:"citation"`
	Status   int    `json:"status"`
	Clusters []struct {
		CaseName    string `json:"case_name"`
		DateFiled   string `json:"date_filed"`
		AbsoluteURL string `json:"absolute_url"`
	} `json:"clusters"`
}

// searchResponse mirrors the search and docket listing responses
type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		CaseName    string `json:"case_name"`
		CaseNameAlt string `json:"caseName"`
		DateFiled   string `json:"date_filed"`
		DateAlt     string `json:"dateFiled"`
		AbsoluteURL string `json:"absolute_url"`
	} `json:"results"`
}

// LookupCitation resolves structured citation components through the
// citation-lookup endpoint.
func (c *RESTClient) LookupCitation(ctx context.Context, comp *model.CitationComponents) (*Result, error) {
	form := url.Values{"text": {CitationString(comp)}}
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/citation-lookup/", form)
	if err != nil {
		return nil, err
	}

	var entries []citationLookupEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode citation lookup: %w", err)
	}

	for _, entry := range entries {
		if entry.Status != http.StatusOK || len(entry.Clusters) == 0 {
			continue
		}
		hit := entry.Clusters[0]
		return &Result{
			Found:    true,
			CaseName: hit.CaseName,
			Date:     hit.DateFiled,
			URL:      c.absolute(hit.AbsoluteURL),
			Source:   c.name,
		}, nil
	}
	return &Result{Source: c.name}, nil
}

// Search runs a free-text opinion search
func (c *RESTClient) Search(ctx context.Context, query string) (*Result, error) {
	q := url.Values{"q": {query}, "type": {"o"}}
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/search/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeListing(body)
}

// LookupDocket resolves a case by docket number
func (c *RESTClient) LookupDocket(ctx context.Context, docket string) (*Result, error) {
	q := url.Values{"docket_number": {docket}}
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/dockets/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeListing(body)
}

func (c *RESTClient) decodeListing(body []byte) (*Result, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	if resp.Count == 0 || len(resp.Results) == 0 {
		return &Result{Source: c.name}, nil
	}

	hit := resp.Results[0]
	name := hit.CaseName
	if name == "" {
		name = hit.CaseNameAlt
	}
	date := hit.DateFiled
	if date == "" {
		date = hit.DateAlt
	}
	return &Result{
		Found:    true,
		CaseName: name,
		Date:     date,
		URL:      c.absolute(hit.AbsoluteURL),
		Source:   c.name,
	}, nil
}

// do executes one API request with per-host rate limiting, response caching
// and retry on transient failures.
func (c *RESTClient) do(ctx context.Context, method, rawURL string, form url.Values) ([]byte, error) {
	cacheKey := cache.CacheKey(method + " " + rawURL + " " + form.Encode())
	if c.store != nil {
		if cached, ok := c.store.Get(cacheKey); ok {
			return cached, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < restMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			restSleepFunc(backoff)
		}

		if err := c.limiter.WaitWithDelay(ctx, rawURL, c.minDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		body, retryable, err := c.doOnce(ctx, method, rawURL, form)
		if err == nil {
			if c.store != nil {
				_ = c.store.Set(cacheKey, body, c.cacheTTL)
			}
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *RESTClient) doOnce(ctx context.Context, method, rawURL string, form url.Values) ([]byte, bool, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, isRetryableNetworkError(err.Error()), fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

// absolute resolves a site-relative path against the API's host
func (c *RESTClient) absolute(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.siteRoot + path
}

func siteRoot(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
