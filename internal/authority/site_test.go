package authority

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pverenik/lexcite/internal/cache"
	"github.com/pverenik/lexcite/internal/model"
)

func testSiteClient(baseURL string) *SiteClient {
	cfg := model.DefaultConfig()
	src := model.SourceConfig{Enabled: true, Name: "caselaw", BaseURL: baseURL}
	cfg.RateLimiting.RequestsPerSecond = 1000
	cfg.RateLimiting.MinHostDelay = 0
	return NewSiteClient(src, cfg.HTTP, cfg.RateLimiting, nil, nil, 0)
}

const listingHTML = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result">
    <a class="case-name" href="/case/luis-v-united-states">Luis v. <em>United States</em></a>
    <span class="decision-date">2016-03-30</span>
  </div>
  <div class="result">
    <a class="case-name" href="/case/other">Other v. Case</a>
    <span class="decision-date">1999-01-01</span>
  </div>
</div>
</body></html>`

func TestSiteClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/search":
			if got := r.URL.Query().Get("q"); got != "Luis v. United States" {
				t.Errorf("unexpected query: %q", got)
			}
			_, _ = w.Write([]byte(listingHTML))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testSiteClient(server.URL)
	result, err := client.Search(context.Background(), "Luis v. United States")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !result.Found {
		t.Fatal("expected a hit")
	}
	if result.CaseName != "Luis v. United States" {
		t.Errorf("unexpected case name: %q", result.CaseName)
	}
	if result.Date != "2016-03-30" {
		t.Errorf("expected the first result's date, got %q", result.Date)
	}
	if result.URL != server.URL+"/case/luis-v-united-states" {
		t.Errorf("unexpected URL: %q", result.URL)
	}
}

func TestSiteClient_Search_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><p>No cases found.</p></body></html>`))
	}))
	defer server.Close()

	client := testSiteClient(server.URL)
	result, err := client.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Found {
		t.Error("expected no hit for an empty listing")
	}
}

func TestSiteClient_RobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /search\n"))
		case "/search":
			t.Error("search page must not be fetched when robots.txt disallows it")
		}
	}))
	defer server.Close()

	client := testSiteClient(server.URL)
	if _, err := client.Search(context.Background(), "blocked"); err == nil {
		t.Fatal("expected error when robots.txt disallows the search path")
	}
}

func TestSiteClient_LookupCitation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("q"); got != "578 U.S. 5" {
			t.Errorf("unexpected query: %q", got)
		}
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	client := testSiteClient(server.URL)
	comp := &model.CitationComponents{Volume: 578, Reporter: "U.S.", Page: 5}
	result, err := client.LookupCitation(context.Background(), comp)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !result.Found {
		t.Error("expected a hit")
	}
}

func TestSiteClient_Search_Cached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	client := testSiteClient(server.URL)
	client.store = cache.NewMemoryCache(time.Minute, time.Minute)
	client.cacheTTL = time.Minute

	for i := 0; i < 2; i++ {
		result, err := client.Search(context.Background(), "Luis v. United States")
		if err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
		if !result.Found {
			t.Errorf("search %d: expected a hit", i)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 upstream request, got %d", got)
	}
}
