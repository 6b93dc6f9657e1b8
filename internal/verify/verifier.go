package verify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pverenik/lexcite/internal/authority"
	"github.com/pverenik/lexcite/internal/model"
)

// Strategy confidences reflect how tight the match criteria are: a direct
// citation lookup is near-certain, a full-text search is a weak hint.
const (
	confCitationLookup = 0.95
	confParallelLookup = 0.90
	confNameCiteSearch = 0.85
	confDocketLookup   = 0.80
	confFulltextSearch = 0.60
)

// strategy is one way to ask an authority about a cluster
type strategy struct {
	name       string
	rank       int
	confidence float64
	query      string
	run        func(ctx context.Context, client authority.Client) (*authority.Result, error)
}

// target is one verification unit: a cluster with its members, or an
// unclustered citation on its own.
type target struct {
	cluster *model.Cluster
	members []*model.Citation
}

// Orchestrator verifies citation clusters against external authorities. Each
// target runs every applicable strategy against every configured source;
// results are aggregated as append-only attempts and the strongest one wins.
type Orchestrator struct {
	clients []authority.Client
	timeout time.Duration
	workers int
	merger  *CanonicalMerger
	verbose bool
	logw    io.Writer
}

// New creates an orchestrator over the given authority clients, tried in
// order of trust.
func New(clients []authority.Client, cfg model.VerifyConfig, verbose bool, logw io.Writer) *Orchestrator {
	workers := cfg.ClusterWorkers
	if workers <= 0 {
		workers = 4
	}
	timeout := cfg.StrategyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Orchestrator{
		clients: clients,
		timeout: timeout,
		workers: workers,
		merger:  NewCanonicalMerger(),
		verbose: verbose,
		logw:    logw,
	}
}

// Verify runs verification for every cluster and every unclustered parseable
// citation. Authority failures degrade to unverified attempts; Verify itself
// never fails the document.
func (o *Orchestrator) Verify(ctx context.Context, citations []*model.Citation, clusters []*model.Cluster) {
	if len(o.clients) == 0 {
		return
	}

	byID := make(map[string]*model.Citation, len(citations))
	for _, c := range citations {
		byID[c.ID] = c
	}

	var targets []target
	clustered := make(map[string]bool)
	for _, cl := range clusters {
		var members []*model.Citation
		for _, id := range cl.MemberIDs {
			if c, ok := byID[id]; ok && c.Components != nil {
				members = append(members, c)
				clustered[id] = true
			}
		}
		if len(members) > 0 {
			targets = append(targets, target{cluster: cl, members: members})
		}
	}
	for _, c := range citations {
		if c.Components != nil && !clustered[c.ID] {
			targets = append(targets, target{members: []*model.Citation{c}})
		}
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.workers)

	for _, tgt := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			o.verifyTarget(ctx, t)
		}(tgt)
	}

	wg.Wait()
}

// verifyTarget runs all applicable strategies against all sources
// concurrently and merges the evidence.
func (o *Orchestrator) verifyTarget(ctx context.Context, t target) {
	strategies := buildStrategies(t.members)
	if len(strategies) == 0 {
		return
	}

	attempts := make([]*model.VerificationAttempt, len(strategies)*len(o.clients))
	var wg sync.WaitGroup

	for i, s := range strategies {
		for j, client := range o.clients {
			wg.Add(1)
			go func(idx int, s strategy, client authority.Client) {
				defer wg.Done()
				attempts[idx] = o.runStrategy(ctx, s, client)
			}(i*len(o.clients)+j, s, client)
		}
	}
	wg.Wait()

	best := o.merger.Merge(t.cluster, t.members, attempts)

	if o.verbose && o.logw != nil {
		label := t.members[0].Span.Text
		if best != nil && best.Verified {
			fmt.Fprintf(o.logw, "verify: %q confirmed by %s via %s (%.2f)\n",
				label, best.Source, best.Strategy, best.Confidence)
		} else {
			fmt.Fprintf(o.logw, "verify: no authority confirmed %q (%d attempts)\n",
				label, len(attempts))
		}
	}
}

// runStrategy executes one strategy against one source with its own timeout.
// Failures become zero-confidence attempts, never errors.
func (o *Orchestrator) runStrategy(ctx context.Context, s strategy, client authority.Client) *model.VerificationAttempt {
	attempt := &model.VerificationAttempt{
		Strategy: s.name,
		Rank:     s.rank,
		Query:    s.query,
		Source:   client.Name(),
	}

	sctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	result, err := s.run(sctx, client)
	if err != nil {
		attempt.Error = err.Error()
		return attempt
	}
	if !result.Found {
		return attempt
	}

	attempt.Verified = true
	attempt.Confidence = s.confidence
	if result.CaseName != "" {
		attempt.CanonicalName = model.String(result.CaseName)
	}
	if result.Date != "" {
		attempt.CanonicalDate = model.String(result.Date)
	}
	if result.URL != "" {
		attempt.URL = model.String(result.URL)
	}
	return attempt
}

// buildStrategies assembles the applicable strategies for a target in fixed
// rank order. Strategies whose inputs are missing are skipped, not failed.
func buildStrategies(members []*model.Citation) []strategy {
	if len(members) == 0 {
		return nil
	}

	primary := members[0]
	comp := primary.Components
	var out []strategy

	out = append(out, strategy{
		name:       "citation_lookup",
		rank:       0,
		confidence: confCitationLookup,
		query:      authority.CitationString(comp),
		run: func(ctx context.Context, client authority.Client) (*authority.Result, error) {
			return client.LookupCitation(ctx, comp)
		},
	})

	// Parallel members give independent lookup routes to the same opinion
	for _, m := range members[1:] {
		alt := m.Components
		out = append(out, strategy{
			name:       "parallel_lookup",
			rank:       1,
			confidence: confParallelLookup,
			query:      authority.CitationString(alt),
			run: func(ctx context.Context, client authority.Client) (*authority.Result, error) {
				return client.LookupCitation(ctx, alt)
			},
		})
	}

	if name := bestExtractedName(members); name != "" {
		query := name + " " + authority.CitationString(comp)
		out = append(out, strategy{
			name:       "name_cite_search",
			rank:       2,
			confidence: confNameCiteSearch,
			query:      query,
			run: func(ctx context.Context, client authority.Client) (*authority.Result, error) {
				return client.Search(ctx, query)
			},
		})
	}

	for _, m := range members {
		if m.Components.DocketNumber != nil {
			docket := *m.Components.DocketNumber
			out = append(out, strategy{
				name:       "docket_lookup",
				rank:       3,
				confidence: confDocketLookup,
				query:      docket,
				run: func(ctx context.Context, client authority.Client) (*authority.Result, error) {
					return client.LookupDocket(ctx, docket)
				},
			})
			break
		}
	}

	fulltext := fulltextQuery(members)
	out = append(out, strategy{
		name:       "fulltext_search",
		rank:       4,
		confidence: confFulltextSearch,
		query:      fulltext,
		run: func(ctx context.Context, client authority.Client) (*authority.Result, error) {
			return client.Search(ctx, fulltext)
		},
	})

	return out
}

// fulltextQuery builds the broadest search query from whatever resolved for
// the cluster: the best extracted case name, the primary citation fragments
// and the year. When nothing parsed, a prefix of the raw span is all there
// is to search by.
func fulltextQuery(members []*model.Citation) string {
	primary := members[0]

	var parts []string
	if name := bestExtractedName(members); name != "" {
		parts = append(parts, name)
	}
	if comp := primary.Components; comp != nil {
		parts = append(parts, authority.CitationString(comp))
		switch {
		case comp.Year != nil:
			parts = append(parts, *comp.Year)
		case primary.ExtractedDate != nil:
			parts = append(parts, *primary.ExtractedDate)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	raw := primary.Span.Text
	if len(raw) > 60 {
		raw = raw[:60]
	}
	return raw
}

// bestExtractedName returns the highest-confidence extracted case name among
// the members, or "" when none was resolved.
func bestExtractedName(members []*model.Citation) string {
	name := ""
	conf := -1.0
	for _, m := range members {
		if m.ExtractedCaseName == nil {
			continue
		}
		c := 0.0
		if m.ExtractedBy != nil {
			c = m.ExtractedBy.Confidence
		}
		if c > conf || (c == conf && len(*m.ExtractedCaseName) > len(name)) {
			name = *m.ExtractedCaseName
			conf = c
		}
	}
	return name
}
