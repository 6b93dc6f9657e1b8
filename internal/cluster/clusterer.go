// Package cluster groups citation occurrences that denote the same opinion.
// Pairing evidence is asymmetric: reporter-family compatibility and
// proximity are always required, while name and year checks apply only when
// both sides carry the information.
package cluster

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pverenik/lexcite/internal/cite"
	"github.com/pverenik/lexcite/internal/model"
)

// Clusterer partitions a document's citations into parallel-citation
// clusters
type Clusterer struct {
	cfg     model.ClusterConfig
	verbose bool
	logw    io.Writer

	// YearConflicts counts pairs that passed every other check but were
	// blocked by conflicting years. Reset on each Partition call.
	YearConflicts int
}

// New creates a clusterer with the given thresholds. logw receives
// non-fatal clustering decisions when verbose is set; pass nil to discard.
func New(cfg model.ClusterConfig, verbose bool, logw io.Writer) *Clusterer {
	if logw == nil {
		logw = io.Discard
	}
	return &Clusterer{cfg: cfg, verbose: verbose, logw: logw}
}

// Partition groups the document's citations into clusters. Citations whose
// components failed to parse are never clustered. Pairs passing the
// parallel test are unioned into connected components, so co-clustering is
// transitive. Returns only explicit clusters (size >= 2); unpaired
// citations stay unclustered.
func (c *Clusterer) Partition(citations []*model.Citation) []*model.Cluster {
	c.YearConflicts = 0

	// Only parseable citations participate
	idx := make([]int, 0, len(citations))
	for i, cit := range citations {
		if cit.Components != nil {
			idx = append(idx, i)
		}
	}

	uf := newUnionFind(len(citations))

	// Seed from explicit parallel metadata: siblings known at ingestion are
	// trusted without further checks.
	byID := make(map[string]int, len(citations))
	for i, cit := range citations {
		byID[cit.ID] = i
	}
	for i, cit := range citations {
		for _, sib := range cit.ParallelCitations {
			if j, ok := byID[sib]; ok {
				uf.union(i, j)
			}
		}
	}

	// Pairwise parallel test over parseable citations
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			i, j := idx[a], idx[b]
			if uf.find(i) == uf.find(j) {
				continue
			}
			if c.parallelPair(citations[i], citations[j]) {
				uf.union(i, j)
			}
		}
	}

	// Materialize connected components of size >= 2, in document order
	groups := make(map[int][]int)
	for _, i := range idx {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var clusters []*model.Cluster
	for _, i := range idx {
		members := groups[uf.find(i)]
		if len(members) < 2 || members[0] != i {
			continue // singleton, or already emitted via its first member
		}
		ids := make([]string, len(members))
		for k, m := range members {
			ids[k] = citations[m].ID
		}
		cl := model.NewCluster(ids)
		clusters = append(clusters, cl)

		for _, m := range members {
			cit := citations[m]
			cit.ClusterID = &cl.ID
			cit.ParallelCitations = siblings(ids, cit.ID)
		}
		c.propagateName(citations, members)
	}
	return clusters
}

// parallelPair applies the pair test: compatible and distinct reporter
// families, proximity in the source text, matching years when both are
// known, and similar names when both are known. Checks whose inputs are
// absent are skipped, not failed.
func (c *Clusterer) parallelPair(a, b *model.Citation) bool {
	famA := cite.Family(a.Components.Reporter)
	famB := cite.Family(b.Components.Reporter)
	if famA == famB || !cite.Compatible(famA, famB) {
		return false
	}

	dist := a.Span.Start - b.Span.Start
	if dist < 0 {
		dist = -dist
	}
	if dist > c.cfg.ProximityChars {
		return false
	}

	// Year conflict is a hard stop: conflicting years are evidence of
	// distinct opinions no matter how well everything else agrees.
	yearA, yearB := resolvedYear(a), resolvedYear(b)
	if yearA != nil && yearB != nil && *yearA != *yearB {
		c.YearConflicts++
		if c.verbose {
			fmt.Fprintf(c.logw, "cluster: year conflict, %q (%s) vs %q (%s) kept apart\n",
				a.Span.Text, *yearA, b.Span.Text, *yearB)
		}
		return false
	}

	nameA, nameB := a.ExtractedCaseName, b.ExtractedCaseName
	if nameA != nil && nameB != nil && Similarity(*nameA, *nameB) < c.cfg.NameSimilarity {
		return false
	}

	return true
}

// propagateName picks the cluster's best case name and year and propagates
// them to members that lack one. A canonical name from prior verification
// outranks any extracted name; among extracted names, highest confidence
// wins, longer strings breaking ties. The non-overwrite rule on each member
// governs what actually lands.
func (c *Clusterer) propagateName(citations []*model.Citation, members []int) {
	var donor *model.Citation
	for _, m := range members {
		cit := citations[m]
		if cit.CanonicalName != nil {
			donor = cit
			break
		}
	}

	if donor == nil {
		for _, m := range members {
			cit := citations[m]
			if cit.ExtractedCaseName == nil {
				continue
			}
			if donor == nil || betterExtracted(cit, donor) {
				donor = cit
			}
		}
	}
	if donor == nil {
		return
	}

	// Propagation only ever copies extracted values into extracted fields.
	// A canonical donor marks the cluster's best member, but its canonical
	// value stays on the canonical side.
	name, year := donor.ExtractedCaseName, donor.ExtractedDate
	confidence, method := 0.5, "cluster_propagation"
	if donor.ExtractedBy != nil {
		confidence = donor.ExtractedBy.Confidence
		method = donor.ExtractedBy.Method
	}

	for _, m := range members {
		cit := citations[m]
		if cit == donor {
			continue
		}
		cit.SetExtracted(name, year, confidence, method)
	}

	// Fill year from any member when the donor had none
	if year == nil {
		for _, m := range members {
			if y := resolvedYear(citations[m]); y != nil {
				for _, n := range members {
					citations[n].SetExtracted(nil, y, confidence, method)
				}
				break
			}
		}
	}
}

func betterExtracted(a, b *model.Citation) bool {
	ca, cb := provConfidence(a), provConfidence(b)
	if ca != cb {
		return ca > cb
	}
	return len(*a.ExtractedCaseName) > len(*b.ExtractedCaseName)
}

func provConfidence(c *model.Citation) float64 {
	if c.ExtractedBy == nil {
		return 0
	}
	return c.ExtractedBy.Confidence
}

// resolvedYear returns the citation's year: the document-extracted date if
// present, else the year parsed out of the citation string itself
func resolvedYear(c *model.Citation) *string {
	if c.ExtractedDate != nil {
		return c.ExtractedDate
	}
	if c.Components != nil {
		return c.Components.Year
	}
	return nil
}

func siblings(ids []string, self string) []string {
	out := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9\s]`)

// Similarity scores two case names in [0,1]: token overlap against the
// smaller token set, falling back to an edit-distance ratio for names that
// share few exact tokens. Case-insensitive; punctuation and the "v."
// connector are ignored.
func Similarity(a, b string) float64 {
	ta, tb := nameTokens(a), nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	overlap := 0
	for _, t := range tb {
		if set[t] {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(min(len(ta), len(tb)))

	na, nb := strings.Join(ta, " "), strings.Join(tb, " ")
	editScore := 1.0 - float64(levenshtein(na, nb))/float64(max(len(na), len(nb)))

	if tokenScore > editScore {
		return tokenScore
	}
	return editScore
}

func nameTokens(s string) []string {
	s = strings.ToLower(s)
	s = nonWordRe.ReplaceAllString(s, " ")
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if f == "v" || f == "vs" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// unionFind is a plain disjoint-set over citation indices
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(i, j int) {
	ri, rj := uf.find(i), uf.find(j)
	if ri != rj {
		uf.parent[rj] = ri
	}
}
