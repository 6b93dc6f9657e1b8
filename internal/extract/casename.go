// Package extract associates citations with case names and decision years
// found in the surrounding prose. Extraction is heuristic: a fixed ladder of
// strategies ordered by confidence, first success wins.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pverenik/lexcite/internal/model"
)

// Result is the outcome of resolving one citation against the document
// text. Name and Year are nil when nothing was found, never empty strings,
// so callers can distinguish "no information" from "known to be blank".
type Result struct {
	Name       *string
	Year       *string
	Confidence float64
	Method     string
}

const contextWindow = 200 // chars searched before the citation

// partyToken matches one word of a caption party name. Parties carry the
// punctuation real captions have: apostrophes ("Dep't"), ampersands, commas
// inside entity names ("Campbell & Gwinn, LLC"). A party continues over
// capitalized words and the lowercase connectors captions use, and stops at
// ordinary prose.
const partyTail = `(?:[\s,]+(?:of|the|&|ex rel\.|et al\.|[A-Z][\w'&().-]*))`

var (
	// Party v. Party captions
	versusRe = regexp.MustCompile(`([A-Z][\w'&().-]*` + partyTail + `*?\s+v\.?\s+[A-Z][\w'&().-]*` + partyTail + `*)`)

	// In re / Ex parte / Matter of captions
	proceedingRe = regexp.MustCompile(`((?:In re|Ex parte|Matter of)\s+[A-Z][\w'&().-]*` + partyTail + `*)`)

	// Government-party captions, anchored on the well-known plaintiffs
	governmentRe = regexp.MustCompile(`((?:United States|Commonwealth|People|State)(?:\s+of\s+[A-Z][a-z]+)?\s+v\.?\s+[A-Z][\w'&().-]*` + partyTail + `*)`)

	// A capitalized phrase separated from the citation by a bare comma
	adjacentPhraseRe = regexp.MustCompile(`([A-Z][\w.'&-]*(?:\s+[\w.'&-]+){0,6}),\s*$`)

	adjacentYearRe = regexp.MustCompile(`^[\s,0-9]*\((?:[A-Za-z.0-9 ]+\s)?(\d{4})\)`)
	anyYearRe      = regexp.MustCompile(`\b(\d{4})\b`)

	// Citation signals that prefix a caption but are not part of it
	signalPrefixRe = regexp.MustCompile(`^(?:[Ss]ee(?:,? e\.g\.,)?(?: also)?|[Aa]ccord|[Cc]f\.|[Cc]iting|[Qq]uoting|[Ii]n|[Uu]nder|[Bb]ut see)\s+`)
)

// stopWords are single tokens that cannot stand alone as a case name
var stopWords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"It": true, "Id": true, "Id.": true, "See": true, "But": true,
	"And": true, "However": true, "Although": true, "Accord": true,
}

// proceduralTerms are party designations, not case names
var proceduralTerms = map[string]bool{
	"Plaintiff": true, "Plaintiffs": true, "Defendant": true, "Defendants": true,
	"Appellant": true, "Appellants": true, "Appellee": true, "Appellees": true,
	"Respondent": true, "Respondents": true, "Petitioner": true, "Petitioners": true,
	"Court": true, "State": true, "County": true,
}

// Resolver extracts case names and decision years from document context
type Resolver struct{}

// NewResolver creates a new case-name resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve finds the most likely case name and decision year for a citation.
// Strategies are tried in fixed priority order; the first one producing a
// valid name wins. Year extraction is independent of name extraction.
func (r *Resolver) Resolve(text string, span model.CitationSpan) Result {
	res := Result{}

	type strategy struct {
		name       string
		confidence float64
		run        func(string, model.CitationSpan) *string
	}
	strategies := []strategy{
		{"adjacent", 0.9, r.adjacentName},
		{"context_window", 0.8, r.contextName},
		{"sentence", 0.7, r.sentenceName},
	}

	for _, s := range strategies {
		if name := s.run(text, span); name != nil {
			res.Name = name
			res.Confidence = s.confidence
			res.Method = s.name
			break
		}
	}

	if res.Name == nil {
		if name, conf := r.governmentName(text, span); name != nil {
			res.Name = name
			res.Confidence = conf
			res.Method = "government_party"
		}
	}

	res.Year = r.resolveYear(text, span, res.Name)
	return res
}

// adjacentName matches a caption immediately preceding the citation,
// separated only by a comma
func (r *Resolver) adjacentName(text string, span model.CitationSpan) *string {
	window := before(text, span.Start, contextWindow)
	trimmed := strings.TrimRight(window, " \t")
	if !strings.HasSuffix(trimmed, ",") {
		return nil
	}
	trimmed = strings.TrimRight(trimmed[:len(trimmed)-1], " \t")

	// A neighbor ending in a digit is a preceding parallel citation or a
	// pincite, not a caption. The middle of "578 U.S. 5, 136 S. Ct. 1083"
	// must not yield "U.S. 5" as a name.
	if len(trimmed) > 0 && trimmed[len(trimmed)-1] >= '0' && trimmed[len(trimmed)-1] <= '9' {
		return nil
	}

	// A full caption first, then a bare capitalized phrase
	for _, re := range []*regexp.Regexp{versusRe, proceedingRe} {
		if m := lastMatch(re, trimmed); m != nil && strings.HasSuffix(trimmed, *m) {
			if name := cleanName(*m); name != nil {
				return name
			}
		}
	}
	if m := adjacentPhraseRe.FindStringSubmatch(trimmed + ","); m != nil {
		if name := cleanName(m[1]); name != nil {
			return name
		}
	}
	return nil
}

// contextName searches the window before the citation for a caption pattern
func (r *Resolver) contextName(text string, span model.CitationSpan) *string {
	window := before(text, span.Start, contextWindow)
	for _, re := range []*regexp.Regexp{versusRe, proceedingRe} {
		if m := lastMatch(re, window); m != nil {
			if name := cleanName(*m); name != nil {
				return name
			}
		}
	}
	return nil
}

// sentenceName re-applies the caption patterns to the whole sentence that
// contains the citation
func (r *Resolver) sentenceName(text string, span model.CitationSpan) *string {
	sentence := enclosingSentence(text, span.Start)
	for _, re := range []*regexp.Regexp{versusRe, proceedingRe} {
		if m := lastMatch(re, sentence); m != nil {
			if name := cleanName(*m); name != nil {
				return name
			}
		}
	}
	return nil
}

// governmentName falls back to the well-known government-party captions.
// Confidence varies with the specificity of the anchor.
func (r *Resolver) governmentName(text string, span model.CitationSpan) (*string, float64) {
	window := before(text, span.Start, contextWindow+100)
	m := lastMatch(governmentRe, window)
	if m == nil {
		return nil, 0
	}
	name := cleanName(*m)
	if name == nil {
		return nil, 0
	}
	switch {
	case strings.HasPrefix(*name, "United States"):
		return name, 0.9
	case strings.HasPrefix(*name, "Commonwealth"), strings.HasPrefix(*name, "People"):
		return name, 0.75
	default:
		return name, 0.6
	}
}

// resolveYear tries, in order: a parenthesized year adjacent to the
// citation, a year inside the citation span itself, a year inside the
// matched name, and finally any plausible year in the context window.
func (r *Resolver) resolveYear(text string, span model.CitationSpan, name *string) *string {
	if m := adjacentYearRe.FindStringSubmatch(after(text, span.End, 80)); m != nil {
		if plausibleYear(m[1]) {
			return model.String(m[1])
		}
	}

	for _, hay := range []string{span.Text, deref(name)} {
		for _, m := range anyYearRe.FindAllStringSubmatch(hay, -1) {
			if plausibleYear(m[1]) {
				return model.String(m[1])
			}
		}
	}

	window := before(text, span.Start, contextWindow) + " " + after(text, span.End, contextWindow)
	for _, m := range anyYearRe.FindAllStringSubmatch(window, -1) {
		if plausibleYear(m[1]) {
			return model.String(m[1])
		}
	}
	return nil
}

// cleanName strips citation signals and validates the candidate. Returns
// nil when the candidate is not a plausible case name.
func cleanName(candidate string) *string {
	s := strings.TrimSpace(candidate)
	for {
		stripped := signalPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strings.Trim(s, " ,;")

	if !validCaseName(s) {
		return nil
	}
	return model.String(s)
}

// validCaseName applies the name-validity check: starts with a capital,
// contains a letter, is not a stop word or bare procedural term, and is at
// most 100 characters.
func validCaseName(s string) bool {
	if s == "" || len(s) > 100 {
		return false
	}
	runes := []rune(s)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	hasLetter := false
	for _, r := range runes {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	if stopWords[s] || proceduralTerms[s] {
		return false
	}
	return true
}

func plausibleYear(s string) bool {
	y, err := strconv.Atoi(s)
	return err == nil && y >= 1900 && y <= 2030
}

// lastMatch returns the rightmost match of re in s: the caption nearest the
// citation is the one that names it.
func lastMatch(re *regexp.Regexp, s string) *string {
	ms := re.FindAllStringSubmatch(s, -1)
	if len(ms) == 0 {
		return nil
	}
	m := ms[len(ms)-1]
	if len(m) > 1 {
		return &m[1]
	}
	return &m[0]
}

// enclosingSentence returns the sentence containing the given offset,
// bounded by sentence terminators followed by whitespace
func enclosingSentence(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	start := 0
	for i := offset - 2; i > 0; i-- {
		if isTerminator(text[i]) && i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t') {
			start = i + 2
			break
		}
	}
	end := len(text)
	for i := offset; i < len(text)-1; i++ {
		if isTerminator(text[i]) && (text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t') {
			end = i + 1
			break
		}
	}
	return text[start:end]
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == ';'
}

func before(text string, offset, window int) string {
	start := offset - window
	if start < 0 {
		start = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	return text[start:offset]
}

func after(text string, offset, window int) string {
	if offset > len(text) {
		offset = len(text)
	}
	end := offset + window
	if end > len(text) {
		end = len(text)
	}
	return text[offset:end]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
