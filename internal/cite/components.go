package cite

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/pverenik/lexcite/internal/model"
)

// ErrMalformedCitation is returned when no recognized reporter pattern
// matches a span. Callers keep the span with nil components and exclude it
// from clustering.
var ErrMalformedCitation = errors.New("malformed citation: no recognized reporter pattern")

var (
	coreRe     *regexp.Regexp
	pinpointRe = regexp.MustCompile(`^,\s*(\d{1,5})\b`)
	docketRe   = regexp.MustCompile(`No\.\s*(\d+(?:-\d+)*)`)
	historyRe  = regexp.MustCompile(`\(([A-Z][A-Za-z.'& -]*\s[IVXL]+)\)`)
	statusRe   = regexp.MustCompile(`\((?i:(unpublished)|(mem\.|memorandum)|(per curiam)|(published))\)`)
	yearRe     = regexp.MustCompile(`\((?:[A-Za-z.0-9 ]+\s)?((?:1[6-9]|20)\d{2})\)`)
	parenRe    = regexp.MustCompile(`^\s*\(([^()]{1,40})\)`)
)

func init() {
	// Anchor the core pattern on the known reporter table so the taxonomy
	// stays the single source of truth for what counts as a citation.
	alts := make([]string, 0, len(reporterFamilies))
	for _, tok := range ReporterTokens() {
		alts = append(alts, strings.ReplaceAll(regexp.QuoteMeta(tok), " ", `\s+`))
	}
	coreRe = regexp.MustCompile(`(\d{1,4})\s+(` + strings.Join(alts, "|") + `)\s+(\d{1,5})`)
}

// Parse decomposes a citation substring into typed components. The volume,
// reporter and page are required; pinpoint, docket number, history marker,
// publication status and year are each recognized independently when
// present. Returns ErrMalformedCitation when no reporter pattern matches.
func Parse(span string) (*model.CitationComponents, error) {
	m := coreRe.FindStringSubmatchIndex(span)
	if m == nil {
		return nil, ErrMalformedCitation
	}

	volume, err := strconv.Atoi(span[m[2]:m[3]])
	if err != nil {
		return nil, ErrMalformedCitation
	}
	page, err := strconv.Atoi(span[m[6]:m[7]])
	if err != nil {
		return nil, ErrMalformedCitation
	}

	comp := &model.CitationComponents{
		Volume:   volume,
		Reporter: normalizeToken(span[m[4]:m[5]]),
		Page:     page,
	}

	// Pinpoint: a bare integer after a comma, unless that integer starts a
	// new citation (then it is the next citation's volume, not a pincite).
	rest := span[m[1]:]
	if pm := pinpointRe.FindStringSubmatchIndex(rest); pm != nil {
		if !startsCitation(rest[pm[2]:]) {
			pp, _ := strconv.Atoi(rest[pm[2]:pm[3]])
			comp.Pinpoint = model.Int(pp)
		}
	}

	if dm := docketRe.FindStringSubmatch(span); dm != nil {
		comp.DocketNumber = model.String(dm[1])
	}

	if hm := historyRe.FindStringSubmatch(span); hm != nil {
		comp.HistoryLabel = model.String(strings.TrimSpace(hm[1]))
	}

	if sm := statusRe.FindStringSubmatch(span); sm != nil {
		var status model.PublicationStatus
		switch {
		case sm[1] != "":
			status = model.StatusUnpublished
		case sm[2] != "":
			status = model.StatusMemorandum
		case sm[3] != "":
			status = model.StatusPerCuriam
		default:
			status = model.StatusPublished
		}
		comp.Status = &status
	}

	// Take the last parenthesized year: citations end with "(2003)" or
	// "(Wash. 2003)", and earlier parens may belong to the case history.
	if ys := yearRe.FindAllStringSubmatch(span, -1); len(ys) > 0 {
		comp.Year = model.String(ys[len(ys)-1][1])
	}

	return comp, nil
}

// startsCitation reports whether s begins (after whitespace) with a
// volume-reporter-page citation core
func startsCitation(s string) bool {
	loc := coreRe.FindStringIndex(s)
	if loc == nil {
		return false
	}
	return strings.TrimSpace(s[:loc[0]]) == ""
}
