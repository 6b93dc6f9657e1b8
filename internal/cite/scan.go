package cite

import (
	"strings"

	"github.com/pverenik/lexcite/internal/model"
)

// FindSpans scans document text for citation occurrences and returns their
// spans with byte offsets. A span covers the volume-reporter-page core plus
// any pinpoint page and trailing parentheticals (year, status, history) that
// belong to it, and never runs into the next citation.
func FindSpans(text, documentID string) []model.CitationSpan {
	matches := coreRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	spans := make([]model.CitationSpan, 0, len(matches))
	for i, m := range matches {
		start, end := m[0], m[1]

		// The next citation bounds how far this span may extend
		boundary := len(text)
		if i+1 < len(matches) {
			boundary = matches[i+1][0]
		}

		end = extendSpan(text, end, boundary)
		spans = append(spans, model.CitationSpan{
			Text:       text[start:end],
			Start:      start,
			End:        end,
			DocumentID: documentID,
		})
	}
	return spans
}

// extendSpan grows the span end over a pinpoint page and over trailing
// parentheticals that carry a year, publication status or history marker
func extendSpan(text string, end, boundary int) int {
	tail := text[end:boundary]

	if pm := pinpointRe.FindStringSubmatchIndex(tail); pm != nil {
		if !startsCitation(tail[pm[2]:]) {
			end += pm[3]
			tail = text[end:boundary]
		}
	}

	for {
		pm := parenRe.FindStringSubmatchIndex(tail)
		if pm == nil {
			break
		}
		inner := tail[pm[2]:pm[3]]
		if !citationParenthetical(inner) {
			break
		}
		end += pm[1]
		tail = text[end:boundary]
	}

	return end
}

// citationParenthetical reports whether parenthesized content belongs to a
// citation rather than surrounding prose
func citationParenthetical(inner string) bool {
	wrapped := "(" + inner + ")"
	if yearRe.MatchString(wrapped) || historyRe.MatchString(wrapped) || statusRe.MatchString(wrapped) {
		return true
	}
	return strings.HasPrefix(inner, "No. ")
}
