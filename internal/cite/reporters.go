// Package cite decomposes citation strings into typed components and
// classifies reporters into families. It is pure text analysis: no I/O, no
// side effects.
package cite

import (
	"sort"
	"strings"
)

// ReporterFamily classifies a reporter abbreviation into the published
// series it belongs to.
type ReporterFamily string

const (
	FamilyUnknown       ReporterFamily = "unknown"
	FamilyWashington    ReporterFamily = "washington"      // Wn., Wn.2d, Wn. App.
	FamilyPacific2d     ReporterFamily = "pacific_2d"      // P.2d
	FamilyPacific3d     ReporterFamily = "pacific_3d"      // P.3d
	FamilyUS            ReporterFamily = "us"              // U.S.
	FamilySupremeCourt  ReporterFamily = "supreme_court"   // S. Ct.
	FamilyLawyersEd     ReporterFamily = "lawyers_edition" // L. Ed., L. Ed. 2d
	FamilyFederal3d     ReporterFamily = "federal_3d"      // F.3d
	FamilyFederal       ReporterFamily = "federal"         // F., F.2d
	FamilyFedSupplement ReporterFamily = "federal_supplement"
)

// reporterFamilies maps normalized reporter tokens to their family. The
// token, normalized with collapsed whitespace, is the lookup key.
var reporterFamilies = map[string]ReporterFamily{
	"Wn.":         FamilyWashington,
	"Wn.2d":       FamilyWashington,
	"Wn. 2d":      FamilyWashington,
	"Wash.":       FamilyWashington,
	"Wash. 2d":    FamilyWashington,
	"Wash.2d":     FamilyWashington,
	"Wn. App.":    FamilyWashington,
	"Wn. App. 2d": FamilyWashington,
	"Wash. App.":  FamilyWashington,

	"P.2d":  FamilyPacific2d,
	"P. 2d": FamilyPacific2d,
	"P.3d":  FamilyPacific3d,
	"P. 3d": FamilyPacific3d,

	"U.S.":       FamilyUS,
	"U. S.":      FamilyUS,
	"S. Ct.":     FamilySupremeCourt,
	"S.Ct.":      FamilySupremeCourt,
	"L. Ed.":     FamilyLawyersEd,
	"L.Ed.":      FamilyLawyersEd,
	"L. Ed. 2d":  FamilyLawyersEd,
	"L.Ed.2d":    FamilyLawyersEd,
	"L. Ed.2d":   FamilyLawyersEd,

	"F.":    FamilyFederal,
	"F.2d":  FamilyFederal,
	"F. 2d": FamilyFederal,
	"F.3d":  FamilyFederal3d,
	"F. 3d": FamilyFederal3d,

	"F. Supp.":    FamilyFedSupplement,
	"F. Supp. 2d": FamilyFedSupplement,
	"F. Supp. 3d": FamilyFedSupplement,
}

// familyPair is an unordered pair of families
type familyPair struct {
	a, b ReporterFamily
}

func pair(a, b ReporterFamily) familyPair {
	if a > b {
		a, b = b, a
	}
	return familyPair{a, b}
}

// compatiblePairs enumerates which two families may jointly cite one
// opinion. This table is the single source of truth for parallel-citation
// pairing; any pair absent here is incompatible.
var compatiblePairs = map[familyPair]bool{
	pair(FamilyWashington, FamilyPacific3d):    true,
	pair(FamilyWashington, FamilyPacific2d):    true,
	pair(FamilyUS, FamilySupremeCourt):         true,
	pair(FamilyUS, FamilyLawyersEd):            true,
	pair(FamilySupremeCourt, FamilyLawyersEd):  true,
	pair(FamilyFederal3d, FamilyUS):            true,
	pair(FamilyFederal3d, FamilySupremeCourt):  true,
	pair(FamilyFederal, FamilyUS):              true,
	pair(FamilyFederal, FamilySupremeCourt):    true,
}

// Family classifies a reporter token. Unrecognized tokens map to
// FamilyUnknown, which is incompatible with everything.
func Family(reporter string) ReporterFamily {
	key := normalizeToken(reporter)
	if fam, ok := reporterFamilies[key]; ok {
		return fam
	}
	return FamilyUnknown
}

// Compatible reports whether two reporter families may legitimately cite the
// same opinion. The unknown family, and identical families, never pair.
func Compatible(a, b ReporterFamily) bool {
	if a == FamilyUnknown || b == FamilyUnknown || a == b {
		return false
	}
	return compatiblePairs[pair(a, b)]
}

// ReporterTokens returns every recognized reporter abbreviation, longest
// first, for building anchored match patterns.
func ReporterTokens() []string {
	tokens := make([]string, 0, len(reporterFamilies))
	for tok := range reporterFamilies {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}

// normalizeToken collapses internal whitespace so "Wn.  2d" and "Wn. 2d"
// compare equal
func normalizeToken(tok string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(tok)), " ")
}
