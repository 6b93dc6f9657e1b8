package score

import (
	"fmt"
	"math"

	"github.com/pverenik/lexcite/internal/model"
)

// Scorer calculates the resolution-quality index and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate builds the stats block for a resolved document: raw counts, the
// 0-100 quality index, and the diagnostic signals behind every number.
// yearConflicts is the count of candidate pairs the clusterer kept apart
// because their years disagreed.
func (s *Scorer) Calculate(citations []*model.Citation, clusters []*model.Cluster, yearConflicts int) model.Stats {
	stats := model.Stats{
		Citations: len(citations),
		Clusters:  len(clusters),
	}

	for _, c := range citations {
		if c.Components == nil {
			stats.Malformed++
			continue
		}
		stats.Parsed++
		if c.ExtractedCaseName != nil {
			stats.NamesResolved++
		}
		if c.ClusterID != nil {
			stats.Clustered++
		}
		if c.Verified {
			stats.Verified++
		}
	}

	var signals []model.Signal

	// 1. Case-name coverage (0-35 points)
	nameScore, nameSignal := s.calculateNameCoverage(stats)
	signals = append(signals, nameSignal)

	// 2. Verification rate (0-40 points)
	verifyScore, verifySignal := s.calculateVerificationRate(stats)
	signals = append(signals, verifySignal)

	// 3. Parse quality (0-15 points)
	parseScore, parseSignal := s.calculateParseQuality(stats)
	signals = append(signals, parseSignal)

	// 4. Cluster cohesion (0-10 points)
	cohesionScore, cohesionSignal := s.calculateCohesion(stats)
	signals = append(signals, cohesionSignal)

	index := nameScore + verifyScore + parseScore + cohesionScore

	// 5. Year-conflict penalty
	if yearConflicts > 0 {
		penalty := yearConflicts * 5
		if penalty > 15 {
			penalty = 15
		}
		index -= penalty
		if index < 0 {
			index = 0
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalYearConflicts,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d candidate pairs kept apart by conflicting years", yearConflicts),
			Data: map[string]interface{}{
				"pairs":   yearConflicts,
				"penalty": penalty,
			},
		})
	}

	stats.Index = index
	stats.Confidence = s.determineConfidence(index, stats.Parsed, yearConflicts)
	stats.Signals = signals
	return stats
}

// calculateNameCoverage scores how many parseable citations got a case name
// (0-35 points)
func (s *Scorer) calculateNameCoverage(stats model.Stats) (int, model.Signal) {
	if stats.Parsed == 0 {
		return 0, model.Signal{
			Type:        model.SignalNameCoverage,
			Severity:    model.SeverityCritical,
			Description: "No parseable citations",
			Data:        map[string]interface{}{"parsed": 0},
		}
	}

	ratio := float64(stats.NamesResolved) / float64(stats.Parsed)
	points := int(math.Min(ratio*35, 35))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalNameCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Case names resolved for %d/%d citations", stats.NamesResolved, stats.Parsed),
		Data: map[string]interface{}{
			"resolved": stats.NamesResolved,
			"parsed":   stats.Parsed,
			"ratio":    ratio,
			"score":    points,
			"formula":  "min(resolved / parsed * 35, 35)",
		},
	}
}

// calculateVerificationRate scores authority confirmation (0-40 points)
func (s *Scorer) calculateVerificationRate(stats model.Stats) (int, model.Signal) {
	if stats.Parsed == 0 {
		return 0, model.Signal{
			Type:        model.SignalVerificationRate,
			Severity:    model.SeverityWarning,
			Description: "Nothing to verify",
			Data:        map[string]interface{}{"parsed": 0},
		}
	}

	ratio := float64(stats.Verified) / float64(stats.Parsed)
	points := int(math.Min(ratio*40, 40))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalVerificationRate,
		Severity:    severity,
		Description: fmt.Sprintf("Authority confirmed %d/%d citations", stats.Verified, stats.Parsed),
		Data: map[string]interface{}{
			"verified": stats.Verified,
			"parsed":   stats.Parsed,
			"ratio":    ratio,
			"score":    points,
			"formula":  "min(verified / parsed * 40, 40)",
		},
	}
}

// calculateParseQuality scores how many spans survived component parsing
// (0-15 points)
func (s *Scorer) calculateParseQuality(stats model.Stats) (int, model.Signal) {
	if stats.Citations == 0 {
		return 0, model.Signal{
			Type:        model.SignalMalformedSpans,
			Severity:    model.SeverityWarning,
			Description: "No citations found",
			Data:        map[string]interface{}{"citations": 0},
		}
	}

	ratio := float64(stats.Parsed) / float64(stats.Citations)
	points := int(ratio * 15)

	severity := model.SeverityInfo
	if ratio < 0.7 {
		severity = model.SeverityCritical
	} else if ratio < 0.9 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalMalformedSpans,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d spans parsed into components", stats.Parsed, stats.Citations),
		Data: map[string]interface{}{
			"parsed":    stats.Parsed,
			"malformed": stats.Malformed,
			"citations": stats.Citations,
			"score":     points,
			"formula":   "(parsed / citations) * 15",
		},
	}
}

// calculateCohesion scores parallel-citation grouping (0-10 points). A
// document with no parallel citations at all is scored moderate, not
// penalized.
func (s *Scorer) calculateCohesion(stats model.Stats) (int, model.Signal) {
	if stats.Clusters == 0 {
		return 5, model.Signal{
			Type:        model.SignalClusterCohesion,
			Severity:    model.SeverityInfo,
			Description: "No parallel citations detected",
			Data:        map[string]interface{}{"clusters": 0, "score": 5},
		}
	}

	ratio := float64(stats.Clustered) / float64(stats.Parsed)
	points := 5 + int(ratio*5)

	return points, model.Signal{
		Type:        model.SignalClusterCohesion,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d citations in %d clusters", stats.Clustered, stats.Clusters),
		Data: map[string]interface{}{
			"clustered": stats.Clustered,
			"clusters":  stats.Clusters,
			"parsed":    stats.Parsed,
			"score":     points,
			"formula":   "5 + (clustered / parsed) * 5",
		},
	}
}

// determineConfidence maps the index to a confidence label
func (s *Scorer) determineConfidence(index, parsed, yearConflicts int) string {
	if parsed < 3 {
		return "low"
	}
	if yearConflicts > 0 && index >= 80 {
		return "medium"
	}
	if index >= 80 {
		return "high"
	}
	if index >= 60 {
		return "medium"
	}
	return "low"
}
