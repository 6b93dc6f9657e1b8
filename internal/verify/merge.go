package verify

import (
	"github.com/pverenik/lexcite/internal/model"
)

// CanonicalMerger folds verification evidence into the cluster and its
// member citations. Only the strongest verified attempt contributes
// canonical values; failed attempts are kept as evidence and change nothing.
type CanonicalMerger struct{}

// NewCanonicalMerger creates a merger
func NewCanonicalMerger() *CanonicalMerger {
	return &CanonicalMerger{}
}

// Merge records the attempts, selects the strongest one and, if it is
// verified, writes its canonical values through to every member. It returns
// the selected attempt, or nil when there were none.
//
// cluster may be nil for an unclustered citation; the evidence then lives
// only in the member's canonical fields.
func (m *CanonicalMerger) Merge(cluster *model.Cluster, members []*model.Citation, attempts []*model.VerificationAttempt) *model.VerificationAttempt {
	var best *model.VerificationAttempt
	for _, a := range attempts {
		if a == nil {
			continue
		}
		if best == nil || a.Better(best) {
			best = a
		}
	}

	if cluster != nil {
		cluster.Attempts = append(cluster.Attempts, attempts...)
	}

	if best == nil || !best.Verified {
		// Unverified is a first-class outcome: extracted fields stand,
		// canonical fields stay nil.
		return best
	}

	if cluster != nil {
		cluster.BestResult = best
		cluster.Verified = true
		if best.CanonicalName != nil {
			v := *best.CanonicalName
			cluster.CaseName = &v
		}
		if best.CanonicalDate != nil {
			v := *best.CanonicalDate
			cluster.Date = &v
		}
		if best.URL != nil {
			v := *best.URL
			cluster.URL = &v
		}
	}

	for _, member := range members {
		member.ApplyCanonical(best)
	}

	return best
}
