package model

import "github.com/google/uuid"

// Cluster is a set of citations believed to denote one judicial opinion.
// Clusters are symmetric and transitively closed: if A~B and B~C then A, B
// and C share one cluster. Citations that pair with nothing stay unclustered
// (an implicit singleton); explicit Cluster values always have >= 2 members.
type Cluster struct {
	ID        string   `json:"id"`
	MemberIDs []string `json:"member_ids"` // Citation IDs in document order

	// Canonical record for the opinion, chosen once verification evidence
	// exists. Nil until then; never "N/A" placeholders.
	CaseName *string `json:"case_name,omitempty"`
	Date     *string `json:"date,omitempty"`
	URL      *string `json:"url,omitempty"`
	Verified bool    `json:"verified"`

	// Attempts is the append-only verification evidence collected for this
	// cluster, in strategy order. BestResult points into it.
	Attempts   []*VerificationAttempt `json:"attempts,omitempty"`
	BestResult *VerificationAttempt   `json:"best_result,omitempty"`
}

// NewCluster creates a cluster over the given member citation IDs
func NewCluster(memberIDs []string) *Cluster {
	return &Cluster{
		ID:        uuid.NewString(),
		MemberIDs: memberIDs,
	}
}

// Contains reports whether the citation ID is a member
func (cl *Cluster) Contains(id string) bool {
	for _, m := range cl.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}
