package cluster

import (
	"testing"

	"github.com/pverenik/lexcite/internal/cite"
	"github.com/pverenik/lexcite/internal/model"
)

func defaults() model.ClusterConfig {
	return model.DefaultConfig().Cluster
}

// mkCitation parses the span text into components and builds a citation at
// the given offset. Fails the test if the span does not parse.
func mkCitation(t *testing.T, text string, start int) *model.Citation {
	t.Helper()
	comp, err := cite.Parse(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	span := model.CitationSpan{Text: text, Start: start, End: start + len(text), DocumentID: "doc-1"}
	return model.NewCitation(span, comp)
}

func TestPartition_ParallelTriple(t *testing.T) {
	// Luis v. United States, 578 U.S. 5, 136 S. Ct. 1083, 194 L. Ed. 2d 256 (2016)
	a := mkCitation(t, "578 U.S. 5", 23)
	b := mkCitation(t, "136 S. Ct. 1083", 35)
	d := mkCitation(t, "194 L. Ed. 2d 256 (2016)", 52)
	a.SetExtracted(model.String("Luis v. United States"), model.String("2016"), 0.9, "adjacent")

	cls := New(defaults(), false, nil)
	clusters := cls.Partition([]*model.Citation{a, b, d})

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if got := len(clusters[0].MemberIDs); got != 3 {
		t.Fatalf("expected cluster of 3, got %d", got)
	}

	for _, c := range []*model.Citation{a, b, d} {
		if c.ClusterID == nil || *c.ClusterID != clusters[0].ID {
			t.Errorf("citation %s not assigned to the cluster", c.Span.Text)
		}
		if len(c.ParallelCitations) != 2 {
			t.Errorf("citation %s: expected 2 siblings, got %d", c.Span.Text, len(c.ParallelCitations))
		}
		if c.ExtractedCaseName == nil || *c.ExtractedCaseName != "Luis v. United States" {
			t.Errorf("citation %s: name not propagated: %v", c.Span.Text, c.ExtractedCaseName)
		}
		if c.ExtractedDate == nil || *c.ExtractedDate != "2016" {
			t.Errorf("citation %s: year not propagated: %v", c.Span.Text, c.ExtractedDate)
		}
	}
}

func TestPartition_YearConflictHardStop(t *testing.T) {
	// Compatible reporters, proximate, but conflicting years: never merged
	a := mkCitation(t, "100 Wn.2d 50 (1995)", 10)
	b := mkCitation(t, "50 P.3d 60 (2001)", 40)

	cls := New(defaults(), false, nil)
	clusters := cls.Partition([]*model.Citation{a, b})

	if len(clusters) != 0 {
		t.Fatalf("year conflict must block clustering, got %d clusters", len(clusters))
	}
	if cls.YearConflicts != 1 {
		t.Errorf("expected 1 recorded year conflict, got %d", cls.YearConflicts)
	}
	if a.ClusterID != nil || b.ClusterID != nil {
		t.Error("conflicting citations must stay unclustered")
	}
}

func TestPartition_YearConflictBeatsNameAgreement(t *testing.T) {
	a := mkCitation(t, "100 Wn.2d 50", 10)
	b := mkCitation(t, "50 P.3d 60", 40)
	a.SetExtracted(model.String("Smith v. Jones"), model.String("2011"), 0.9, "adjacent")
	b.SetExtracted(model.String("Smith v. Jones"), model.String("2022"), 0.9, "adjacent")

	cls := New(defaults(), false, nil)
	if clusters := cls.Partition([]*model.Citation{a, b}); len(clusters) != 0 {
		t.Fatal("identical names must not override a year conflict")
	}
}

func TestPartition_Transitivity(t *testing.T) {
	// F.3d pairs with U.S., U.S. pairs with L. Ed. 2d, but F.3d and
	// L. Ed. 2d are not themselves a compatible pair. Transitive closure
	// still puts all three in one cluster.
	a := mkCitation(t, "801 F.3d 100", 10)
	b := mkCitation(t, "578 U.S. 5", 40)
	d := mkCitation(t, "194 L. Ed. 2d 256", 70)

	if cite.Compatible(cite.FamilyFederal3d, cite.FamilyLawyersEd) {
		t.Fatal("test premise: F.3d / L. Ed. must not be directly compatible")
	}

	cls := New(defaults(), false, nil)
	clusters := cls.Partition([]*model.Citation{a, b, d})

	if len(clusters) != 1 || len(clusters[0].MemberIDs) != 3 {
		t.Fatalf("expected one transitive cluster of 3, got %+v", clusters)
	}
}

func TestPartition_ProximityRequired(t *testing.T) {
	a := mkCitation(t, "146 Wn.2d 1", 0)
	b := mkCitation(t, "43 P.3d 4", 5000) // far beyond the threshold

	cls := New(defaults(), false, nil)
	if clusters := cls.Partition([]*model.Citation{a, b}); len(clusters) != 0 {
		t.Fatal("distant citations must not cluster")
	}
}

func TestPartition_DissimilarNamesBlock(t *testing.T) {
	a := mkCitation(t, "146 Wn.2d 1", 10)
	b := mkCitation(t, "43 P.3d 4", 40)
	a.SetExtracted(model.String("Dep't of Ecology v. Campbell & Gwinn, LLC"), nil, 0.9, "adjacent")
	b.SetExtracted(model.String("State v. Carmichael"), nil, 0.9, "adjacent")

	cls := New(defaults(), false, nil)
	if clusters := cls.Partition([]*model.Citation{a, b}); len(clusters) != 0 {
		t.Fatal("dissimilar names must block the pair")
	}
}

func TestPartition_MissingNameSkipsCheck(t *testing.T) {
	a := mkCitation(t, "146 Wn.2d 1", 10)
	b := mkCitation(t, "43 P.3d 4", 40)
	a.SetExtracted(model.String("Dep't of Ecology v. Campbell & Gwinn, LLC"), nil, 0.9, "adjacent")
	// b has no name: the check is skipped, not failed

	cls := New(defaults(), false, nil)
	clusters := cls.Partition([]*model.Citation{a, b})
	if len(clusters) != 1 {
		t.Fatal("a missing name on one side must not block the pair")
	}
	if b.ExtractedCaseName == nil || *b.ExtractedCaseName != "Dep't of Ecology v. Campbell & Gwinn, LLC" {
		t.Errorf("name not propagated to the unnamed member: %v", b.ExtractedCaseName)
	}
}

func TestPartition_ExplicitMetadataTrusted(t *testing.T) {
	// Siblings known at ingestion are clustered without compatibility or
	// proximity checks.
	a := mkCitation(t, "146 Wn.2d 1", 0)
	b := mkCitation(t, "578 U.S. 5", 9000) // incompatible family, far away
	a.ParallelCitations = []string{b.ID}

	cls := New(defaults(), false, nil)
	clusters := cls.Partition([]*model.Citation{a, b})
	if len(clusters) != 1 || len(clusters[0].MemberIDs) != 2 {
		t.Fatalf("explicit metadata must seed the cluster, got %+v", clusters)
	}
}

func TestPartition_MalformedExcluded(t *testing.T) {
	a := mkCitation(t, "146 Wn.2d 1", 10)
	bad := model.NewCitation(model.CitationSpan{Text: "gibberish", Start: 30, End: 39}, nil)
	b := mkCitation(t, "43 P.3d 4", 50)

	cls := New(defaults(), false, nil)
	clusters := cls.Partition([]*model.Citation{a, bad, b})
	if len(clusters) != 1 || len(clusters[0].MemberIDs) != 2 {
		t.Fatalf("expected the two parseable citations in one cluster, got %+v", clusters)
	}
	if bad.ClusterID != nil {
		t.Error("unparsable citation must never cluster")
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity("Luis v. United States", "Luis v. United States"); s < 0.99 {
		t.Errorf("identical names: %f", s)
	}
	if s := Similarity("Dep't of Ecology v. Campbell & Gwinn, LLC", "Dept of Ecology v. Campbell & Gwinn LLC"); s < 0.6 {
		t.Errorf("punctuation variants should stay similar: %f", s)
	}
	if s := Similarity("State v. Carmichael", "Dep't of Ecology v. Campbell & Gwinn, LLC"); s >= 0.6 {
		t.Errorf("unrelated names should be dissimilar: %f", s)
	}
	if s := Similarity("", "Luis v. United States"); s != 0 {
		t.Errorf("empty name similarity should be 0: %f", s)
	}
}
