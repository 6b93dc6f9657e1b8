package cite

import "testing"

func TestFindSpans_ParallelString(t *testing.T) {
	text := `Luis v. United States, 578 U.S. 5, 136 S. Ct. 1083, 194 L. Ed. 2d 256 (2016)`

	spans := FindSpans(text, "doc-1")
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(spans), spans)
	}

	if spans[0].Text != "578 U.S. 5" {
		t.Errorf("span 0: %q", spans[0].Text)
	}
	if spans[1].Text != "136 S. Ct. 1083" {
		t.Errorf("span 1: %q", spans[1].Text)
	}
	if spans[2].Text != "194 L. Ed. 2d 256 (2016)" {
		t.Errorf("span 2: %q", spans[2].Text)
	}

	for i, s := range spans {
		if text[s.Start:s.End] != s.Text {
			t.Errorf("span %d offsets do not index its text: [%d,%d)", i, s.Start, s.End)
		}
		if s.DocumentID != "doc-1" {
			t.Errorf("span %d document id: %q", i, s.DocumentID)
		}
	}
}

func TestFindSpans_PinpointStaysWithItsCitation(t *testing.T) {
	text := `Dep't of Ecology v. Campbell & Gwinn, LLC, 146 Wn.2d 1, 9, 43 P.3d 4 (2003)`

	spans := FindSpans(text, "doc-1")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Text != "146 Wn.2d 1, 9" {
		t.Errorf("span 0: %q", spans[0].Text)
	}
	if spans[1].Text != "43 P.3d 4 (2003)" {
		t.Errorf("span 1: %q", spans[1].Text)
	}

	comp, err := Parse(spans[0].Text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if comp.Pinpoint == nil || *comp.Pinpoint != 9 {
		t.Errorf("expected pinpoint 9 on the Wn.2d component, got %v", comp.Pinpoint)
	}
}

func TestFindSpans_NoCitations(t *testing.T) {
	if spans := FindSpans("The quick brown fox jumps over the lazy dog.", "doc-1"); spans != nil {
		t.Errorf("expected nil, got %+v", spans)
	}
}

func TestFindSpans_ProseParenthesesNotSwallowed(t *testing.T) {
	text := `See 146 Wn.2d 1 (a landmark ruling) for background.`
	spans := FindSpans(text, "doc-1")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Text != "146 Wn.2d 1" {
		t.Errorf("prose parenthetical absorbed into span: %q", spans[0].Text)
	}
}
