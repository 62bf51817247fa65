package detect

import (
	"strconv"
	"testing"
)

func TestBuildSpans_Empty(t *testing.T) {
	fp := Winnow("abcdef", 2, 2)
	if got := BuildSpans(nil, fp, 2); got != nil {
		t.Fatalf("got %v", got)
	}
	if got := BuildSpans(fp, nil, 2); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestBuildSpans_NoSharedHashes(t *testing.T) {
	a := Winnow("aaaa aaaa aaaa", 4, 4)
	b := Winnow("bbbb bbbb bbbb", 4, 4)
	if got := BuildSpans(a, b, 4); got != nil {
		t.Fatalf("expected no spans, got %v", got)
	}
}

func TestBuildSpans_IdenticalTextsSingleCoveringSpan(t *testing.T) {
	const k, w = 5, 4
	text := Normalize("a reasonably long paragraph of english text used as both document and source")
	fp := Winnow(text, k, w)
	spans := BuildSpans(fp, fp, k)
	if len(spans) == 0 {
		t.Fatal("expected at least one span")
	}
	if len(spans) != 1 {
		t.Fatalf("expected a single span, got %d", len(spans))
	}
	first := spans[0]
	if first.DocStart != fp[0].Pos {
		t.Fatalf("first span starts at %d, expected %d", first.DocStart, fp[0].Pos)
	}
	last := spans[len(spans)-1]
	if last.DocEnd != fp[len(fp)-1].Pos+k {
		t.Fatalf("last span ends at %d, expected %d", last.DocEnd, fp[len(fp)-1].Pos+k)
	}
}

func TestBuildSpans_InvariantsHold(t *testing.T) {
	const k, w = 4, 3
	doc := Normalize("shared prefix of text then something entirely different follows here and more shared tail of text")
	src := Normalize("shared prefix of text with unrelated middle parts but a shared tail of text")
	spans := BuildSpans(Winnow(doc, k, w), Winnow(src, k, w), k)
	if len(spans) == 0 {
		t.Fatal("expected spans for overlapping texts")
	}
	var prevStart uint32
	for i, s := range spans {
		if s.DocStart >= s.DocEnd {
			t.Fatalf("span %d: doc range inverted: [%d, %d)", i, s.DocStart, s.DocEnd)
		}
		if s.SrcStart >= s.SrcEnd {
			t.Fatalf("span %d: src range inverted: [%d, %d)", i, s.SrcStart, s.SrcEnd)
		}
		if s.Score < 0 || s.Score > 1 {
			t.Fatalf("span %d: score out of range: %f", i, s.Score)
		}
		if i > 0 && s.DocStart < prevStart {
			t.Fatalf("span %d: DocStart order violated", i)
		}
		prevStart = s.DocStart
		if s.SnippetHash == "" {
			t.Fatalf("span %d: missing snippet hash", i)
		}
	}
}

func TestBuildSpans_MergeAndSplit(t *testing.T) {
	const k = 3
	// Two clusters of matches separated by more than k: expect two spans.
	fpDoc := []Fingerprint{
		{Hash: 10, Pos: 0},
		{Hash: 11, Pos: 2},
		{Hash: 12, Pos: 4},
		{Hash: 13, Pos: 50},
		{Hash: 14, Pos: 53},
	}
	fpSrc := []Fingerprint{
		{Hash: 10, Pos: 7},
		{Hash: 11, Pos: 9},
		{Hash: 12, Pos: 11},
		{Hash: 13, Pos: 80},
		{Hash: 14, Pos: 83},
	}
	spans := BuildSpans(fpDoc, fpSrc, k)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	first := spans[0]
	if first.DocStart != 0 || first.DocEnd != 4+k {
		t.Fatalf("first span doc range [%d, %d)", first.DocStart, first.DocEnd)
	}
	if first.SrcStart != 7 || first.SrcEnd != 11+k {
		t.Fatalf("first span src range [%d, %d)", first.SrcStart, first.SrcEnd)
	}
	if first.SnippetHash != strconv.FormatUint(10, 10) {
		t.Fatalf("first span snippet hash %q", first.SnippetHash)
	}
	second := spans[1]
	if second.DocStart != 50 || second.DocEnd != 53+k {
		t.Fatalf("second span doc range [%d, %d)", second.DocStart, second.DocEnd)
	}
}

func TestBuildSpans_FirstSourcePositionWins(t *testing.T) {
	const k = 3
	fpDoc := []Fingerprint{{Hash: 42, Pos: 5}}
	fpSrc := []Fingerprint{{Hash: 42, Pos: 2}, {Hash: 42, Pos: 90}}
	spans := BuildSpans(fpDoc, fpSrc, k)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].SrcStart != 2 {
		t.Fatalf("expected smallest source position, got %d", spans[0].SrcStart)
	}
}

func TestBuildSpans_ScoreCappedAtOne(t *testing.T) {
	const k = 10
	fpDoc := []Fingerprint{{Hash: 1, Pos: 0}, {Hash: 2, Pos: 15}}
	fpSrc := []Fingerprint{{Hash: 1, Pos: 0}, {Hash: 2, Pos: 15}}
	// The merged span [0, 25) over len(fpDoc)*k = 20 gives a raw ratio of
	// 1.25; doc span lengths cannot push the score past 1.
	for _, s := range BuildSpans(fpDoc, fpSrc, k) {
		if s.Score > 1 {
			t.Fatalf("score %f exceeds 1", s.Score)
		}
		if s.Score != 1 {
			t.Fatalf("score %f, expected the capped value 1", s.Score)
		}
	}
}
