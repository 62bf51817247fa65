package detect

import (
	"sort"
	"strconv"
)

// MatchSpan is a contiguous range of the query document aligned with a range
// of a source document where winnowed k-gram hashes match. Offsets are rune
// offsets into the respective normalized texts.
type MatchSpan struct {
	DocStart    uint32
	DocEnd      uint32
	SrcStart    uint32
	SrcEnd      uint32
	Score       float64
	SnippetHash string
}

// BuildSpans aligns matching fingerprints of the document against a source
// and merges them into contiguous spans, ordered by ascending DocStart.
//
// Each document fingerprint whose hash occurs in the source is paired with
// the first (smallest) source position recorded for that hash. Matches sorted
// by document position are swept left to right; a match within k of the open
// span's end extends it, otherwise the span is emitted and a new one opened.
//
// A span's score is min(1, (DocEnd-DocStart) / (len(fpDoc)*k)). The
// normalizer mixes a fingerprint count with character offsets; it is a
// length-ratio heuristic conveying relative span weight, not a similarity,
// and is kept as the contract. SnippetHash is the decimal hash of the span's
// first raw match.
func BuildSpans(fpDoc, fpSrc []Fingerprint, k int) []MatchSpan {
	if k < 1 || len(fpDoc) == 0 || len(fpSrc) == 0 {
		return nil
	}

	firstSrcPos := make(map[uint64]uint32, len(fpSrc))
	for _, f := range fpSrc {
		if _, ok := firstSrcPos[f.Hash]; !ok {
			firstSrcPos[f.Hash] = f.Pos
		}
	}

	type rawMatch struct {
		hash uint64
		aPos uint32
		bPos uint32
	}
	var raws []rawMatch
	for _, f := range fpDoc {
		if bPos, ok := firstSrcPos[f.Hash]; ok {
			raws = append(raws, rawMatch{hash: f.Hash, aPos: f.Pos, bPos: bPos})
		}
	}
	if len(raws) == 0 {
		return nil
	}
	sort.SliceStable(raws, func(i, j int) bool { return raws[i].aPos < raws[j].aPos })

	ku := uint32(k)
	denom := float64(len(fpDoc) * k)
	open := func(m rawMatch) MatchSpan {
		return MatchSpan{
			DocStart:    m.aPos,
			DocEnd:      m.aPos + ku,
			SrcStart:    m.bPos,
			SrcEnd:      m.bPos + ku,
			SnippetHash: strconv.FormatUint(m.hash, 10),
		}
	}
	score := func(s MatchSpan) float64 {
		v := float64(s.DocEnd-s.DocStart) / denom
		if v > 1 {
			v = 1
		}
		return v
	}

	var spans []MatchSpan
	cur := open(raws[0])
	for _, m := range raws[1:] {
		if m.aPos <= cur.DocEnd+ku {
			cur.DocEnd = m.aPos + ku
			// Source positions are not guaranteed monotone; never let the
			// span end move left of where it started.
			if end := m.bPos + ku; end > cur.SrcEnd {
				cur.SrcEnd = end
			}
			continue
		}
		cur.Score = score(cur)
		spans = append(spans, cur)
		cur = open(m)
	}
	cur.Score = score(cur)
	spans = append(spans, cur)
	return spans
}
