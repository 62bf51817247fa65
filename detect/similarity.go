package detect

// Jaccard computes exact Jaccard similarity over the hash sets of two
// fingerprint sequences. Returns 0 if either sequence is empty.
func Jaccard(a, b []Fingerprint) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[uint64]struct{}, len(a))
	for _, f := range a {
		setA[f.Hash] = struct{}{}
	}
	setB := make(map[uint64]struct{}, len(b))
	for _, f := range b {
		setB[f.Hash] = struct{}{}
	}

	intersection := 0
	for h := range setA {
		if _, ok := setB[h]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SignatureSim estimates Jaccard similarity from two MinHash signatures as
// the fraction of matching entries over the shorter length. Returns 0 if
// either signature is empty.
func SignatureSim(a, b []uint64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	eq := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			eq++
		}
	}
	return float64(eq) / float64(n)
}
