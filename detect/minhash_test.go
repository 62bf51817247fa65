package detect

import (
	"math"
	"math/rand"
	"testing"
)

func TestSignature_FixedLength(t *testing.T) {
	for _, n := range []int{1, 10, 100, 128} {
		for _, text := range []string{"", "ab", "the quick brown fox"} {
			sig := Signature(text, 3, n)
			if len(sig) != n {
				t.Fatalf("numPerm=%d text=%q: length %d", n, text, len(sig))
			}
		}
	}
}

func TestSignature_EmptyInputSentinel(t *testing.T) {
	sig := Signature("ab", 3, 50) // shorter than k: no k-grams
	for i, v := range sig {
		if v != MersennePrime61 {
			t.Fatalf("entry %d: expected sentinel %d, got %d", i, MersennePrime61, v)
		}
	}
}

func TestSignature_Range(t *testing.T) {
	sig := Signature("minhash signatures live in the field", 4, 100)
	for i, v := range sig {
		if v >= MersennePrime61 {
			t.Fatalf("entry %d out of [0, P): %d", i, v)
		}
	}
}

func TestSignature_Deterministic(t *testing.T) {
	a := Signature("determinism is part of the contract", 4, 100)
	b := Signature("determinism is part of the contract", 4, 100)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("entry %d differs across runs", i)
		}
	}
}

func TestSignatureSim_SelfIsOne(t *testing.T) {
	sig := Signature("any text with at least one k-gram", 5, 100)
	if got := SignatureSim(sig, sig); got != 1 {
		t.Fatalf("self similarity = %f", got)
	}
}

// randomSet draws n distinct residues in [0, P).
func randomSet(rng *rand.Rand, n int) map[uint64]struct{} {
	set := make(map[uint64]struct{}, n)
	for len(set) < n {
		set[rng.Uint64()%MersennePrime61] = struct{}{}
	}
	return set
}

func jaccardSets(a, b map[uint64]struct{}) float64 {
	intersection := 0
	for x := range a {
		if _, ok := b[x]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// The MinHash estimate should track exact Jaccard with expected error on the
// order of 1/sqrt(numPerm). With numPerm=100 that is 0.1; the observed mean
// absolute error over many random pairs sits well below it.
func TestSignatureSim_TracksJaccard(t *testing.T) {
	const (
		numPerm = 100
		trials  = 100
	)
	rng := rand.New(rand.NewSource(1))

	var totalErr float64
	for trial := 0; trial < trials; trial++ {
		base := randomSet(rng, 150+rng.Intn(100))
		shared := rng.Intn(len(base) + 1)

		a := make(map[uint64]struct{}, len(base))
		b := make(map[uint64]struct{}, len(base))
		i := 0
		for x := range base {
			a[x] = struct{}{}
			if i < shared {
				b[x] = struct{}{}
			}
			i++
		}
		for x := range randomSet(rng, 50) {
			b[x] = struct{}{}
		}

		exact := jaccardSets(a, b)
		est := SignatureSim(signatureFromSet(a, numPerm), signatureFromSet(b, numPerm))
		diff := math.Abs(est - exact)
		if diff > 0.35 {
			t.Fatalf("trial %d: |estimate-jaccard| = %f (est %f, exact %f)", trial, diff, est, exact)
		}
		totalErr += diff
	}

	mean := totalErr / trials
	if mean > 1/math.Sqrt(numPerm)+0.03 {
		t.Fatalf("mean absolute error %f exceeds expected bound", mean)
	}
}
