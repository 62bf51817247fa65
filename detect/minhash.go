package detect

import "math"

const (
	// DefaultNumPerm is the signature length used by the check pipeline.
	DefaultNumPerm = 100

	// DefaultBands is the LSH band count used by the check pipeline.
	DefaultBands = 20
)

// KGramHashSet builds the set of distinct k-gram hashes of text, reduced into
// the MinHash domain [0, P).
func KGramHashSet(text string, k int) map[uint64]struct{} {
	grams := KGrams(text, k)
	set := make(map[uint64]struct{}, len(grams))
	for _, g := range grams {
		set[HashMod61(Hash64(g.Gram))] = struct{}{}
	}
	return set
}

// Signature computes the MinHash signature of text: a vector of exactly
// numPerm residues in [0, P). The permutation family is fixed,
//
//	a_i = 1 + (i*7919) mod 100000
//	b_i = 1 + (i*104729) mod 100000
//	sig[i] = min over x in S of (a_i*x + b_i) mod P
//
// and is part of the wire contract: independent implementations must produce
// colliding signatures. An input with no k-grams yields a vector of numPerm
// sentinels, each equal to P.
func Signature(text string, k, numPerm int) []uint64 {
	return signatureFromSet(KGramHashSet(text, k), numPerm)
}

func signatureFromSet(set map[uint64]struct{}, numPerm int) []uint64 {
	if numPerm < 1 {
		return nil
	}
	sig := make([]uint64, numPerm)
	if len(set) == 0 {
		for i := range sig {
			sig[i] = MersennePrime61
		}
		return sig
	}
	for i := 0; i < numPerm; i++ {
		a := uint64(1 + (i*7919)%100000)
		b := uint64(1 + (i*104729)%100000)
		min := uint64(math.MaxUint64)
		for x := range set {
			if v := mulAddMod61(a, x, b); v < min {
				min = v
			}
		}
		sig[i] = min
	}
	return sig
}
