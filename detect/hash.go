package detect

import (
	"crypto/sha1"
	"encoding/binary"
	"math/bits"
)

// MersennePrime61 is the modulus P = 2^61 - 1 of the MinHash permutation
// family. Signatures of empty inputs are filled with P as a sentinel.
const MersennePrime61 uint64 = (1 << 61) - 1

// Hash64 maps a string to the first 8 bytes of its SHA-1 digest, interpreted
// as a big-endian unsigned integer. SHA-1 is part of the wire contract (LSH
// bucket keys embed its hex output), so the choice is fixed: stability across
// runs and machines matters more than raw speed here.
func Hash64(s string) uint64 {
	sum := sha1.Sum([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

// HashMod61 reduces a 64-bit hash to a residue in [0, P). Used only to feed
// the MinHash permutation family.
func HashMod61(x uint64) uint64 {
	return x % MersennePrime61
}

// mulAddMod61 computes (a*x + b) mod P without overflow via a 128-bit
// intermediate product. Requires a < 2^17 and b < P, which the fixed MinHash
// coefficient family guarantees.
func mulAddMod61(a, x, b uint64) uint64 {
	hi, lo := bits.Mul64(a, x)
	// 2^64 == 8 (mod 2^61-1), so hi*2^64 + lo folds to hi*8 + lo.
	r := (lo & MersennePrime61) + (lo >> 61) + hi<<3
	if r >= MersennePrime61 {
		r -= MersennePrime61
	}
	r += b
	if r >= MersennePrime61 {
		r -= MersennePrime61
	}
	return r
}
