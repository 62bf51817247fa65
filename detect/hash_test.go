package detect

import (
	"math/big"
	"testing"
)

func TestHash64_KnownVectors(t *testing.T) {
	// First 8 bytes of the SHA-1 digests of "abc" and "".
	if got := Hash64("abc"); got != 0xa9993e364706816a {
		t.Fatalf("Hash64(abc) = %#x", got)
	}
	if got := Hash64(""); got != 0xda39a3ee5e6b4b0d {
		t.Fatalf("Hash64(\"\") = %#x", got)
	}
}

func TestHash64_Deterministic(t *testing.T) {
	if Hash64("winnow") != Hash64("winnow") {
		t.Fatal("Hash64 not stable across calls")
	}
	if Hash64("winnow") == Hash64("winnoW") {
		t.Fatal("distinct inputs collided on trivial case")
	}
}

func TestHashMod61_Range(t *testing.T) {
	if got := HashMod61(MersennePrime61); got != 0 {
		t.Fatalf("P mod P = %d", got)
	}
	if got := HashMod61(MersennePrime61 - 1); got != MersennePrime61-1 {
		t.Fatalf("got %d", got)
	}
	if got := HashMod61(^uint64(0)); got >= MersennePrime61 {
		t.Fatalf("out of range: %d", got)
	}
}

func TestMulAddMod61_MatchesBigInt(t *testing.T) {
	p := new(big.Int).SetUint64(MersennePrime61)
	as := []uint64{1, 2, 100, 7919, 99999, 100000}
	xs := []uint64{0, 1, 2, 61, 1 << 32, MersennePrime61 - 2, MersennePrime61 - 1}
	bs := []uint64{0, 1, 104729, 100000}
	for _, a := range as {
		for _, x := range xs {
			for _, b := range bs {
				got := mulAddMod61(a, x, b)
				want := new(big.Int).SetUint64(a)
				want.Mul(want, new(big.Int).SetUint64(x))
				want.Add(want, new(big.Int).SetUint64(b))
				want.Mod(want, p)
				if got != want.Uint64() {
					t.Fatalf("(%d*%d+%d) mod P: got %d want %d", a, x, b, got, want.Uint64())
				}
			}
		}
	}
}
