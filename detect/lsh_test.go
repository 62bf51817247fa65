package detect

import (
	"math/rand"
	"strings"
	"testing"
)

func TestBuckets_CountAndFormat(t *testing.T) {
	sig := Signature("banded hashing of a minhash signature", 4, 100)
	keys := Buckets(sig, 20)
	if len(keys) != 20 {
		t.Fatalf("expected 20 keys, got %d", len(keys))
	}
	for i, key := range keys {
		parts := strings.SplitN(key, ":", 2)
		if len(parts) != 2 {
			t.Fatalf("key %d malformed: %q", i, key)
		}
		if len(parts[1]) != 40 {
			t.Fatalf("key %d: expected 40 hex chars, got %d (%q)", i, len(parts[1]), parts[1])
		}
	}
}

func TestBuckets_DropsRemainder(t *testing.T) {
	// 10 entries over 3 bands: r=3, trailing entry never contributes.
	sig := make([]uint64, 10)
	for i := range sig {
		sig[i] = uint64(i)
	}
	keys := Buckets(sig, 3)
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}
	tweaked := append([]uint64(nil), sig...)
	tweaked[9] = 999
	other := Buckets(tweaked, 3)
	for i := range keys {
		if keys[i] != other[i] {
			t.Fatalf("remainder entry affected band %d", i)
		}
	}
}

func TestBuckets_ZeroRows(t *testing.T) {
	if got := Buckets(nil, 20); got != nil {
		t.Fatalf("expected nil for empty signature, got %v", got)
	}
	if got := Buckets(make([]uint64, 5), 20); got != nil {
		t.Fatalf("expected nil when r == 0, got %v", got)
	}
}

func TestBuckets_EqualSignaturesCollide(t *testing.T) {
	a := Buckets(Signature("identical input text", 4, 100), 20)
	b := Buckets(Signature("identical input text", 4, 100), 20)
	if !SharesBucket(a, b) {
		t.Fatal("identical signatures share no bucket")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("band %d keys differ", i)
		}
	}
}

func TestSharesBucket_Empty(t *testing.T) {
	if SharesBucket(nil, []string{"0:x"}) {
		t.Fatal("nil keys should never collide")
	}
}

// With numPerm=100, bands=20 (r=5) and true Jaccard >= 0.8, the probability
// of sharing at least one bucket is 1-(1-0.8^5)^20 > 0.999. A Monte-Carlo
// sample of high-similarity pairs must land at or above 0.99 recall.
func TestBuckets_RecallAboveThreshold(t *testing.T) {
	const (
		numPerm = 100
		bands   = 20
		trials  = 200
	)
	rng := rand.New(rand.NewSource(7))

	hits := 0
	sampled := 0
	for trial := 0; trial < trials; trial++ {
		base := randomSet(rng, 300)
		// Remove a small slice of elements from each side: Jaccard stays
		// around 0.91-0.97.
		a := make(map[uint64]struct{}, len(base))
		b := make(map[uint64]struct{}, len(base))
		i := 0
		dropA := 5 + rng.Intn(10)
		dropB := 5 + rng.Intn(10)
		for x := range base {
			if i >= dropA {
				a[x] = struct{}{}
			}
			if i < len(base)-dropB {
				b[x] = struct{}{}
			}
			i++
		}
		if jaccardSets(a, b) < 0.8 {
			continue
		}
		sampled++
		sigA := signatureFromSet(a, numPerm)
		sigB := signatureFromSet(b, numPerm)
		if SharesBucket(Buckets(sigA, bands), Buckets(sigB, bands)) {
			hits++
		}
	}

	if sampled < trials/2 {
		t.Fatalf("too few qualifying pairs sampled: %d", sampled)
	}
	recall := float64(hits) / float64(sampled)
	if recall < 0.99 {
		t.Fatalf("recall %f below 0.99 (%d/%d)", recall, hits, sampled)
	}
}
