package detect

import "testing"

func TestNormalize_CasePunctuationWhitespace(t *testing.T) {
	got := Normalize("Hello,   World!\r\nFoo\t--\tBar42")
	want := "hello world foo bar42"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalize_TrimsEdges(t *testing.T) {
	if got := Normalize("  ...leading and trailing!!!  "); got != "leading and trailing" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"Mixed CASE, with; punct.",
		"tabs\tand\nnewlines\r\nand   runs",
		"digits 123 stay 456",
		"ünïcödé Tëxt — ok",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_KeepsUnicodeLettersAndDigits(t *testing.T) {
	if got := Normalize("Caffè№1"); got != "caffè 1" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_EmptyAndSeparatorOnly(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("empty input: got %q", got)
	}
	if got := Normalize(" \t\r\n.,;!"); got != "" {
		t.Fatalf("separator-only input: got %q", got)
	}
}
