package env

import (
	"os"
	"testing"
)

func TestGet_WithValue(t *testing.T) {
	const k = "ENV_TEST_KEY"
	os.Setenv(k, "v")
	defer os.Unsetenv(k)
	if got := Get(k, "d"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}

func TestGet_Default(t *testing.T) {
	const k = "ENV_TEST_KEY_MISSING"
	os.Unsetenv(k)
	if got := Get(k, "d"); got != "d" {
		t.Fatalf("expected default d, got %q", got)
	}
}

func TestGetInt_WithValue(t *testing.T) {
	const k = "ENV_TEST_INT"
	os.Setenv(k, "42")
	defer os.Unsetenv(k)
	if got := GetInt(k, 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestGetInt_BadValueFallsBack(t *testing.T) {
	const k = "ENV_TEST_INT_BAD"
	os.Setenv(k, "not-a-number")
	defer os.Unsetenv(k)
	if got := GetInt(k, 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}
