package env

import (
	"os"
	"strconv"
)

// Get returns the value of the environment variable key, or def when unset or
// empty.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetInt returns the integer value of the environment variable key, or def
// when unset or unparsable.
func GetInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
