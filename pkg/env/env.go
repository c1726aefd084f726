// Package env reads raw environment variables for the few knobs that must be
// resolved before the typed config is loaded.
package env

import "os"

// Get returns the named environment variable, or fallback when unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
