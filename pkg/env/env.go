package env

import "os"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// Lookup distinguishes "unset" from "set to empty", which matters for
// credential overrides.
func Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
