// Package auth resolves the identity of the caller behind a request.
// Login flows belong to the host site; this package only reads the
// sessions and API keys it leaves behind.
package auth

import "os"

// Config holds identity configuration.
type Config struct {
	DevMode       bool   `yaml:"dev_mode"`
	SecureCookies bool   `yaml:"secure_cookies"`
	BaseURL       string `yaml:"base_url"` // e.g. http://localhost:8080
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		DevMode:       os.Getenv("FC_DEV_MODE") == "true",
		SecureCookies: os.Getenv("FC_SECURE_COOKIES") == "true",
		BaseURL:       envOrDefault("FC_BASE_URL", "http://localhost:8080"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
