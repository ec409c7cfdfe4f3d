package web

import (
	"os"
	"strings"

	"github.com/evcraddock/fluent-comments/internal/auth"
)

// DefaultTemplatePack is the field error layout used when none is configured.
const DefaultTemplatePack = "bootstrap"

// Config holds the web server configuration.
type Config struct {
	Auth auth.Config `yaml:",inline"`

	// SecretKey signs the security hash of comment forms.
	SecretKey string `yaml:"secret_key"`

	// TemplatePack selects <pack>/layout/field_errors.html for error rendering.
	TemplatePack string `yaml:"template_pack"`

	// TrustedOrigins may post cross-origin, e.g. https://blog.example.com.
	TrustedOrigins []string `yaml:"trusted_origins"`
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		Auth:         auth.ConfigFromEnv(),
		SecretKey:    os.Getenv("FC_SECRET_KEY"),
		TemplatePack: os.Getenv("FC_TEMPLATE_PACK"),
	}
	if cfg.TemplatePack == "" {
		cfg.TemplatePack = DefaultTemplatePack
	}
	cfg.TrustedOrigins = SplitList(os.Getenv("FC_TRUSTED_ORIGINS"))
	return cfg
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) fieldErrorsTemplate() string {
	pack := c.TemplatePack
	if pack == "" {
		pack = DefaultTemplatePack
	}
	return pack + "/layout/field_errors.html"
}
