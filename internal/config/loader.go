package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq"},
	"stt": {"deepgram", "whisper"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)

	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required; interviews cannot be transcribed without speech recognition"))
	}

	// Interview
	if cfg.Interview.Language != "" && !cfg.Interview.Language.IsValid() {
		errs = append(errs, fmt.Errorf("interview.language %q is invalid; valid values: en, sv", cfg.Interview.Language))
	}
	if cfg.Interview.Mode != "" && !cfg.Interview.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("interview.mode %q is invalid; valid values: hardcoded, ai", cfg.Interview.Mode))
	}
	if cfg.Interview.SilenceThresholdSeconds < 0 {
		errs = append(errs, fmt.Errorf("interview.silence_threshold_seconds %d must not be negative", cfg.Interview.SilenceThresholdSeconds))
	}
	if cfg.Interview.BannerDurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("interview.banner_duration_seconds %d must not be negative", cfg.Interview.BannerDurationSeconds))
	}

	// Mode ↔ provider cross-validation
	if cfg.Interview.Mode == ModeAI && cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("interview.mode \"ai\" requires an LLM provider but providers.llm is not configured"))
	}
	if cfg.Interview.Mode != ModeAI && cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; interview summaries and ai mode will not be available")
	}

	// Archive availability
	if cfg.Archive.Path == "" && cfg.Archive.PostgresDSN == "" {
		slog.Warn("archive.path and archive.postgres_dsn are both empty; finished interviews will not be persisted")
	}

	// Audio capture
	if cfg.Interview.AudioDir == "" {
		slog.Warn("interview.audio_dir is empty; interviews will be archived without audio recordings")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
