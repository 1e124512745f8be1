package config_test

import (
	"testing"

	"github.com/vhallgren/lyssna/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Interview: config.InterviewConfig{
			Language:                config.LangEnglish,
			Mode:                    config.ModeHardcoded,
			SilenceThresholdSeconds: 8,
			BannerDurationSeconds:   30,
			CorrectTerms:            true,
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	d := config.Diff(baseConfig(), baseConfig())
	if d.LogLevelChanged || d.InterviewChanged {
		t.Errorf("identical configs produced diff %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()

	newCfg := baseConfig()
	newCfg.Server.LogLevel = config.LogDebug

	d := config.Diff(baseConfig(), newCfg)
	if !d.LogLevelChanged {
		t.Fatal("log level change not detected")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.InterviewChanged {
		t.Error("interview flagged as changed")
	}
}

func TestDiff_InterviewTuning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		check  func(config.ConfigDiff) bool
	}{
		{
			name:   "silence threshold",
			mutate: func(c *config.Config) { c.Interview.SilenceThresholdSeconds = 12 },
			check:  func(d config.ConfigDiff) bool { return d.SilenceThresholdChanged },
		},
		{
			name:   "banner duration",
			mutate: func(c *config.Config) { c.Interview.BannerDurationSeconds = 45 },
			check:  func(d config.ConfigDiff) bool { return d.BannerDurationChanged },
		},
		{
			name:   "correct terms",
			mutate: func(c *config.Config) { c.Interview.CorrectTerms = false },
			check:  func(d config.ConfigDiff) bool { return d.CorrectTermsChanged },
		},
		{
			name:   "language",
			mutate: func(c *config.Config) { c.Interview.Language = config.LangSwedish },
			check:  func(d config.ConfigDiff) bool { return d.LanguageChanged },
		},
		{
			name:   "mode",
			mutate: func(c *config.Config) { c.Interview.Mode = config.ModeAI },
			check:  func(d config.ConfigDiff) bool { return d.ModeChanged },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			newCfg := baseConfig()
			tt.mutate(newCfg)
			d := config.Diff(baseConfig(), newCfg)
			if !tt.check(d) {
				t.Errorf("change not detected: %+v", d)
			}
			if !d.InterviewChanged {
				t.Error("InterviewChanged not set")
			}
		})
	}
}
