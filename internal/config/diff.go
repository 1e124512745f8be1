package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// InterviewChanged is true when any of the interview tuning knobs below
	// differ. Provider and archive changes require a restart and are not
	// tracked here.
	InterviewChanged        bool
	SilenceThresholdChanged bool
	BannerDurationChanged   bool
	CorrectTermsChanged     bool
	LanguageChanged         bool
	ModeChanged             bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Interview tuning
	if old.Interview.SilenceThresholdSeconds != new.Interview.SilenceThresholdSeconds {
		d.SilenceThresholdChanged = true
	}
	if old.Interview.BannerDurationSeconds != new.Interview.BannerDurationSeconds {
		d.BannerDurationChanged = true
	}
	if old.Interview.CorrectTerms != new.Interview.CorrectTerms {
		d.CorrectTermsChanged = true
	}
	if old.Interview.Language != new.Interview.Language {
		d.LanguageChanged = true
	}
	if old.Interview.Mode != new.Interview.Mode {
		d.ModeChanged = true
	}
	d.InterviewChanged = d.SilenceThresholdChanged || d.BannerDurationChanged ||
		d.CorrectTermsChanged || d.LanguageChanged || d.ModeChanged

	return d
}
