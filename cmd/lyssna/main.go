// Command lyssna is the main entry point for the Lyssna interview assistant
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/vhallgren/lyssna/internal/archive"
	"github.com/vhallgren/lyssna/internal/assist"
	"github.com/vhallgren/lyssna/internal/banner"
	"github.com/vhallgren/lyssna/internal/config"
	"github.com/vhallgren/lyssna/internal/health"
	"github.com/vhallgren/lyssna/internal/lexicon"
	"github.com/vhallgren/lyssna/internal/observe"
	"github.com/vhallgren/lyssna/internal/resilience"
	"github.com/vhallgren/lyssna/internal/server"
	"github.com/vhallgren/lyssna/internal/session"
	"github.com/vhallgren/lyssna/internal/silence"
	"github.com/vhallgren/lyssna/internal/transcript"
	"github.com/vhallgren/lyssna/pkg/audio"
	"github.com/vhallgren/lyssna/pkg/provider/llm"
	"github.com/vhallgren/lyssna/pkg/provider/llm/anyllm"
	llmopenai "github.com/vhallgren/lyssna/pkg/provider/llm/openai"
	"github.com/vhallgren/lyssna/pkg/provider/stt"
	"github.com/vhallgren/lyssna/pkg/provider/stt/deepgram"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lyssna: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lyssna: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("lyssna starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "lyssna",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	sttProvider, llmProvider, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Archive store ─────────────────────────────────────────────────────────
	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open archive store", "err", err)
		return 1
	}
	defer closeStore()

	// ── Assistant ─────────────────────────────────────────────────────────────
	var assistant *assist.Assistant
	if llmProvider != nil {
		assistant = assist.New(llmProvider, logger)
	}

	// ── Session controller ────────────────────────────────────────────────────
	ctrl, err := session.New(buildSessionConfig(cfg, sttProvider, store, assistant, logger))
	if err != nil {
		slog.Error("failed to build session controller", "err", err)
		return 1
	}

	// ── Config watcher: hot-reload safe settings ──────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.InterviewChanged {
			slog.Warn("interview settings changed; new values apply to the next recording start")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── HTTP server ───────────────────────────────────────────────────────────
	srvCfg := server.Config{
		Controller: ctrl,
		Store:      store,
		Assistant:  assistant,
		Health:     buildHealth(store),
		Logger:     logger,
		ListenAddr: cfg.Server.ListenAddr,
	}
	if cfg.Server.TLS != nil {
		srvCfg.TLSCertFile = cfg.Server.TLS.CertFile
		srvCfg.TLSKeyFile = cfg.Server.TLS.KeyFile
	}
	srv, err := server.New(srvCfg)
	if err != nil {
		slog.Error("failed to build server", "err", err)
		return 1
	}

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// A session left recording at shutdown is stopped and archived.
	if st := ctrl.Snapshot().State; st == session.StateRecording || st == session.StatePaused {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := ctrl.Stop(stopCtx); err != nil {
			slog.Warn("stop session on shutdown", "err", err)
		}
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	// ── LLM ───────────────────────────────────────────────────────────────────

	// openai uses the native client; the summarize and analyze prompts were
	// tuned against its chat completion endpoint.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(entry.BaseURL))
		}
		return llmopenai.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining providers all share the any-llm pattern: optional APIKey
	// plus optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})
}

// buildProviders instantiates the providers named in cfg using the registry.
// Both providers are wrapped in circuit breakers so a flapping backend fails
// fast instead of stalling every request.
func buildProviders(cfg *config.Config, reg *config.Registry) (stt.Provider, llm.Provider, error) {
	p, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		return nil, nil, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	sttProvider := resilience.NewSTTFallback(p, cfg.Providers.STT.Name, resilience.FallbackConfig{})
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	var llmProvider llm.Provider
	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		llmProvider = resilience.NewLLMFallback(p, name, resilience.FallbackConfig{})
		slog.Info("provider created", "kind", "llm", "name", name)
	}

	return sttProvider, llmProvider, nil
}

// buildStore opens the configured archive store: PostgreSQL when a DSN is
// set, the JSON file store when a path is set, a throwaway temp file
// otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (archive.Store, func(), error) {
	if dsn := cfg.Archive.PostgresDSN; dsn != "" {
		store, err := archive.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("archive store ready", "backend", "postgres")
		return store, store.Close, nil
	}

	path := cfg.Archive.Path
	if path == "" {
		f, err := os.CreateTemp("", "lyssna-interviews-*.json")
		if err != nil {
			return nil, nil, err
		}
		path = f.Name()
		f.Close()
		slog.Warn("no archive configured; interviews stored in a temporary file", "path", path)
	}
	store, err := archive.NewFileStore(path, cfg.Archive.Collection, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	slog.Info("archive store ready", "backend", "file", "path", path)
	return store, func() {}, nil
}

// buildSessionConfig assembles the session controller configuration from the
// loaded YAML config.
func buildSessionConfig(cfg *config.Config, sttProvider stt.Provider, store archive.Store, assistant *assist.Assistant, logger *slog.Logger) session.Config {
	sc := session.Config{
		STT:       sttProvider,
		Store:     store,
		Assistant: assistant,
		Logger:    logger,
		Language:  session.Language(cfg.Interview.Language),
		Mode:      session.Mode(cfg.Interview.Mode),
	}

	if cfg.Interview.CorrectTerms {
		sc.Corrector = transcript.NewCorrector(lexicon.Vocabulary())
	}
	if s := cfg.Interview.SilenceThresholdSeconds; s > 0 {
		sc.SilenceOptions = []silence.Option{silence.WithThreshold(time.Duration(s) * time.Second)}
	}
	if s := cfg.Interview.BannerDurationSeconds; s > 0 {
		sc.BannerOptions = []banner.Option{banner.WithDuration(time.Duration(s) * time.Second)}
	}
	if dir := cfg.Interview.AudioDir; dir != "" {
		sc.NewRecorder = func(interviewID string) (audio.Recorder, error) {
			return audio.NewWAVRecorder(dir, interviewID+".wav", 16000, 1)
		}
	}

	return sc
}

// buildHealth wires readiness checks for the archive store.
func buildHealth(store archive.Store) *health.Handler {
	return health.New(health.Checker{
		Name: "archive",
		Check: func(ctx context.Context) error {
			_, err := store.List(ctx)
			return err
		},
	})
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Lyssna — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	fmt.Printf("║  Language        : %-19s ║\n", orDefault(string(cfg.Interview.Language), "en"))
	fmt.Printf("║  Mode            : %-19s ║\n", orDefault(string(cfg.Interview.Mode), "hardcoded"))
	if cfg.Archive.PostgresDSN != "" {
		fmt.Printf("║  Archive         : %-19s ║\n", "postgres")
	} else if cfg.Archive.Path != "" {
		fmt.Printf("║  Archive         : %-19s ║\n", "file")
	} else {
		fmt.Printf("║  Archive         : %-19s ║\n", "(temporary)")
	}
	if cfg.Interview.AudioDir != "" {
		fmt.Printf("║  Audio capture   : %-19s ║\n", "enabled")
	} else {
		fmt.Printf("║  Audio capture   : %-19s ║\n", "(disabled)")
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
