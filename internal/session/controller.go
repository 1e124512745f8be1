// Package session orchestrates one interview: it consumes speech
// recognition events, maintains the transcript, drives suggestions and the
// banner, and archives the finished interview.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vhallgren/lyssna/internal/archive"
	"github.com/vhallgren/lyssna/internal/assist"
	"github.com/vhallgren/lyssna/internal/banner"
	"github.com/vhallgren/lyssna/internal/lexicon"
	"github.com/vhallgren/lyssna/internal/observe"
	"github.com/vhallgren/lyssna/internal/silence"
	"github.com/vhallgren/lyssna/internal/suggest"
	"github.com/vhallgren/lyssna/internal/transcript"
	"github.com/vhallgren/lyssna/pkg/audio"
	"github.com/vhallgren/lyssna/pkg/provider/stt"
)

// State names one phase of the recording lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Mode selects how suggestions are produced.
type Mode string

const (
	// ModeHardcoded runs purely offline lexicon matching.
	ModeHardcoded Mode = "hardcoded"
	// ModeAI defers to the LLM via explicit analyze requests and disables
	// local matching and silence-triggered suggestions.
	ModeAI Mode = "ai"
)

// Language is the interview language selector.
type Language string

const (
	LangEnglish Language = "en"
	LangSwedish Language = "sv"
)

// localeTag maps a language selector to the locale passed to the speech
// recognition provider.
func localeTag(lang Language) string {
	if lang == LangSwedish {
		return "sv-SE"
	}
	return "en-US"
}

var (
	// ErrInvalidTransition is returned when an operation is not valid from
	// the current recording state.
	ErrInvalidTransition = errors.New("session: invalid state transition")
	// ErrAnalysisInProgress is returned when analyze-now is requested while
	// a previous request is still outstanding.
	ErrAnalysisInProgress = errors.New("session: analysis already in progress")
)

// Canned strings for system and assistant entries.
const (
	msgRecordingStarted = "Recording started"
	msgRecordingPaused  = "Recording paused"
	msgRecordingResumed = "Recording resumed"
	msgRecordingStopped = "Recording stopped"
	msgSilenceDetected  = "Silence detected"
)

// silenceQuestions are the fixed follow-ups surfaced after a quiet stretch.
var silenceQuestions = []string{
	"Could you elaborate a little more around that?",
	"Can you walk me through an example?",
}

// keywordBoost is applied to every single-word lexicon term when opening a
// recognition stream, nudging the engine toward the domain vocabulary.
const keywordBoost = 3

// Config assembles the controller's collaborators. STT and Store are
// required; the rest are optional.
type Config struct {
	STT   stt.Provider
	Store archive.Store

	// NewRecorder creates the audio recorder for an interview. Nil disables
	// audio capture; the archived record then has no audio reference.
	NewRecorder func(interviewID string) (audio.Recorder, error)

	// Assistant handles analyze-now and is required only for ModeAI.
	Assistant *assist.Assistant

	// Corrector optionally repairs near-miss vocabulary words in finals
	// before matching.
	Corrector *transcript.Corrector

	Metrics *observe.Metrics
	Logger  *slog.Logger

	Language Language
	Mode     Mode

	// SampleRate for the recognition stream and recorder. Default 16000.
	SampleRate int

	// SilenceOptions and BannerOptions tune the owned timers. Tests use
	// them to inject fake clocks and short intervals.
	SilenceOptions []silence.Option
	BannerOptions  []banner.Option
}

// Controller is the session state machine. It is the single writer of the
// transcript log; recognition callbacks, silence firings and user actions
// all funnel through it. Safe for concurrent use.
type Controller struct {
	sttProvider stt.Provider
	store       archive.Store
	newRecorder func(string) (audio.Recorder, error)
	assistant   *assist.Assistant
	corrector   *transcript.Corrector
	metrics     *observe.Metrics
	logger      *slog.Logger
	sampleRate  int

	log     *transcript.Log
	banner  *banner.Controller
	silence *silence.Monitor

	mu            sync.Mutex
	state         State
	language      Language
	mode          Mode
	contextText   string
	liveCaption   string
	languageAlert bool
	isAnalyzing   bool
	interviewID   string
	startedAt     time.Time
	recorder      audio.Recorder

	// gen identifies the current recognition stream. Events tagged with a
	// stale generation are discarded, so a stream torn down by a language
	// switch cannot write into its successor's session.
	gen     uint64
	session stt.SessionHandle
}

// New constructs an idle controller.
func New(cfg Config) (*Controller, error) {
	if cfg.STT == nil {
		return nil, fmt.Errorf("session: STT provider is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: archive store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Language == "" {
		cfg.Language = LangEnglish
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHardcoded
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}

	c := &Controller{
		sttProvider: cfg.STT,
		store:       cfg.Store,
		newRecorder: cfg.NewRecorder,
		assistant:   cfg.Assistant,
		corrector:   cfg.Corrector,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		sampleRate:  cfg.SampleRate,
		log:         transcript.NewLog(),
		state:       StateIdle,
		language:    cfg.Language,
		mode:        cfg.Mode,
	}
	c.banner = banner.New(cfg.BannerOptions...)
	c.silence = silence.New(c.handleSilence, cfg.SilenceOptions...)
	return c, nil
}

// Start begins a new recording session. Valid from idle or stopped. The
// transcript is cleared, a language-tuned recognition stream is opened, the
// recorder is started, and the silence monitor is armed when applicable.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StateIdle && c.state != StateStopped {
		c.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, c.state)
	}

	id, err := gonanoid.New()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("session: generate interview id: %w", err)
	}

	sess, err := c.openStreamLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("session: start recognition: %w", err)
	}

	var rec audio.Recorder
	if c.newRecorder != nil {
		rec, err = c.newRecorder(id)
		if err != nil {
			// Capture device failure: recording does not start and the
			// transcript stays untouched.
			sess.Close()
			c.mu.Unlock()
			c.logger.Error("audio capture unavailable", "error", err)
			return fmt.Errorf("session: start audio capture: %w", err)
		}
	}

	c.log.Clear()
	c.liveCaption = ""
	c.interviewID = id
	c.startedAt = time.Now()
	c.recorder = rec
	c.state = StateRecording
	c.session = sess

	c.appendLocked(transcript.Entry{Text: msgRecordingStarted, Speaker: transcript.SpeakerSystem})
	arm := c.suggestionsActiveLocked()
	lang, mode := c.language, c.mode
	c.mu.Unlock()

	// The monitor is armed outside the controller mutex: its Disarm waits
	// for in-flight firings, and those need the mutex.
	if arm {
		c.silence.Arm(context.Background())
	}
	c.metrics.ActiveSessions.Add(ctx, 1)
	c.logger.Info("recording started",
		"interviewID", id,
		"language", lang,
		"mode", mode,
	)
	return nil
}

// Pause suspends speech recognition while keeping the transcript and the
// audio capture buffer. Valid from recording.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, c.state)
	}
	c.closeStreamLocked()
	c.state = StatePaused
	c.liveCaption = ""
	c.appendLocked(transcript.Entry{Text: msgRecordingPaused, Speaker: transcript.SpeakerSystem})
	return nil
}

// Resume restarts speech recognition after a pause.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, c.state)
	}
	sess, err := c.openStreamLocked(ctx)
	if err != nil {
		return fmt.Errorf("session: resume recognition: %w", err)
	}
	c.session = sess
	c.state = StateRecording
	c.appendLocked(transcript.Entry{Text: msgRecordingResumed, Speaker: transcript.SpeakerSystem})
	return nil
}

// Stop ends the session, archives the interview and returns the stored
// record. Valid from recording or paused. A second stop without a new start
// returns ErrInvalidTransition and creates no duplicate record. A failed
// save still leaves the session stopped; the in-memory transcript remains
// available.
func (c *Controller) Stop(ctx context.Context) (archive.Interview, error) {
	c.mu.Lock()

	if c.state != StateRecording && c.state != StatePaused {
		c.mu.Unlock()
		return archive.Interview{}, fmt.Errorf("%w: stop from %s", ErrInvalidTransition, c.state)
	}

	c.closeStreamLocked()
	c.banner.Dismiss()
	c.liveCaption = ""
	c.appendLocked(transcript.Entry{Text: msgRecordingStopped, Speaker: transcript.SpeakerSystem})

	var audioRef string
	if c.recorder != nil {
		ref, err := c.recorder.Stop()
		if err != nil {
			c.logger.Error("finalize recording failed", "error", err)
		} else {
			audioRef = ref.Path
		}
		c.recorder = nil
	}

	iv := archive.Interview{
		ID:         c.interviewID,
		Date:       c.startedAt.Format(time.RFC3339),
		Context:    c.contextText,
		Mode:       string(c.mode),
		Transcript: c.log.Entries(),
		AudioRef:   audioRef,
	}

	c.state = StateStopped
	c.mu.Unlock()

	// Disarm after the state flip and outside the mutex: a firing that
	// already passed the monitor's gate sees the stopped state and bails.
	c.silence.Disarm()
	c.metrics.ActiveSessions.Add(ctx, -1)

	if err := c.store.Save(ctx, iv); err != nil {
		c.metrics.RecordArchiveOp(ctx, "save", "error")
		c.logger.Error("archive interview failed", "interviewID", iv.ID, "error", err)
		return iv, fmt.Errorf("session: archive interview: %w", err)
	}
	c.metrics.RecordArchiveOp(ctx, "save", "ok")
	c.logger.Info("recording stopped",
		"interviewID", iv.ID,
		"entries", len(iv.Transcript),
	)
	return iv, nil
}

// SetLanguage switches the interview language. While recording, the
// recognition stream is torn down and recreated with the new locale;
// transcript continuity is preserved and in-flight results from the old
// stream are discarded. The returned alert is true when Swedish is selected
// in hardcoded mode, since offline suggestions only cover English.
func (c *Controller) SetLanguage(ctx context.Context, lang Language) (alert bool, err error) {
	if lang != LangEnglish && lang != LangSwedish {
		return false, fmt.Errorf("session: unknown language %q", lang)
	}

	c.mu.Lock()

	c.language = lang
	c.languageAlert = lang == LangSwedish && c.mode == ModeHardcoded
	alertNow := c.languageAlert

	recording := c.state == StateRecording
	if recording {
		c.closeStreamLocked()
		sess, serr := c.openStreamLocked(ctx)
		if serr != nil {
			c.mu.Unlock()
			return alertNow, fmt.Errorf("session: restart recognition: %w", serr)
		}
		c.session = sess
	}
	arm := recording && c.suggestionsActiveLocked()
	c.mu.Unlock()

	if recording {
		if arm {
			c.silence.Arm(context.Background())
		} else {
			c.silence.Disarm()
		}
	}
	return alertNow, nil
}

// SetMode switches between hardcoded and ai assistance. Only valid outside
// an active recording.
func (c *Controller) SetMode(mode Mode) error {
	if mode != ModeHardcoded && mode != ModeAI {
		return fmt.Errorf("session: unknown mode %q", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRecording || c.state == StatePaused {
		return fmt.Errorf("%w: mode change while %s", ErrInvalidTransition, c.state)
	}
	c.mode = mode
	c.languageAlert = c.language == LangSwedish && mode == ModeHardcoded
	return nil
}

// SetContext records the interview background text included in LLM prompts
// and archived with the interview.
func (c *Controller) SetContext(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contextText = text
}

// AnalyzeNow sends the context and transcript to the LLM and surfaces its
// response as an assistant entry and a single-item banner suggestion. Only
// valid in ai mode while recording; duplicate requests while one is
// outstanding are rejected.
func (c *Controller) AnalyzeNow(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.mode != ModeAI {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: analyze-now requires ai mode", ErrInvalidTransition)
	}
	if c.state != StateRecording {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: analyze from %s", ErrInvalidTransition, c.state)
	}
	if c.isAnalyzing {
		c.mu.Unlock()
		return "", ErrAnalysisInProgress
	}
	if c.assistant == nil {
		c.mu.Unlock()
		return "", fmt.Errorf("session: no LLM assistant configured")
	}
	c.isAnalyzing = true
	contextText := c.contextText
	entries := c.log.Entries()
	c.mu.Unlock()

	start := time.Now()
	text, err := c.assistant.Analyze(ctx, contextText, entries)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.isAnalyzing = false

	if err != nil {
		c.metrics.RecordLLMRequest(ctx, "analyze", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("session: analyze: %w", err)
	}
	c.metrics.RecordLLMRequest(ctx, "analyze", "ok", time.Since(start).Seconds())

	// The session may have been stopped while the request was in flight;
	// a dead session must not gain entries or a banner.
	if c.state != StateRecording {
		return text, nil
	}
	c.appendLocked(transcript.Entry{
		Text:      text,
		Speaker:   transcript.SpeakerAssistant,
		Type:      transcript.TypeKeyword,
		Questions: []string{text},
	})
	c.banner.Show(context.Background(), []string{text})
	c.metrics.RecordSuggestion(ctx, "analyze")
	return text, nil
}

// IngestAudio feeds one chunk of PCM audio into the recorder and, while
// recording, the recognition stream. Chunks arriving while paused are still
// captured; chunks in any other state are dropped.
func (c *Controller) IngestAudio(ctx context.Context, pcm []byte) error {
	c.mu.Lock()
	state := c.state
	rec := c.recorder
	sess := c.session
	c.mu.Unlock()

	if state != StateRecording && state != StatePaused {
		return nil
	}
	if rec != nil {
		if err := rec.Write(audio.Frame{Data: pcm, SampleRate: c.sampleRate, Channels: 1}); err != nil {
			return fmt.Errorf("session: record audio: %w", err)
		}
	}
	if state == StateRecording && sess != nil {
		if err := sess.SendAudio(pcm); err != nil {
			return fmt.Errorf("session: send audio: %w", err)
		}
	}
	return nil
}

// Snapshot is a point-in-time view of the session for API consumers.
type Snapshot struct {
	State         State        `json:"state"`
	Language      Language     `json:"language"`
	Mode          Mode         `json:"mode"`
	Context       string       `json:"context,omitempty"`
	InterviewID   string       `json:"interviewId,omitempty"`
	LiveCaption   string       `json:"liveCaption,omitempty"`
	LanguageAlert bool         `json:"languageAlert,omitempty"`
	IsAnalyzing   bool         `json:"isAnalyzing,omitempty"`
	Entries       int          `json:"entries"`
	Banner        banner.State `json:"banner"`
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:         c.state,
		Language:      c.language,
		Mode:          c.mode,
		Context:       c.contextText,
		InterviewID:   c.interviewID,
		LiveCaption:   c.liveCaption,
		LanguageAlert: c.languageAlert,
		IsAnalyzing:   c.isAnalyzing,
		Entries:       c.log.Len(),
		Banner:        c.banner.Snapshot(),
	}
}

// Entries returns the transcript so far.
func (c *Controller) Entries() []transcript.Entry {
	return c.log.Entries()
}

// LiveCaption returns the latest interim recognition text, cleared whenever
// a final lands or recognition stops.
func (c *Controller) LiveCaption() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveCaption
}

// DismissBanner hides the suggestion banner.
func (c *Controller) DismissBanner() {
	c.banner.Dismiss()
}

// openStreamLocked opens a recognition stream for the current language and
// starts its consumer goroutine under a fresh generation.
func (c *Controller) openStreamLocked(ctx context.Context) (stt.SessionHandle, error) {
	var boosts []stt.KeywordBoost
	for _, term := range lexicon.Vocabulary() {
		if !strings.Contains(term, " ") {
			boosts = append(boosts, stt.KeywordBoost{Keyword: term, Boost: keywordBoost})
		}
	}

	sess, err := c.sttProvider.StartStream(ctx, stt.StreamConfig{
		SampleRate: c.sampleRate,
		Channels:   1,
		Language:   localeTag(c.language),
		Keywords:   boosts,
	})
	if err != nil {
		return nil, err
	}

	c.gen++
	go c.consume(c.gen, sess)
	return sess, nil
}

// closeStreamLocked tears down the current recognition stream. The
// generation bump makes any still-buffered results from it stale.
func (c *Controller) closeStreamLocked() {
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	c.gen++
}

// consume drains one stream's partial and final channels until both close.
func (c *Controller) consume(gen uint64, sess stt.SessionHandle) {
	partials := sess.Partials()
	finals := sess.Finals()
	for partials != nil || finals != nil {
		select {
		case t, ok := <-partials:
			if !ok {
				partials = nil
				continue
			}
			c.handlePartial(gen, t)
		case t, ok := <-finals:
			if !ok {
				finals = nil
				continue
			}
			c.handleFinal(gen, t)
		}
	}
}

func (c *Controller) handlePartial(gen uint64, t stt.Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateRecording {
		return
	}
	c.liveCaption = t.Text
}

// handleFinal processes one finalized speech fragment: reset the silence
// clock, log the utterance, and in hardcoded English mode run matching and
// suggestion generation.
func (c *Controller) handleFinal(gen uint64, t stt.Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateRecording {
		return
	}

	text := strings.TrimSpace(t.Text)
	if text == "" {
		// Transient recognition noise, ignored silently.
		return
	}
	if c.corrector != nil {
		text, _ = c.corrector.Correct(text)
	}

	c.silence.NoteSpeech()
	c.liveCaption = ""

	userEntry := c.appendLocked(transcript.Entry{Text: text, Speaker: transcript.SpeakerUser})

	if !c.suggestionsActiveLocked() {
		return
	}
	matched := lexicon.MatchText(text)
	if len(matched) == 0 {
		return
	}
	questions := suggest.Generate(matched)
	if len(questions) == 0 {
		return
	}

	c.appendLocked(transcript.Entry{
		Text:      suggestionText(questions),
		Speaker:   transcript.SpeakerAssistant,
		Type:      transcript.TypeKeyword,
		Questions: questions,
	})
	c.banner.Show(context.Background(), questions)
	c.metrics.RecordSuggestion(context.Background(), "keyword")

	// The trigger-word patch is deliberately decoupled from the append;
	// readers tolerate a momentary window where the user entry lacks its
	// matched terms.
	go c.log.Patch(userEntry.ID, matched)
}

// handleSilence runs on the silence monitor's goroutine when the quiet
// threshold is crossed.
func (c *Controller) handleSilence() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Guard against a tick landing after pause or stop.
	if c.state != StateRecording || !c.suggestionsActiveLocked() {
		return
	}

	c.appendLocked(transcript.Entry{Text: msgSilenceDetected, Speaker: transcript.SpeakerSystem})
	c.appendLocked(transcript.Entry{
		Text:      suggestionText(silenceQuestions),
		Speaker:   transcript.SpeakerAssistant,
		Type:      transcript.TypeSilence,
		Questions: silenceQuestions,
	})
	c.banner.Show(context.Background(), silenceQuestions)

	ctx := context.Background()
	c.metrics.SilenceEvents.Add(ctx, 1)
	c.metrics.RecordSuggestion(ctx, "silence")
}

// suggestionsActiveLocked reports whether offline suggestions apply: only
// hardcoded mode with English speech.
func (c *Controller) suggestionsActiveLocked() bool {
	return c.mode == ModeHardcoded && c.language == LangEnglish
}

// appendLocked writes one entry through the log and records the metric.
func (c *Controller) appendLocked(e transcript.Entry) transcript.Entry {
	stored := c.log.Append(e)
	c.metrics.RecordEntry(context.Background(), string(e.Speaker))
	return stored
}

// suggestionText renders questions the way assistant entries embed them.
func suggestionText(questions []string) string {
	var b strings.Builder
	b.WriteString("Assistant suggests:")
	for _, q := range questions {
		b.WriteString("\n• ")
		b.WriteString(q)
	}
	return b.String()
}
