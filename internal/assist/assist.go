// Package assist asks the configured LLM to analyze a running interview and
// to summarize a finished one.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vhallgren/lyssna/internal/transcript"
	"github.com/vhallgren/lyssna/pkg/provider/llm"
)

const (
	analyzeSystemPrompt   = "You are an expert UX research assistant helping an interviewer."
	summarizeSystemPrompt = "You are an expert summarizer specializing in user interviews."

	analyzeTemperature = 0.5
	analyzeMaxTokens   = 150

	summarizeTemperature = 0.3
	summarizeMaxTokens   = 500
)

// Assistant wraps an LLM provider with the two interview operations.
type Assistant struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New returns an Assistant backed by provider.
func New(provider llm.Provider, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{provider: provider, logger: logger}
}

// Analyze asks the LLM for follow-up questions or emerging themes based on
// the interview context and the transcript so far. Returns an error when the
// transcript is empty.
func (a *Assistant) Analyze(ctx context.Context, interviewContext string, entries []transcript.Entry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("assist: no transcript entries to analyze")
	}

	prompt := buildAnalyzePrompt(interviewContext, FormatTranscript(entries))
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: analyzeSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  analyzeTemperature,
		MaxTokens:    analyzeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("assist: analyze: %w", err)
	}

	a.logger.Debug("analysis complete",
		"entries", len(entries),
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens,
	)
	return strings.TrimSpace(resp.Content), nil
}

// Summarize asks the LLM for a bullet-point summary of a finished interview.
// Returns an error when the transcript is empty.
func (a *Assistant) Summarize(ctx context.Context, interviewContext string, entries []transcript.Entry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("assist: no transcript entries to summarize")
	}

	prompt := buildSummarizePrompt(interviewContext, FormatTranscript(entries))
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: summarizeSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  summarizeTemperature,
		MaxTokens:    summarizeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("assist: summarize: %w", err)
	}

	a.logger.Debug("summary complete",
		"entries", len(entries),
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens,
	)
	return strings.TrimSpace(resp.Content), nil
}

// FormatTranscript renders entries one per line as "[HH:MM:SS] SPEAKER: text".
func FormatTranscript(entries []transcript.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		speaker := strings.ToUpper(string(e.Speaker))
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		fmt.Fprintf(&b, "[%s] %s: %s", e.Timestamp, speaker, e.Text)
	}
	return b.String()
}

func buildAnalyzePrompt(interviewContext, formattedTranscript string) string {
	return fmt.Sprintf(`Analyze the following user interview excerpt. The interview's initial context was:
--- START CONTEXT ---
%s
--- END CONTEXT ---

Here is the transcript so far:
--- START TRANSCRIPT ---
%s
--- END TRANSCRIPT ---

Based *only* on the provided context and transcript, suggest EITHER 1-2 insightful follow-up questions the interviewer could ask OR mention 1-2 key themes emerging. Focus on the most recent parts of the conversation if relevant.

Format the output *exactly* like this, using standard markdown list syntax:
Place the first list item immediately on the line below the bold header, with no blank line in between.

**Follow up questions**
* [Question 1]
* [Question 2 (if applicable)]

**Key themes**
* [Theme 1]
* [Theme 2 (if applicable)]

Ensure there is a blank line between the end of one list and the start of the next header. Only include the sections (questions or themes) that you generate.`,
		interviewContext, formattedTranscript)
}

func buildSummarizePrompt(interviewContext, formattedTranscript string) string {
	return fmt.Sprintf(`Generate a concise bullet-point summary of the key highlights, insights, and main themes from the following user interview transcript. Consider the initial interview context provided.

Initial Context:
--- START CONTEXT ---
%s
--- END CONTEXT ---

Transcript:
--- START TRANSCRIPT ---
%s
--- END TRANSCRIPT ---

Format the summary *exactly* as follows for each key point:
1. Output the theme or highlight title formatted as **bold** using markdown.
2. Immediately after the bold title, output a newline character.
3. On the very next line, start the descriptive text for that point.
4. After the description for one point, ensure there is exactly one blank line (a double newline) before the bold title of the next point.
5. Do NOT use bullet point characters like '•' or '-'.
Example:
**Theme Title 1**
Description for theme 1.

**Theme Title 2**
Description for theme 2.`,
		interviewContext, formattedTranscript)
}
