// Package transcript maintains the ordered log of everything said and
// suggested during one interview session.
package transcript

import "time"

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerSystem    Speaker = "system"
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// EntryType marks what prompted an assistant entry.
type EntryType string

const (
	// TypeKeyword marks assistant entries produced by lexicon analysis.
	TypeKeyword EntryType = "keyword"
	// TypeSilence marks assistant entries produced by the silence monitor.
	TypeSilence EntryType = "silence"
)

// Entry is one line of the interview transcript. Entries are immutable once
// appended, except for the single retroactive TriggerWords patch on the user
// entry that prompted a suggestion.
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Speaker   Speaker   `json:"speaker"`
	Timestamp string    `json:"timestamp"`
	Type      EntryType `json:"type,omitempty"`
	// TriggerWords holds matched lexicon terms, attached retroactively to
	// the user entry after analysis completes.
	TriggerWords []string `json:"triggerWords,omitempty"`
	// Questions holds the generated follow-ups carried by assistant entries.
	Questions []string `json:"questions,omitempty"`
}

// FormatTimestamp renders t the way transcript entries display it.
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
