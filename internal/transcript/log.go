package transcript

import (
	"fmt"
	"sync"
	"time"
)

// Log is the append-only transcript of one session. It is safe for
// concurrent use.
//
// Append assigns the entry id and returns the stored entry synchronously,
// so a caller that wants to patch the entry later can hold on to the id
// instead of guessing which entry it produced.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	seq     int

	// now is swappable for deterministic timestamps in tests.
	now func() time.Time
}

// NewLog returns an empty transcript log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append adds an entry to the log, assigning its id and timestamp, and
// returns the stored entry.
func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.ID = fmt.Sprintf("entry-%d", l.seq)
	if e.Timestamp == "" {
		e.Timestamp = FormatTimestamp(l.now())
	}
	l.entries = append(l.entries, e)
	return e
}

// Patch attaches trigger words to the entry with the given id. It is a no-op
// when no entry matches. This is the only mutation a stored entry ever sees.
func (l *Log) Patch(id string, triggerWords []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].TriggerWords = triggerWords
			return
		}
	}
}

// Entries returns a snapshot of the log in chronological order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries in the log.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear removes all entries. The id sequence keeps counting so ids stay
// unique for the life of the session.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
