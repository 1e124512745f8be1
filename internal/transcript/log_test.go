package transcript

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestLogAppendAssignsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	e := l.Append(Entry{Text: "hello", Speaker: SpeakerUser})
	if e.ID == "" {
		t.Fatal("Append did not assign an id")
	}
	if e.Timestamp != "09:26:53" {
		t.Errorf("Timestamp = %q, want 09:26:53", e.Timestamp)
	}

	e2 := l.Append(Entry{Text: "world", Speaker: SpeakerUser})
	if e.ID == e2.ID {
		t.Errorf("ids collide: %q", e.ID)
	}

	got := l.Entries()
	if len(got) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(got))
	}
	if got[0].Text != "hello" || got[1].Text != "world" {
		t.Errorf("entries out of order: %v", got)
	}
}

func TestLogPatch(t *testing.T) {
	t.Parallel()

	l := NewLog()
	e := l.Append(Entry{Text: "the user struggled", Speaker: SpeakerUser})
	l.Append(Entry{Text: "noted", Speaker: SpeakerSystem})

	l.Patch(e.ID, []string{"user"})

	got := l.Entries()
	if !reflect.DeepEqual(got[0].TriggerWords, []string{"user"}) {
		t.Errorf("TriggerWords = %v, want [user]", got[0].TriggerWords)
	}
	if got[1].TriggerWords != nil {
		t.Errorf("patch leaked to wrong entry: %v", got[1].TriggerWords)
	}

	// Patching an unknown id is a no-op.
	l.Patch("entry-999", []string{"ghost"})
	for _, e := range l.Entries() {
		for _, w := range e.TriggerWords {
			if w == "ghost" {
				t.Fatal("patch on unknown id mutated the log")
			}
		}
	}
}

func TestLogClearKeepsIDsUnique(t *testing.T) {
	t.Parallel()

	l := NewLog()
	before := l.Append(Entry{Text: "a", Speaker: SpeakerUser})
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", l.Len())
	}
	after := l.Append(Entry{Text: "b", Speaker: SpeakerUser})
	if before.ID == after.ID {
		t.Errorf("id %q reused after Clear", before.ID)
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	t.Parallel()

	l := NewLog()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(Entry{Text: fmt.Sprintf("line %d", i), Speaker: SpeakerUser})
		}(i)
	}
	wg.Wait()

	entries := l.Entries()
	if len(entries) != n {
		t.Fatalf("len = %d, want %d", len(entries), n)
	}
	ids := make(map[string]bool, n)
	for _, e := range entries {
		if ids[e.ID] {
			t.Fatalf("duplicate id %q", e.ID)
		}
		ids[e.ID] = true
	}
}

func TestEntriesSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.Append(Entry{Text: "original", Speaker: SpeakerUser})

	snap := l.Entries()
	snap[0].Text = "mutated"

	if l.Entries()[0].Text != "original" {
		t.Error("snapshot mutation leaked into the log")
	}
}
