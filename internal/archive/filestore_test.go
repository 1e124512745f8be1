package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vhallgren/lyssna/internal/transcript"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "interviews.json"), "", nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func sampleInterview(id string) Interview {
	return Interview{
		ID:      id,
		Date:    "2026-03-14T09:26:53Z",
		Context: "onboarding study",
		Mode:    "hardcoded",
		Transcript: []transcript.Entry{
			{ID: id + "-1", Text: "Recording started", Speaker: transcript.SpeakerSystem, Timestamp: "09:26:53"},
			{ID: id + "-2", Text: "the flow is confusing", Speaker: transcript.SpeakerUser, Timestamp: "09:27:01"},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	// Empty archive reads as empty, not as an error.
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List on missing file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("List = %d interviews, want 0", len(got))
	}

	iv1 := sampleInterview("iv-1")
	iv2 := sampleInterview("iv-2")
	if err := s.Save(ctx, iv1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, iv2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "iv-1" || got[1].ID != "iv-2" {
		t.Fatalf("List = %+v, want iv-1 then iv-2", got)
	}

	single, err := s.Get(ctx, "iv-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if single.Context != "onboarding study" || len(single.Transcript) != 2 {
		t.Errorf("Get = %+v", single)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Save(ctx, sampleInterview("iv-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, sampleInterview("iv-2")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Delete(ctx, "iv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "iv-2" {
		t.Fatalf("List after delete = %+v", got)
	}

	// Deleting an unknown id is not an error.
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestFileStoreAttachSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Save(ctx, sampleInterview("iv-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.AttachSummary(ctx, "iv-1", "**Theme**\nUsers struggle."); err != nil {
		t.Fatalf("AttachSummary: %v", err)
	}
	got, err := s.Get(ctx, "iv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Summary != "**Theme**\nUsers struggle." {
		t.Errorf("Summary = %q", got.Summary)
	}

	if err := s.AttachSummary(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AttachSummary(missing) = %v, want ErrNotFound", err)
	}
}

func TestFileStoreDropsMalformedRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "interviews.json")

	blob := `{
	  "ux_interviews": [
	    {"id": "good-1", "date": "2026-03-14", "context": "a", "transcript": []},
	    {"id": 42, "date": "2026-03-14", "context": "bad id", "transcript": []},
	    {"id": "bad-2", "date": "2026-03-14", "context": "no transcript array", "transcript": "nope"},
	    "not even an object",
	    {"id": "good-2", "date": "2026-03-15", "context": "b",
	     "transcript": [{"text": "hi", "speaker": "user", "timestamp": "10:00:00"}]}
	  ]
	}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewFileStore(path, "", nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "good-1" || got[1].ID != "good-2" {
		t.Fatalf("List = %+v, want the two valid records", got)
	}

	// Entries without an id get one synthesized from the interview id.
	if id := got[1].Transcript[0].ID; id != "good-2-entry-1" {
		t.Errorf("synthesized entry id = %q, want good-2-entry-1", id)
	}
}

func TestFileStoreWholeBlobCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "interviews.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewFileStore(path, "", nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.List(context.Background()); err == nil {
		t.Fatal("List on corrupt blob should error")
	}
}

func TestFileStoreRejectsEmptyID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Save(context.Background(), Interview{}); err == nil {
		t.Fatal("Save with empty id should error")
	}
}
