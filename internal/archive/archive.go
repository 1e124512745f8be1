// Package archive persists finished interviews and serves them back for
// browsing and summarization.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vhallgren/lyssna/internal/transcript"
)

// ErrNotFound is returned when no interview matches the requested id.
var ErrNotFound = errors.New("archive: interview not found")

// Interview is the archived result of one recording session. It is immutable
// after creation except for the one-time summary attachment.
type Interview struct {
	ID         string             `json:"id"`
	Date       string             `json:"date"`
	Context    string             `json:"context"`
	Mode       string             `json:"mode,omitempty"`
	Transcript []transcript.Entry `json:"transcript"`
	AudioRef   string             `json:"audioUrl,omitempty"`
	Summary    string             `json:"summary,omitempty"`
}

// Store is the persistence boundary for interviews. Implementations follow
// last-write-wins semantics; no stronger guarantee is offered.
type Store interface {
	// Save appends the interview to the archive.
	Save(ctx context.Context, iv Interview) error
	// List returns all interviews in insertion order.
	List(ctx context.Context) ([]Interview, error)
	// Get returns the interview with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (Interview, error)
	// Delete removes the interview with the given id. Deleting an unknown
	// id is not an error.
	Delete(ctx context.Context, id string) error
	// AttachSummary stores the computed summary on the interview so later
	// requests reuse it instead of recomputing. Returns ErrNotFound when
	// the id is unknown.
	AttachSummary(ctx context.Context, id string, summary string) error
}

// decodeRecord validates one raw stored record and fills defaults for
// missing optional fields. It returns false when the record is malformed
// beyond repair: id, date or context is not a string, or transcript is not
// an array. Transcript entries without an id get one synthesized from the
// interview id so downstream consumers can rely on entry ids being present.
func decodeRecord(raw json.RawMessage) (Interview, bool) {
	var probe struct {
		ID         json.RawMessage `json:"id"`
		Date       json.RawMessage `json:"date"`
		Context    json.RawMessage `json:"context"`
		Transcript json.RawMessage `json:"transcript"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Interview{}, false
	}
	if !isJSONString(probe.ID) || !isJSONString(probe.Date) || !isJSONString(probe.Context) {
		return Interview{}, false
	}
	if !isJSONArray(probe.Transcript) {
		return Interview{}, false
	}

	var iv Interview
	if err := json.Unmarshal(raw, &iv); err != nil {
		return Interview{}, false
	}
	for i := range iv.Transcript {
		if iv.Transcript[i].ID == "" {
			iv.Transcript[i].ID = fmt.Sprintf("%s-entry-%d", iv.ID, i+1)
		}
	}
	return iv, true
}

func isJSONString(raw json.RawMessage) bool {
	var s string
	return raw != nil && json.Unmarshal(raw, &s) == nil
}

func isJSONArray(raw json.RawMessage) bool {
	var a []json.RawMessage
	return raw != nil && json.Unmarshal(raw, &a) == nil
}
