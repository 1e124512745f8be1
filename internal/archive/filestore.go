package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultCollection is the key interviews are stored under.
const DefaultCollection = "ux_interviews"

// FileStore keeps the archive as one JSON blob on disk: an object mapping
// the collection name to an ordered list of interview records. Reads
// validate records one by one and silently drop malformed ones instead of
// failing the whole load. Writes are last-write-wins via atomic rename.
type FileStore struct {
	path       string
	collection string
	logger     *slog.Logger

	mu sync.Mutex
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// NewFileStore returns a store persisting to path under the given
// collection key. An empty collection defaults to DefaultCollection. The
// file is created on first save; a missing file reads as an empty archive.
func NewFileStore(path, collection string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("archive: file store path must not be empty")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, collection: collection, logger: logger}, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, iv Interview) error {
	if iv.ID == "" {
		return fmt.Errorf("archive: interview id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	interviews, err := s.load()
	if err != nil {
		return err
	}
	interviews = append(interviews, iv)
	return s.write(interviews)
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) ([]Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, id string) (Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	interviews, err := s.load()
	if err != nil {
		return Interview{}, err
	}
	for _, iv := range interviews {
		if iv.ID == id {
			return iv, nil
		}
	}
	return Interview{}, ErrNotFound
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	interviews, err := s.load()
	if err != nil {
		return err
	}
	kept := interviews[:0]
	for _, iv := range interviews {
		if iv.ID != id {
			kept = append(kept, iv)
		}
	}
	return s.write(kept)
}

// AttachSummary implements Store.
func (s *FileStore) AttachSummary(ctx context.Context, id string, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	interviews, err := s.load()
	if err != nil {
		return err
	}
	for i := range interviews {
		if interviews[i].ID == id {
			interviews[i].Summary = summary
			return s.write(interviews)
		}
	}
	return ErrNotFound
}

// load reads and validates the archive file. A missing file is an empty
// archive; malformed records are dropped with a warning.
func (s *FileStore) load() ([]Interview, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: read %s: %w", s.path, err)
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("archive: parse %s: %w", s.path, err)
	}

	var rawRecords []json.RawMessage
	if raw, ok := blob[s.collection]; ok {
		if err := json.Unmarshal(raw, &rawRecords); err != nil {
			return nil, fmt.Errorf("archive: collection %q is not a list: %w", s.collection, err)
		}
	}

	interviews := make([]Interview, 0, len(rawRecords))
	for i, raw := range rawRecords {
		iv, ok := decodeRecord(raw)
		if !ok {
			s.logger.Warn("dropping malformed interview record",
				"collection", s.collection,
				"index", i,
			)
			continue
		}
		interviews = append(interviews, iv)
	}
	return interviews, nil
}

// write serializes the full archive and atomically replaces the file.
func (s *FileStore) write(interviews []Interview) error {
	if interviews == nil {
		interviews = []Interview{}
	}
	blob := map[string][]Interview{s.collection: interviews}
	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("archive: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".archive-*")
	if err != nil {
		return fmt.Errorf("archive: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("archive: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("archive: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("archive: replace %s: %w", s.path, err)
	}
	return nil
}
