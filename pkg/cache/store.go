// Package cache persists the rendered skill catalog keyed by a fingerprint
// of the filesystem state that produced it. The cache is a single JSON file
// replaced wholesale on every successful full scan; a reader either sees a
// complete prior entry or none at all.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/skillscan/skillscan/pkg/logger"
)

// Entry is one persisted cache record. The file layout is an implementation
// detail, not a versioned public format: loaders discard anything that does
// not deserialize cleanly.
type Entry struct {
	Fingerprint  string    `json:"fingerprint"`
	GeneratedAt  time.Time `json:"generated_at"`
	RenderedText string    `json:"rendered_text"`
	RecordCount  int       `json:"record_count"`
}

// Store abstracts cache persistence so the orchestrator can be tested
// against an in-memory fake.
type Store interface {
	// Load returns the stored entry, or nil when there is none. A missing,
	// unreadable, or corrupt cache file is a miss, never an error: it
	// self-heals on the next successful store.
	Load() (*Entry, error)
	// Save atomically replaces the stored entry
	Save(entry *Entry) error
	// Clear removes the stored entry
	Clear() error
	// Path returns the backing location, for display purposes
	Path() string
}

// DefaultPath returns the well-known cache file location
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".claude", "cache", "skills-discovery.json"), nil
}

// FileStore implements Store using a single JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed cache store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and deserializes the cache file. Any failure is a cache miss.
func (s *FileStore) Load() (*Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.L.WithError(err).WithField("path", s.path).Debug("discarding unparseable cache file")
		return nil, nil
	}

	if entry.Fingerprint == "" || entry.RecordCount < 0 {
		// Schema mismatch or foreign file; treat as absent.
		return nil, nil
	}

	return &entry, nil
}

// Save writes the entry to a temporary file and renames it into place, so a
// concurrent reader never observes a half-written entry.
func (s *FileStore) Save(entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache entry")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary cache file")
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary cache file")
	}

	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove cache file")
	}
	return nil
}

// Path returns the cache file location
func (s *FileStore) Path() string {
	return s.path
}

// MemoryStore implements Store in memory, for tests
type MemoryStore struct {
	mu    sync.Mutex
	entry *Entry
}

// NewMemoryStore creates an empty in-memory cache store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored entry, or nil when there is none
func (s *MemoryStore) Load() (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return nil, nil
	}
	cloned := *s.entry
	return &cloned, nil
}

// Save replaces the stored entry
func (s *MemoryStore) Save(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *entry
	s.entry = &cloned
	return nil
}

// Clear removes the stored entry
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = nil
	return nil
}

// Path identifies the store for display purposes
func (s *MemoryStore) Path() string {
	return "(memory)"
}
