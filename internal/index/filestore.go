package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// FileStore keeps one JSON file per tenant under dir. Replacement writes
// the whole store to a temp file and renames it over the old one, so a
// concurrent reader sees either the full pre-write or full post-write
// snapshot. Writes are serialized with one lock per tenant.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.RWMutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[uuid.UUID]*sync.RWMutex),
	}, nil
}

func (s *FileStore) lockFor(tenantID uuid.UUID) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tenantID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[tenantID] = l
	}
	return l
}

func (s *FileStore) path(tenantID uuid.UUID) string {
	return filepath.Join(s.dir, tenantID.String()+".json")
}

func (s *FileStore) Load(_ context.Context, tenantID uuid.UUID) ([]ChunkEntry, error) {
	l := s.lockFor(tenantID)
	l.RLock()
	defer l.RUnlock()
	return s.read(tenantID)
}

// read assumes the caller holds the tenant lock.
func (s *FileStore) read(tenantID uuid.UUID) ([]ChunkEntry, error) {
	data, err := os.ReadFile(s.path(tenantID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index store: %w", err)
	}

	var entries []ChunkEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("corrupt index store, treating as empty", "tenant_id", tenantID, "error", err)
		return nil, nil
	}
	return entries, nil
}

func (s *FileStore) ReplaceDocument(_ context.Context, tenantID, documentID uuid.UUID, entries []ChunkEntry) error {
	l := s.lockFor(tenantID)
	l.Lock()
	defer l.Unlock()

	current, err := s.read(tenantID)
	if err != nil {
		return err
	}

	next := make([]ChunkEntry, 0, len(current)+len(entries))
	for _, e := range current {
		if e.DocumentID != documentID {
			next = append(next, e)
		}
	}
	next = append(next, entries...)

	return s.write(tenantID, next)
}

func (s *FileStore) RemoveDocument(_ context.Context, tenantID, documentID uuid.UUID) error {
	l := s.lockFor(tenantID)
	l.Lock()
	defer l.Unlock()

	if _, err := os.Stat(s.path(tenantID)); os.IsNotExist(err) {
		return nil
	}

	current, err := s.read(tenantID)
	if err != nil {
		return err
	}

	next := make([]ChunkEntry, 0, len(current))
	for _, e := range current {
		if e.DocumentID != documentID {
			next = append(next, e)
		}
	}

	return s.write(tenantID, next)
}

// write assumes the caller holds the tenant write lock.
func (s *FileStore) write(tenantID uuid.UUID, entries []ChunkEntry) error {
	if entries == nil {
		entries = []ChunkEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index store: %w", err)
	}

	path := s.path(tenantID)
	tmp, err := os.CreateTemp(s.dir, tenantID.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp store: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace index store: %w", err)
	}

	slog.Info("index store saved", "tenant_id", tenantID, "entries", len(entries))
	return nil
}
