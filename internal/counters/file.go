package counters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps Counters in a single JSON file.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a FileStore and ensures the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("counters store: mkdir %s: %w", filepath.Dir(path), err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the file. A missing or unreadable file loads as zero values.
func (s *FileStore) Load(ctx context.Context) (Counters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(), nil
}

func (s *FileStore) read() Counters {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("counters read failed", "path", s.path, "error", err)
		}
		return Counters{}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("counters file corrupt, starting from zero", "path", s.path, "error", err)
		return Counters{}
	}
	var c Counters
	if v, ok := raw[KeyTotalClosed]; ok {
		if err := json.Unmarshal(v, &c.TotalClosed); err != nil || c.TotalClosed < 0 {
			slog.Warn("counters value unreadable", "key", KeyTotalClosed, "value", string(v), "error", err)
			c.TotalClosed = 0
		}
	}
	if v, ok := raw[KeyPreviewMode]; ok {
		if err := json.Unmarshal(v, &c.PreviewMode); err != nil {
			slog.Warn("counters value unreadable", "key", KeyPreviewMode, "value", string(v), "error", err)
			c.PreviewMode = false
		}
	}
	return c
}

func (s *FileStore) SaveLifetimeClosed(ctx context.Context, n int) error {
	return s.update(func(c *Counters) { c.TotalClosed = n })
}

func (s *FileStore) SavePreviewMode(ctx context.Context, on bool) error {
	return s.update(func(c *Counters) { c.PreviewMode = on })
}

func (s *FileStore) update(fn func(*Counters)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.read()
	fn(&c)
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("counters store: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("counters store: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			slog.Debug("counters temp cleanup failed", "path", tmp, "error", rmErr)
		}
		return fmt.Errorf("counters store: rename: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
