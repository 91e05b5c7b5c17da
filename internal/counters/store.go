// Package counters persists the values that outlive a review session: the
// lifetime closed total and the preview-mode flag.
package counters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Storage keys. They match the keys the browser extension kept in local
// storage so an exported file can be read by either.
const (
	KeyTotalClosed = "totalClosed"
	KeyPreviewMode = "previewMode"
)

// Counters is the persisted state.
type Counters struct {
	TotalClosed int  `json:"totalClosed"`
	PreviewMode bool `json:"previewMode"`
}

// Store reads and writes Counters.
type Store interface {
	Load(ctx context.Context) (Counters, error)
	SaveLifetimeClosed(ctx context.Context, n int) error
	SavePreviewMode(ctx context.Context, on bool) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(filepath.Join(dir, "counters.json"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "counters.db"))
	default:
		return nil, fmt.Errorf("counters: unknown backend %q", backend)
	}
}

// DefaultDir returns $XDG_STATE_HOME/tabswipe, falling back to
// ~/.local/state/tabswipe.
func DefaultDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tabswipe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tabswipe")
	}
	return filepath.Join(home, ".local", "state", "tabswipe")
}
