package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/seovimalraj/cnc-quote-sub009/internal/canonical"
)

// Snapshot pairs a validated catalog with the canonical hash of the whole
// document. The hash is folded into every cache key, so replacing the catalog
// invalidates stale cache entries without explicit bookkeeping.
type Snapshot struct {
	Config *Config
	Hash   string
}

// Store holds the active catalog snapshot. Reads are lock-free; a reload
// swaps the snapshot pointer atomically so in-flight computations keep the
// snapshot they started with.
type Store struct {
	path    string
	current atomic.Pointer[Snapshot]
}

// Load reads, validates, and hashes the catalog document at path.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates a raw catalog document and returns its snapshot.
func Parse(raw []byte) (*Snapshot, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode pricing catalog: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hash, err := canonical.HashInput(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pricing catalog: %w", err)
	}

	return &Snapshot{Config: &cfg, Hash: hash}, nil
}

// NewStore loads the catalog at path and returns a store serving it.
// Startup fails on any schema violation.
func NewStore(path string) (*Store, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path}
	s.current.Store(snap)
	return s, nil
}

// NewStoreFromSnapshot wraps an already-validated snapshot; used by tests and
// embedders that manage the document themselves.
func NewStoreFromSnapshot(snap *Snapshot) *Store {
	s := &Store{}
	s.current.Store(snap)
	return s
}

// Snapshot returns the active catalog snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload re-reads the document from disk. On any validation failure the
// previous good snapshot stays active and the error is returned.
func (s *Store) Reload() (*Snapshot, error) {
	if s.path == "" {
		return nil, fmt.Errorf("catalog store has no backing file to reload")
	}

	snap, err := Load(s.path)
	if err != nil {
		return nil, err
	}

	s.current.Store(snap)
	return snap, nil
}
