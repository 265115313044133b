package annotations

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps annotations in a JSON sidecar file next to the topology.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// SidecarPath derives the sidecar file name for a topology file:
// "lab.clab.yml" becomes "lab.clab.annotations.json".
func SidecarPath(topologyPath string) string {
	base := topologyPath
	if ext := filepath.Ext(base); ext == ".yml" || ext == ".yaml" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".annotations.json"
}

// NewFileStore creates a store writing to the given sidecar path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return &set, nil
}

func (s *FileStore) Save(ctx context.Context, set *Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	data = append(data, '\n')

	// Write through a temp file so a crash mid-write never leaves a
	// truncated sidecar.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write annotations: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace annotations: %w", err)
	}
	return nil
}

// Close is a no-op; the store holds no open resources between calls.
func (s *FileStore) Close() error { return nil }
