package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mycok/entityusage/rebuild"
)

// Static and compile-time check to ensure SandboxStore implements
// rebuild.SandboxStore interface.
var _ rebuild.SandboxStore = (*SandboxStore)(nil)

// SandboxStore keeps sandboxes in memory. Sandboxes are stored in their
// encoded form so callers never share state with the store.
type SandboxStore struct {
	mu        sync.RWMutex
	sandboxes map[string][]byte
}

// NewSandboxStore returns an empty in-memory sandbox store.
func NewSandboxStore() *SandboxStore {
	return &SandboxStore{sandboxes: make(map[string][]byte)}
}

// Load returns the sandbox stored under key.
func (s *SandboxStore) Load(_ context.Context, key string) (*rebuild.Sandbox, error) {
	s.mu.RLock()
	data, ok := s.sandboxes[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("load %s: %w", key, rebuild.ErrSandboxNotFound)
	}

	sb := new(rebuild.Sandbox)
	if err := json.Unmarshal(data, sb); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	return sb, nil
}

// Save stores sb under key.
func (s *SandboxStore) Save(_ context.Context, key string, sb *rebuild.Sandbox) error {
	data, err := json.Marshal(sb)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	s.mu.Lock()
	s.sandboxes[key] = data
	s.mu.Unlock()

	return nil
}

// Delete removes the sandbox stored under key.
func (s *SandboxStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.sandboxes, key)
	s.mu.Unlock()

	return nil
}
