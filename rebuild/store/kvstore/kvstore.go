/*
	kvstore package persists rebuild sandboxes in an embedded pebble
	key-value store so an interrupted rebuild survives a process restart.
*/

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/mycok/entityusage/rebuild"
)

const keyPrefix = "sandbox/"

// Static and compile-time check to ensure SandboxStore implements
// rebuild.SandboxStore interface.
var _ rebuild.SandboxStore = (*SandboxStore)(nil)

// SandboxStore keeps JSON encoded sandboxes in a pebble database.
type SandboxStore struct {
	db *pebble.DB
}

// Open opens, or creates, the sandbox database at dir. A nil fs selects the
// local disk.
func Open(dir string, fs vfs.FS) (*SandboxStore, error) {
	opts := &pebble.Options{FS: fs}
	if fs == nil {
		opts.FS = vfs.Default
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open sandbox store: %w", err)
	}

	return &SandboxStore{db: db}, nil
}

// Close flushes and closes the database.
func (s *SandboxStore) Close() error {
	return s.db.Close()
}

// Load returns the sandbox stored under key.
func (s *SandboxStore) Load(_ context.Context, key string) (*rebuild.Sandbox, error) {
	data, closer, err := s.db.Get([]byte(keyPrefix + key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("load %s: %w", key, rebuild.ErrSandboxNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	defer closer.Close()

	// data is only valid until closer is closed.
	sb := new(rebuild.Sandbox)
	if err := json.Unmarshal(data, sb); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	return sb, nil
}

// Save stores sb under key and syncs it to disk.
func (s *SandboxStore) Save(_ context.Context, key string, sb *rebuild.Sandbox) error {
	data, err := json.Marshal(sb)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.db.Set([]byte(keyPrefix+key), data, pebble.Sync); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	return nil
}

// Delete removes the sandbox stored under key.
func (s *SandboxStore) Delete(_ context.Context, key string) error {
	if err := s.db.Delete([]byte(keyPrefix+key), pebble.Sync); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}
