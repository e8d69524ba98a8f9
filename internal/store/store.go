// Package store persists the engine state as a single JSON document
// keyed by a fixed namespace. Drivers mirror the DB_DRIVER environment
// switch: memory (default), sqlite and postgres.
package store

import (
	"errors"
	"sync"

	"github.com/jwoo-kim/team-draft/internal/models"
)

// Namespace is the fixed key the draft document is stored under.
const Namespace = "team-draft/state"

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("store: no snapshot")

// SnapshotStore reads and writes the full draft document. Save is called
// on every mutation, Load once at startup, Clear on reset.
type SnapshotStore interface {
	Load() (*models.DraftState, error)
	Save(state *models.DraftState) error
	Clear() error
}

// MemoryStore keeps the snapshot in process memory. State lives exactly
// as long as the session, which is all the engine promises anyway.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *models.DraftState
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*models.DraftState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return m.snap.Clone(), nil
}

func (m *MemoryStore) Save(state *models.DraftState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap = state.Clone()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap = nil
	return nil
}
