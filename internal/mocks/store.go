// Package mocks holds small test doubles shared across packages.
package mocks

import (
	"errors"

	"github.com/jwoo-kim/team-draft/internal/models"
)

// ErrStoreDown is what FailingStore returns from every method.
var ErrStoreDown = errors.New("mocks: store unavailable")

// FailingStore is a SnapshotStore whose every operation fails. Used to
// verify that persistence stays best-effort: mutations must still apply
// when saves error out.
type FailingStore struct {
	SaveCalls  int
	ClearCalls int
}

func (f *FailingStore) Load() (*models.DraftState, error) {
	return nil, ErrStoreDown
}

func (f *FailingStore) Save(state *models.DraftState) error {
	f.SaveCalls++
	return ErrStoreDown
}

func (f *FailingStore) Clear() error {
	f.ClearCalls++
	return ErrStoreDown
}
