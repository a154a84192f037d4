package storage

import (
	"sync"

	"go-todo-client/internal/model"
)

// CredentialStore is the single slot holding the active session credential.
// Implementations do not validate what they hold.
type CredentialStore interface {
	Set(credential model.Credential) error
	Get() (model.Credential, bool)
	Clear() error
}

type MemoryCredentialStore struct {
	mu         sync.RWMutex
	credential model.Credential
	present    bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Set(credential model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = credential
	s.present = credential.Present()
	return nil
}

func (s *MemoryCredentialStore) Get() (model.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return model.Credential{}, false
	}
	return s.credential, true
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = model.Credential{}
	s.present = false
	return nil
}
