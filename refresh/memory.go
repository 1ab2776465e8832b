package refresh

import (
	"context"
	"sync"
)

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

// Add implements [Store].
func (s *MemoryStore) Add(_ context.Context, cred Credential) error {
	if err := validate(cred); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creds[cred.Value]; ok {
		return ErrDuplicateCredential
	}
	s.creds[cred.Value] = cred
	return nil
}

// FindByValue implements [Store].
func (s *MemoryStore) FindByValue(_ context.Context, value string) (Credential, error) {
	s.mu.RLock()
	cred, ok := s.creds[value]
	s.mu.RUnlock()

	if !ok {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

// DeleteByValue implements [Store].
func (s *MemoryStore) DeleteByValue(_ context.Context, value string) error {
	s.mu.Lock()
	delete(s.creds, value)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored credentials.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}
