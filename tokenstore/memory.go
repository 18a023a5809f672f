package tokenstore

import "sync"

// MemoryStore is a process-local Store backed by a mutex-guarded map.
// It serves as the in-memory cache layer of a LayeredStore and as the
// whole store in tests and single-process tools.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the first usable token found under any known key, the
// canonical key first, then legacy keys, then the user_data blob.
func (s *MemoryStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v := s.values[CanonicalKey]; usable(v) {
		return v
	}
	for _, key := range LegacyKeys {
		if v := s.values[key]; usable(v) {
			return v
		}
	}
	return tokenFromUserData(s.values[userDataKey])
}

// Set persists the token under the canonical key.
func (s *MemoryStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[CanonicalKey] = token
	return nil
}

// SetRaw writes a value under an arbitrary key. Used by tests and by
// migration shims that mirror what an older desk would have written.
func (s *MemoryStore) SetRaw(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Clear removes every known key. Calling it twice leaves the same end
// state as calling it once.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, CanonicalKey)
	for _, key := range LegacyKeys {
		delete(s.values, key)
	}
	delete(s.values, userDataKey)
	return nil
}
