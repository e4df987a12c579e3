// Package credentials holds server-side fallback API keys per provider.
// A key supplied on a request always wins; these are the operator's keys
// from the environment plus any set through the settings endpoints.
package credentials

import (
	"strings"
	"sync"
)

// Store maps provider tags to API keys. Keys never leave the process
// except as outbound auth headers on provider calls.
type Store struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewStore seeds the store with the given provider→key pairs; empty
// values are dropped.
func NewStore(seed map[string]string) *Store {
	keys := make(map[string]string, len(seed))
	for provider, key := range seed {
		if k := strings.TrimSpace(key); k != "" {
			keys[provider] = k
		}
	}
	return &Store{keys: keys}
}

// Token returns the key for a provider, or empty when none is configured.
func (s *Store) Token(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[provider]
}

// Has reports whether a key is configured for the provider.
func (s *Store) Has(provider string) bool {
	return s.Token(provider) != ""
}

// Set stores or replaces the key for a provider. An empty key removes it.
func (s *Store) Set(provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.TrimSpace(key)
	if key == "" {
		delete(s.keys, provider)
		return
	}
	s.keys[provider] = key
}

// Delete removes the key for a provider.
func (s *Store) Delete(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, provider)
}

// Masked returns the key with all but the last four characters hidden,
// for display in the settings UI.
func Masked(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
