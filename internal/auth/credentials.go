package auth

import (
	"fmt"
	"sync"

	"github.com/awnumar/memguard"
)

// CredentialStore holds secret material (API keys, bearer tokens used to
// authenticate outbound sampling/tool calls) encrypted in memory via
// memguard, so a heap dump or swapped page never exposes it in plaintext.
// This is the one place in the SDK that handles raw secrets; everything
// above it (Authenticator implementations, sampling backends) only ever
// sees a credential after explicitly opening it for the duration of a
// single call.
type CredentialStore struct {
	mu        sync.RWMutex
	enclaves  map[string]*memguard.Enclave
}

// NewCredentialStore builds an empty CredentialStore.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{enclaves: make(map[string]*memguard.Enclave)}
}

// Set seals secret under name, overwriting any previous value. The caller's
// copy of secret should be discarded immediately after —
// memguard.NewBufferFromBytes wipes the input buffer as part of sealing it.
func (s *CredentialStore) Set(name string, secret []byte) {
	buf := memguard.NewBufferFromBytes(secret)
	enclave := buf.Seal()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclaves[name] = enclave
}

// Use opens the credential stored under name, calls fn with its plaintext
// bytes, and destroys the decrypted buffer before returning regardless of
// whether fn succeeds — callers never receive a value they could
// accidentally retain past the call.
func (s *CredentialStore) Use(name string, fn func(secret []byte) error) error {
	s.mu.RLock()
	enclave, ok := s.enclaves[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("auth: no credential stored under %q", name)
	}

	buf, err := enclave.Open()
	if err != nil {
		return fmt.Errorf("auth: open credential %q: %w", name, err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Delete removes name from the store. The associated enclave is dropped
// for garbage collection; memguard finalizes and wipes it.
func (s *CredentialStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.enclaves, name)
}

// Purge wipes every credential this process has ever sealed via memguard,
// so no secret material lingers after it runs. None of the binaries in
// this module call it.
func Purge() {
	memguard.Purge()
}
