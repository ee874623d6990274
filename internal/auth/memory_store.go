package auth

import "sync"

// MemoryStore is an in-memory CredentialStore for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	user  []byte
	set   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(token string, user []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = append([]byte(nil), user...)
	s.set = true
	return nil
}

func (s *MemoryStore) Load() (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set || s.token == "" {
		return "", nil, ErrNoCredentials
	}
	return s.token, append([]byte(nil), s.user...), nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.set = false
	return nil
}
