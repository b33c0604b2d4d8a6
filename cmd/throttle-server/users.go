package main

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// userStore checks demo credentials against bcrypt hashes held in memory.
type userStore struct {
	hashes map[string][]byte
	dummy  []byte
}

func newUserStore(creds map[string]string, cost int) (*userStore, error) {
	s := &userStore{hashes: make(map[string][]byte, len(creds))}
	for name, password := range creds {
		h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", name, err)
		}
		s.hashes[name] = h
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("unknown-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	s.dummy = dummy
	return s, nil
}

// Authenticate reports whether password matches the stored hash. Unknown
// users are compared against a dummy hash so both paths cost the same.
func (s *userStore) Authenticate(username, password string) bool {
	h, ok := s.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(h, []byte(password)) == nil
}
