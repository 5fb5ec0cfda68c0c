package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore implementa IdentityStore con maps en memoria.
// Útil para desarrollo y testing; respeta la misma semántica que pg
// (unicidad de (provider, identifier), delete en cascada).
type memoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]User
	accounts map[accountKey]Account
}

type accountKey struct {
	provider   string
	identifier string
}

// NewMemory crea un IdentityStore en memoria.
func NewMemory() IdentityStore {
	return &memoryStore{
		users:    make(map[uuid.UUID]User),
		accounts: make(map[accountKey]Account),
	}
}

func (s *memoryStore) FindAccount(ctx context.Context, provider, identifier string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountKey{provider, identifier}]
	if !ok {
		return nil, ErrNotFound
	}
	out := a
	return &out, nil
}

func (s *memoryStore) FindUser(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u
	return &out, nil
}

func (s *memoryStore) AccountsByUser(ctx context.Context, id uuid.UUID) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Account
	for _, a := range s.accounts {
		if a.UserUUID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memoryStore) CreateUser(ctx context.Context) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := User{UUID: uuid.New(), CreatedAt: time.Now().UTC()}
	s.users[u.UUID] = u
	out := u
	return &out, nil
}

func (s *memoryStore) CreateAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := accountKey{provider, identifier}
	if _, exists := s.accounts[k]; exists {
		return nil, ErrDuplicateAccount
	}
	a := Account{Provider: provider, Identifier: identifier, UserUUID: userID, CreatedAt: time.Now().UTC()}
	s.accounts[k] = a
	out := a
	return &out, nil
}

func (s *memoryStore) DeleteAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := accountKey{provider, identifier}
	a, ok := s.accounts[k]
	if !ok || a.UserUUID != userID {
		return false, nil
	}
	delete(s.accounts, k)
	return true, nil
}

func (s *memoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	// cascada
	for k, a := range s.accounts {
		if a.UserUUID == id {
			delete(s.accounts, k)
		}
	}
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) error { return nil }

func (s *memoryStore) Close() {}
