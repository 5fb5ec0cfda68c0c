// Package state implements the single-use CSRF state machine for the social
// login redirect flow. Entries live in the shared cache (memory or Redis)
// under an opaque random key and are consumed atomically on first read.
package state

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

// DefaultTTL is the window a pending authorization stays valid.
const DefaultTTL = 300 * time.Second

// keyLength produces 32 hex chars, satisfying the ≥32 alphanumeric contract.
const keyLength = 16

const keyPrefix = "oauth:state"

// ErrNotFound indicates the state is unknown, expired, or already consumed.
var ErrNotFound = errors.New("state: invalid_or_expired_state")

// Entry is the value stored under a state key. RedirectURI is where the
// frontend wants the user back; CodeVerifier round-trips PKCE; LinkUser, when
// set, switches the callback from social-login to account-linking mode.
type Entry struct {
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	LinkUser     string `json:"link_user,omitempty"`
}

// Store issues and consumes single-use state entries.
type Store struct {
	cache cache.Client
	ttl   time.Duration
}

// New creates a state store. A zero ttl falls back to DefaultTTL.
func New(c cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// Put stores the entry under a fresh random state and returns the state.
func (s *Store) Put(ctx context.Context, e Entry) (string, error) {
	b := make([]byte, keyLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("state: generate: %w", err)
	}
	st := fmt.Sprintf("%x", b)

	payload, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("state: encode: %w", err)
	}
	if err := s.cache.Set(ctx, keyPrefix+":"+st, string(payload), s.ttl); err != nil {
		return "", fmt.Errorf("state: store: %w", err)
	}
	return st, nil
}

// Take consumes a state atomically: the first call returns the entry, every
// later call (racing duplicate callbacks included) gets ErrNotFound.
func (s *Store) Take(ctx context.Context, st string) (*Entry, error) {
	raw, err := s.cache.Take(ctx, keyPrefix+":"+st)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("state: take: %w", err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, ErrNotFound
	}
	return &e, nil
}
