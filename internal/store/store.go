// Package store defines the persistent identity model: users and their
// linked provider accounts. The invariant "every user owns at least one
// account" is enforced by the account linker, not the schema; uniqueness of
// (provider, identifier) is enforced here.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// User is the canonical account holder. Existence alone represents an account.
type User struct {
	UUID      uuid.UUID
	CreatedAt time.Time
}

// Account links one provider identity to a user.
type Account struct {
	Provider   string
	Identifier string
	UserUUID   uuid.UUID
	CreatedAt  time.Time
}

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateAccount indicates (provider, identifier) is already linked.
	// Surfaced by the unique index; the linker uses it as a race signal.
	ErrDuplicateAccount = errors.New("store: account already linked")
)

// IdentityStore is the persistence interface for users and account links.
type IdentityStore interface {
	// FindAccount looks up an account by (provider, identifier).
	FindAccount(ctx context.Context, provider, identifier string) (*Account, error)

	// FindUser looks up a user by uuid.
	FindUser(ctx context.Context, id uuid.UUID) (*User, error)

	// AccountsByUser returns every account linked to a user.
	AccountsByUser(ctx context.Context, id uuid.UUID) ([]Account, error)

	// CreateUser mints a new user row.
	CreateUser(ctx context.Context) (*User, error)

	// CreateAccount links (provider, identifier) to a user.
	// Returns ErrDuplicateAccount when the pair is already taken.
	CreateAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (*Account, error)

	// DeleteAccount removes the row scoped by the full triple so one user can
	// never unlink another user's account. Reports whether a row was removed.
	DeleteAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (bool, error)

	// DeleteUser removes a user and cascades account deletion.
	// Returns ErrNotFound when zero rows were affected.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close()
}
