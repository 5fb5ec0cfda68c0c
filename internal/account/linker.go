// Package account implements the account linking engine: find-or-create on
// social login, explicit link/unlink, and full user deletion.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/store"
)

// Linker coordina identidades sociales contra el identity store.
type Linker struct {
	store store.IdentityStore
}

// New crea un Linker sobre el store dado.
func New(s store.IdentityStore) *Linker {
	return &Linker{store: s}
}

// LoginResult es el resultado de HandleSocialLogin.
type LoginResult struct {
	UserUUID uuid.UUID
	// NewUser indica que el login creó al usuario.
	NewUser bool
	// NewAccount indica que el login registró la cuenta social. En este
	// flujo la cuenta solo se crea junto con el usuario, así que siempre
	// acompaña a NewUser; las cuentas adicionales entran por LinkAccount.
	NewAccount bool
}

// HandleSocialLogin resuelve (provider, identifier) a un usuario canónico.
// Si la cuenta ya existe devuelve su dueño; si no, crea usuario + cuenta.
// Cuando la creación de la cuenta falla después de crear el usuario, se
// ejecuta la compensación (borrar el usuario recién creado) para no dejar
// usuarios huérfanos sin cuentas.
func (l *Linker) HandleSocialLogin(ctx context.Context, provider, identifier string) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("account.linker"),
		logger.Provider(provider),
	)

	existing, err := l.store.FindAccount(ctx, provider, identifier)
	if err == nil {
		return &LoginResult{UserUUID: existing.UserUUID}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("account: lookup: %w", err)
	}

	user, err := l.store.CreateUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("account: create user: %w", err)
	}

	if _, err := l.store.CreateAccount(ctx, provider, identifier, user.UUID); err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			// Carrera: otro request registró la cuenta entre el lookup
			// y el insert. Compensar y devolver al dueño real.
			if delErr := l.store.DeleteUser(ctx, user.UUID); delErr != nil {
				log.Error("rollback failed after duplicate account",
					logger.UserID(user.UUID.String()), logger.Err(delErr))
				return nil, fmt.Errorf("account: rollback failed, orphaned user %s: %w", user.UUID, delErr)
			}
			winner, findErr := l.store.FindAccount(ctx, provider, identifier)
			if findErr != nil {
				return nil, fmt.Errorf("account: lookup after duplicate: %w", findErr)
			}
			return &LoginResult{UserUUID: winner.UserUUID}, nil
		}

		if delErr := l.store.DeleteUser(ctx, user.UUID); delErr != nil {
			log.Error("rollback failed, user orphaned",
				logger.UserID(user.UUID.String()), logger.Err(delErr))
			return nil, fmt.Errorf("account: create account failed (%v) and rollback failed, orphaned user %s: %w",
				err, user.UUID, delErr)
		}
		return nil, fmt.Errorf("account: create account (rolled back user %s): %w", user.UUID, err)
	}

	log.Info("user created from social login", logger.UserID(user.UUID.String()))
	return &LoginResult{UserUUID: user.UUID, NewUser: true, NewAccount: true}, nil
}

// LinkAccount asocia una cuenta social adicional a un usuario existente.
// Es idempotente: si el triple ya existe devuelve alreadyLinked=true sin
// tocar el store. Si la cuenta pertenece a otro usuario devuelve
// ErrAlreadyLinkedToAnotherUser. La propiedad de la cuenta se resuelve
// antes de validar al usuario: una cuenta ajena siempre reporta el
// conflicto, aunque el uuid del solicitante ya no exista.
func (l *Linker) LinkAccount(ctx context.Context, userID uuid.UUID, provider, identifier string) (alreadyLinked bool, err error) {
	existing, err := l.store.FindAccount(ctx, provider, identifier)
	if err == nil {
		if existing.UserUUID == userID {
			return true, nil // ya enlazada a este usuario
		}
		return false, ErrAlreadyLinkedToAnotherUser
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("account: lookup: %w", err)
	}

	if _, err := l.store.FindUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("account: find user: %w", err)
	}

	if _, err := l.store.CreateAccount(ctx, provider, identifier, userID); err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			// Carrera contra otro link/login simultáneo.
			winner, findErr := l.store.FindAccount(ctx, provider, identifier)
			if findErr == nil && winner.UserUUID == userID {
				return true, nil
			}
			return false, ErrAlreadyLinkedToAnotherUser
		}
		return false, fmt.Errorf("account: create account: %w", err)
	}

	logger.From(ctx).Info("account linked",
		logger.Layer("service"), logger.Component("account.linker"),
		logger.Provider(provider), logger.UserID(userID.String()))
	return false, nil
}

// UnlinkAccount elimina una cuenta social de un usuario. Rechaza el unlink
// de la última cuenta: un usuario sin cuentas no puede volver a entrar.
func (l *Linker) UnlinkAccount(ctx context.Context, userID uuid.UUID, provider, identifier string) error {
	accounts, err := l.store.AccountsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("account: list accounts: %w", err)
	}
	if len(accounts) <= 1 {
		// Cubre tanto "última cuenta" como "usuario sin cuentas": en el
		// segundo caso el delete scoped fallará con AccountNotFound.
		for _, a := range accounts {
			if a.Provider == provider && a.Identifier == identifier {
				return ErrCannotUnlinkLastAccount
			}
		}
		return ErrAccountNotFound
	}

	removed, err := l.store.DeleteAccount(ctx, provider, identifier, userID)
	if err != nil {
		return fmt.Errorf("account: delete account: %w", err)
	}
	if !removed {
		return ErrAccountNotFound
	}

	logger.From(ctx).Info("account unlinked",
		logger.Layer("service"), logger.Component("account.linker"),
		logger.Provider(provider), logger.UserID(userID.String()))
	return nil
}

// Accounts lista las cuentas sociales de un usuario.
func (l *Linker) Accounts(ctx context.Context, userID uuid.UUID) ([]store.Account, error) {
	if _, err := l.store.FindUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("account: find user: %w", err)
	}
	return l.store.AccountsByUser(ctx, userID)
}

// DeleteUser borra al usuario y todas sus cuentas (cascada en el store).
func (l *Linker) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := l.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("account: delete user: %w", err)
	}
	logger.From(ctx).Info("user deleted",
		logger.Layer("service"), logger.Component("account.linker"),
		logger.UserID(userID.String()))
	return nil
}
