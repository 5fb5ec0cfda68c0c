package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/account"
)

// AccountDTO is the wire shape of a linked social account.
type AccountDTO struct {
	Provider   string    `json:"provider"`
	Identifier string    `json:"identifier"`
	LinkedAt   time.Time `json:"linked_at"`
}

// ProfileDTO is the wire shape of GET /account.
type ProfileDTO struct {
	UUID     string       `json:"uuid"`
	Accounts []AccountDTO `json:"accounts"`
}

// Service expone las operaciones de cuenta sobre el linker.
type Service struct {
	linker *account.Linker
}

// New crea el account service.
func New(l *account.Linker) *Service {
	return &Service{linker: l}
}

// Profile lista el usuario con sus cuentas enlazadas.
func (s *Service) Profile(ctx context.Context, userUUID uuid.UUID) (*ProfileDTO, error) {
	accounts, err := s.linker.Accounts(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	out := &ProfileDTO{UUID: userUUID.String(), Accounts: make([]AccountDTO, 0, len(accounts))}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, AccountDTO{
			Provider:   a.Provider,
			Identifier: a.Identifier,
			LinkedAt:   a.CreatedAt,
		})
	}
	return out, nil
}

// Unlink desenlaza una cuenta social del usuario.
func (s *Service) Unlink(ctx context.Context, userUUID uuid.UUID, provider, identifier string) error {
	return s.linker.UnlinkAccount(ctx, userUUID, provider, identifier)
}

// Delete borra al usuario y todas sus cuentas.
func (s *Service) Delete(ctx context.Context, userUUID uuid.UUID) error {
	return s.linker.DeleteUser(ctx, userUUID)
}
