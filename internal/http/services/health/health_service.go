package health

import (
	"context"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/store"
)

// Status values reported by the service.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Report is the health check result.
type Report struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
}

// Service checks the gateway dependencies.
type Service struct {
	store    store.IdentityStore
	cache    cache.Client
	provider string
}

// New crea el health service. provider es el provider activo configurado
// para esta instancia (informativo, no afecta el check).
func New(s store.IdentityStore, c cache.Client, provider string) *Service {
	return &Service{store: s, cache: c, provider: provider}
}

// Check hace ping a store y cache. Cualquier fallo degrada el estado.
func (s *Service) Check(ctx context.Context) *Report {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"))

	status := StatusHealthy
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			log.Error("identity store ping failed", logger.Err(err))
			status = StatusUnhealthy
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			log.Error("state cache ping failed", logger.Err(err))
			status = StatusUnhealthy
		}
	}
	return &Report{Status: status, Provider: s.provider}
}
