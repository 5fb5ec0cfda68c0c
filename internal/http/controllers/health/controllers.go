// Package health contains the health check controller.
package health

import (
	"encoding/json"
	"net/http"

	svc "github.com/dropDatabas3/socialgate/internal/http/services/health"
)

// Controller handles GET /health.
type Controller struct {
	service *svc.Service
}

// NewController creates the health controller.
func NewController(service *svc.Service) *Controller {
	return &Controller{service: service}
}

// Health handles GET /health
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	report := c.service.Check(r.Context())

	status := http.StatusOK
	if report.Status != svc.StatusHealthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
