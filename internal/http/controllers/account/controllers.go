// Package account contains controllers for authenticated account management.
package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	acc "github.com/dropDatabas3/socialgate/internal/account"
	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/account"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// Controller handles the /account endpoints. All of them run behind
// WithSessionAuth, so the session claims are always in the context.
type Controller struct {
	service *svc.Service
}

// NewController creates the account controller.
func NewController(service *svc.Service) *Controller {
	return &Controller{service: service}
}

// sessionUUID extrae el UUID del usuario autenticado del contexto.
func sessionUUID(r *http.Request) (uuid.UUID, bool) {
	claims := middlewares.GetSession(r.Context())
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserUUID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Profile handles GET /account
func (c *Controller) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUUID(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidSession)
		return
	}

	profile, err := c.service.Profile(r.Context(), userID)
	if err != nil {
		writeAccountError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(profile)
}

// unlinkRequest es el body de POST /account/unlink.
type unlinkRequest struct {
	Provider   string `json:"provider"`
	Identifier string `json:"identifier"`
}

// Unlink handles POST /account/unlink
func (c *Controller) Unlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUUID(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidSession)
		return
	}

	var req unlinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDetail("invalid JSON body"))
		return
	}
	req.Provider = strings.TrimSpace(req.Provider)
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Provider == "" || req.Identifier == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDetail("provider and identifier are required"))
		return
	}

	if err := c.service.Unlink(r.Context(), userID, req.Provider, req.Identifier); err != nil {
		writeAccountError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /account
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUUID(r)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidSession)
		return
	}

	if err := c.service.Delete(r.Context(), userID); err != nil {
		writeAccountError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeAccountError mapea los errores del linker a AppError.
func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, acc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
	case errors.Is(err, acc.ErrAccountNotFound):
		httperrors.WriteError(w, httperrors.ErrAccountNotFound)
	case errors.Is(err, acc.ErrCannotUnlinkLastAccount):
		httperrors.WriteError(w, httperrors.ErrCannotUnlinkLast)
	case errors.Is(err, acc.ErrAlreadyLinkedToAnotherUser):
		httperrors.WriteError(w, httperrors.ErrAccountAlreadyLinked)
	default:
		logger.From(r.Context()).Error("account operation failed",
			logger.Layer("controller"), logger.Component("account"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
