package social

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/social"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// AuthorizeController handles the social login start endpoint.
type AuthorizeController struct {
	service svc.AuthorizeService
}

// NewAuthorizeController creates a new AuthorizeController.
func NewAuthorizeController(service svc.AuthorizeService) *AuthorizeController {
	return &AuthorizeController{service: service}
}

// Authorize handles GET /auth/{provider}
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorizeController.Authorize"))

	provider := strings.TrimSpace(r.PathValue("provider"))
	if provider == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDetail("missing provider"))
		return
	}

	q := r.URL.Query()
	redirectURI := strings.TrimSpace(q.Get("redirect_uri"))
	if redirectURI == "" {
		log.Warn("missing redirect_uri", logger.Provider(provider))
		// 400 en texto plano: el caller todavía no tiene a dónde redirigir.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("redirect_uri is required"))
		return
	}

	// Con sesión autenticada el flujo es de account linking.
	var linkUser string
	if claims := middlewares.GetSession(ctx); claims != nil {
		linkUser = claims.UserUUID
	}

	// Passthrough de params extra (prompt, login_hint...). Los reservados
	// se filtran en el adapter.
	extra := map[string]string{}
	for k, vs := range q {
		if k == "redirect_uri" || len(vs) == 0 {
			continue
		}
		extra[k] = vs[0]
	}

	result, err := c.service.Authorize(ctx, svc.AuthorizeRequest{
		Provider:    provider,
		RedirectURI: redirectURI,
		LinkUser:    linkUser,
		Extra:       extra,
	})
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrAuthorizeProviderUnknown):
			httperrors.WriteError(w, httperrors.ErrUnknownProvider.WithDetail(provider))
		case errors.Is(err, svc.ErrAuthorizeMissingRedirect):
			httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDetail("redirect_uri is required"))
		default:
			log.Error("authorize failed", logger.Provider(provider), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
