package social

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	svc "github.com/dropDatabas3/socialgate/internal/http/services/social"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

// CallbackController handles the social login callback endpoint.
type CallbackController struct {
	service svc.CallbackService
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(service svc.CallbackService) *CallbackController {
	return &CallbackController{service: service}
}

// Callback handles GET /auth/{provider}/callback
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	provider := strings.TrimSpace(r.PathValue("provider"))
	if provider == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDetail("missing provider"))
		return
	}

	// Algunos providers entregan los params en el fragment; el frontend
	// los reenvía y acá se resuelve query-gana-sobre-fragment.
	params, err := oauth.ParseCallbackParams(r.URL.String())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidRequest.WithDetail("malformed callback URL"))
		return
	}

	result, err := c.service.Callback(ctx, svc.CallbackRequest{
		Provider: provider,
		Params:   params,
	})
	if err != nil {
		if errors.Is(err, svc.ErrCallbackProviderUnknown) {
			httperrors.WriteError(w, httperrors.ErrUnknownProvider.WithDetail(provider))
			return
		}
		log.Error("callback failed", logger.Provider(provider), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
