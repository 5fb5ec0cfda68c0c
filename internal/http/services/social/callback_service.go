package social

import (
	"context"
	"errors"

	"github.com/dropDatabas3/socialgate/internal/oauth"
)

// CallbackService handles the callback phase of social login.
type CallbackService interface {
	// Callback processes the OAuth callback and returns the frontend
	// redirect URL (success or error, both are redirects).
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// CallbackRequest contains the parameters for processing a callback.
type CallbackRequest struct {
	Provider string
	Params   oauth.CallbackParams
}

// CallbackResult contains the result of callback processing.
type CallbackResult struct {
	RedirectURL string
}

// Errors for callback service. Todos terminan en un redirect al frontend;
// el service los resuelve internamente y solo deja escapar los que no
// tienen redirect posible.
var (
	ErrCallbackProviderUnknown = errors.New("unknown provider")
)
