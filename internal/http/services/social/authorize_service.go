package social

import (
	"context"
	"errors"
)

// AuthorizeService handles the start phase of social login.
type AuthorizeService interface {
	// Authorize initiates the flow and returns the provider consent URL.
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
}

// AuthorizeRequest contains the parameters for starting social login.
type AuthorizeRequest struct {
	Provider    string
	RedirectURI string // frontend callback the user returns to after login
	// LinkUser, when set, marks this flow as account linking for an
	// already-authenticated user (canonical UUID).
	LinkUser string
	// Extra carries passthrough query params (never overrides reserved ones).
	Extra map[string]string
}

// AuthorizeResult contains the result of starting social login.
type AuthorizeResult struct {
	RedirectURL string
}

// Errors for authorize service.
var (
	ErrAuthorizeMissingRedirect = errors.New("missing redirect_uri")
	ErrAuthorizeProviderUnknown = errors.New("unknown provider")
	ErrAuthorizeURLFailed       = errors.New("failed to generate auth URL")
)
