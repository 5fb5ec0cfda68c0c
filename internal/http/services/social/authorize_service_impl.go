package social

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/state"
)

// AuthorizeDeps contains dependencies for authorize service.
type AuthorizeDeps struct {
	Registry *oauth.Registry
	States   *state.Store
}

// authorizeService implements AuthorizeService.
type authorizeService struct {
	registry *oauth.Registry
	states   *state.Store
}

// NewAuthorizeService creates a new AuthorizeService.
func NewAuthorizeService(d AuthorizeDeps) AuthorizeService {
	return &authorizeService{registry: d.Registry, states: d.States}
}

// Authorize validates the request, persists the CSRF state and builds the
// provider consent URL.
func (s *authorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.authorize"))

	if req.RedirectURI == "" {
		return nil, ErrAuthorizeMissingRedirect
	}
	pid, err := oauth.ParseProviderID(req.Provider)
	if err != nil {
		return nil, ErrAuthorizeProviderUnknown
	}
	client, err := s.registry.Get(pid)
	if err != nil {
		return nil, ErrAuthorizeProviderUnknown
	}

	entry := state.Entry{RedirectURI: req.RedirectURI, LinkUser: req.LinkUser}

	var challenge, method string
	if client.RequiresPKCE() {
		verifier, err := oauth.GenerateCodeVerifier()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthorizeURLFailed, err)
		}
		entry.CodeVerifier = verifier
		challenge = oauth.ChallengeS256(verifier)
		method = "S256"
	}

	stateKey, err := s.states.Put(ctx, entry)
	if err != nil {
		log.Error("state put failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrAuthorizeURLFailed, err)
	}

	authURL, err := client.AuthURL(oauth.AuthorizationRequest{
		State:               stateKey,
		Nonce:               newNonce(),
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		Extra:               req.Extra,
	})
	if err != nil {
		log.Error("auth URL build failed", logger.Provider(string(pid)), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrAuthorizeURLFailed, err)
	}

	metrics.AuthorizeRequests.WithLabelValues(string(pid)).Inc()
	log.Info("authorization started",
		logger.Provider(string(pid)),
		logger.StatePrefix(stateKey),
		logger.Bool("link_mode", req.LinkUser != ""),
	)
	return &AuthorizeResult{RedirectURL: authURL}, nil
}

func newNonce() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
