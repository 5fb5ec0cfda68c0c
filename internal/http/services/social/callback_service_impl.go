package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/account"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/session"
	"github.com/dropDatabas3/socialgate/internal/state"
)

// CallbackDeps contains dependencies for callback service.
type CallbackDeps struct {
	Registry *oauth.Registry
	States   *state.Store
	Linker   *account.Linker
	Sessions *session.Issuer
	// FrontendBaseURL receives error redirects when no stored redirect
	// URI is available (state invalid, provider error, etc).
	FrontendBaseURL string
}

// callbackService implements CallbackService.
type callbackService struct {
	registry    *oauth.Registry
	states      *state.Store
	linker      *account.Linker
	sessions    *session.Issuer
	frontendURL string
}

// NewCallbackService creates a new CallbackService.
func NewCallbackService(d CallbackDeps) CallbackService {
	return &callbackService{
		registry:    d.Registry,
		states:      d.States,
		linker:      d.Linker,
		sessions:    d.Sessions,
		frontendURL: d.FrontendBaseURL,
	}
}

// Callback processes the OAuth callback. Every outcome is a redirect: the
// checks short-circuit in a fixed order (provider error passthrough, missing
// params, state consumption) and any failure sends the user back to the
// frontend base URL with error/error_description.
func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.callback"))

	pid, perr := oauth.ParseProviderID(req.Provider)
	if perr != nil {
		return nil, ErrCallbackProviderUnknown
	}
	client, cerr := s.registry.Get(pid)
	if cerr != nil {
		return nil, ErrCallbackProviderUnknown
	}
	log = log.With(logger.Provider(string(pid)))
	p := req.Params

	// 1. El provider reportó un error: passthrough literal, nunca 5xx.
	if p.Error != "" {
		log.Warn("provider returned error",
			logger.String("error", p.Error),
			logger.String("error_description", p.ErrorDescription),
		)
		metrics.CallbackResults.WithLabelValues(string(pid), p.Error).Inc()
		// Best effort: consumir el state para que no quede vivo.
		if p.State != "" {
			_, _ = s.states.Take(ctx, p.State)
		}
		return s.errorRedirect(p.Error, p.ErrorDescription), nil
	}

	// 2. Parámetros obligatorios.
	if p.Code == "" || p.State == "" {
		metrics.CallbackResults.WithLabelValues(string(pid), "invalid_request").Inc()
		return s.errorRedirect("invalid_request", "code and state are required"), nil
	}

	// 3. Consumo atómico del state: un segundo callback con el mismo
	// state siempre cae acá.
	entry, err := s.states.Take(ctx, p.State)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			log.Error("state store failure", logger.Err(err))
		} else {
			log.Warn("state rejected", logger.StatePrefix(p.State))
		}
		metrics.CallbackResults.WithLabelValues(string(pid), "invalid_state").Inc()
		return s.errorRedirect("invalid_state", "invalid_or_expired_state"), nil
	}

	// 4. code -> tokens.
	start := time.Now()
	tok, err := client.ExchangeCode(ctx, p.Code, entry.CodeVerifier)
	metrics.ExchangeLatency.WithLabelValues(string(pid)).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		log.Error("token exchange failed", logger.Err(err))
		metrics.CallbackResults.WithLabelValues(string(pid), "token_exchange_failed").Inc()
		return s.errorRedirect("token_exchange_failed", "provider rejected the code exchange"), nil
	}

	// 5. tokens -> identidad canónica.
	user, err := client.Identity(ctx, tok)
	if err != nil {
		var payloadErr *oauth.PayloadError
		code := "user_info_failed"
		if errors.As(err, &payloadErr) {
			code = "invalid_payload"
		}
		log.Error("identity resolution failed", logger.Err(err))
		metrics.CallbackResults.WithLabelValues(string(pid), code).Inc()
		return s.errorRedirect(code, "could not resolve user identity"), nil
	}

	// 6. Reconciliar contra el identity store: link explícito o login.
	var userUUID string
	if entry.LinkUser != "" {
		target, perr := uuid.Parse(entry.LinkUser)
		if perr != nil {
			metrics.CallbackResults.WithLabelValues(string(pid), "invalid_state").Inc()
			return s.errorRedirect("invalid_state", "invalid_or_expired_state"), nil
		}
		alreadyLinked, err := s.linker.LinkAccount(ctx, target, string(pid), user.ID)
		if err != nil {
			code := "internal_error"
			switch {
			case errors.Is(err, account.ErrAlreadyLinkedToAnotherUser):
				code = "account_already_linked"
			case errors.Is(err, account.ErrUserNotFound):
				code = "user_not_found"
			default:
				log.Error("link failed", logger.Err(err))
			}
			metrics.CallbackResults.WithLabelValues(string(pid), code).Inc()
			return s.errorRedirect(code, "account linking failed"), nil
		}
		if !alreadyLinked {
			metrics.AccountsLinked.WithLabelValues(string(pid)).Inc()
		}
		userUUID = entry.LinkUser
	} else {
		res, err := s.linker.HandleSocialLogin(ctx, string(pid), user.ID)
		if err != nil {
			log.Error("social login reconciliation failed", logger.Err(err))
			metrics.CallbackResults.WithLabelValues(string(pid), "internal_error").Inc()
			return s.errorRedirect("internal_error", "login could not be completed"), nil
		}
		if res.NewUser {
			metrics.UsersCreated.Inc()
		}
		userUUID = res.UserUUID.String()
	}

	// 7. Sesión del gateway.
	sessionToken, _, err := s.sessions.Issue(userUUID, string(pid))
	if err != nil {
		log.Error("session issue failed", logger.Err(err))
		metrics.CallbackResults.WithLabelValues(string(pid), "internal_error").Inc()
		return s.errorRedirect("internal_error", "session could not be issued"), nil
	}

	redirectURL, err := successRedirect(entry, user, tok, userUUID, sessionToken)
	if err != nil {
		log.Error("redirect build failed", logger.Err(err))
		metrics.CallbackResults.WithLabelValues(string(pid), "internal_error").Inc()
		return s.errorRedirect("internal_error", "redirect could not be built"), nil
	}

	metrics.CallbackResults.WithLabelValues(string(pid), "success").Inc()
	log.Info("social login completed", logger.UserID(userUUID))
	return &CallbackResult{RedirectURL: redirectURL}, nil
}

// errorRedirect arma el redirect de error hacia la base del frontend.
func (s *callbackService) errorRedirect(code, description string) *CallbackResult {
	q := url.Values{}
	q.Set("error", code)
	if description != "" {
		q.Set("error_description", description)
	}
	return &CallbackResult{RedirectURL: joinQuery(s.frontendURL, q)}
}

// successRedirect arma el redirect de éxito hacia el redirect_uri guardado
// en el state, con el usuario canónico serializado en el query param `user`.
func successRedirect(entry *state.Entry, user *oauth.User, tok *oauth.TokenResponse, userUUID, sessionToken string) (string, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}

	q := url.Values{}
	q.Set("user", string(payload))
	q.Set("access_token", tok.AccessToken)
	if tok.IDToken != "" {
		q.Set("id_token", tok.IDToken)
	}
	q.Set("uuid", userUUID)
	q.Set("session_token", sessionToken)
	return joinQuery(entry.RedirectURI, q), nil
}

// joinQuery agrega params respetando un query string preexistente.
func joinQuery(base string, q url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		// base inválida: degradar a concatenación simple
		return base + "?" + q.Encode()
	}
	existing := u.Query()
	for k, vs := range q {
		for _, v := range vs {
			existing.Set(k, v)
		}
	}
	u.RawQuery = existing.Encode()
	return u.String()
}
