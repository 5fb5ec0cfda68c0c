package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/session"
)

// SessionVerifier valida un token de sesión y retorna sus claims.
type SessionVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// bearerToken extrae el token del header Authorization, o "".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithSessionAuth exige un session token válido (Bearer) y deja las claims
// en el contexto. Sin token o con token inválido responde 401.
func WithSessionAuth(verifier SessionVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.From(r.Context()).Debug("session token rejected",
					logger.Component("middlewares.auth"), logger.Err(err))
				errors.WriteError(w, errors.ErrInvalidSession)
				return
			}

			ctx := setSession(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSessionAuth intenta validar el Bearer si está presente; si falta
// o es inválido sigue sin claims. Usado por /authorize para el modo link.
func OptionalSessionAuth(verifier SessionVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if claims, err := verifier.Verify(token); err == nil {
					r = r.WithContext(setSession(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
