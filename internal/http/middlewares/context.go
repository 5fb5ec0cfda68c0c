package middlewares

import (
	"context"

	"github.com/dropDatabas3/socialgate/internal/session"
)

// Claves de contexto privadas del paquete. Los valores se exponen solo vía
// los getters tipados de abajo.
type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeySession
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestID retorna el request ID inyectado por WithRequestID, o "".
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

func setSession(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, ctxKeySession, claims)
}

// GetSession retorna las claims de la sesión autenticada, o nil si el
// request no pasó por WithSessionAuth.
func GetSession(ctx context.Context) *session.Claims {
	if v, ok := ctx.Value(ctxKeySession).(*session.Claims); ok {
		return v
	}
	return nil
}

// GetUserID retorna el UUID del usuario autenticado, o "".
func GetUserID(ctx context.Context) string {
	if c := GetSession(ctx); c != nil {
		return c.UserUUID
	}
	return ""
}
