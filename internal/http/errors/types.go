package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
// El wire format sigue la convención OAuth2: error / error_description.
type AppError struct {
	Code       string `json:"error"`
	Message    string `json:"error_description"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Error original (causa), útil para logs, no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail agrega detalles adicionales al error.
// Devuelve una COPIA del error para no mutar las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa).
// Devuelve una COPIA del error.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 400 Bad Request
var (
	ErrInvalidRequest = &AppError{
		Code:       "invalid_request",
		Message:    "The request is missing a required parameter or is malformed.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnknownProvider = &AppError{
		Code:       "unknown_provider",
		Message:    "The requested provider is not supported.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidState = &AppError{
		Code:       "invalid_state",
		Message:    "The state parameter is invalid, expired, or was already used.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingPKCE = &AppError{
		Code:       "missing_pkce",
		Message:    "This provider requires a PKCE code challenge.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 401 Unauthorized
var (
	ErrUnauthorized = &AppError{
		Code:       "unauthorized",
		Message:    "Authentication is required to access this resource.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidSession = &AppError{
		Code:       "invalid_session",
		Message:    "The session token is invalid or has expired.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// 404 Not Found
var (
	ErrRouteNotFound = &AppError{
		Code:       "route_not_found",
		Message:    "The requested route does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrUserNotFound = &AppError{
		Code:       "user_not_found",
		Message:    "The specified user does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrAccountNotFound = &AppError{
		Code:       "account_not_found",
		Message:    "The social account does not exist or does not belong to this user.",
		HTTPStatus: http.StatusNotFound,
	}
)

// 405 Method Not Allowed
var (
	ErrMethodNotAllowed = &AppError{
		Code:       "method_not_allowed",
		Message:    "The HTTP method is not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// 409 Conflict
var (
	ErrAccountAlreadyLinked = &AppError{
		Code:       "account_already_linked",
		Message:    "The social account is already linked to another user.",
		HTTPStatus: http.StatusConflict,
	}

	ErrCannotUnlinkLast = &AppError{
		Code:       "cannot_unlink_last_account",
		Message:    "A user must keep at least one linked social account.",
		HTTPStatus: http.StatusConflict,
	}
)

// 429 Too Many Requests
var (
	ErrRateLimited = &AppError{
		Code:       "rate_limited",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 502 Bad Gateway - el upstream del provider falló
var (
	ErrTokenExchangeFailed = &AppError{
		Code:       "token_exchange_failed",
		Message:    "The provider rejected the authorization code exchange.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrUserInfoFailed = &AppError{
		Code:       "user_info_failed",
		Message:    "The provider user profile could not be retrieved.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrInvalidPayload = &AppError{
		Code:       "invalid_payload",
		Message:    "The provider returned an unexpected profile payload.",
		HTTPStatus: http.StatusBadGateway,
	}
)

// 500+ Server Errors
var (
	ErrInternalServerError = &AppError{
		Code:       "internal_error",
		Message:    "An internal server error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "service_unavailable",
		Message:    "The service is temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
