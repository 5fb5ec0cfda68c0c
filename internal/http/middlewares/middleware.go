// Package middlewares contiene los middlewares HTTP del gateway.
package middlewares

import "net/http"

// Middleware envuelve un handler. Los constructores With* retornan este tipo
// para que el router los componga con chi (r.Use).
type Middleware func(http.Handler) http.Handler
