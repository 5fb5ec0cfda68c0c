// Package social contains controllers for the social login endpoints.
package social

import svc "github.com/dropDatabas3/socialgate/internal/http/services/social"

// Controllers agrupa los controllers del dominio social.
type Controllers struct {
	Authorize *AuthorizeController
	Callback  *CallbackController
}

// NewControllers creates the social controllers aggregator.
func NewControllers(authorize svc.AuthorizeService, callback svc.CallbackService) *Controllers {
	return &Controllers{
		Authorize: NewAuthorizeController(authorize),
		Callback:  NewCallbackController(callback),
	}
}
