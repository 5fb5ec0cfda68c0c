package oauth

import (
	"net/url"
)

// CallbackParams are the fields a provider may deliver on redirect. All are
// optional at this layer; validation order belongs to the callback service.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	IDToken          string
	AccessToken      string
}

// ParseCallbackParams extracts callback parameters from a redirect URL.
// Apple, Google, LinkedIn and Microsoft support implicit/hybrid delivery
// where tokens arrive in the URL fragment, so both the query string and the
// fragment are inspected. When a parameter appears in both, query wins.
func ParseCallbackParams(raw string) (CallbackParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackParams{}, err
	}

	query := u.Query()

	var frag url.Values
	if u.Fragment != "" {
		// The fragment of an implicit/hybrid redirect is itself querystring-
		// encoded (access_token=...&id_token=...).
		if fv, err := url.ParseQuery(u.Fragment); err == nil {
			frag = fv
		}
	}

	pick := func(key string) string {
		if v := query.Get(key); v != "" {
			return v
		}
		if frag != nil {
			return frag.Get(key)
		}
		return ""
	}

	return CallbackParams{
		Code:             pick("code"),
		State:            pick("state"),
		Error:            pick("error"),
		ErrorDescription: pick("error_description"),
		IDToken:          pick("id_token"),
		AccessToken:      pick("access_token"),
	}, nil
}
