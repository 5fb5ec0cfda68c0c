package oauth

import (
	"errors"
	"net/url"
	"strings"
)

// AuthorizationRequest carries the per-request parameters for building an
// authorization URL. Client credentials and scopes come from the Client.
type AuthorizationRequest struct {
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string

	// Extra adds provider-specific parameters. Reserved parameters
	// (client_id, redirect_uri, response_type, scope, state) are never
	// overridden; response_mode is honored for Apple only.
	Extra map[string]string
}

// ErrMissingPKCE is returned when a provider mandates PKCE and no
// code_challenge was supplied.
var ErrMissingPKCE = errors.New("oauth: code_challenge required for this provider")

var reservedAuthParams = map[string]bool{
	"client_id":     true,
	"redirect_uri":  true,
	"response_type": true,
	"scope":         true,
	"state":         true,
}

// AuthURL builds the provider authorization URL. Deterministic for identical
// inputs: url.Values encodes keys in sorted order.
func (c *Client) AuthURL(req AuthorizationRequest) (string, error) {
	d := c.dialect()

	if d.requirePKCE && req.CodeChallenge == "" {
		return "", ErrMissingPKCE
	}

	u, err := url.Parse(c.authURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(c.Scopes, d.scopeSep))
	q.Set("state", req.State)

	if req.Nonce != "" {
		q.Set("nonce", req.Nonce)
	}
	if req.CodeChallenge != "" {
		method := req.CodeChallengeMethod
		if method == "" {
			method = "S256"
		}
		q.Set("code_challenge", req.CodeChallenge)
		q.Set("code_challenge_method", method)
	}

	for k, v := range d.authParams {
		q.Set(k, v)
	}

	for k, v := range req.Extra {
		if reservedAuthParams[k] {
			continue
		}
		if k == "response_mode" && c.ID != Apple {
			continue
		}
		q.Set(k, v)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}
