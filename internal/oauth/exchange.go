package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TokenResponse is the ephemeral result of a code exchange. Never persisted.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Sentinel errors for the two outbound hops.
var (
	ErrTokenExchange = errors.New("token_exchange_failed")
	ErrUserInfo      = errors.New("user_info_failed")
)

// UpstreamError carries diagnostics for a failed provider call. The body is
// truncated and intended for logs only, never for user-facing responses.
type UpstreamError struct {
	Provider ProviderID
	Stage    string // "token" | "userinfo"
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("oauth: %s %s call failed with status %d", e.Provider, e.Stage, e.Status)
}

const maxDiagnosticBody = 512

func truncateBody(b []byte) string {
	if len(b) > maxDiagnosticBody {
		return string(b[:maxDiagnosticBody]) + "...(truncated)"
	}
	return string(b)
}

// ExchangeCode posts the authorization code to the provider token endpoint.
// codeVerifier is included when the authorize leg used PKCE.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURL)
	if codeVerifier != "" {
		form.Set("code_verifier", codeVerifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// GitHub defaults to form-encoded responses without this.
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, &UpstreamError{
			Provider: c.ID, Stage: "token", Status: resp.StatusCode, Body: truncateBody(body),
		})
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrTokenExchange, err)
	}
	if tr.AccessToken == "" && tr.IDToken == "" {
		return nil, fmt.Errorf("%w: empty token response", ErrTokenExchange)
	}
	return &tr, nil
}

// Identity resolves the normalized user for a token response. OIDC providers
// are decoded from the id_token when present (no extra call); the rest go
// through the userinfo endpoint. GitHub additionally falls back to the
// emails endpoint when the profile email is null.
func (c *Client) Identity(ctx context.Context, tok *TokenResponse) (*User, error) {
	if c.dialect().idTokenIdentity && tok.IDToken != "" {
		claims, err := DecodeIDTokenClaims(tok.IDToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
		}
		return c.ParseUserData(claims)
	}

	if c.userInfoURL == "" {
		return nil, fmt.Errorf("%w: no id_token and no userinfo endpoint", ErrUserInfo)
	}

	body, err := c.getJSON(ctx, c.userInfoURL, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	if c.ID == GitHub {
		return c.githubIdentity(ctx, body, tok.AccessToken)
	}
	user, err := c.ParseUserData(body)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DecodeIDTokenClaims extracts the claims segment of a JWT without verifying
// the signature. The token arrived over the provider's TLS token endpoint in
// direct response to our code exchange, which is what authenticates it here.
func DecodeIDTokenClaims(idToken string) ([]byte, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	claims, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, &UpstreamError{
			Provider: c.ID, Stage: "userinfo", Status: resp.StatusCode, Body: truncateBody(body),
		})
	}
	return body, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// githubIdentity handles GitHub's null profile email: query the emails
// endpoint, prefer primary+verified, else the first entry; the noreply
// synthesis in the normalization table covers the rest.
func (c *Client) githubIdentity(ctx context.Context, profile []byte, accessToken string) (*User, error) {
	var m map[string]any
	if err := json.Unmarshal(profile, &m); err != nil {
		return nil, &PayloadError{Provider: GitHub, Field: "(body)"}
	}

	if email, _ := m["email"].(string); email == "" && c.emailsURL != "" {
		if body, err := c.getJSON(ctx, c.emailsURL, accessToken); err == nil {
			var emails []githubEmail
			if json.Unmarshal(body, &emails) == nil && len(emails) > 0 {
				chosen := emails[0].Email
				for _, e := range emails {
					if e.Primary && e.Verified {
						chosen = e.Email
						break
					}
				}
				m["email"] = chosen
			}
		}
		// A failed emails call is not fatal: normalization synthesizes the
		// login@users.noreply.github.com fallback.
	}

	patched, err := json.Marshal(m)
	if err != nil {
		return nil, &PayloadError{Provider: GitHub, Field: "(body)"}
	}
	return c.ParseUserData(patched)
}
