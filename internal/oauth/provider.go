// Package oauth implements the ten supported identity providers behind one
// interface: authorization URL building, callback parsing, code exchange and
// normalization of the heterogeneous user payloads into a single User shape.
//
// Unlike the endpoints, which are fixed per provider, credentials and scopes
// come from configuration. The per-provider differences (scope delimiter,
// PKCE requirement, id_token vs userinfo identity) live in one dialect table.
package oauth

import (
	"fmt"
	"net/http"
	"time"
)

// ProviderID identifies a supported identity provider.
type ProviderID string

const (
	Google    ProviderID = "google"
	Apple     ProviderID = "apple"
	Microsoft ProviderID = "microsoft"
	Facebook  ProviderID = "facebook"
	GitHub    ProviderID = "github"
	X         ProviderID = "x"
	LinkedIn  ProviderID = "linkedin"
	Discord   ProviderID = "discord"
	Kakao     ProviderID = "kakao"
	Naver     ProviderID = "naver"
)

// Providers lists every supported provider.
var Providers = []ProviderID{
	Google, Apple, Microsoft, Facebook, GitHub, X, LinkedIn, Discord, Kakao, Naver,
}

// ParseProviderID validates a provider tag from config or a request path.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(s)
	if _, ok := dialects[id]; !ok {
		return "", fmt.Errorf("oauth: unknown provider %q", s)
	}
	return id, nil
}

// dialect captures the protocol differences between providers. Endpoint URLs
// are fixed collaborators, never configuration.
type dialect struct {
	authURL     string
	tokenURL    string
	userInfoURL string // empty when identity comes only from the id_token
	emailsURL   string // GitHub only

	// scopeSep joins scopes in the authorization URL. Most providers use a
	// space; Discord, Facebook and Kakao use a comma.
	scopeSep string

	defaultScopes []string

	// requirePKCE makes code_challenge mandatory at URL build time.
	requirePKCE bool

	// idTokenIdentity means the identity is decoded from the id_token when
	// the token response carries one, skipping the userinfo call.
	idTokenIdentity bool

	// authParams are fixed extra authorization parameters.
	authParams map[string]string
}

var dialects = map[ProviderID]dialect{
	Google: {
		authURL:         "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:        "https://oauth2.googleapis.com/token",
		userInfoURL:     "https://openidconnect.googleapis.com/v1/userinfo",
		scopeSep:        " ",
		defaultScopes:   []string{"openid", "email", "profile"},
		idTokenIdentity: true,
	},
	Apple: {
		authURL:         "https://appleid.apple.com/auth/authorize",
		tokenURL:        "https://appleid.apple.com/auth/token",
		scopeSep:        " ",
		defaultScopes:   []string{"name", "email"},
		idTokenIdentity: true,
		// Apple requires form_post delivery when name/email scopes are requested.
		authParams: map[string]string{"response_mode": "form_post"},
	},
	Microsoft: {
		authURL:         "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
		tokenURL:        "https://login.microsoftonline.com/common/oauth2/v2.0/token",
		userInfoURL:     "https://graph.microsoft.com/oidc/userinfo",
		scopeSep:        " ",
		defaultScopes:   []string{"openid", "email", "profile"},
		idTokenIdentity: true,
	},
	Facebook: {
		authURL:       "https://www.facebook.com/v18.0/dialog/oauth",
		tokenURL:      "https://graph.facebook.com/v18.0/oauth/access_token",
		userInfoURL:   "https://graph.facebook.com/v18.0/me?fields=id,first_name,last_name,email,picture",
		scopeSep:      ",",
		defaultScopes: []string{"email", "public_profile"},
	},
	GitHub: {
		authURL:       "https://github.com/login/oauth/authorize",
		tokenURL:      "https://github.com/login/oauth/access_token",
		userInfoURL:   "https://api.github.com/user",
		emailsURL:     "https://api.github.com/user/emails",
		scopeSep:      " ",
		defaultScopes: []string{"read:user", "user:email"},
	},
	X: {
		authURL:       "https://twitter.com/i/oauth2/authorize",
		tokenURL:      "https://api.twitter.com/2/oauth2/token",
		userInfoURL:   "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
		scopeSep:      " ",
		defaultScopes: []string{"users.read", "tweet.read"},
		requirePKCE:   true,
	},
	LinkedIn: {
		authURL:         "https://www.linkedin.com/oauth/v2/authorization",
		tokenURL:        "https://www.linkedin.com/oauth/v2/accessToken",
		userInfoURL:     "https://api.linkedin.com/v2/userinfo",
		scopeSep:        " ",
		defaultScopes:   []string{"openid", "email", "profile"},
		idTokenIdentity: true,
	},
	Discord: {
		authURL:       "https://discord.com/oauth2/authorize",
		tokenURL:      "https://discord.com/api/oauth2/token",
		userInfoURL:   "https://discord.com/api/users/@me",
		scopeSep:      ",",
		defaultScopes: []string{"identify", "email"},
	},
	Kakao: {
		authURL:       "https://kauth.kakao.com/oauth/authorize",
		tokenURL:      "https://kauth.kakao.com/oauth/token",
		userInfoURL:   "https://kapi.kakao.com/v2/user/me",
		scopeSep:      ",",
		defaultScopes: []string{"profile_nickname", "profile_image", "account_email"},
	},
	Naver: {
		authURL:       "https://nid.naver.com/oauth2.0/authorize",
		tokenURL:      "https://nid.naver.com/oauth2.0/token",
		userInfoURL:   "https://openapi.naver.com/v1/nid/me",
		scopeSep:      " ",
		defaultScopes: nil, // Naver scopes are managed in the app console
	},
}

// Client is the configured adapter for one provider.
type Client struct {
	ID           ProviderID
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// endpoints copied from the dialect so tests can point them at fakes.
	authURL     string
	tokenURL    string
	userInfoURL string
	emailsURL   string

	http *http.Client
}

// New creates a provider client. A zero timeout falls back to 10s.
func New(id ProviderID, clientID, clientSecret, redirectURL string, scopes []string, timeout time.Duration) (*Client, error) {
	d, ok := dialects[id]
	if !ok {
		return nil, fmt.Errorf("oauth: unknown provider %q", id)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if len(scopes) == 0 {
		scopes = d.defaultScopes
	}
	return &Client{
		ID:           id,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		authURL:      d.authURL,
		tokenURL:     d.tokenURL,
		userInfoURL:  d.userInfoURL,
		emailsURL:    d.emailsURL,
		http:         &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) dialect() dialect { return dialects[c.ID] }

// RequiresPKCE reports whether the provider mandates a code challenge.
func (c *Client) RequiresPKCE() bool { return c.dialect().requirePKCE }

// UsesIDToken reports whether identity comes from the id_token instead of a
// user-info call.
func (c *Client) UsesIDToken() bool { return c.dialect().idTokenIdentity }

// Registry holds the configured provider clients.
type Registry struct {
	clients map[ProviderID]*Client
}

// NewRegistry builds a registry from configured clients.
func NewRegistry(clients ...*Client) *Registry {
	m := make(map[ProviderID]*Client, len(clients))
	for _, c := range clients {
		m[c.ID] = c
	}
	return &Registry{clients: m}
}

// Get returns the client for a provider, or an error if it is not configured.
func (r *Registry) Get(id ProviderID) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("oauth: provider %q not configured", id)
	}
	return c, nil
}

// IDs returns the configured provider tags.
func (r *Registry) IDs() []ProviderID {
	out := make([]ProviderID, 0, len(r.clients))
	for _, p := range Providers {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
