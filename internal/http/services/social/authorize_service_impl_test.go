package social

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/state"
)

func newAuthorizeFixture(t *testing.T, providers ...oauth.ProviderID) (AuthorizeService, *state.Store) {
	t.Helper()
	var clients []*oauth.Client
	for _, pid := range providers {
		c, err := oauth.New(pid, "client-id", "client-secret", "https://gw.example.com/auth/"+string(pid)+"/callback", nil, time.Second)
		if err != nil {
			t.Fatalf("oauth.New(%s): %v", pid, err)
		}
		clients = append(clients, c)
	}
	states := state.New(cache.NewMemory("test"), time.Minute)
	svc := NewAuthorizeService(AuthorizeDeps{
		Registry: oauth.NewRegistry(clients...),
		States:   states,
	})
	return svc, states
}

func TestAuthorizeStoresStateAndBuildsURL(t *testing.T) {
	ctx := context.Background()
	svc, states := newAuthorizeFixture(t, oauth.Google)

	res, err := svc.Authorize(ctx, AuthorizeRequest{
		Provider:    "google",
		RedirectURI: "https://app.example.com/done",
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	u, err := url.Parse(res.RedirectURL)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if u.Host != "accounts.google.com" {
		t.Fatalf("unexpected consent host %q", u.Host)
	}
	stateKey := u.Query().Get("state")
	if stateKey == "" {
		t.Fatal("state param missing from consent URL")
	}

	entry, err := states.Take(ctx, stateKey)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if entry.RedirectURI != "https://app.example.com/done" {
		t.Fatalf("stored redirect = %q", entry.RedirectURI)
	}
	if entry.LinkUser != "" {
		t.Fatalf("unexpected link user %q", entry.LinkUser)
	}
}

func TestAuthorizeGeneratesPKCEForX(t *testing.T) {
	ctx := context.Background()
	svc, states := newAuthorizeFixture(t, oauth.X)

	res, err := svc.Authorize(ctx, AuthorizeRequest{
		Provider:    "x",
		RedirectURI: "https://app.example.com/done",
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	u, _ := url.Parse(res.RedirectURL)
	q := u.Query()
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		t.Fatalf("missing PKCE params: %v", q)
	}

	entry, err := states.Take(ctx, q.Get("state"))
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if entry.CodeVerifier == "" {
		t.Fatal("code verifier not persisted with the state")
	}
	if oauth.ChallengeS256(entry.CodeVerifier) != q.Get("code_challenge") {
		t.Fatal("stored verifier does not match the challenge in the URL")
	}
}

func TestAuthorizeLinkModePersistsUser(t *testing.T) {
	ctx := context.Background()
	svc, states := newAuthorizeFixture(t, oauth.GitHub)

	res, err := svc.Authorize(ctx, AuthorizeRequest{
		Provider:    "github",
		RedirectURI: "https://app.example.com/done",
		LinkUser:    "3f1c7a2e-0000-4000-8000-000000000001",
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	u, _ := url.Parse(res.RedirectURL)
	entry, err := states.Take(ctx, u.Query().Get("state"))
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if entry.LinkUser != "3f1c7a2e-0000-4000-8000-000000000001" {
		t.Fatalf("link user = %q", entry.LinkUser)
	}
}

func TestAuthorizeRejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthorizeFixture(t, oauth.Google)

	if _, err := svc.Authorize(ctx, AuthorizeRequest{Provider: "google"}); !errors.Is(err, ErrAuthorizeMissingRedirect) {
		t.Fatalf("missing redirect = %v", err)
	}
	if _, err := svc.Authorize(ctx, AuthorizeRequest{Provider: "myspace", RedirectURI: "https://a"}); !errors.Is(err, ErrAuthorizeProviderUnknown) {
		t.Fatalf("unknown provider = %v", err)
	}
	// Conocido pero no configurado en esta instancia.
	if _, err := svc.Authorize(ctx, AuthorizeRequest{Provider: "kakao", RedirectURI: "https://a"}); !errors.Is(err, ErrAuthorizeProviderUnknown) {
		t.Fatalf("unconfigured provider = %v", err)
	}
}
