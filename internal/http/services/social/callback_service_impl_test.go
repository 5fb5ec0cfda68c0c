package social

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dropDatabas3/socialgate/internal/account"
	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/session"
	"github.com/dropDatabas3/socialgate/internal/state"
	"github.com/dropDatabas3/socialgate/internal/store"
)

const frontendBase = "https://app.example.com/login"

func newCallbackFixture(t *testing.T) (CallbackService, *state.Store) {
	t.Helper()
	client, err := oauth.New(oauth.Google, "client-id", "client-secret", "https://gw.example.com/auth/google/callback", nil, time.Second)
	if err != nil {
		t.Fatalf("oauth.New: %v", err)
	}
	sessions, err := session.New([]byte("test-secret"), "socialgate", time.Hour)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	states := state.New(cache.NewMemory("test"), time.Minute)
	svc := NewCallbackService(CallbackDeps{
		Registry:        oauth.NewRegistry(client),
		States:          states,
		Linker:          account.New(store.NewMemory()),
		Sessions:        sessions,
		FrontendBaseURL: frontendBase,
	})
	return svc, states
}

func redirectQuery(t *testing.T, redirect string) url.Values {
	t.Helper()
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect %q: %v", redirect, err)
	}
	return u.Query()
}

func TestCallbackProviderErrorPassthrough(t *testing.T) {
	svc, _ := newCallbackFixture(t)

	res, err := svc.Callback(context.Background(), CallbackRequest{
		Provider: "google",
		Params: oauth.CallbackParams{
			Error:            "access_denied",
			ErrorDescription: "user cancelled",
		},
	})
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if !strings.HasPrefix(res.RedirectURL, frontendBase) {
		t.Fatalf("error redirect should target the frontend base, got %q", res.RedirectURL)
	}
	q := redirectQuery(t, res.RedirectURL)
	if q.Get("error") != "access_denied" || q.Get("error_description") != "user cancelled" {
		t.Fatalf("provider error not passed through verbatim: %v", q)
	}
}

func TestCallbackProviderErrorConsumesState(t *testing.T) {
	svc, states := newCallbackFixture(t)
	ctx := context.Background()

	key, err := states.Put(ctx, state.Entry{RedirectURI: "https://app.example.com/done"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, err = svc.Callback(ctx, CallbackRequest{
		Provider: "google",
		Params:   oauth.CallbackParams{Error: "access_denied", State: key},
	})
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if _, err := states.Take(ctx, key); err == nil {
		t.Fatal("state survived an error callback")
	}
}

func TestCallbackMissingParams(t *testing.T) {
	svc, _ := newCallbackFixture(t)

	for _, params := range []oauth.CallbackParams{
		{},                    // nada
		{Code: "abc"},         // sin state
		{State: "some-state"}, // sin code
	} {
		res, err := svc.Callback(context.Background(), CallbackRequest{Provider: "google", Params: params})
		if err != nil {
			t.Fatalf("Callback: %v", err)
		}
		q := redirectQuery(t, res.RedirectURL)
		if q.Get("error") != "invalid_request" {
			t.Fatalf("params %+v: error = %q, want invalid_request", params, q.Get("error"))
		}
	}
}

func TestCallbackUnknownStateRedirectsInvalidState(t *testing.T) {
	svc, _ := newCallbackFixture(t)

	res, err := svc.Callback(context.Background(), CallbackRequest{
		Provider: "google",
		Params:   oauth.CallbackParams{Code: "abc", State: "never-issued"},
	})
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	q := redirectQuery(t, res.RedirectURL)
	if q.Get("error") != "invalid_state" {
		t.Fatalf("error = %q, want invalid_state", q.Get("error"))
	}
	if q.Get("error_description") != "invalid_or_expired_state" {
		t.Fatalf("error_description = %q", q.Get("error_description"))
	}
}

func TestCallbackUnknownProvider(t *testing.T) {
	svc, _ := newCallbackFixture(t)

	if _, err := svc.Callback(context.Background(), CallbackRequest{Provider: "myspace"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	// Conocido pero no configurado.
	if _, err := svc.Callback(context.Background(), CallbackRequest{Provider: "naver"}); err == nil {
		t.Fatal("expected error for unconfigured provider")
	}
}
