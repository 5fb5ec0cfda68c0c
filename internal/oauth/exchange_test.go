package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fakeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestExchangeCode_FormAndDecode(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"code":          r.PostFormValue("code"),
			"client_id":     r.PostFormValue("client_id"),
			"client_secret": r.PostFormValue("client_secret"),
			"redirect_uri":  r.PostFormValue("redirect_uri"),
			"code_verifier": r.PostFormValue("code_verifier"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "at", TokenType: "Bearer", ExpiresIn: 3600})
	}))
	defer srv.Close()

	c := client(t, GitHub)
	c.tokenURL = srv.URL

	tok, err := c.ExchangeCode(context.Background(), "code1", "ver1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if tok.AccessToken != "at" {
		t.Fatalf("token: %+v", tok)
	}
	if gotForm["grant_type"] != "authorization_code" || gotForm["code"] != "code1" ||
		gotForm["client_id"] != "cid" || gotForm["client_secret"] != "secret" ||
		gotForm["redirect_uri"] != "https://gate.example/callback" || gotForm["code_verifier"] != "ver1" {
		t.Fatalf("form: %v", gotForm)
	}
}

func TestExchangeCode_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad_verification_code"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := client(t, GitHub)
	c.tokenURL = srv.URL

	_, err := c.ExchangeCode(context.Background(), "bad", "")
	if !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("want ErrTokenExchange, got %v", err)
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusUnauthorized || ue.Stage != "token" {
		t.Fatalf("upstream diag: %v", err)
	}
}

func TestIdentity_FromIDTokenSkipsUserInfo(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := client(t, Google)
	c.userInfoURL = srv.URL

	idt := fakeIDToken(t, map[string]any{"sub": "g1", "email": "a@b.com", "name": "Ada"})
	u, err := c.Identity(context.Background(), &TokenResponse{AccessToken: "at", IDToken: idt})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.ID != "g1" || u.Name != "Ada" {
		t.Fatalf("user: %+v", u)
	}
	if called {
		t.Fatal("userinfo must not be called when id_token is present")
	}
}

func TestIdentity_UserInfoPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at" {
			t.Fatalf("auth header: %q", got)
		}
		w.Write([]byte(`{"id":"d1","username":"gamer","email":"g@d.com"}`))
	}))
	defer srv.Close()

	c := client(t, Discord)
	c.userInfoURL = srv.URL

	u, err := c.Identity(context.Background(), &TokenResponse{AccessToken: "at"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.ID != "d1" || *u.Email != "g@d.com" {
		t.Fatalf("user: %+v", u)
	}
}

func TestIdentity_UserInfoNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := client(t, Discord)
	c.userInfoURL = srv.URL

	_, err := c.Identity(context.Background(), &TokenResponse{AccessToken: "at"})
	if !errors.Is(err, ErrUserInfo) {
		t.Fatalf("want ErrUserInfo, got %v", err)
	}
}

func TestIdentity_GitHubEmailsFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":77,"login":"octocat","name":"Octo","email":null}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"email":"old@x.com","primary":false,"verified":true},
			{"email":"octo@x.com","primary":true,"verified":true}
		]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := client(t, GitHub)
	c.userInfoURL = srv.URL + "/user"
	c.emailsURL = srv.URL + "/user/emails"

	u, err := c.Identity(context.Background(), &TokenResponse{AccessToken: "at"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if *u.Email != "octo@x.com" {
		t.Fatalf("primary+verified email: %q", *u.Email)
	}
}

func TestIdentity_GitHubEmailsEndpointDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":77,"login":"octocat","email":null}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := client(t, GitHub)
	c.userInfoURL = srv.URL + "/user"
	c.emailsURL = srv.URL + "/user/emails"

	u, err := c.Identity(context.Background(), &TokenResponse{AccessToken: "at"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if *u.Email != "octocat@users.noreply.github.com" {
		t.Fatalf("noreply synthesis: %q", *u.Email)
	}
}

func TestDecodeIDTokenClaims_BadFormat(t *testing.T) {
	if _, err := DecodeIDTokenClaims("only.two"); err == nil {
		t.Fatal("want error")
	}
}
