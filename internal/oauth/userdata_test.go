package oauth

import (
	"errors"
	"testing"
	"time"
)

func client(t *testing.T, id ProviderID) *Client {
	t.Helper()
	c, err := New(id, "cid", "secret", "https://gate.example/callback", nil, time.Second)
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	return c
}

func TestParseUserData_Google(t *testing.T) {
	c := client(t, Google)
	u, err := c.ParseUserData([]byte(`{"sub":"g1","email":"a@b.com","name":"Ada","picture":"https://p/x.png"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.ID != "g1" || *u.Email != "a@b.com" || u.Name != "Ada" || *u.Picture != "https://p/x.png" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Provider != Google {
		t.Fatalf("provider: %s", u.Provider)
	}
}

func TestParseUserData_GoogleMissingEmail(t *testing.T) {
	c := client(t, Google)
	_, err := c.ParseUserData([]byte(`{"sub":"g1","name":"Ada"}`))
	var pe *PayloadError
	if !errors.As(err, &pe) || pe.Field != "email" {
		t.Fatalf("want PayloadError on email, got %v", err)
	}
}

func TestParseUserData_DiscordMissingEmailThrows(t *testing.T) {
	c := client(t, Discord)
	_, err := c.ParseUserData([]byte(`{"id":"d1","username":"gamer"}`))
	var pe *PayloadError
	if !errors.As(err, &pe) || pe.Field != "email" {
		t.Fatalf("want PayloadError on email, got %v", err)
	}
}

func TestParseUserData_DiscordNameAndAvatar(t *testing.T) {
	c := client(t, Discord)
	u, err := c.ParseUserData([]byte(`{"id":"42","username":"gamer","global_name":"Gamer Prime","email":"g@d.com","avatar":"abc123"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.Name != "Gamer Prime" {
		t.Fatalf("name: %q", u.Name)
	}
	if u.Picture == nil || *u.Picture != "https://cdn.discordapp.com/avatars/42/abc123.png" {
		t.Fatalf("picture: %v", u.Picture)
	}

	// sin avatar hash: picture ausente
	u, err = c.ParseUserData([]byte(`{"id":"42","username":"gamer","email":"g@d.com"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.Name != "gamer" || u.Picture != nil {
		t.Fatalf("fallbacks: %+v", u)
	}
}

func TestParseUserData_KakaoNumericID(t *testing.T) {
	c := client(t, Kakao)
	u, err := c.ParseUserData([]byte(`{"id":999}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.ID != "999" {
		t.Fatalf("id: %q", u.ID)
	}
	if u.Name != "KakaoUser999" {
		t.Fatalf("name: %q", u.Name)
	}
	if u.Email == nil || *u.Email != "999@kakao.com" {
		t.Fatalf("email: %v", u.Email)
	}
}

func TestParseUserData_KakaoNameFallbackChain(t *testing.T) {
	c := client(t, Kakao)

	u, _ := c.ParseUserData([]byte(`{"id":1,"kakao_account":{"name":"Kim","profile":{"nickname":"kimmy"}}}`))
	if u.Name != "Kim" {
		t.Fatalf("account.name wins: %q", u.Name)
	}

	u, _ = c.ParseUserData([]byte(`{"id":1,"kakao_account":{"profile":{"nickname":"kimmy","profile_image_url":"https://k/p.png"}}}`))
	if u.Name != "kimmy" || *u.Picture != "https://k/p.png" {
		t.Fatalf("profile fallback: %+v", u)
	}

	u, _ = c.ParseUserData([]byte(`{"id":1,"properties":{"nickname":"oldnick","profile_image":"https://k/old.png"}}`))
	if u.Name != "oldnick" || *u.Picture != "https://k/old.png" {
		t.Fatalf("properties fallback: %+v", u)
	}
}

func TestParseUserData_GitHubNullName(t *testing.T) {
	c := client(t, GitHub)
	u, err := c.ParseUserData([]byte(`{"id":583231,"login":"octocat","name":null,"email":null,"avatar_url":"https://a/p.png"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.ID != "583231" {
		t.Fatalf("id: %q", u.ID)
	}
	if u.Name != "octocat" {
		t.Fatalf("name fallback to login: %q", u.Name)
	}
	if *u.Email != "octocat@users.noreply.github.com" {
		t.Fatalf("noreply email: %q", *u.Email)
	}
}

func TestParseUserData_XEmailAlwaysNull(t *testing.T) {
	c := client(t, X)
	u, err := c.ParseUserData([]byte(`{"data":{"id":"x9","name":"Xavier","profile_image_url":"https://x/p.png"}}`))
	if err != nil {
		t.Fatalf("missing email must not error for X: %v", err)
	}
	if u.Email != nil {
		t.Fatalf("email must be null, got %v", *u.Email)
	}
	if u.ID != "x9" || u.Name != "Xavier" {
		t.Fatalf("unexpected: %+v", u)
	}
}

func TestParseUserData_FacebookComposedName(t *testing.T) {
	c := client(t, Facebook)
	u, err := c.ParseUserData([]byte(`{"id":"f1","first_name":"Grace","last_name":"Hopper","picture":{"data":{"url":"https://f/p.png"}}}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.Name != "Grace Hopper" {
		t.Fatalf("name: %q", u.Name)
	}
	if *u.Email != "f1@facebook.com" {
		t.Fatalf("email fallback: %q", *u.Email)
	}
	if *u.Picture != "https://f/p.png" {
		t.Fatalf("picture: %q", *u.Picture)
	}
}

func TestParseUserData_LinkedInNullableEmail(t *testing.T) {
	c := client(t, LinkedIn)
	u, err := c.ParseUserData([]byte(`{"sub":"li1"}`))
	if err != nil {
		t.Fatalf("missing email must not error for LinkedIn: %v", err)
	}
	if u.Email != nil {
		t.Fatalf("email must be null")
	}
	if u.Name != "li1" {
		t.Fatalf("name falls back to sub: %q", u.Name)
	}
}

func TestParseUserData_MicrosoftFallbacks(t *testing.T) {
	c := client(t, Microsoft)
	u, err := c.ParseUserData([]byte(`{"sub":"ms1","preferred_username":"dev@contoso.com"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if *u.Email != "dev@contoso.com" {
		t.Fatalf("email: %q", *u.Email)
	}
	if u.Name != "dev" {
		t.Fatalf("name from email-local-part: %q", u.Name)
	}
}

func TestParseUserData_AppleNameFromEmail(t *testing.T) {
	c := client(t, Apple)
	u, err := c.ParseUserData([]byte(`{"sub":"ap1","email":"tim@icloud.com"}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.Name != "tim" {
		t.Fatalf("name: %q", u.Name)
	}
	if u.Picture != nil {
		t.Fatalf("apple has no picture")
	}
}

func TestParseUserData_NaverNested(t *testing.T) {
	c := client(t, Naver)
	u, err := c.ParseUserData([]byte(`{"resultcode":"00","response":{"id":"n1","nickname":"nv"}}`))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.ID != "n1" || u.Name != "nv" {
		t.Fatalf("unexpected: %+v", u)
	}
	// email ausente degrada a "" (no null)
	if u.Email == nil || *u.Email != "" {
		t.Fatalf("email: %v", u.Email)
	}
}

func TestParseUserData_InvalidBody(t *testing.T) {
	c := client(t, Google)
	if _, err := c.ParseUserData([]byte(`not json`)); err == nil {
		t.Fatal("want error")
	}
}
