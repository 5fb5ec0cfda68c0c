package oauth

import "testing"

func TestParseCallbackParams_Query(t *testing.T) {
	p, err := ParseCallbackParams("https://gate.example/callback?code=abc&state=st1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.Code != "abc" || p.State != "st1" || p.Error != "" {
		t.Fatalf("unexpected: %+v", p)
	}
}

func TestParseCallbackParams_Fragment(t *testing.T) {
	p, err := ParseCallbackParams("https://gate.example/callback#access_token=tok&id_token=idt&state=st2")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.AccessToken != "tok" || p.IDToken != "idt" || p.State != "st2" {
		t.Fatalf("unexpected: %+v", p)
	}
}

func TestParseCallbackParams_QueryWinsOverFragment(t *testing.T) {
	p, err := ParseCallbackParams("https://gate.example/callback?code=fromquery&state=q#code=fromfrag&state=f")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.Code != "fromquery" || p.State != "q" {
		t.Fatalf("query must win: %+v", p)
	}
}

func TestParseCallbackParams_ProviderError(t *testing.T) {
	p, err := ParseCallbackParams("https://gate.example/callback?error=access_denied&error_description=User+cancelled&state=s")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p.Error != "access_denied" || p.ErrorDescription != "User cancelled" {
		t.Fatalf("unexpected: %+v", p)
	}
}
