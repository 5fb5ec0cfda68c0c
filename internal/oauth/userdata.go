package oauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User is the canonical identity shape every provider payload normalizes to.
// Email is a pointer because providers genuinely differ between "null" and
// "empty string" (X never has one, Naver degrades to "").
type User struct {
	ID       string     `json:"id"`
	Email    *string    `json:"email"`
	Name     string     `json:"name"`
	Picture  *string    `json:"picture,omitempty"`
	Provider ProviderID `json:"provider"`
}

// PayloadError reports an invalid provider payload, naming the field.
type PayloadError struct {
	Provider ProviderID
	Field    string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("oauth: invalid %s payload: missing or invalid field %q", e.Provider, e.Field)
}

// ParseUserData validates a raw identity payload (userinfo body or decoded
// id_token claims) and normalizes it. The fallback rules are fixed per
// provider; this table is the single source of truth.
func (c *Client) ParseUserData(raw []byte) (*User, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &PayloadError{Provider: c.ID, Field: "(body)"}
	}
	return normalize(c.ID, m)
}

func normalize(p ProviderID, m map[string]any) (*User, error) {
	switch p {
	case Google:
		return normalizeGoogle(m)
	case Apple:
		return normalizeApple(m)
	case Microsoft:
		return normalizeMicrosoft(m)
	case Facebook:
		return normalizeFacebook(m)
	case GitHub:
		return normalizeGitHub(m)
	case X:
		return normalizeX(m)
	case LinkedIn:
		return normalizeLinkedIn(m)
	case Discord:
		return normalizeDiscord(m)
	case Kakao:
		return normalizeKakao(m)
	case Naver:
		return normalizeNaver(m)
	}
	return nil, fmt.Errorf("oauth: unknown provider %q", p)
}

func normalizeGoogle(m map[string]any) (*User, error) {
	sub := str(m, "sub")
	if sub == "" {
		return nil, &PayloadError{Provider: Google, Field: "sub"}
	}
	email := str(m, "email")
	if email == "" {
		return nil, &PayloadError{Provider: Google, Field: "email"}
	}
	name := str(m, "name")
	if name == "" {
		return nil, &PayloadError{Provider: Google, Field: "name"}
	}
	return &User{
		ID:       sub,
		Email:    ptr(email),
		Name:     name,
		Picture:  optional(str(m, "picture")),
		Provider: Google,
	}, nil
}

func normalizeApple(m map[string]any) (*User, error) {
	sub := str(m, "sub")
	if sub == "" {
		return nil, &PayloadError{Provider: Apple, Field: "sub"}
	}
	email := str(m, "email")
	if email == "" {
		return nil, &PayloadError{Provider: Apple, Field: "email"}
	}
	// Apple only delivers the user name out-of-band on the very first
	// authorization; the durable fallback is the email local part.
	name := str(m, "name")
	if name == "" {
		name = emailLocalPart(email)
	}
	return &User{
		ID:       sub,
		Email:    ptr(email),
		Name:     name,
		Provider: Apple,
	}, nil
}

func normalizeMicrosoft(m map[string]any) (*User, error) {
	sub := str(m, "sub")
	if sub == "" {
		return nil, &PayloadError{Provider: Microsoft, Field: "sub"}
	}
	email := str(m, "email")
	if email == "" {
		email = str(m, "preferred_username")
	}
	if email == "" {
		return nil, &PayloadError{Provider: Microsoft, Field: "email"}
	}
	name := str(m, "name")
	if name == "" {
		name = str(m, "given_name")
	}
	if name == "" {
		name = emailLocalPart(email)
	}
	return &User{
		ID:       sub,
		Email:    ptr(email),
		Name:     name,
		Provider: Microsoft,
	}, nil
}

func normalizeGitHub(m map[string]any) (*User, error) {
	id := idStr(m, "id")
	if id == "" {
		return nil, &PayloadError{Provider: GitHub, Field: "id"}
	}
	login := str(m, "login")
	if login == "" {
		return nil, &PayloadError{Provider: GitHub, Field: "login"}
	}
	email := str(m, "email")
	if email == "" {
		email = login + "@users.noreply.github.com"
	}
	name := str(m, "name")
	if name == "" {
		name = login
	}
	return &User{
		ID:       id,
		Email:    ptr(email),
		Name:     name,
		Picture:  optional(str(m, "avatar_url")),
		Provider: GitHub,
	}, nil
}

func normalizeDiscord(m map[string]any) (*User, error) {
	id := str(m, "id")
	if id == "" {
		return nil, &PayloadError{Provider: Discord, Field: "id"}
	}
	// Discord is the one provider where a missing email is a hard error.
	email := str(m, "email")
	if email == "" {
		return nil, &PayloadError{Provider: Discord, Field: "email"}
	}
	name := str(m, "global_name")
	if name == "" {
		name = str(m, "username")
	}
	if name == "" {
		return nil, &PayloadError{Provider: Discord, Field: "username"}
	}
	var picture *string
	if avatar := str(m, "avatar"); avatar != "" {
		picture = ptr(fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", id, avatar))
	}
	return &User{
		ID:       id,
		Email:    ptr(email),
		Name:     name,
		Picture:  picture,
		Provider: Discord,
	}, nil
}

func normalizeFacebook(m map[string]any) (*User, error) {
	id := str(m, "id")
	if id == "" {
		return nil, &PayloadError{Provider: Facebook, Field: "id"}
	}
	email := str(m, "email")
	if email == "" {
		email = id + "@facebook.com"
	}
	name := strings.TrimSpace(str(m, "first_name") + " " + str(m, "last_name"))
	if name == "" {
		return nil, &PayloadError{Provider: Facebook, Field: "first_name"}
	}
	var picture *string
	if pic, ok := nested(m, "picture", "data"); ok {
		picture = optional(str(pic, "url"))
	}
	return &User{
		ID:       id,
		Email:    ptr(email),
		Name:     name,
		Picture:  picture,
		Provider: Facebook,
	}, nil
}

func normalizeLinkedIn(m map[string]any) (*User, error) {
	sub := str(m, "sub")
	if sub == "" {
		return nil, &PayloadError{Provider: LinkedIn, Field: "sub"}
	}
	// LinkedIn email is nullable without error.
	var email *string
	if v := str(m, "email"); v != "" {
		email = ptr(v)
	}
	name := str(m, "name")
	if name == "" {
		name = str(m, "given_name")
	}
	if name == "" {
		name = sub
	}
	return &User{
		ID:       sub,
		Email:    email,
		Name:     name,
		Picture:  optional(str(m, "picture")),
		Provider: LinkedIn,
	}, nil
}

func normalizeX(m map[string]any) (*User, error) {
	data, ok := asMap(m["data"])
	if !ok {
		return nil, &PayloadError{Provider: X, Field: "data"}
	}
	id := str(data, "id")
	if id == "" {
		return nil, &PayloadError{Provider: X, Field: "data.id"}
	}
	name := str(data, "name")
	if name == "" {
		return nil, &PayloadError{Provider: X, Field: "data.name"}
	}
	// X never exposes an email over the v2 API; always null, never an error.
	return &User{
		ID:       id,
		Email:    nil,
		Name:     name,
		Picture:  optional(str(data, "profile_image_url")),
		Provider: X,
	}, nil
}

func normalizeKakao(m map[string]any) (*User, error) {
	id := idStr(m, "id")
	if id == "" {
		return nil, &PayloadError{Provider: Kakao, Field: "id"}
	}
	account, _ := asMap(m["kakao_account"])
	profile, _ := asMap(account["profile"])
	properties, _ := asMap(m["properties"])

	email := str(account, "email")
	if email == "" {
		email = id + "@kakao.com"
	}
	name := str(account, "name")
	if name == "" {
		name = str(profile, "nickname")
	}
	if name == "" {
		name = str(properties, "nickname")
	}
	if name == "" {
		name = "KakaoUser" + id
	}
	picture := str(profile, "profile_image_url")
	if picture == "" {
		picture = str(properties, "profile_image")
	}
	return &User{
		ID:       id,
		Email:    ptr(email),
		Name:     name,
		Picture:  optional(picture),
		Provider: Kakao,
	}, nil
}

func normalizeNaver(m map[string]any) (*User, error) {
	response, ok := asMap(m["response"])
	if !ok {
		return nil, &PayloadError{Provider: Naver, Field: "response"}
	}
	id := idStr(response, "id")
	if id == "" {
		return nil, &PayloadError{Provider: Naver, Field: "response.id"}
	}
	// Naver degrades to empty strings rather than null or errors.
	email := str(response, "email")
	name := str(response, "name")
	if name == "" {
		name = str(response, "nickname")
	}
	return &User{
		ID:       id,
		Email:    ptr(email),
		Name:     name,
		Picture:  optional(str(response, "profile_image")),
		Provider: Naver,
	}, nil
}

// ---- payload helpers ----

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func nested(m map[string]any, keys ...string) (map[string]any, bool) {
	cur := m
	for _, k := range keys {
		next, ok := asMap(cur[k])
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// idStr renders an identifier that may arrive as a JSON number or string.
func idStr(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func ptr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
