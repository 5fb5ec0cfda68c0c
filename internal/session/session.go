// Package session issues and verifies gateway session tokens. Sessions are
// compact HS256 JWTs signed with a shared secret; they carry the canonical
// user UUID and the provider used to establish the session.
package session

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultTTL vigencia por defecto de una sesión.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken firma inválida, token malformado o expirado.
var ErrInvalidToken = errors.New("session: invalid_token")

// Claims son las claims de una sesión verificada.
type Claims struct {
	UserUUID string
	Provider string
	IssuedAt time.Time
	Expiry   time.Time
}

// Issuer firma y verifica sesiones con un secreto compartido.
type Issuer struct {
	secret []byte
	iss    string
	ttl    time.Duration
}

// New crea un Issuer. El secreto no puede estar vacío; ttl <= 0 usa
// DefaultTTL.
func New(secret []byte, iss string, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty secret")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, iss: iss, ttl: ttl}, nil
}

// Issue firma una sesión para el usuario dado.
func (i *Issuer) Issue(userUUID, provider string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.ttl)

	claims := jwtv5.MapClaims{
		"iss":      i.iss,
		"sub":      userUUID,
		"provider": provider,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify valida firma, método y expiración. Cualquier token que no haya
// sido emitido por este Issuer (o que expiró) devuelve ErrInvalidToken.
func (i *Issuer) Verify(token string) (*Claims, error) {
	tok, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return i.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if i.iss != "" {
		if iss, _ := claims["iss"].(string); iss != i.iss {
			return nil, ErrInvalidToken
		}
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{UserUUID: sub}
	out.Provider, _ = claims["provider"].(string)
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.Expiry = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}
