package session_fs

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Inspect decodes the token's claims without verifying the signature. The
// console never holds the signing key; this is for display only.
func Inspect(token string) (Claims, error) {
	var out Claims

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return out, fmt.Errorf("decode token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return out, err
	}
	if sub == "" {
		return out, errors.New("token has no subject")
	}
	out.Subject = sub

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return out, err
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}

	return out, nil
}
