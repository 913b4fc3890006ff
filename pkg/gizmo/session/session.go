// Package session mints opaque signed session tokens from resolved accounts.
// It is a pure Account -> token boundary: callers resolve the account through
// the core (local login or provider linking) and hand it here.
package session

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

const defaultTTL = 7 * 24 * time.Hour

// Issuer signs session tokens with a shared HS256 secret.
type Issuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

// NewIssuer creates an issuer. A zero ttl falls back to seven days.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}, nil
}

// Issue mints a signed token for the account.
func (i *Issuer) Issue(account *gizmo.Account) (string, error) {
	claims := map[string]interface{}{
		"user_id": account.ID.String(),
		"handle":  account.Handle,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, i.ttl)

	_, token, err := i.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode session token: %w", err)
	}
	return token, nil
}

// Auth exposes the underlying verifier for HTTP middleware
// (jwtauth.Verifier and friends).
func (i *Issuer) Auth() *jwtauth.JWTAuth {
	return i.auth
}
