package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// SessionAuthenticator authenticates bearer access tokens minted by SessionIssuer.
type SessionAuthenticator struct {
	secret string
}

func NewSessionAuthenticator(secret string) (*SessionAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	return &SessionAuthenticator{secret: secret}, nil
}

func (a *SessionAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	raw := tokenFromHeader(r)
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := VerifySessionToken(a.secret, raw, time.Now().UTC())
	if err != nil {
		return Identity{}, err
	}
	if claims.Kind != TokenKindAccess {
		return Identity{}, ErrSessionTokenInvalid
	}
	return Identity{
		Subject: claims.UserID,
		Email:   claims.Email,
		Roles:   []string{"member"},
	}, nil
}

func tokenFromHeader(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return ""
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func tokenFromCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
