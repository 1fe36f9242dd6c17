package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionIssuer mints access/refresh pairs for platform members. It is the
// credential-issuance collaborator invoked when a registration is finalized.
type SessionIssuer struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSessionIssuer(secret string, accessTTL, refreshTTL time.Duration) (*SessionIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= accessTTL {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &SessionIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (i *SessionIssuer) IssueTokens(userID, email string) (TokenPair, error) {
	if i == nil {
		return TokenPair{}, errors.New("issuer not initialized")
	}
	now := time.Now().UTC()

	access, err := GenerateSessionToken(i.secret, SessionClaims{
		UserID:        userID,
		Email:         email,
		Kind:          TokenKindAccess,
		ExpiresAtUnix: now.Add(i.accessTTL).Unix(),
	}, now)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := GenerateSessionToken(i.secret, SessionClaims{
		UserID:        userID,
		Email:         email,
		Kind:          TokenKindRefresh,
		ExpiresAtUnix: now.Add(i.refreshTTL).Unix(),
	}, now)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Rotate exchanges a valid refresh token for a fresh pair.
func (i *SessionIssuer) Rotate(refreshToken string) (TokenPair, error) {
	if i == nil {
		return TokenPair{}, errors.New("issuer not initialized")
	}
	claims, err := VerifySessionToken(i.secret, refreshToken, time.Now().UTC())
	if err != nil {
		return TokenPair{}, err
	}
	if claims.Kind != TokenKindRefresh {
		return TokenPair{}, ErrSessionTokenInvalid
	}
	return i.IssueTokens(claims.UserID, claims.Email)
}
