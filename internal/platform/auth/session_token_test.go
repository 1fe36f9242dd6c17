package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := GenerateSessionToken("secret", SessionClaims{
		UserID:        "user-1",
		Email:         "lp@example.com",
		Kind:          TokenKindAccess,
		ExpiresAtUnix: now.Add(15 * time.Minute).Unix(),
	}, now)
	if err != nil {
		t.Fatalf("GenerateSessionToken() err=%v", err)
	}
	if !strings.HasPrefix(token, sessionTokenPrefix+".") {
		t.Fatalf("token=%q, want %s prefix", token, sessionTokenPrefix)
	}

	claims, err := VerifySessionToken("secret", token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("VerifySessionToken() err=%v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "lp@example.com" || claims.Kind != TokenKindAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := GenerateSessionToken("secret", SessionClaims{
		UserID:        "user-1",
		Kind:          TokenKindRefresh,
		ExpiresAtUnix: now.Add(time.Hour).Unix(),
	}, now)
	if err != nil {
		t.Fatalf("GenerateSessionToken() err=%v", err)
	}
	_, err = VerifySessionToken("secret", token, now.Add(2*time.Hour))
	if !errors.Is(err, ErrSessionTokenExpired) {
		t.Fatalf("VerifySessionToken() err=%v, want expired", err)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	now := time.Now().UTC()
	token, err := GenerateSessionToken("secret", SessionClaims{
		UserID:        "user-1",
		Kind:          TokenKindAccess,
		ExpiresAtUnix: now.Add(time.Hour).Unix(),
	}, now)
	if err != nil {
		t.Fatalf("GenerateSessionToken() err=%v", err)
	}
	_, err = VerifySessionToken("other", token, now)
	if !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("VerifySessionToken() err=%v, want invalid", err)
	}
}

func TestSessionTokenTampered(t *testing.T) {
	now := time.Now().UTC()
	token, err := GenerateSessionToken("secret", SessionClaims{
		UserID:        "user-1",
		Kind:          TokenKindAccess,
		ExpiresAtUnix: now.Add(time.Hour).Unix(),
	}, now)
	if err != nil {
		t.Fatalf("GenerateSessionToken() err=%v", err)
	}
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	_, err = VerifySessionToken("secret", strings.Join(parts, "."), now)
	if !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("VerifySessionToken() err=%v, want invalid", err)
	}
}

func TestGenerateSessionTokenRejectsBadKind(t *testing.T) {
	now := time.Now().UTC()
	_, err := GenerateSessionToken("secret", SessionClaims{
		UserID:        "user-1",
		Kind:          "session",
		ExpiresAtUnix: now.Add(time.Hour).Unix(),
	}, now)
	if err == nil {
		t.Fatalf("GenerateSessionToken() expected error for unsupported kind")
	}
}

func TestSessionIssuerPairAndRotate(t *testing.T) {
	issuer, err := NewSessionIssuer("secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSessionIssuer() err=%v", err)
	}
	pair, err := issuer.IssueTokens("user-7", "lead@example.com")
	if err != nil {
		t.Fatalf("IssueTokens() err=%v", err)
	}
	if pair.Access == "" || pair.Refresh == "" || pair.Access == pair.Refresh {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	accessClaims, err := VerifySessionToken("secret", pair.Access, time.Now().UTC())
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if accessClaims.Kind != TokenKindAccess {
		t.Fatalf("access kind=%q", accessClaims.Kind)
	}

	rotated, err := issuer.Rotate(pair.Refresh)
	if err != nil {
		t.Fatalf("Rotate() err=%v", err)
	}
	if rotated.Access == "" || rotated.Refresh == "" {
		t.Fatalf("unexpected rotated pair: %+v", rotated)
	}

	// Access tokens must not be accepted for rotation.
	if _, err := issuer.Rotate(pair.Access); !errors.Is(err, ErrSessionTokenInvalid) {
		t.Fatalf("Rotate(access) err=%v, want invalid", err)
	}
}
