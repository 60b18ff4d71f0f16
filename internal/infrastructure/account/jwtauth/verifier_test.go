package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/user"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueThenVerify(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	issuer := NewIssuer(testSecret, "matchmap", time.Hour, clock)
	verifier := NewVerifier(testSecret, "matchmap", clock, logging.NewNop())

	token, expiresAt, err := issuer.Issue(user.Principal{Username: "alice", IsAdmin: true})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if !expiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %s", expiresAt)
	}

	principal, err := verifier.VerifyAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if principal.Username != "alice" || !principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	token, _, err := NewIssuer(testSecret, "matchmap", time.Minute, clock).Issue(user.Principal{Username: "bob"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	clock.Advance(10 * time.Minute)
	_, err = NewVerifier(testSecret, "matchmap", clock, logging.NewNop()).VerifyAccessToken(context.Background(), token)
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got=%v", err)
	}
}

func TestVerify_Rejections(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	verifier := NewVerifier(testSecret, "matchmap", clock, logging.NewNop())

	sign := func(method jwt.SigningMethod, key any, claims Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other-secret"), Claims{Username: "eve", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, []byte(testSecret), Claims{Username: "eve", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{name: "foreign issuer", token: sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{Username: "eve", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", ExpiresAt: exp}})},
		{name: "no username", token: sign(jwt.SigningMethodHS256, []byte(testSecret), Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.VerifyAccessToken(context.Background(), tc.token)
			if !errors.Is(err, usecase.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got=%v", err)
			}
		})
	}
}

func TestVerify_TokenWithoutIssuerIsAccepted(t *testing.T) {
	t.Parallel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Username: "carol", IsAdmin: false}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	principal, err := NewVerifier(testSecret, "matchmap", nil, logging.NewNop()).VerifyAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.Username != "carol" || principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}
