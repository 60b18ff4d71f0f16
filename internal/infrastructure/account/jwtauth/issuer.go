package jwtauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/user"
)

// Issuer signs tokens for operators. End-user login is not served over HTTP.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewIssuer(secret, issuer string, ttl time.Duration, clock clockwork.Clock) *Issuer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		clock:  clock,
	}
}

func (i *Issuer) Issue(principal user.Principal) (string, time.Time, error) {
	username := strings.TrimSpace(principal.Username)
	if username == "" {
		return "", time.Time{}, fmt.Errorf("username is required")
	}
	if len(i.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret is empty")
	}

	now := i.clock.Now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Username: username,
		IsAdmin:  principal.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}
