package jwtauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/user"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

const leeway = 30 * time.Second

// Verifier checks HS256 bearer tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	issuer string
	clock  clockwork.Clock
	logger *logging.Logger
}

func NewVerifier(secret, issuer string, clock clockwork.Clock, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Verifier{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		clock:  clock,
		logger: logger,
	}
}

// VerifyAccessToken accepts tokens without an iss claim; a present iss must match.
func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}
	if len(v.secret) == 0 {
		return user.Principal{}, fmt.Errorf("%w: token verification is not configured", usecase.ErrUnauthorized)
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithLeeway(leeway),
	)
	if err != nil || !parsed.Valid {
		v.logger.DebugContext(ctx, "bearer token rejected", "error", err)
		return user.Principal{}, fmt.Errorf("%w: invalid or expired token", usecase.ErrUnauthorized)
	}
	if claims.Issuer != "" && v.issuer != "" && claims.Issuer != v.issuer {
		return user.Principal{}, fmt.Errorf("%w: unexpected token issuer", usecase.ErrUnauthorized)
	}

	username := strings.TrimSpace(claims.Username)
	if username == "" {
		username = strings.TrimSpace(claims.Subject)
	}
	if username == "" {
		return user.Principal{}, fmt.Errorf("%w: token has no username", usecase.ErrUnauthorized)
	}

	return user.Principal{Username: username, IsAdmin: claims.IsAdmin}, nil
}
