package jira

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultJWTLifetime = 3 * time.Minute

// JWTProvider issues short-lived HS256 tokens signed with spec.SharedSecret.
// A fresh token is minted per call. Providers never see the request, so the
// qsh claim is always "context-qsh": Jira accepts that for context JWTs sent
// back to the app's own endpoints, but rejects it on app-to-Jira REST calls,
// which need a hash of the request's method, path and query. Use another
// provider for those.
type JWTProvider struct {
	lifetime time.Duration
	now      func() time.Time
}

// NewJWTProvider returns a JWTProvider with a three minute token lifetime.
func NewJWTProvider() *JWTProvider {
	return &JWTProvider{
		lifetime: defaultJWTLifetime,
		now:      time.Now,
	}
}

func (p *JWTProvider) Token(_ context.Context, spec AuthSpec) (Token, error) {
	if spec.Issuer == "" || spec.SharedSecret == "" {
		return Token{}, errMissingCredential
	}
	now := p.now()
	claims := jwt.MapClaims{
		"iss": spec.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(p.lifetime).Unix(),
		"qsh": "context-qsh",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(spec.SharedSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{Scheme: "JWT", Value: signed}, nil
}
