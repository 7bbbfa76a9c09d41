package jira

import (
	"context"
	"encoding/base64"
	"errors"
)

// Token is a credential scoped to a single request.
type Token struct {
	Scheme string // defaults to "Bearer"
	Value  string
}

// HeaderValue renders the Authorization header value.
func (t Token) HeaderValue() string {
	scheme := t.Scheme
	if scheme == "" {
		scheme = "Bearer"
	}
	return scheme + " " + t.Value
}

// AuthProvider yields a token for the given spec. The client calls it once
// per request and never caches the result; any caching or refresh is the
// provider's business. Implementations must be safe for concurrent use.
type AuthProvider interface {
	Token(ctx context.Context, spec AuthSpec) (Token, error)
}

// AuthProviderFunc adapts a function to AuthProvider.
type AuthProviderFunc func(ctx context.Context, spec AuthSpec) (Token, error)

func (f AuthProviderFunc) Token(ctx context.Context, spec AuthSpec) (Token, error) {
	return f(ctx, spec)
}

var errMissingCredential = errors.New("missing credential")

// StaticTokenProvider sends spec.Token as a bearer token, e.g. a personal
// access token.
type StaticTokenProvider struct{}

func (StaticTokenProvider) Token(_ context.Context, spec AuthSpec) (Token, error) {
	if spec.Token == "" {
		return Token{}, errMissingCredential
	}
	return Token{Scheme: "Bearer", Value: spec.Token}, nil
}

// BasicAuthProvider sends spec.Email and spec.APIToken with the Basic scheme,
// as Jira Cloud expects for API tokens.
type BasicAuthProvider struct{}

func (BasicAuthProvider) Token(_ context.Context, spec AuthSpec) (Token, error) {
	if spec.Email == "" || spec.APIToken == "" {
		return Token{}, errMissingCredential
	}
	raw := spec.Email + ":" + spec.APIToken
	return Token{Scheme: "Basic", Value: base64.StdEncoding.EncodeToString([]byte(raw))}, nil
}

// ProviderFor returns the built-in provider for spec.Type. An empty type
// selects the bearer provider.
func ProviderFor(spec AuthSpec) (AuthProvider, error) {
	switch spec.Type {
	case AuthTypeBearer, "":
		return StaticTokenProvider{}, nil
	case AuthTypeBasic:
		return BasicAuthProvider{}, nil
	case AuthTypeJWT:
		return NewJWTProvider(), nil
	case AuthTypeOAuth:
		return NewOAuthProvider(), nil
	default:
		return nil, ErrConfiguration.Msg("unknown authentication type: " + string(spec.Type))
	}
}
