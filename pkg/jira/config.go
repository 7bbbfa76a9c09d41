package jira

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AuthType selects a built-in AuthProvider.
type AuthType string

const (
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeJWT    AuthType = "jwt"
	AuthTypeOAuth  AuthType = "oauth"
)

// AuthSpec is the provider-specific authentication specification. The client
// passes it to the AuthProvider on every call and never inspects it.
type AuthSpec struct {
	Type AuthType

	// bearer
	Token string

	// basic
	Email    string
	APIToken string

	// oauth client credentials
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// jwt
	Issuer       string
	SharedSecret string
}

// Config is owned by a single Client and must not be modified after it is
// passed to NewClient.
type Config struct {
	Host           string `validate:"required,url"`
	Authentication AuthSpec
}

// Validate checks that Host is an absolute http(s) URL with no query or
// fragment.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrConfiguration.MsgErr("couldn't parse the host URL, make sure it includes 'http://' or 'https://'", err)
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return ErrConfiguration.MsgErr("couldn't parse the host URL", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return ErrConfiguration.Msg("host must be an absolute URL: " + c.Host)
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return ErrConfiguration.Msg("host must not carry a query or fragment: " + c.Host)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrConfiguration.Msg("unsupported host scheme: " + u.Scheme)
	}
	return nil
}
