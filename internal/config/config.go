// Package config loads the client configuration from a TOML or YAML file,
// then applies environment overrides (optionally read from a .env file).
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/tansive/jiraclient/pkg/jira"
	"gopkg.in/yaml.v3"
)

// ConfigFormatVersion is the current version of the configuration file format
const ConfigFormatVersion = "0.1.0"

// supported file format versions
const formatConstraint = "~0.1"

// DefaultConfigFile is the file looked up in the user config directory
const DefaultConfigFile = "config.toml"

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	Type         string   `json:"type,omitempty" toml:"type" yaml:"type"`                            // bearer, basic, jwt or oauth
	Token        string   `json:"token,omitempty" toml:"token" yaml:"token"`                         // bearer token / PAT
	Email        string   `json:"email,omitempty" toml:"email" yaml:"email"`                         // basic
	APIToken     string   `json:"api_token,omitempty" toml:"api_token" yaml:"api_token"`             // basic
	ClientID     string   `json:"client_id,omitempty" toml:"client_id" yaml:"client_id"`             // oauth
	ClientSecret string   `json:"client_secret,omitempty" toml:"client_secret" yaml:"client_secret"` // oauth
	TokenURL     string   `json:"token_url,omitempty" toml:"token_url" yaml:"token_url"`             // oauth
	Scopes       []string `json:"scopes,omitempty" toml:"scopes" yaml:"scopes"`                      // oauth
	Issuer       string   `json:"issuer,omitempty" toml:"issuer" yaml:"issuer"`                      // jwt
	SharedSecret string   `json:"shared_secret,omitempty" toml:"shared_secret" yaml:"shared_secret"` // jwt
}

// ConfigParam holds all configuration parameters
type ConfigParam struct {
	FormatVersion string     `json:"format_version,omitempty" toml:"format_version" yaml:"format_version"`
	Host          string     `json:"host,omitempty" toml:"host" yaml:"host"`                   // e.g. https://example.atlassian.net
	Timeout       string     `json:"timeout,omitempty" toml:"timeout" yaml:"timeout"`          // optional per-call timeout, e.g. "30s"
	UserAgent     string     `json:"user_agent,omitempty" toml:"user_agent" yaml:"user_agent"` // optional
	LogLevel      string     `json:"log_level,omitempty" toml:"log_level" yaml:"log_level"`
	Auth          AuthConfig `json:"auth,omitempty" toml:"auth" yaml:"auth"`
}

var cfg *ConfigParam

// Config returns the configuration set by the last successful LoadConfig.
func Config() *ConfigParam {
	return cfg
}

// LoadConfig loads filename (or the default location when empty) and makes
// it available through Config.
func LoadConfig(filename string) error {
	c, err := Load(filename)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// GetDefaultConfigPath returns the default path for the config file.
// It uses the OS-specific config directory (e.g., ~/.config/jira on Linux).
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "jira", DefaultConfigFile), nil
}

// Load reads and validates a configuration. With an empty filename the
// default location is used if it exists; otherwise the configuration comes
// from the environment alone.
func Load(filename string) (*ConfigParam, error) {
	c := &ConfigParam{}

	path := filename
	if path == "" {
		p, err := GetDefaultConfigPath()
		if err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := decodeFile(path, c); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "error loading .env file")
	}
	applyEnv(c)

	if err := ValidateConfig(c); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return c, nil
}

func decodeFile(path string, c *ConfigParam) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "error reading config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, c); err != nil {
			return errors.Wrap(err, "error parsing config file")
		}
	default:
		if _, err := toml.Decode(string(content), c); err != nil {
			return errors.Wrap(err, "error parsing config file")
		}
	}
	return nil
}

var envOverrides = []struct {
	name  string
	field func(*ConfigParam) *string
}{
	{"JIRA_HOST", func(c *ConfigParam) *string { return &c.Host }},
	{"JIRA_TIMEOUT", func(c *ConfigParam) *string { return &c.Timeout }},
	{"JIRA_LOG_LEVEL", func(c *ConfigParam) *string { return &c.LogLevel }},
	{"JIRA_AUTH_TYPE", func(c *ConfigParam) *string { return &c.Auth.Type }},
	{"JIRA_TOKEN", func(c *ConfigParam) *string { return &c.Auth.Token }},
	{"JIRA_EMAIL", func(c *ConfigParam) *string { return &c.Auth.Email }},
	{"JIRA_API_TOKEN", func(c *ConfigParam) *string { return &c.Auth.APIToken }},
	{"JIRA_CLIENT_ID", func(c *ConfigParam) *string { return &c.Auth.ClientID }},
	{"JIRA_CLIENT_SECRET", func(c *ConfigParam) *string { return &c.Auth.ClientSecret }},
	{"JIRA_TOKEN_URL", func(c *ConfigParam) *string { return &c.Auth.TokenURL }},
	{"JIRA_JWT_ISSUER", func(c *ConfigParam) *string { return &c.Auth.Issuer }},
	{"JIRA_SHARED_SECRET", func(c *ConfigParam) *string { return &c.Auth.SharedSecret }},
}

func applyEnv(c *ConfigParam) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(c) = v
		}
	}
}

// ValidateConfig checks if all required configuration values are present and valid
func ValidateConfig(c *ConfigParam) error {
	if c.FormatVersion == "" {
		c.FormatVersion = ConfigFormatVersion
	}
	v, err := semver.NewVersion(c.FormatVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid format_version %q", c.FormatVersion)
	}
	constraint, err := semver.NewConstraint(formatConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return errors.Errorf("unsupported config file format version: %s", c.FormatVersion)
	}

	if c.Host == "" {
		return errors.New("host is required")
	}
	if _, err := c.GetTimeout(); err != nil {
		return err
	}
	switch jira.AuthType(c.Auth.Type) {
	case "", jira.AuthTypeBearer, jira.AuthTypeBasic, jira.AuthTypeJWT, jira.AuthTypeOAuth:
	default:
		return errors.Errorf("unknown auth.type %q", c.Auth.Type)
	}
	return nil
}

// GetTimeout returns the per-call timeout; zero means none.
func (c *ConfigParam) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, "invalid timeout")
	}
	if d < 0 {
		return 0, errors.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	return d, nil
}

// AuthSpec converts the auth section for the client.
func (c *ConfigParam) AuthSpec() jira.AuthSpec {
	return jira.AuthSpec{
		Type:         jira.AuthType(c.Auth.Type),
		Token:        c.Auth.Token,
		Email:        c.Auth.Email,
		APIToken:     c.Auth.APIToken,
		ClientID:     c.Auth.ClientID,
		ClientSecret: c.Auth.ClientSecret,
		TokenURL:     c.Auth.TokenURL,
		Scopes:       c.Auth.Scopes,
		Issuer:       c.Auth.Issuer,
		SharedSecret: c.Auth.SharedSecret,
	}
}

// ClientConfig returns the jira.Config for this configuration.
func (c *ConfigParam) ClientConfig() jira.Config {
	return jira.Config{
		Host:           c.Host,
		Authentication: c.AuthSpec(),
	}
}

// NewClient builds a client with the provider selected by auth.type.
func (c *ConfigParam) NewClient(opts ...jira.ClientOption) (*jira.Client, error) {
	spec := c.AuthSpec()
	provider, err := jira.ProviderFor(spec)
	if err != nil {
		return nil, err
	}
	timeout, err := c.GetTimeout()
	if err != nil {
		return nil, err
	}
	base := []jira.ClientOption{jira.WithTimeout(timeout)}
	if c.UserAgent != "" {
		base = append(base, jira.WithUserAgent(c.UserAgent))
	}
	return jira.NewClient(c.ClientConfig(), provider, append(base, opts...)...)
}

// Masked returns a copy with secrets replaced, for display.
func (c *ConfigParam) Masked() ConfigParam {
	m := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	m.Auth.Token = mask(m.Auth.Token)
	m.Auth.APIToken = mask(m.Auth.APIToken)
	m.Auth.ClientSecret = mask(m.Auth.ClientSecret)
	m.Auth.SharedSecret = mask(m.Auth.SharedSecret)
	return m
}

// WriteConfig writes the configuration as TOML, creating parent directories.
func (c *ConfigParam) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return errors.Wrap(err, "unable to create config directory")
	}
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "unable to write config file")
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return errors.Wrap(err, "unable to generate configuration")
	}
	return nil
}
