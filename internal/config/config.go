package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"eectl/internal/domain"
)

const (
	// EnvConfigFile names the environment variable that may hold an
	// override path to the credentials file.
	EnvConfigFile = "EE_CONFIG_FILE"

	// DefaultServiceURL is the production API endpoint.
	DefaultServiceURL = "https://earthengine.googleapis.com"

	defaultRelativePath = ".config/earthengine/credentials"
)

var (
	ErrParse            = errors.New("malformed config file")
	ErrUnknownParameter = errors.New("unknown config parameter")
)

// Config holds the parameters used to reach and authenticate with the
// remote service. Empty string means "not set"; URL always resolves to
// a usable value.
type Config struct {
	URL          string
	Account      string
	PrivateKey   string
	RefreshToken string

	path string
}

// DefaultPath returns the credentials file location used when neither
// an explicit path nor EE_CONFIG_FILE is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, defaultRelativePath)
}

func resolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the config file at the explicit path if given, otherwise
// at $EE_CONFIG_FILE, otherwise at the default path. A missing file is
// not an error: every parameter falls back to its default.
func Load(path string) (*Config, error) {
	resolved := resolvePath(path)

	v := viper.New()
	v.SetConfigFile(resolved)
	v.SetConfigType("json")
	v.SetDefault("url", DefaultServiceURL)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	}

	return &Config{
		URL:          v.GetString("url"),
		Account:      v.GetString("account"),
		PrivateKey:   v.GetString("private_key"),
		RefreshToken: v.GetString("refresh_token"),
		path:         resolved,
	}, nil
}

// Path returns the resolved config file location.
func (c *Config) Path() string {
	return c.path
}

// Save writes the non-empty parameters as a JSON object to the resolved
// path, replacing any existing content.
func (c *Config) Save() error {
	params := map[string]string{}
	if c.URL != "" {
		params["url"] = c.URL
	}
	if c.Account != "" {
		params["account"] = c.Account
	}
	if c.PrivateKey != "" {
		params["private_key"] = c.PrivateKey
	}
	if c.RefreshToken != "" {
		params["refresh_token"] = c.RefreshToken
	}

	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Credentials picks the session strategy from the available parameters:
// account plus private key wins, then a refresh token, then the
// persistent sentinel.
func (c *Config) Credentials() domain.Credentials {
	switch {
	case c.Account != "" && c.PrivateKey != "":
		return domain.Credentials{
			Kind:       domain.CredentialServiceAccount,
			Account:    c.Account,
			PrivateKey: c.PrivateKey,
		}
	case c.RefreshToken != "":
		return domain.Credentials{
			Kind:         domain.CredentialRefreshToken,
			RefreshToken: c.RefreshToken,
		}
	default:
		return domain.Credentials{Kind: domain.CredentialPersistent}
	}
}

// Get returns the current value of a named parameter.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "url":
		return c.URL, nil
	case "account":
		return c.Account, nil
	case "private_key":
		return c.PrivateKey, nil
	case "refresh_token":
		return c.RefreshToken, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownParameter, key)
}

// Set updates a named parameter in memory. Save must be called to
// persist the change.
func (c *Config) Set(key, value string) error {
	switch key {
	case "url":
		c.URL = value
	case "account":
		c.Account = value
	case "private_key":
		c.PrivateKey = value
	case "refresh_token":
		c.RefreshToken = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParameter, key)
	}
	return nil
}

// Unset clears a named parameter. The url parameter reverts to the
// production endpoint rather than going empty.
func (c *Config) Unset(key string) error {
	if key == "url" {
		c.URL = DefaultServiceURL
		return nil
	}
	return c.Set(key, "")
}
