// Package config provides configuration management for the admin console.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/RainInQAQ/new-api-admin/internal/constants"
)

// Config holds everything needed to talk to a new-api deployment.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\newapi-admin\config
//   - Unix: ~/.config/newapi-admin/config
//
// INI format:
//
//	[newapi]
//	base_url = https://api.example.com
//	access_token = <admin-access-token>
//	page_size = 10
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	password =
//	no_proxy =
type Config struct {
	// BaseURL is the root URL of the new-api deployment.
	BaseURL string `ini:"base_url"`

	// AccessToken is the admin token sent in the Authorization header.
	AccessToken string `ini:"access_token"`

	// PageSize is the number of records per page. It must match the
	// server's page size for /api/user/?p=N; the server side is fixed, so
	// changing this only makes sense against a patched deployment.
	PageSize int `ini:"page_size"`

	// Proxy settings, mapped from their own [proxy] section.
	Proxy ProxyConfig `ini:"-"`
}

// ProxyConfig controls how the HTTP transport reaches the deployment.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic", "ntlm".
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`

	// NoProxy is a comma-separated list of hosts to bypass the proxy.
	NoProxy string `ini:"no_proxy"`
}

// Validation errors
var (
	ErrMissingBaseURL     = errors.New("base_url is required")
	ErrMissingAccessToken = errors.New("access_token is required")
	ErrInvalidPageSize    = errors.New("page_size must be between 1 and 100")
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		PageSize: constants.ItemsPerPage,
		Proxy: ProxyConfig{
			Mode: "no-proxy",
			Port: 8080,
		},
	}
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "newapi-admin"), nil
}

// Load reads configuration from an INI file. If the file doesn't exist,
// it returns a config with default values and no error so that flag and
// environment resolution can still apply.
func Load(path string) (*Config, error) {
	cfg := New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := file.Section("newapi").MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to map [newapi] section: %w", err)
	}
	if err := file.Section("proxy").MapTo(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("failed to map [proxy] section: %w", err)
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.PageSize == 0 {
		cfg.PageSize = constants.ItemsPerPage
	}

	return cfg, nil
}

// Save writes the configuration to an INI file, creating the directory if
// needed. The file is written 0600 because it carries the access token.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("newapi").ReflectFrom(c); err != nil {
		return fmt.Errorf("failed to encode [newapi] section: %w", err)
	}
	if err := file.Section("proxy").ReflectFrom(&c.Proxy); err != nil {
		return fmt.Errorf("failed to encode [proxy] section: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := file.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable for API calls.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.AccessToken == "" {
		return ErrMissingAccessToken
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return ErrInvalidPageSize
	}
	return nil
}
