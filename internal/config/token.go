package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTokenPath returns the path of the standalone token file
// (~/.config/newapi-admin/token), written by 'config init'.
func DefaultTokenPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "token")
}

// ReadTokenFile reads an access token from a file, trimming whitespace.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// WriteTokenFile stores an access token with owner-only permissions.
func WriteTokenFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0600)
}

// ResolveAccessToken returns an access token by checking sources in
// priority order:
//
//  1. Provided token parameter (e.g. from the --token flag)
//  2. access_token from the loaded config file
//  3. Default token file (~/.config/newapi-admin/token)
//  4. NEWAPI_ACCESS_TOKEN environment variable
//
// Returns an empty string if no token is found in any source.
func ResolveAccessToken(token string, cfg *Config) string {
	if token != "" {
		return token
	}
	if cfg != nil && cfg.AccessToken != "" {
		return cfg.AccessToken
	}
	if path := DefaultTokenPath(); path != "" {
		if t, err := ReadTokenFile(path); err == nil {
			return t
		}
	}
	return os.Getenv("NEWAPI_ACCESS_TOKEN")
}
