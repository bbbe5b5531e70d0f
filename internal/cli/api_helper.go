// Package cli provides API client helper functions.
package cli

import (
	"fmt"
	"strings"

	"github.com/RainInQAQ/new-api-admin/internal/api"
	"github.com/RainInQAQ/new-api-admin/internal/config"
	"github.com/RainInQAQ/new-api-admin/internal/http"
)

// loadConfig resolves the effective configuration.
// Priority: flags > config file > token file > environment.
func loadConfig() (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		var err error
		configPath, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if apiBaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(apiBaseURL, "/")
	}
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}

	token := accessToken
	if token == "" && tokenFile != "" {
		token, err = config.ReadTokenFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read token file: %w", err)
		}
	}
	cfg.AccessToken = config.ResolveAccessToken(token, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration (run \"newapi-admin config init\"): %w", err)
	}

	// Proxy passwords are never saved; ask for one when the proxy needs it.
	if http.NeedsProxyPassword(cfg) {
		password, err := promptProxyPassword(cfg.Proxy.User)
		if err != nil {
			return nil, err
		}
		cfg.Proxy.Password = password
	}

	return cfg, nil
}

// getAPIClient loads configuration and creates an API client.
// This is the standard way to get an API client in CLI commands.
func getAPIClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return client, nil
}
