// Package cli provides configuration management commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/RainInQAQ/new-api-admin/internal/api"
	"github.com/RainInQAQ/new-api-admin/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage newapi-admin configuration",
		Long: `Configuration management commands for newapi-admin.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for newapi-admin.

The configuration is saved to ~/.config/newapi-admin/config and the
access token to a separate 0600 token file next to it.

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			configPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			if !force {
				if _, err := os.Stat(configPath); err == nil {
					fmt.Printf("Configuration already exists at: %s\n", configPath)
					fmt.Println("Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Println("new-api Admin Console Setup")
			fmt.Println("===========================")
			fmt.Println()

			reader := bufio.NewReader(os.Stdin)

			// Base URL (required)
			var baseURL string
			for baseURL == "" {
				fmt.Print("new-api base URL (required, e.g. https://api.example.com): ")
				input, _ := reader.ReadString('\n')
				baseURL = strings.TrimSuffix(strings.TrimSpace(input), "/")
				if baseURL == "" {
					fmt.Println("  Error: base URL is required")
				}
			}

			// Access token (required, hidden when stdin is a terminal)
			token, err := promptToken()
			if err != nil {
				return err
			}

			// Page size
			fmt.Printf("Rows per page [%d]: ", config.New().PageSize)
			pageSizeInput, _ := reader.ReadString('\n')
			pageSizeInput = strings.TrimSpace(pageSizeInput)
			cfgPageSize := config.New().PageSize
			if pageSizeInput != "" {
				if v, err := strconv.Atoi(pageSizeInput); err == nil && v > 0 {
					cfgPageSize = v
				}
			}

			// Proxy settings
			fmt.Println()
			fmt.Print("Configure proxy? [y/N]: ")
			proxyInput, _ := reader.ReadString('\n')
			proxyInput = strings.TrimSpace(strings.ToLower(proxyInput))

			cfg := config.New()
			cfg.BaseURL = baseURL
			cfg.PageSize = cfgPageSize

			if proxyInput == "y" || proxyInput == "yes" {
				fmt.Println()
				fmt.Println("Proxy Configuration")
				fmt.Println("-------------------")
				fmt.Println("Proxy modes: no-proxy, system, basic, ntlm")
				fmt.Print("Proxy mode [system]: ")
				modeInput, _ := reader.ReadString('\n')
				cfg.Proxy.Mode = strings.TrimSpace(modeInput)
				if cfg.Proxy.Mode == "" {
					cfg.Proxy.Mode = "system"
				}

				if cfg.Proxy.Mode != "no-proxy" && cfg.Proxy.Mode != "system" {
					fmt.Print("Proxy host: ")
					hostInput, _ := reader.ReadString('\n')
					cfg.Proxy.Host = strings.TrimSpace(hostInput)

					fmt.Print("Proxy port [8080]: ")
					portInput, _ := reader.ReadString('\n')
					portInput = strings.TrimSpace(portInput)
					if portInput != "" {
						if v, err := strconv.Atoi(portInput); err == nil && v > 0 {
							cfg.Proxy.Port = v
						}
					}

					fmt.Print("Proxy username (optional): ")
					userInput, _ := reader.ReadString('\n')
					cfg.Proxy.User = strings.TrimSpace(userInput)
				}
			}

			// The token goes to a separate 0600 file, not the config.
			tokenPath := config.DefaultTokenPath()
			if err := config.WriteTokenFile(tokenPath, token); err != nil {
				return fmt.Errorf("failed to save token file: %w", err)
			}
			logger.Info().Str("path", tokenPath).Msg("Access token saved")

			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			logger.Info().Str("path", configPath).Msg("Configuration saved")

			fmt.Println()
			fmt.Printf("✓ Configuration saved to: %s\n", configPath)
			fmt.Printf("✓ Access token saved to: %s\n", tokenPath)
			fmt.Println()
			fmt.Println("Test your configuration with: newapi-admin config test")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// promptToken reads the access token, hiding the input when stdin is a
// terminal.
func promptToken() (string, error) {
	for {
		fmt.Print("Admin access token (required): ")
		var token string
		if term.IsTerminal(int(os.Stdin.Fd())) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return "", fmt.Errorf("failed to read token: %w", err)
			}
			token = string(raw)
		} else {
			reader := bufio.NewReader(os.Stdin)
			input, err := reader.ReadString('\n')
			if err != nil {
				return "", fmt.Errorf("failed to read token: %w", err)
			}
			token = input
		}
		token = strings.TrimSpace(token)
		if token != "" {
			return token, nil
		}
		fmt.Println("  Error: access token is required")
	}
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/newapi-admin/config)
  2. Token file and NEWAPI_ACCESS_TOKEN environment variable
  3. Command-line flags (--access-token, --api-url, --page-size)

Priority: flags > config file > token file > environment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if apiBaseURL != "" {
				cfg.BaseURL = strings.TrimSuffix(apiBaseURL, "/")
			}
			if pageSize > 0 {
				cfg.PageSize = pageSize
			}
			cfg.AccessToken = config.ResolveAccessToken(accessToken, cfg)

			fmt.Println("Current Configuration")
			fmt.Println("=====================")
			fmt.Println()

			fmt.Println("API Settings:")
			fmt.Printf("  Base URL:     %s\n", cfg.BaseURL)
			if cfg.AccessToken != "" {
				// Never display any portion of the token.
				fmt.Printf("  Access Token: <set (%d chars)>\n", len(cfg.AccessToken))
			} else {
				fmt.Println("  Access Token: <not set>")
			}
			fmt.Printf("  Page Size:    %d\n", cfg.PageSize)
			fmt.Println()

			fmt.Println("Proxy Settings:")
			fmt.Printf("  Proxy Mode: %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Printf("  Proxy Host: %s\n", cfg.Proxy.Host)
				fmt.Printf("  Proxy Port: %d\n", cfg.Proxy.Port)
			}
			fmt.Println()

			fmt.Printf("Configuration file: %s\n", configPath)
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				fmt.Println("  (file does not exist - using defaults)")
			}

			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test API connection",
		Long: `Test the API connection with current configuration.

Use this to verify your access token and network connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			fmt.Println("Testing API Connection")
			fmt.Println("======================")
			fmt.Println()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Base URL: %s\n", cfg.BaseURL)
			fmt.Println("Testing connection...")
			fmt.Println()

			apiClient, err := api.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			users, err := apiClient.FetchPage(ctx, 0)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Println("✗ Connection FAILED")
				fmt.Printf("  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			logger.Info().Msg("Connection test successful")

			fmt.Println("✓ Connection SUCCESSFUL")
			fmt.Println()
			fmt.Printf("The deployment returned %d user(s) on the first page.\n", len(users))
			fmt.Println("Your access token is valid and the connection is working!")

			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := cfgFile
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
				fmt.Println("Default configuration path:")
			} else {
				fmt.Println("Configuration path (from --config flag):")
			}

			fmt.Printf("  %s\n", configPath)
			fmt.Println()

			if fileInfo, err := os.Stat(configPath); err == nil {
				fmt.Println("Status: ✓ File exists")
				fmt.Printf("Size:   %d bytes\n", fileInfo.Size())
				fmt.Printf("Modified: %s\n", fileInfo.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Status: File does not exist")
				fmt.Println()
				fmt.Println("Create a configuration file with: newapi-admin config init")
			}

			return nil
		},
	}
}
