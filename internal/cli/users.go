package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RainInQAQ/new-api-admin/internal/api"
	"github.com/RainInQAQ/new-api-admin/internal/models"
	"github.com/RainInQAQ/new-api-admin/internal/state"
)

func newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "User operations (list, search, manage)",
		Long:  `Commands for managing the users of a new-api deployment.`,
	}

	usersCmd.AddCommand(newUsersListCmd())
	usersCmd.AddCommand(newUsersSearchCmd())
	usersCmd.AddCommand(newUsersGroupsCmd())
	usersCmd.AddCommand(newUsersManageCmd("promote", "Promote a user to admin", models.ActionPromote))
	usersCmd.AddCommand(newUsersManageCmd("demote", "Demote an admin to common user", models.ActionDemote))
	usersCmd.AddCommand(newUsersManageCmd("enable", "Re-enable a banned user", models.ActionEnable))
	usersCmd.AddCommand(newUsersManageCmd("disable", "Ban a user", models.ActionDisable))
	usersCmd.AddCommand(newUsersDeleteCmd())

	return usersCmd
}

// newUsersListCmd creates the 'users list' command.
func newUsersListCmd() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users page by page",
		Long: `List users from the deployment, one server page at a time.

Example:
  # Print the first page
  newapi-admin users list

  # Print the first three pages
  newapi-admin users list --pages 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1, got %d", pages)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := api.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}
			list := state.NewUserList(client, nil, cfg.PageSize)
			ctx := GetContext()

			for page := 1; page <= pages; page++ {
				items, err := list.EnsurePage(ctx, page)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					if page == 1 {
						fmt.Println("No users found")
					}
					break
				}
				printUsersPage(items, page, list.Total())
				if len(items) < list.PageSize() {
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to print")
	return cmd
}

// newUsersSearchCmd creates the 'users search' command.
func newUsersSearchCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search users by keyword and group",
		Long: `Search users server-side. The keyword matches username, display
name and email; --group restricts results to one group. With no keyword
and no group the search is equivalent to the first list page.

Example:
  newapi-admin users search alice
  newapi-admin users search --group vip
  newapi-admin users search alice --group vip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := api.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}
			ctx := GetContext()

			if strings.TrimSpace(keyword) == "" && strings.TrimSpace(group) == "" {
				list := state.NewUserList(client, nil, cfg.PageSize)
				items, err := list.EnsurePage(ctx, 1)
				if err != nil {
					return err
				}
				printUsersPage(items, 1, list.Total())
				return nil
			}

			users, err := client.Search(ctx, keyword, group)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Println("No users match")
				return nil
			}
			fmt.Printf("Found %d user(s):\n\n", len(users))
			printUsersTable(users)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Restrict results to one group")
	return cmd
}

// newUsersGroupsCmd creates the 'users groups' command.
func newUsersGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the groups users can belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getAPIClient()
			if err != nil {
				return err
			}
			groups, err := client.Groups(GetContext())
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Println(g)
			}
			return nil
		},
	}
}

// newUsersManageCmd creates one of the role/status transition commands.
// They share a shape: find the record, check it is actionable, apply.
func newUsersManageCmd(use, short string, action models.UserAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			logger := GetLogger()

			client, err := getAPIClient()
			if err != nil {
				return err
			}
			ctx := GetContext()

			record, err := findUser(ctx, client, username)
			if err != nil {
				return err
			}
			if err := guardManageTarget(record, action); err != nil {
				return err
			}

			updated, err := client.Manage(ctx, username, action)
			if err != nil {
				return err
			}

			logger.Info().
				Str("username", username).
				Str("action", string(action)).
				Msg("User updated")
			if updated != nil {
				fmt.Printf("✓ %s is now %s (%s)\n",
					updated.Username, models.RoleName(updated.Role), updated.StatusName())
			}
			return nil
		},
	}
}

// newUsersDeleteCmd creates the 'users delete' command.
func newUsersDeleteCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Deactivate a user",
		Long: `Deactivate a user account. The backend soft-deletes the record:
it stays in the collection with a deletion marker and cannot be managed
afterwards.

Example:
  # Delete with confirmation prompt
  newapi-admin users delete alice

  # Delete without confirmation prompt
  newapi-admin users delete alice --confirm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			logger := GetLogger()

			client, err := getAPIClient()
			if err != nil {
				return err
			}
			ctx := GetContext()

			record, err := findUser(ctx, client, username)
			if err != nil {
				return err
			}
			if err := guardManageTarget(record, models.ActionDelete); err != nil {
				return err
			}

			if !confirm {
				fmt.Printf("You are about to deactivate user %q. The account cannot be managed afterwards.\n", username)
				if !promptYesNo("Are you sure?") {
					fmt.Println("Deletion cancelled")
					return nil
				}
			}

			if _, err := client.Manage(ctx, username, models.ActionDelete); err != nil {
				return err
			}

			logger.Info().Str("username", username).Msg("User deactivated")
			fmt.Printf("✓ Deactivated %s\n", username)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Skip the confirmation prompt")
	return cmd
}

// userSearcher is the slice of the API client findUser needs.
type userSearcher interface {
	Search(ctx context.Context, keyword, group string) ([]models.User, error)
}

// findUser locates the exact record for username via the search endpoint.
func findUser(ctx context.Context, client userSearcher, username string) (*models.User, error) {
	users, err := client.Search(ctx, username, "")
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %q not found", username)
}
