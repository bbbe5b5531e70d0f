package cli

import (
	"fmt"

	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// printUsersPage prints one page of users with a page header.
func printUsersPage(users []models.User, page, total int) {
	fmt.Printf("Page %d (total ~%d):\n\n", page, total)
	printUsersTable(users)
	fmt.Println()
}

// printUsersTable prints users in fixed-width columns.
func printUsersTable(users []models.User) {
	fmt.Printf("%-6s %-20s %-20s %-12s %-12s %-12s %-10s %-10s %s\n",
		"ID", "USERNAME", "DISPLAY NAME", "GROUP", "ROLE", "STATUS", "QUOTA", "USED", "LAST REQUEST")
	for i := range users {
		u := &users[i]
		fmt.Printf("%-6d %-20s %-20s %-12s %-12s %-12s %-10s %-10s %s\n",
			u.ID,
			truncate(u.Username, 20),
			truncate(u.DisplayName, 20),
			truncate(u.Group, 12),
			models.RoleName(u.Role),
			u.StatusName(),
			models.RenderQuota(u.Quota),
			models.RenderQuota(u.UsedQuota),
			models.RenderTimestamp(u.LastRequestTime),
		)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
