package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// promptYesNo asks a yes/no question on stdin. Anything other than "yes"
// or "y" counts as no.
func promptYesNo(question string) bool {
	fmt.Printf("%s (yes/no): ", question)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y":
		return true
	}
	return false
}

// promptProxyPassword asks for the proxy password, hiding the input when
// stdin is a terminal.
func promptProxyPassword(user string) (string, error) {
	fmt.Printf("Proxy password for %s: ", user)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read proxy password: %w", err)
		}
		return string(raw), nil
	}
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read proxy password: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// guardManageTarget rejects actions the backend would accept but that make
// no sense from the console:
//
//   - a deactivated record is read-only, every action is refused;
//   - enable is refused for accounts that never finished registration,
//     since enabling them cannot produce a working account.
func guardManageTarget(record *models.User, action models.UserAction) error {
	if record.Deleted() {
		return fmt.Errorf("user %q is deactivated and can no longer be managed", record.Username)
	}
	if action == models.ActionEnable && record.Status == models.UserStatusPending {
		return fmt.Errorf("user %q has not finished registration and cannot be enabled", record.Username)
	}
	return nil
}
