package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RainInQAQ/new-api-admin/internal/api"
	"github.com/RainInQAQ/new-api-admin/internal/events"
	"github.com/RainInQAQ/new-api-admin/internal/models"
	"github.com/RainInQAQ/new-api-admin/internal/progress"
	"github.com/RainInQAQ/new-api-admin/internal/services"
	"github.com/RainInQAQ/new-api-admin/internal/state"
)

// newBrowseCmd creates the 'browse' command, an interactive session over
// the user collection.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse users interactively",
		Long: `Open an interactive session over the user collection: page through
users, search, sort, and apply management actions without refetching
pages you have already seen.

Type "help" inside the session for the command list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := api.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			session := &browseSession{
				client:  client,
				bus:     events.NewEventBus(0),
				spinner: progress.NewSpinner(),
				groups:  services.NewGroupCache(client, 0),
			}
			session.list = state.NewUserList(client, session.bus, cfg.PageSize)
			defer session.bus.Close()

			return session.run(GetContext())
		},
	}
}

// browseSession holds the interactive session state.
type browseSession struct {
	client  *api.Client
	bus     *events.EventBus
	list    *state.UserList
	spinner *progress.Spinner
	groups  *services.GroupCache
}

func (s *browseSession) run(ctx context.Context) error {
	// Drive the spinner from the container's loading events so every
	// remote wait shows feedback, whichever command triggered it.
	loadingCh := s.bus.Subscribe(state.EventUserListLoading)
	go func() {
		for ev := range loadingCh {
			le, ok := ev.(*state.UserListLoadingEvent)
			if !ok {
				continue
			}
			switch {
			case le.Searching:
				s.spinner.Start("searching")
			case le.Loading:
				s.spinner.Start("loading users")
			default:
				s.spinner.Finish()
			}
		}
	}()

	if err := s.list.Reload(ctx); err != nil {
		return err
	}
	s.render()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "q" || cmd == "exit" {
			return nil
		}
		if err := s.dispatch(ctx, cmd, args); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func (s *browseSession) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		s.printHelp()
		return nil
	case "next", "n":
		return s.gotoPage(ctx, s.list.ActivePage()+1)
	case "prev", "p":
		return s.gotoPage(ctx, s.list.ActivePage()-1)
	case "goto", "g":
		if len(args) != 1 {
			return fmt.Errorf("usage: goto <page>")
		}
		page, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid page %q", args[0])
		}
		return s.gotoPage(ctx, page)
	case "search", "s":
		keyword := ""
		group := ""
		if len(args) > 0 {
			keyword = args[0]
		}
		if len(args) > 1 {
			group = args[1]
		}
		if err := s.list.Submit(ctx, keyword, group); err != nil {
			return err
		}
		s.render()
		return nil
	case "clear", "c":
		if err := s.list.Submit(ctx, "", ""); err != nil {
			return err
		}
		s.render()
		return nil
	case "sort", "o":
		if len(args) != 1 {
			return fmt.Errorf("usage: sort <column>")
		}
		s.list.SortBy(args[0])
		s.render()
		return nil
	case "refresh", "r":
		if err := s.list.Refresh(ctx); err != nil {
			return err
		}
		s.render()
		return nil
	case "groups":
		groups, err := s.groups.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(groups, ", "))
		return nil
	case "promote", "demote", "enable", "disable", "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <row>", cmd)
		}
		return s.manageRow(ctx, args[0], models.UserAction(cmd))
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

func (s *browseSession) gotoPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("already on the first page")
	}
	if _, err := s.list.EnsurePage(ctx, page); err != nil {
		return err
	}
	s.render()
	return nil
}

// manageRow applies an action to the 1-based row number on the visible
// page. Delete asks for confirmation first.
func (s *browseSession) manageRow(ctx context.Context, rowArg string, action models.UserAction) error {
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		return fmt.Errorf("invalid row %q", rowArg)
	}
	page := s.list.Page()
	if row < 1 || row > len(page) {
		return fmt.Errorf("row %d is not on this page (1-%d)", row, len(page))
	}
	record := page[row-1]

	if err := guardManageTarget(&record, action); err != nil {
		return err
	}
	if action == models.ActionDelete {
		fmt.Printf("Deactivate user %q? The account cannot be managed afterwards.\n", record.Username)
		if !promptYesNo("Are you sure?") {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := s.list.Apply(ctx, record, action); err != nil {
		return err
	}
	s.render()
	return nil
}

func (s *browseSession) render() {
	page := s.list.Page()
	if keyword, group := s.list.Filters(); s.list.SearchActive() {
		fmt.Printf("Search results for keyword=%q group=%q\n\n", keyword, group)
	}
	if len(page) == 0 {
		fmt.Println("No users on this page")
		return
	}
	fmt.Printf("%-4s %-6s %-20s %-20s %-12s %-12s %-12s %-10s %-10s %s\n",
		"ROW", "ID", "USERNAME", "DISPLAY NAME", "GROUP", "ROLE", "STATUS", "QUOTA", "USED", "LAST REQUEST")
	for i := range page {
		u := &page[i]
		fmt.Printf("%-4d %-6d %-20s %-20s %-12s %-12s %-12s %-10s %-10s %s\n",
			i+1,
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
	lastPage := (s.list.Total() + s.list.PageSize() - 1) / s.list.PageSize()
	fmt.Printf("\nPage %d of ~%d (%d users known)\n", s.list.ActivePage(), lastPage, s.list.Total())
}

func (s *browseSession) printHelp() {
	fmt.Print(`Commands:
  next, n              Next page (fetches it on first visit)
  prev, p              Previous page
  goto <page>, g       Jump to an already-visited page or the next new one
  search <kw> [group]  Search server-side; results replace the list
  clear, c             Exit search and reload the list
  sort <column>, o     Sort by column; repeat to reverse
                       (id, username, display_name, email, group, role,
                       status, quota, used_quota, request_count)
  refresh, r           Re-sync the list from the server
  promote <row>        Make the user on that row an admin
  demote <row>         Make the user on that row a common user
  enable <row>         Re-enable a banned user
  disable <row>        Ban a user
  delete <row>         Deactivate a user (asks for confirmation)
  groups               List known groups
  help, h              This help
  quit, q              Leave the session
`)
}
