// Package state implements the controller behind the admin users table: a
// locally browsable mirror of the server-paginated user collection, plus
// search, sorting and in-place reconciliation of management actions.
//
// The remote service only exposes fixed-size offset pages and a one-shot
// search endpoint with no total-count contract; everything that makes the
// collection feel local lives here.
package state

import (
	"context"

	"github.com/RainInQAQ/new-api-admin/internal/events"
	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// Gateway is the remote API surface the controller needs. api.Client
// implements it; tests substitute fakes.
type Gateway interface {
	// FetchPage returns one page of the browse collection at the 0-based
	// fetch index. A short or empty result signals end of collection.
	FetchPage(ctx context.Context, fetchIndex int) ([]models.User, error)

	// Search returns the full, unpaginated result set for the filters.
	Search(ctx context.Context, keyword, group string) ([]models.User, error)

	// Manage applies a state transition server-side and returns the
	// resulting record (nil for delete).
	Manage(ctx context.Context, username string, action models.UserAction) (*models.User, error)
}

// Event types published by the user list container.
const (
	EventUserListChanged  events.EventType = "user_list_changed"
	EventUserListLoading  events.EventType = "user_list_loading"
	EventUserListError    events.EventType = "user_list_error"
	EventUserSortChanged  events.EventType = "user_sort_changed"
	EventUserSearchChange events.EventType = "user_search_changed"
)

// UserListChangedEvent is published whenever the visible list content
// changes: a page fetch, a reload, a search result, a sort, or a
// reconciled mutation.
type UserListChangedEvent struct {
	events.BaseEvent
	Items        []models.User // current visible page, copied
	Page         int
	Total        int
	SearchActive bool
}

// UserListLoadingEvent is published when a remote operation starts or ends.
type UserListLoadingEvent struct {
	events.BaseEvent
	Loading   bool // browse fetch or reload in flight
	Searching bool // search submission in flight
}

// UserListErrorEvent is published when a remote operation fails. Err's
// message is the backend's reason, verbatim.
type UserListErrorEvent struct {
	events.BaseEvent
	Err error
}

// UserSortChangedEvent is published after a sort projection is applied.
type UserSortChangedEvent struct {
	events.BaseEvent
	Field string
}

// UserSearchChangedEvent is published when the search session changes.
type UserSearchChangedEvent struct {
	events.BaseEvent
	Keyword string
	Group   string
	Active  bool
}
