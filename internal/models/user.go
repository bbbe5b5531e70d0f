// Package models defines the data structures exchanged with the new-api
// admin endpoints.
package models

import "time"

// User roles as stored by the backend. Values are spaced so intermediate
// roles can be added server-side without renumbering.
const (
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

// User statuses as stored by the backend.
const (
	// UserStatusEnabled - the account is active.
	UserStatusEnabled = 1
	// UserStatusDisabled - the account is banned; it can be re-enabled.
	UserStatusDisabled = 2
	// UserStatusPending - the account cannot be enabled from the console.
	UserStatusPending = 3
)

// UserAction is a state transition applied server-side via
// POST /api/user/manage.
type UserAction string

const (
	ActionPromote UserAction = "promote"
	ActionDemote  UserAction = "demote"
	ActionEnable  UserAction = "enable"
	ActionDisable UserAction = "disable"
	ActionDelete  UserAction = "delete"
)

// ValidAction reports whether a is one of the manage actions the backend
// accepts.
func ValidAction(a UserAction) bool {
	switch a {
	case ActionPromote, ActionDemote, ActionEnable, ActionDisable, ActionDelete:
		return true
	}
	return false
}

// User is one record of the admin user collection.
//
// The backend soft-deletes users: DeletedAt is set instead of removing the
// row, and the field keeps its upstream capitalized JSON key. A record with
// DeletedAt set is read-only; the console must not issue further manage
// actions against it.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Group       string `json:"group"`
	Role        int    `json:"role"`
	Status      int    `json:"status"`

	// Quota accounting (display-only for the console)
	Quota        int64 `json:"quota"`
	UsedQuota    int64 `json:"used_quota"`
	RequestCount int   `json:"request_count"`

	// Invitation statistics (display-only)
	AffCount        int   `json:"aff_count"`
	AffHistoryQuota int64 `json:"aff_history_quota"`
	InviterID       int   `json:"inviter_id"`

	// LastRequestTime is a Unix timestamp; zero means never.
	LastRequestTime int64 `json:"last_request_time"`

	// DeletedAt is the soft-delete marker. Nil means the account is live.
	DeletedAt *time.Time `json:"DeletedAt"`
}

// Deleted reports whether the record carries a soft-delete marker.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// RoleName returns the display name for a role value.
func RoleName(role int) string {
	switch role {
	case RoleCommonUser:
		return "user"
	case RoleAdminUser:
		return "admin"
	case RoleRootUser:
		return "super admin"
	default:
		return "unknown"
	}
}

// StatusName returns the display name for a status value. Soft-deleted
// records render as deactivated regardless of status.
func (u *User) StatusName() string {
	if u.Deleted() {
		return "deactivated"
	}
	switch u.Status {
	case UserStatusEnabled:
		return "activated"
	case UserStatusDisabled:
		return "banned"
	default:
		return "unknown"
	}
}
