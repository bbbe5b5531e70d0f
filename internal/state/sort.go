package state

import (
	"sort"
	"strconv"

	"github.com/RainInQAQ/new-api-admin/internal/events"
	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// SortBy reorders the active store by field, in place, and re-renders the
// current page. All values, numeric columns included, compare as strings.
//
// Repeating the same field toggles direction: when the ascending pass
// leaves the first element where it was, the whole store is reversed.
// With a contiguous id-ordered cache that reads as an ascending/descending
// toggle; it also means a click on an already-sorted column flips it, the
// behavior users of spreadsheet-style tables expect.
func (s *UserList) SortBy(field string) {
	s.mu.Lock()
	store := s.activeStore()
	if len(*store) == 0 {
		s.mu.Unlock()
		return
	}

	prevFirst := (*store)[0].ID
	sort.SliceStable(*store, func(i, j int) bool {
		return fieldString((*store)[i], field) < fieldString((*store)[j], field)
	})
	if (*store)[0].ID == prevFirst {
		reverse(*store)
	}

	ev := s.changedEventLocked()
	s.mu.Unlock()

	s.publish(ev)
	s.publish(&UserSortChangedEvent{
		BaseEvent: events.NewBase(EventUserSortChanged),
		Field:     field,
	})
}

func reverse(users []models.User) {
	for i, j := 0, len(users)-1; i < j; i, j = i+1, j-1 {
		users[i], users[j] = users[j], users[i]
	}
}

// fieldString projects a sortable column to its comparison key. Unknown
// fields project to the empty string, which makes the sort a stable no-op
// followed by a reversal rather than an error.
func fieldString(u models.User, field string) string {
	switch field {
	case "id":
		return strconv.Itoa(u.ID)
	case "username":
		return u.Username
	case "display_name":
		return u.DisplayName
	case "email":
		return u.Email
	case "group":
		return u.Group
	case "role":
		return strconv.Itoa(u.Role)
	case "status":
		return strconv.Itoa(u.Status)
	case "quota":
		return strconv.FormatInt(u.Quota, 10)
	case "used_quota":
		return strconv.FormatInt(u.UsedQuota, 10)
	case "request_count":
		return strconv.Itoa(u.RequestCount)
	default:
		return ""
	}
}
