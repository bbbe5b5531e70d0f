package state

import (
	"context"
	"time"

	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// Apply submits a management action for the given row and reconciles the
// visible list with the outcome, in place. The list's length, ordering and
// displayed total never change here:
//
//   - delete stamps the matching row's DeletedAt so it renders as removed
//     while keeping pagination arithmetic stable until the next reload;
//   - every other action patches the row's role and status from the
//     record the server returns.
//
// Rows are matched by id, so the patch lands on the right record in
// whichever store (browse cache or search results) is active.
func (s *UserList) Apply(ctx context.Context, row models.User, action models.UserAction) error {
	updated, err := s.gateway.Manage(ctx, row.Username, action)
	if err != nil {
		s.publishError(err)
		return err
	}

	s.mu.Lock()
	store := s.activeStore()
	for i := range *store {
		if (*store)[i].ID != row.ID {
			continue
		}
		if action == models.ActionDelete {
			now := time.Now()
			(*store)[i].DeletedAt = &now
		} else if updated != nil {
			(*store)[i].Role = updated.Role
			(*store)[i].Status = updated.Status
		}
		break
	}
	ev := s.changedEventLocked()
	s.mu.Unlock()

	s.publish(ev)
	return nil
}
