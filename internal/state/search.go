package state

import (
	"context"
	"strings"

	"github.com/RainInQAQ/new-api-admin/internal/events"
)

// Submit runs a server-side search for keyword and group and replaces the
// visible list with the wholesale result set, reset to page 1. The result
// is held separately from the page cache, so exiting search later does not
// lose browse progress mid-flight semantics; the cache itself is rebuilt
// by the Reload an empty submission triggers.
//
// Submitting with both fields empty exits search mode entirely.
//
// Overlapping store replacements resolve last-write-wins through the
// shared generation counter: a submission, an empty-submit reload, or a
// plain Reload each bump it, and a response that captured an older value
// is discarded. A slow search can therefore never overwrite a faster
// later search, nor re-enter search mode after a reload has exited it.
func (s *UserList) Submit(ctx context.Context, keyword, group string) error {
	keyword = strings.TrimSpace(keyword)
	group = strings.TrimSpace(group)

	if keyword == "" && group == "" {
		return s.Reload(ctx)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.searching = true
	s.mu.Unlock()
	s.publishLoading(false, true)

	records, err := s.gateway.Search(ctx, keyword, group)

	s.mu.Lock()
	if s.gen != gen {
		// A newer store replacement superseded this submission.
		s.searching = false
		s.mu.Unlock()
		return nil
	}
	s.searching = false
	if err != nil {
		s.mu.Unlock()
		s.publishLoading(false, false)
		s.publishError(err)
		return err
	}

	s.searchActive = true
	s.keyword, s.group = keyword, group
	s.results = records
	s.activePage = 1
	ev := s.changedEventLocked()
	s.mu.Unlock()

	s.publishLoading(false, false)
	s.publish(&UserSearchChangedEvent{
		BaseEvent: events.NewBase(EventUserSearchChange),
		Keyword:   keyword,
		Group:     group,
		Active:    true,
	})
	s.publish(ev)
	return nil
}
