package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/RainInQAQ/new-api-admin/internal/events"
	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// ErrPageUnavailable is returned when a requested page lies beyond the
// fetched frontier or past the end of the collection. The cache grows one
// page at a time to stay a contiguous prefix; skipping ahead is not
// supported.
var ErrPageUnavailable = errors.New("requested page is unavailable")

// EnsurePage makes requestedPage (1-based) visible and returns the records
// to render for it.
//
// In search mode the one-shot result set is sliced locally; no fetch ever
// happens. In browse mode a page already covered by the cache is sliced
// with zero network calls; the first page past the cached frontier issues
// exactly one fetch for fetch index requestedPage-1, appends the result,
// and refreshes the displayed total. Once a fetch has returned a short
// page the end of the collection is known and further frontier requests
// fail without a fetch, until a reload starts the cache over. Concurrent
// advances to the same page share a single in-flight fetch.
//
// On a fetch failure the cache is left untouched and the active page does
// not move, so retrying the same advance is always safe.
func (s *UserList) EnsurePage(ctx context.Context, requestedPage int) ([]models.User, error) {
	if requestedPage < 1 {
		return nil, ErrPageUnavailable
	}

	s.mu.Lock()
	if s.searchActive {
		s.activePage = requestedPage
		items := slicePage(s.results, requestedPage, s.pageSize)
		ev := s.changedEventLocked()
		s.mu.Unlock()
		s.publish(ev)
		return items, nil
	}

	covered := requestedPage <= ceilDiv(len(s.cache), s.pageSize)
	frontier := ceilDiv(len(s.cache), s.pageSize) + 1

	if covered {
		s.activePage = requestedPage
		items := slicePage(s.cache, requestedPage, s.pageSize)
		ev := s.changedEventLocked()
		s.mu.Unlock()
		s.publish(ev)
		return items, nil
	}

	if s.complete {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: page %d is past the end of the collection", ErrPageUnavailable, requestedPage)
	}
	if requestedPage != frontier {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: page %d, frontier %d", ErrPageUnavailable, requestedPage, frontier)
	}

	s.loading = true
	s.mu.Unlock()
	s.publishLoading(true, false)

	// Single-flight keyed by fetch index: rapid repeated advance triggers
	// share one remote call instead of appending the same page twice.
	_, err, _ := s.flight.Do(strconv.Itoa(requestedPage-1), func() (interface{}, error) {
		s.mu.Lock()
		gen := s.gen
		if requestedPage <= ceilDiv(len(s.cache), s.pageSize) {
			// A shared flight that resolved between our frontier check and
			// here already covered the page.
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()

		records, err := s.gateway.FetchPage(ctx, requestedPage-1)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			// The store was replaced (reload or search) while this fetch
			// was in flight; its result no longer belongs to the current
			// collection view.
			return nil, nil
		}
		s.cache = append(s.cache, records...)
		s.total = estimateTotal(len(s.cache), requestedPage, s.pageSize)
		if len(records) < s.pageSize {
			s.complete = true
		}
		return nil, nil
	})

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.publishLoading(false, false)
		s.publishError(err)
		return nil, err
	}

	if requestedPage > ceilDiv(len(s.cache), s.pageSize) {
		// The frontier fetch came back empty: the estimator's hinted extra
		// page does not exist, so the active page stays where it was.
		s.mu.Unlock()
		s.publishLoading(false, false)
		return nil, fmt.Errorf("%w: page %d is past the end of the collection", ErrPageUnavailable, requestedPage)
	}

	s.activePage = requestedPage
	items := slicePage(s.cache, requestedPage, s.pageSize)
	ev := s.changedEventLocked()
	s.mu.Unlock()
	s.publishLoading(false, false)
	s.publish(ev)
	return items, nil
}

// Reload replaces the page cache wholesale from fetch index 0, exits
// search mode and resets to page 1. Used on startup, after add/edit flows
// complete, and when an empty search submission exits search.
//
// Reload bumps the shared store generation, so any browse append or search
// submission still in flight when it wins the store is discarded on
// resolve; a slow page-2 response can never splice stale records into the
// fresh cache, and a slow search can never drag the list back into search
// mode.
func (s *UserList) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()
	s.publishLoading(true, false)

	records, err := s.gateway.FetchPage(ctx, 0)

	s.mu.Lock()
	if s.gen != gen {
		// A newer store replacement superseded this reload.
		s.loading = false
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.publishLoading(false, false)
		s.publishError(err)
		return err
	}

	s.cache = records
	s.total = estimateTotal(len(records), 1, s.pageSize)
	s.complete = len(records) < s.pageSize
	s.searchActive = false
	s.keyword, s.group = "", ""
	s.results = nil
	s.activePage = 1
	ev := s.changedEventLocked()
	s.mu.Unlock()

	s.publishLoading(false, false)
	s.publish(&UserSearchChangedEvent{
		BaseEvent: events.NewBase(EventUserSearchChange),
		Active:    false,
	})
	s.publish(ev)
	return nil
}

// Refresh re-synchronizes the visible list after an out-of-band change
// (e.g. a user was added or edited): in search mode the current filters
// are resubmitted, otherwise the cache is reloaded from the start.
func (s *UserList) Refresh(ctx context.Context) error {
	s.mu.Lock()
	active, keyword, group := s.searchActive, s.keyword, s.group
	s.mu.Unlock()

	if active {
		return s.Submit(ctx, keyword, group)
	}
	return s.Reload(ctx)
}
