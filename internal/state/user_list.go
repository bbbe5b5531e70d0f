package state

import (
	"sync"

	"github.com/RainInQAQ/new-api-admin/internal/constants"
	"github.com/RainInQAQ/new-api-admin/internal/events"
	"github.com/RainInQAQ/new-api-admin/internal/models"
	"golang.org/x/sync/singleflight"
)

// UserList is the observable container for the admin user collection.
//
// In browse mode it holds a contiguous prefix of the remote collection
// (cache), grown one page at a time; page k is only ever fetched once pages
// 0..k-1 are present. In search mode it holds the one-shot result set of
// the latest search submission, sliced locally for page advances.
//
// All exported methods are safe for concurrent use. Events are published
// outside the container lock.
type UserList struct {
	mu       sync.Mutex
	gateway  Gateway
	bus      *events.EventBus
	pageSize int

	// Browse state: cache is a contiguous prefix of the remote collection.
	// complete is set once a fetch returns a short page, which marks the
	// end of the collection until the next reload.
	cache    []models.User
	total    int
	complete bool

	// Search state: results is replaced wholesale on every submission.
	searchActive bool
	keyword      string
	group        string
	results      []models.User

	activePage int
	loading    bool
	searching  bool

	// gen orders store-replacing operations. Reloads and search
	// submissions bump it on start; any response, browse append included,
	// that captured an older value is discarded when it resolves, so the
	// operation issued last always wins regardless of kind.
	gen uint64

	flight singleflight.Group
}

// NewUserList creates an empty container. bus may be nil when no
// presentation layer subscribes (tests, one-shot commands). pageSize
// values below 1 fall back to the default.
func NewUserList(gateway Gateway, bus *events.EventBus, pageSize int) *UserList {
	if pageSize < 1 {
		pageSize = constants.ItemsPerPage
	}
	return &UserList{
		gateway:    gateway,
		bus:        bus,
		pageSize:   pageSize,
		activePage: 1,
	}
}

// PageSize returns the configured page size.
func (s *UserList) PageSize() int {
	return s.pageSize
}

// ActivePage returns the current 1-based page.
func (s *UserList) ActivePage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePage
}

// Total returns the displayed total. In browse mode this is the estimate
// described in estimateTotal; in search mode the result set arrived whole,
// so its length is exact.
func (s *UserList) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchActive {
		return len(s.results)
	}
	return s.total
}

// Len returns the length of the active store.
func (s *UserList) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(*s.activeStore())
}

// Loading reports whether a browse fetch or reload is in flight.
func (s *UserList) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Searching reports whether a search submission is in flight.
func (s *UserList) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// SearchActive reports whether the container is in search mode.
func (s *UserList) SearchActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchActive
}

// Filters returns the current search keyword and group.
func (s *UserList) Filters() (keyword, group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyword, s.group
}

// Page returns a copy of the records visible on the current page.
func (s *UserList) Page() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slicePage(*s.activeStore(), s.activePage, s.pageSize)
}

// activeStore returns the store currently backing the rendered list.
// Callers must hold mu.
func (s *UserList) activeStore() *[]models.User {
	if s.searchActive {
		return &s.results
	}
	return &s.cache
}

// slicePage returns a copy of the 1-based page window over store. The last
// page may be shorter than pageSize; pages past the end are empty.
func slicePage(store []models.User, page, pageSize int) []models.User {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(store) {
		return nil
	}
	end := start + pageSize
	if end > len(store) {
		end = len(store)
	}
	out := make([]models.User, end-start)
	copy(out, store[start:end])
	return out
}

// ceilDiv returns ceil(n / d) for non-negative n and positive d.
func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func (s *UserList) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// changedEventLocked snapshots the visible page into a change event.
// Callers must hold mu and publish after unlocking.
func (s *UserList) changedEventLocked() *UserListChangedEvent {
	ev := &UserListChangedEvent{
		BaseEvent:    events.NewBase(EventUserListChanged),
		Items:        slicePage(*s.activeStore(), s.activePage, s.pageSize),
		Page:         s.activePage,
		SearchActive: s.searchActive,
	}
	if s.searchActive {
		ev.Total = len(s.results)
	} else {
		ev.Total = s.total
	}
	return ev
}

func (s *UserList) publishLoading(loading, searching bool) {
	s.publish(&UserListLoadingEvent{
		BaseEvent: events.NewBase(EventUserListLoading),
		Loading:   loading,
		Searching: searching,
	})
}

func (s *UserList) publishError(err error) {
	s.publish(&UserListErrorEvent{
		BaseEvent: events.NewBase(EventUserListError),
		Err:       err,
	})
}
