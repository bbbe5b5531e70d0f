package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RainInQAQ/new-api-admin/internal/models"
)

// fakeGateway serves canned pages and records every remote call.
type fakeGateway struct {
	mu          sync.Mutex
	pages       map[int][]models.User
	searchHits  []models.User
	manageUser  *models.User
	fetchCalls  []int
	searchCalls int
	manageCalls int
	fetchErr    error
	searchErr   error

	// blockSearch and blockFetch, when set, are received from before the
	// first call of their kind returns; used to order overlapping
	// operations deterministically.
	blockSearch chan struct{}
	blockFetch  chan struct{}
}

func (f *fakeGateway) FetchPage(_ context.Context, fetchIndex int) ([]models.User, error) {
	f.mu.Lock()
	f.fetchCalls = append(f.fetchCalls, fetchIndex)
	first := len(f.fetchCalls) == 1
	f.mu.Unlock()
	if first && f.blockFetch != nil {
		<-f.blockFetch
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.pages[fetchIndex], nil
}

func (f *fakeGateway) Search(_ context.Context, _, _ string) ([]models.User, error) {
	f.mu.Lock()
	f.searchCalls++
	first := f.searchCalls == 1
	f.mu.Unlock()
	if first && f.blockSearch != nil {
		<-f.blockSearch
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchHits, nil
}

func (f *fakeGateway) Manage(_ context.Context, _ string, _ models.UserAction) (*models.User, error) {
	f.mu.Lock()
	f.manageCalls++
	f.mu.Unlock()
	return f.manageUser, nil
}

func (f *fakeGateway) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetchCalls)
}

func mkUsers(startID, n int) []models.User {
	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{
			ID:       startID + i,
			Username: "user" + string(rune('a'+startID+i-1)),
			Role:     models.RoleCommonUser,
			Status:   models.UserStatusEnabled,
		}
	}
	return users
}

func TestEnsurePageCoveredServesFromCache(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 10)}}
	list := NewUserList(gw, nil, 10)

	if _, err := list.EnsurePage(context.Background(), 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	items, err := list.EnsurePage(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnsurePage(1) again error: %v", err)
	}
	if len(items) != 10 {
		t.Errorf("len(items) = %d, want 10", len(items))
	}
	if got := gw.fetchCount(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestEnsurePageFrontierFetchesOnce(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{
		0: mkUsers(1, 10),
		1: mkUsers(11, 4),
	}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	if got := list.Total(); got != 11 {
		t.Errorf("Total after full page = %d, want 11", got)
	}

	items, err := list.EnsurePage(ctx, 2)
	if err != nil {
		t.Fatalf("EnsurePage(2) error: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("len(page 2) = %d, want 4", len(items))
	}
	if got := list.Total(); got != 14 {
		t.Errorf("Total after short page = %d, want 14", got)
	}
	if got := gw.fetchCalls; len(got) != 2 || got[1] != 1 {
		t.Errorf("fetch calls = %v, want [0 1]", got)
	}
}

func TestEnsurePageBeyondFrontier(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 10)}}
	list := NewUserList(gw, nil, 10)

	if _, err := list.EnsurePage(context.Background(), 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	_, err := list.EnsurePage(context.Background(), 3)
	if !errors.Is(err, ErrPageUnavailable) {
		t.Errorf("EnsurePage(3) error = %v, want ErrPageUnavailable", err)
	}
	if got := gw.fetchCount(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 (no fetch past the frontier)", got)
	}
}

func TestEnsurePageFetchFailureLeavesStateIntact(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 10)}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	gw.fetchErr = errors.New("backend unavailable")
	if _, err := list.EnsurePage(ctx, 2); err == nil {
		t.Fatal("EnsurePage(2) succeeded, want error")
	}
	if got := list.ActivePage(); got != 1 {
		t.Errorf("ActivePage after failed fetch = %d, want 1", got)
	}
	if got := list.Len(); got != 10 {
		t.Errorf("Len after failed fetch = %d, want 10", got)
	}

	// The advance is retryable once the backend recovers.
	gw.fetchErr = nil
	gw.pages[1] = mkUsers(11, 4)
	if _, err := list.EnsurePage(ctx, 2); err != nil {
		t.Fatalf("EnsurePage(2) retry error: %v", err)
	}
	if got := list.Len(); got != 14 {
		t.Errorf("Len after retry = %d, want 14", got)
	}
}

func TestEnsurePageStopsAtEndOfCollection(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{
		0: mkUsers(1, 10),
		1: mkUsers(11, 4),
	}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	if _, err := list.EnsurePage(ctx, 2); err != nil {
		t.Fatalf("EnsurePage(2) error: %v", err)
	}

	// The short page marked the end; no further page exists and no
	// further fetch is issued.
	_, err := list.EnsurePage(ctx, 3)
	if !errors.Is(err, ErrPageUnavailable) {
		t.Errorf("EnsurePage(3) error = %v, want ErrPageUnavailable", err)
	}
	if got := gw.fetchCount(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (no fetch past the end)", got)
	}
	if got := list.ActivePage(); got != 2 {
		t.Errorf("ActivePage = %d, want 2", got)
	}
}

func TestEnsurePageEmptyFrontierFetch(t *testing.T) {
	// Collection length is an exact page multiple: the estimator hints at
	// one more page, and the fetch for it comes back empty.
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 10)}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	if got := list.Total(); got != 11 {
		t.Errorf("Total before frontier fetch = %d, want 11", got)
	}

	_, err := list.EnsurePage(ctx, 2)
	if !errors.Is(err, ErrPageUnavailable) {
		t.Errorf("EnsurePage(2) error = %v, want ErrPageUnavailable", err)
	}
	if got := list.ActivePage(); got != 1 {
		t.Errorf("ActivePage = %d, want 1 (must not park on an empty page)", got)
	}
	if got := list.Total(); got != 10 {
		t.Errorf("Total after empty fetch = %d, want 10 (end known, estimate exact)", got)
	}

	// The end is now remembered; retrying does not fetch again.
	if _, err := list.EnsurePage(ctx, 2); !errors.Is(err, ErrPageUnavailable) {
		t.Errorf("EnsurePage(2) retry error = %v, want ErrPageUnavailable", err)
	}
	if got := gw.fetchCount(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestSubmitReplacesVisibleList(t *testing.T) {
	gw := &fakeGateway{
		pages:      map[int][]models.User{0: mkUsers(1, 10)},
		searchHits: mkUsers(101, 3),
	}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	if err := list.Submit(ctx, "alice", ""); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if !list.SearchActive() {
		t.Error("SearchActive = false, want true")
	}
	if got := list.Total(); got != 3 {
		t.Errorf("Total in search mode = %d, want 3", got)
	}
	if got := list.ActivePage(); got != 1 {
		t.Errorf("ActivePage after submit = %d, want 1", got)
	}
	if items := list.Page(); len(items) != 3 || items[0].ID != 101 {
		t.Errorf("Page() = %v, want the 3 search hits", items)
	}
}

func TestSubmitEmptyExitsSearch(t *testing.T) {
	gw := &fakeGateway{
		pages:      map[int][]models.User{0: mkUsers(1, 10)},
		searchHits: mkUsers(101, 3),
	}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if err := list.Submit(ctx, "alice", ""); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if err := list.Submit(ctx, "", ""); err != nil {
		t.Fatalf("Submit empty error: %v", err)
	}
	if list.SearchActive() {
		t.Error("SearchActive = true after empty submit, want false")
	}
	if got := list.ActivePage(); got != 1 {
		t.Errorf("ActivePage = %d, want 1", got)
	}
	if got := list.Total(); got != 11 {
		t.Errorf("Total after reload = %d, want 11", got)
	}
	if kw, grp := list.Filters(); kw != "" || grp != "" {
		t.Errorf("Filters = (%q, %q), want empty", kw, grp)
	}
}

func TestSubmitLastWriteWins(t *testing.T) {
	gw := &fakeGateway{
		searchHits:  mkUsers(101, 2),
		blockSearch: make(chan struct{}),
	}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- list.Submit(ctx, "slow", "") }()

	// Second submission lands while the first is still blocked.
	for {
		gw.mu.Lock()
		started := gw.searchCalls == 1
		gw.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := list.Submit(ctx, "fast", ""); err != nil {
		t.Fatalf("Submit(fast) error: %v", err)
	}

	close(gw.blockSearch)
	if err := <-done; err != nil {
		t.Fatalf("Submit(slow) error: %v", err)
	}

	if kw, _ := list.Filters(); kw != "fast" {
		t.Errorf("Filters keyword = %q, want %q (stale response must not land)", kw, "fast")
	}
}

func TestSearchExitWinsOverInFlightSearch(t *testing.T) {
	gw := &fakeGateway{
		pages:       map[int][]models.User{0: mkUsers(1, 10)},
		searchHits:  mkUsers(101, 2),
		blockSearch: make(chan struct{}),
	}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- list.Submit(ctx, "alice", "") }()

	for {
		gw.mu.Lock()
		started := gw.searchCalls == 1
		gw.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Exiting search while the submission is still in flight: the empty
	// submit reloads browse mode and must stay the winner.
	if err := list.Submit(ctx, "", ""); err != nil {
		t.Fatalf("Submit empty error: %v", err)
	}

	close(gw.blockSearch)
	if err := <-done; err != nil {
		t.Fatalf("Submit(alice) error: %v", err)
	}

	if list.SearchActive() {
		t.Error("SearchActive = true, want false (stale search landed after search exit)")
	}
	if kw, _ := list.Filters(); kw != "" {
		t.Errorf("Filters keyword = %q, want empty", kw)
	}
	if got := list.Len(); got != 10 {
		t.Errorf("Len = %d, want the 10 reloaded browse records", got)
	}
}

func TestSearchWinsOverInFlightReload(t *testing.T) {
	gw := &fakeGateway{
		pages:      map[int][]models.User{0: mkUsers(1, 10)},
		searchHits: mkUsers(101, 3),
		blockFetch: make(chan struct{}),
	}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- list.Reload(ctx) }()

	for gw.fetchCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := list.Submit(ctx, "fast", ""); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	close(gw.blockFetch)
	if err := <-done; err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if !list.SearchActive() {
		t.Error("SearchActive = false, want true (stale reload wiped the newer search)")
	}
	if kw, _ := list.Filters(); kw != "fast" {
		t.Errorf("Filters keyword = %q, want %q", kw, "fast")
	}
	if got := list.Total(); got != 3 {
		t.Errorf("Total = %d, want 3", got)
	}
}

func TestApplyDeleteStampsDeletedAt(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 10)}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	row := list.Page()[2]
	if err := list.Apply(ctx, row, models.ActionDelete); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	if got := list.Len(); got != 10 {
		t.Errorf("Len after delete = %d, want 10 (soft delete keeps the row)", got)
	}
	if got := list.Total(); got != 11 {
		t.Errorf("Total after delete = %d, want 11 (unchanged)", got)
	}
	page := list.Page()
	if !page[2].Deleted() {
		t.Error("deleted row has no DeletedAt marker")
	}
	if page[1].Deleted() || page[3].Deleted() {
		t.Error("neighboring rows were marked deleted")
	}
}

func TestApplyPatchesRoleAndStatusOnly(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 10)}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	row := list.Page()[0]
	updated := row
	updated.Role = models.RoleAdminUser
	updated.Username = "renamed-by-server"
	gw.manageUser = &updated

	if err := list.Apply(ctx, row, models.ActionPromote); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	got := list.Page()[0]
	if got.Role != models.RoleAdminUser {
		t.Errorf("Role = %d, want %d", got.Role, models.RoleAdminUser)
	}
	if got.Username != row.Username {
		t.Errorf("Username = %q, want %q (only role and status reconcile)", got.Username, row.Username)
	}
}

func TestSortByTogglesDirection(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: mkUsers(1, 5)}}
	list := NewUserList(gw, nil, 10)

	if _, err := list.EnsurePage(context.Background(), 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}

	list.SortBy("id")
	first := list.Page()
	if first[0].ID != 5 {
		t.Errorf("first sort: page[0].ID = %d, want 5 (already ascending, so reversed)", first[0].ID)
	}

	list.SortBy("id")
	second := list.Page()
	if second[0].ID != 1 {
		t.Errorf("second sort: page[0].ID = %d, want 1 (toggled back)", second[0].ID)
	}
}

func TestSortByUsername(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{0: {
		{ID: 1, Username: "carol"},
		{ID: 2, Username: "alice"},
		{ID: 3, Username: "bob"},
	}}}
	list := NewUserList(gw, nil, 10)

	if _, err := list.EnsurePage(context.Background(), 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	list.SortBy("username")
	page := list.Page()
	want := []string{"alice", "bob", "carol"}
	for i, u := range page {
		if u.Username != want[i] {
			t.Errorf("page[%d].Username = %q, want %q", i, u.Username, want[i])
		}
	}
}

func TestSortAppliesToSearchResults(t *testing.T) {
	gw := &fakeGateway{searchHits: []models.User{
		{ID: 7, Username: "zed"},
		{ID: 3, Username: "amy"},
	}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if err := list.Submit(ctx, "a", ""); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	list.SortBy("username")
	page := list.Page()
	if page[0].Username != "amy" {
		t.Errorf("page[0].Username = %q, want %q", page[0].Username, "amy")
	}
}

func TestRefreshInBrowseReloads(t *testing.T) {
	gw := &fakeGateway{pages: map[int][]models.User{
		0: mkUsers(1, 10),
		1: mkUsers(11, 4),
	}}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if _, err := list.EnsurePage(ctx, 1); err != nil {
		t.Fatalf("EnsurePage(1) error: %v", err)
	}
	if _, err := list.EnsurePage(ctx, 2); err != nil {
		t.Fatalf("EnsurePage(2) error: %v", err)
	}

	gw.pages[0] = mkUsers(1, 6)
	if err := list.Refresh(ctx); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if got := list.Len(); got != 6 {
		t.Errorf("Len after refresh = %d, want 6 (cache rebuilt from the start)", got)
	}
	if got := list.ActivePage(); got != 1 {
		t.Errorf("ActivePage after refresh = %d, want 1", got)
	}
}

func TestRefreshInSearchResubmits(t *testing.T) {
	gw := &fakeGateway{searchHits: mkUsers(101, 2)}
	list := NewUserList(gw, nil, 10)
	ctx := context.Background()

	if err := list.Submit(ctx, "alice", "vip"); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	gw.searchHits = mkUsers(101, 5)
	if err := list.Refresh(ctx); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if !list.SearchActive() {
		t.Error("SearchActive = false after refresh, want true")
	}
	if got := list.Total(); got != 5 {
		t.Errorf("Total after refresh = %d, want 5", got)
	}
	if kw, grp := list.Filters(); kw != "alice" || grp != "vip" {
		t.Errorf("Filters = (%q, %q), want (alice, vip)", kw, grp)
	}
}
