package api

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/RainInQAQ/new-api-admin/internal/config"
	"github.com/RainInQAQ/new-api-admin/internal/models"
)

func newTestClient(t *testing.T, handler nethttp.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.BaseURL = srv.URL
	cfg.AccessToken = "test-token"

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv
}

func writeEnvelope(w nethttp.ResponseWriter, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": success,
		"message": message,
		"data":    data,
	})
}

func TestFetchPage(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/user/" {
			t.Errorf("path = %q, want /api/user/", r.URL.Path)
		}
		if got := r.URL.Query().Get("p"); got != "2" {
			t.Errorf("p = %q, want 2", got)
		}
		if got := r.Header.Get("Authorization"); got != "test-token" {
			t.Errorf("Authorization = %q, want test-token", got)
		}
		writeEnvelope(w, true, "", []models.User{
			{ID: 21, Username: "u21"},
			{ID: 22, Username: "u22"},
		})
	}))

	users, err := client.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(users) != 2 || users[0].ID != 21 {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestFetchPageBackendRejection(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeEnvelope(w, false, "无权进行此操作", nil)
	}))

	_, err := client.FetchPage(context.Background(), 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsBackendError(err) {
		t.Errorf("expected backend error, got %T", err)
	}
	// The backend message must surface verbatim.
	if err.Error() != "无权进行此操作" {
		t.Errorf("message = %q, want backend message verbatim", err.Error())
	}
}

func TestFetchPageNonEnvelopeBody(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		fmt.Fprint(w, "404 page not found")
	}))

	_, err := client.FetchPage(context.Background(), 0)
	if err == nil {
		t.Fatal("expected error for non-envelope body")
	}
	if IsBackendError(err) {
		t.Error("a non-envelope body is a transport-level failure, not a backend rejection")
	}
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/user/search" {
			t.Errorf("path = %q, want /api/user/search", r.URL.Path)
		}
		if got := r.URL.Query().Get("keyword"); got != "alice" {
			t.Errorf("keyword = %q, want alice", got)
		}
		if got := r.URL.Query().Get("group"); got != "vip" {
			t.Errorf("group = %q, want vip", got)
		}
		writeEnvelope(w, true, "", []models.User{{ID: 1, Username: "alice"}})
	}))

	users, err := client.Search(context.Background(), "alice", "vip")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Errorf("unexpected results: %+v", users)
	}
}

func TestGroups(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/group/" {
			t.Errorf("path = %q, want /api/group/", r.URL.Path)
		}
		writeEnvelope(w, true, "", []string{"default", "vip"})
	}))

	groups, err := client.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups failed: %v", err)
	}
	if len(groups) != 2 || groups[1] != "vip" {
		t.Errorf("unexpected groups: %v", groups)
	}
}

func TestManage(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost || r.URL.Path != "/api/user/manage" {
			t.Errorf("got %s %s, want POST /api/user/manage", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["username"] != "bob" || body["action"] != "promote" {
			t.Errorf("unexpected body: %v", body)
		}
		writeEnvelope(w, true, "", models.User{ID: 2, Username: "bob", Role: models.RoleAdminUser})
	}))

	user, err := client.Manage(context.Background(), "bob", models.ActionPromote)
	if err != nil {
		t.Fatalf("Manage failed: %v", err)
	}
	if user == nil || user.Role != models.RoleAdminUser {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestManageDeleteReturnsNoRecord(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeEnvelope(w, true, "", nil)
	}))

	user, err := client.Manage(context.Background(), "bob", models.ActionDelete)
	if err != nil {
		t.Fatalf("Manage failed: %v", err)
	}
	if user != nil {
		t.Errorf("delete should return no record, got %+v", user)
	}
}

func TestManageRejectsInvalidAction(t *testing.T) {
	client, _ := newTestClient(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t.Error("invalid action must not reach the server")
	}))

	if _, err := client.Manage(context.Background(), "bob", "explode"); err == nil {
		t.Error("expected error for invalid action")
	}
}
