package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeGroupSource struct {
	groups []string
	err    error
	calls  int
}

func (f *fakeGroupSource) Groups(_ context.Context) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.groups, nil
}

func TestGroupCacheFetchesOnce(t *testing.T) {
	src := &fakeGroupSource{groups: []string{"default", "vip"}}
	cache := NewGroupCache(src, time.Minute)

	for i := 0; i < 3; i++ {
		groups, err := cache.Get(context.Background())
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("len(groups) = %d, want 2", len(groups))
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestGroupCacheServesStaleOnError(t *testing.T) {
	src := &fakeGroupSource{groups: []string{"default"}}
	cache := NewGroupCache(src, time.Minute)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get error: %v", err)
	}

	src.err = errors.New("backend unavailable")
	cache.Invalidate()
	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatal("Get after invalidate succeeded, want error")
	}
}

func TestGroupCacheStaleFallback(t *testing.T) {
	src := &fakeGroupSource{groups: []string{"default"}}
	cache := NewGroupCache(src, time.Nanosecond)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	time.Sleep(time.Millisecond)

	src.err = errors.New("backend unavailable")
	groups, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get with warm cache returned error: %v", err)
	}
	if len(groups) != 1 || groups[0] != "default" {
		t.Errorf("groups = %v, want stale [default]", groups)
	}
}

func TestGroupCacheInvalidate(t *testing.T) {
	src := &fakeGroupSource{groups: []string{"default"}}
	cache := NewGroupCache(src, time.Hour)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}
}
