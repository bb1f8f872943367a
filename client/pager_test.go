package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
)

// slicePager builds a Pager over a static backing slice, serving pages the
// way the server does: cursor is the index of the last served item, pageSize
// items per page, nil next cursor on the final page.
func slicePager(backing []string, pageSize int) *Pager[string] {
	fetch := func(ctx context.Context, cursor *string) ([]string, *string, error) {
		start := 0
		if cursor != nil {
			last, err := strconv.Atoi(*cursor)
			if err != nil {
				return nil, nil, err
			}
			start = last + 1
		}
		end := start + pageSize
		if end > len(backing) {
			end = len(backing)
		}
		items := backing[start:end]
		if end >= len(backing) {
			return items, nil, nil
		}
		next := strconv.Itoa(end - 1)
		return items, &next, nil
	}
	return NewPager(fetch, func(s string) string { return s })
}

func TestPagerAccumulatesAllPages(t *testing.T) {
	backing := make([]string, 0, 7)
	for i := 7; i >= 1; i-- {
		backing = append(backing, fmt.Sprintf("c%d", i))
	}
	p := slicePager(backing, 5)
	ctx := context.Background()

	if !p.HasNextPage() {
		t.Fatal("expected HasNextPage before any fetch")
	}

	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if got := p.Len(); got != 5 {
		t.Fatalf("after first page Len = %d, want 5", got)
	}
	if !p.HasNextPage() {
		t.Fatal("expected more pages after first fetch")
	}

	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("second page: %v", err)
	}
	if p.HasNextPage() {
		t.Fatal("expected exhaustion after second fetch")
	}

	// No gaps: the concatenation equals the full sorted backing slice.
	items := p.Items()
	if len(items) != len(backing) {
		t.Fatalf("accumulated %d items, want %d", len(items), len(backing))
	}
	for i, want := range backing {
		if items[i] != want {
			t.Errorf("items[%d] = %q, want %q", i, items[i], want)
		}
	}
}

func TestPagerExhaustedIsNoop(t *testing.T) {
	p := slicePager([]string{"a", "b"}, 5)
	ctx := context.Background()

	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.HasNextPage() {
		t.Fatal("expected exhaustion")
	}

	// Further calls must not refetch or grow the list.
	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("fetch after exhaustion: %v", err)
	}
	if got := p.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestPagerDeduplicatesById(t *testing.T) {
	// An item edited after being paged past can reappear on a later page.
	pages := [][]string{{"a", "b", "c"}, {"b", "d"}}
	call := 0
	fetch := func(ctx context.Context, cursor *string) ([]string, *string, error) {
		items := pages[call]
		call++
		if call < len(pages) {
			next := "more"
			return items, &next, nil
		}
		return items, nil, nil
	}
	p := NewPager(fetch, func(s string) string { return s })
	ctx := context.Background()

	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("second page: %v", err)
	}

	items := p.Items()
	want := []string{"a", "b", "c", "d"}
	if len(items) != len(want) {
		t.Fatalf("items = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, items[i], want[i])
		}
	}
}

func TestPagerErrorLeavesStateUnchanged(t *testing.T) {
	fetchErr := errors.New("network down")
	failing := true
	fetch := func(ctx context.Context, cursor *string) ([]string, *string, error) {
		if failing {
			return nil, nil, fetchErr
		}
		if cursor != nil {
			t.Errorf("retry used cursor %q, want nil", *cursor)
		}
		return []string{"a"}, nil, nil
	}
	p := NewPager(fetch, func(s string) string { return s })
	ctx := context.Background()

	if err := p.FetchNextPage(ctx); !errors.Is(err, fetchErr) {
		t.Fatalf("error = %v, want %v", err, fetchErr)
	}
	if got := p.Len(); got != 0 {
		t.Fatalf("Len after failure = %d, want 0", got)
	}
	if !p.HasNextPage() {
		t.Fatal("failure must not mark the pager exhausted")
	}

	// Retrying reuses the same (unconsumed) cursor.
	failing = false
	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := p.Len(); got != 1 {
		t.Fatalf("Len after retry = %d, want 1", got)
	}
}

func TestPagerSuppressesConcurrentFetches(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	fetch := func(ctx context.Context, cursor *string) ([]string, *string, error) {
		calls++
		close(started)
		<-release
		return []string{"a"}, nil, nil
	}
	p := NewPager(fetch, func(s string) string { return s })
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.FetchNextPage(ctx); err != nil {
			t.Errorf("fetch: %v", err)
		}
	}()

	<-started
	// A second call while the first is in flight must be a no-op.
	if err := p.FetchNextPage(ctx); err != nil {
		t.Fatalf("concurrent fetch: %v", err)
	}
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}
}
