package client

import (
	"context"
	"sync"
)

// PageFetcher fetches the page after cursor and returns the items together
// with the cursor for the next page, or a nil cursor when the collection is
// exhausted.
type PageFetcher[T any] func(ctx context.Context, cursor *string) ([]T, *string, error)

// Pager accumulates successive pages into one growing, order-preserving
// list. Pages are requested strictly sequentially: a later page's cursor is
// only known once the prior page resolved, and concurrent FetchNextPage
// calls while a fetch is in flight are no-ops.
type Pager[T any] struct {
	fetch PageFetcher[T]
	keyOf func(T) string

	mu       sync.Mutex
	inFlight bool
	started  bool
	cursor   *string
	items    []T
	seen     map[string]struct{}
}

// NewPager creates a Pager. keyOf extracts the identity used to collapse
// duplicates, normally the entity id. Items already edited after being paged
// past can reappear on a later page; keying by id makes that harmless.
func NewPager[T any](fetch PageFetcher[T], keyOf func(T) string) *Pager[T] {
	return &Pager[T]{
		fetch: fetch,
		keyOf: keyOf,
		seen:  make(map[string]struct{}),
	}
}

// HasNextPage reports whether another page may exist. Before the first fetch
// the answer is true, since nothing is known about the collection yet.
func (p *Pager[T]) HasNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.started || p.cursor != nil
}

// Items returns the flattened, de-duplicated view of every page fetched so
// far, in fetch order. The returned slice is a copy.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of accumulated items.
func (p *Pager[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// FetchNextPage fetches and appends the next page. It is a no-op when a
// fetch is already in flight or when the collection is exhausted. On error
// the accumulated state is left unchanged, so the same cursor is retried on
// the next call.
func (p *Pager[T]) FetchNextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.inFlight || (p.started && p.cursor == nil) {
		p.mu.Unlock()
		return nil
	}
	p.inFlight = true
	cursor := p.cursor
	p.mu.Unlock()

	items, next, err := p.fetch(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	if err != nil {
		return err
	}

	p.started = true
	p.cursor = next
	for _, item := range items {
		key := p.keyOf(item)
		if _, dup := p.seen[key]; dup {
			continue
		}
		p.seen[key] = struct{}{}
		p.items = append(p.items, item)
	}
	return nil
}
