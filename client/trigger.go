package client

import (
	"context"
	"sync"
)

// PageSource is the part of a Pager a Trigger drives.
type PageSource interface {
	FetchNextPage(ctx context.Context) error
	HasNextPage() bool
}

// TriggerState is the lifecycle state of a Trigger.
type TriggerState int

const (
	// TriggerIdle means the trigger is ready to start a fetch.
	TriggerIdle TriggerState = iota
	// TriggerFetching means a fetch is in progress.
	TriggerFetching
	// TriggerExhausted is terminal: no more pages exist.
	TriggerExhausted
)

// Trigger drives a PageSource from manual "load more" actions or from
// viewport visibility of a sentinel marker. The visibility path is
// edge-detected: only the transition from not-visible to visible fires a
// fetch, so a sentinel that stays in view requests one page, not a flood.
//
// A failed fetch returns the trigger to idle without retrying; the caller
// re-fires manually, or the next visibility edge fires again.
type Trigger struct {
	source PageSource

	mu      sync.Mutex
	state   TriggerState
	visible bool
}

// NewTrigger creates a Trigger over source.
func NewTrigger(source PageSource) *Trigger {
	return &Trigger{source: source}
}

// State returns the current trigger state.
func (t *Trigger) State() TriggerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Fire requests the next page. It is a no-op unless the trigger is idle and
// more pages remain.
func (t *Trigger) Fire(ctx context.Context) error {
	t.mu.Lock()
	if t.state != TriggerIdle {
		t.mu.Unlock()
		return nil
	}
	if !t.source.HasNextPage() {
		t.state = TriggerExhausted
		t.mu.Unlock()
		return nil
	}
	t.state = TriggerFetching
	t.mu.Unlock()

	err := t.source.FetchNextPage(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = TriggerIdle
		return err
	}
	if t.source.HasNextPage() {
		t.state = TriggerIdle
	} else {
		t.state = TriggerExhausted
	}
	return nil
}

// ObserveVisibility reports the sentinel marker's current visibility. A
// transition from not-visible to visible fires one fetch; repeated reports
// of the same visibility do nothing.
func (t *Trigger) ObserveVisibility(ctx context.Context, visible bool) error {
	t.mu.Lock()
	wasVisible := t.visible
	t.visible = visible
	t.mu.Unlock()

	if visible && !wasVisible {
		return t.Fire(ctx)
	}
	return nil
}
