package pagination

import "errors"

const (
	// MinLimit and MaxLimit bound the page size accepted at the API boundary.
	MinLimit = 1
	MaxLimit = 100

	// DefaultLimit applies when the caller omits the limit entirely.
	DefaultLimit = 20
)

// ErrInvalidLimit is returned when a supplied limit falls outside [MinLimit, MaxLimit].
// Out-of-range limits are rejected, never silently clamped.
var ErrInvalidLimit = errors.New("limit out of range")

// ValidateLimit checks a caller-supplied page size.
func ValidateLimit(limit int) error {
	if limit < MinLimit || limit > MaxLimit {
		return ErrInvalidLimit
	}
	return nil
}

// Window trims a limit+1 fetch down to a page.
//
// Repositories fetch one extra sentinel row beyond the requested limit. If the
// sentinel is present there are more rows: it is dropped, and the next cursor
// is derived from the last row actually returned. Otherwise the result set is
// complete and the next cursor is nil.
func Window[T any](rows []T, limit int, cursorOf func(T) Cursor) (items []T, next *Cursor, hasMore bool) {
	if len(rows) <= limit {
		return rows, nil, false
	}

	items = rows[:limit]
	last := cursorOf(items[len(items)-1])
	return items, &last, true
}
