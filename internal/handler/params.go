package handler

import (
	"net/http"
	"strconv"

	"vidtube/internal/pagination"
)

// parsePageParams reads the cursor and limit query params shared by every
// paginated listing. A missing limit falls back to the default; a malformed
// cursor or non-numeric limit is a client error. Range checking of the limit
// stays in the service so misuse of internal APIs fails the same way.
func parsePageParams(r *http.Request) (*pagination.Cursor, int, error) {
	var cursor *pagination.Cursor
	if token := r.URL.Query().Get("cursor"); token != "" {
		decoded, err := pagination.Decode(token)
		if err != nil {
			return nil, 0, err
		}
		cursor = decoded
	}

	limit := pagination.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			return nil, 0, pagination.ErrInvalidLimit
		}
		limit = parsed
	}

	return cursor, limit, nil
}

// parseLimit is parsePageParams for listings with non-keyset cursors.
func parseLimit(r *http.Request) (int, error) {
	limit := pagination.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			return 0, pagination.ErrInvalidLimit
		}
		limit = parsed
	}
	return limit, nil
}
