// Package pagination implements keyset (cursor) pagination over collections
// ordered by (updated_at DESC, id DESC). The same cursor format and window
// logic is shared by every paginated collection: comments, studio videos,
// and suggested videos.
package pagination

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Cursor marks the position of the last item returned on a page.
// The (UpdatedAt, ID) pair is a total order: updated_at alone is not unique,
// so the id tie-breaker is required to avoid skipping or duplicating rows
// that share a timestamp.
type Cursor struct {
	ID        uuid.UUID `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrInvalidCursor is returned when a cursor token cannot be decoded.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// Encode serializes a cursor into an opaque URL-safe token.
func Encode(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(b)
}

// Decode parses an opaque token back into a cursor.
// An empty token means "first page" and yields a nil cursor.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.ID == uuid.Nil || c.UpdatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Token returns the encoded form, for building list responses.
func (c Cursor) Token() string {
	return Encode(c)
}

// Follows reports whether a row with the given sort key belongs on a page
// after this cursor. It mirrors the SQL predicate
//
//	(updated_at, id) < (cursor.updated_at, cursor.id)
//
// under descending order. The comparison is purely positional: the cursor's
// row does not need to still exist, so a cursor pointing at a deleted row
// keeps working.
func (c Cursor) Follows(updatedAt time.Time, id uuid.UUID) bool {
	if updatedAt.Before(c.UpdatedAt) {
		return true
	}
	if updatedAt.Equal(c.UpdatedAt) {
		return bytes.Compare(id[:], c.ID[:]) < 0
	}
	return false
}
