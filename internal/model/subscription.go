package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Subscription links a viewer to a channel they subscribe to.
type Subscription struct {
	ViewerID  uuid.UUID `db:"viewer_id" json:"viewer_id"`
	CreatorID uuid.UUID `db:"creator_id" json:"creator_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubscriptionListResponse is the paginated subscriber/subscription listing.
type SubscriptionListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// Subscription errors
var (
	ErrSelfSubscription  = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed = errors.New("already subscribed to this channel")
	ErrNotSubscribed     = errors.New("not subscribed to this channel")
)
