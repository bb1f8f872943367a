package model

import "errors"

// Reaction type values for videos and comments.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// ReactRequest is the request body for setting a reaction.
type ReactRequest struct {
	Type string `json:"type"`
}

// ReactionCounts is returned after a reaction change so clients can reconcile
// their optimistic counter updates against the authoritative values.
type ReactionCounts struct {
	LikeCount      int64   `json:"like_count"`
	DislikeCount   int64   `json:"dislike_count"`
	ViewerReaction *string `json:"viewer_reaction"`
}

// IsValidReaction reports whether t is a known reaction type.
func IsValidReaction(t string) bool {
	return t == ReactionLike || t == ReactionDislike
}

// Reaction errors
var (
	ErrInvalidReaction = errors.New("invalid reaction type")
	ErrNoReaction      = errors.New("no reaction to remove")
)
