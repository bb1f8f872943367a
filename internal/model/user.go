package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User represents a user account, which doubles as a channel.
type User struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	PasswordHashed  string    `db:"password_hashed" json:"-"`
	DisplayName     *string   `db:"display_name" json:"display_name"`
	AvatarURL       *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey       *string   `db:"avatar_key" json:"-"`
	BannerURL       *string   `db:"banner_url" json:"banner_url"`
	Description     *string   `db:"description" json:"description"`
	SubscriberCount int64     `db:"subscriber_count" json:"subscriber_count"`
	VideoCount      int64     `db:"video_count" json:"video_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the lightweight author projection joined into videos and
// comments.
type UserSummary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName *string   `db:"display_name" json:"display_name"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url"`
}

// RegisterRequest represents the data needed to register a new account.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
