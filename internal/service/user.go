package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// UserService handles business logic for user accounts and channels.
type UserService struct {
	repo             repository.UserRepository
	subscriptionRepo repository.SubscriptionRepository
}

func NewUserService(repo repository.UserRepository, subscriptionRepo repository.SubscriptionRepository) *UserService {
	return &UserService{
		repo:             repo,
		subscriptionRepo: subscriptionRepo,
	}
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, fmt.Errorf("username is required")
	}

	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	// Check if username already exists
	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		PasswordHashed: string(hashedPassword),
	}

	if req.DisplayName != "" {
		user.DisplayName = &req.DisplayName
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with username and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		// Don't reveal whether username exists or not
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateAvatar stores a new avatar location on the user.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, url, key string) error {
	return s.repo.UpdateAvatar(ctx, userID, url, key)
}

// ChannelResponse is a user profile enriched with subscription state.
type ChannelResponse struct {
	User         *model.User `json:"user"`
	IsSubscribed bool        `json:"is_subscribed"`
}

// GetChannel retrieves a channel page with the viewer's subscription status.
// Two queries: user lookup fails fast with not-found, and a subscription
// check failure degrades to is_subscribed=false rather than failing the page.
func (s *UserService) GetChannel(ctx context.Context, userID uuid.UUID, viewerID *uuid.UUID) (*ChannelResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	channel := &ChannelResponse{
		User:         user,
		IsSubscribed: false,
	}

	if viewerID != nil && *viewerID != userID {
		isSubscribed, err := s.subscriptionRepo.Exists(ctx, *viewerID, userID)
		if err == nil {
			channel.IsSubscribed = isSubscribed
		}
	}

	return channel, nil
}
