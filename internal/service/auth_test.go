package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vidtube/internal/config"
	"vidtube/internal/model"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 604800,
	}
}

func TestAuthService_GenerateTokenPair(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	svc := NewAuthService(mockRepo, testAuthConfig())

	userID := uuid.New()
	pair, err := svc.GenerateTokenPair(context.Background(), userID, "test-device", "127.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pair.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
	if pair.RefreshToken == "" {
		t.Error("expected non-empty refresh token")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", pair.ExpiresIn)
	}

	// The access token must be a valid HS256 JWT carrying the user id.
	parsed, err := jwt.Parse(pair.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse access token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected map claims")
	}
	if claims["user_id"] != userID.String() {
		t.Errorf("user_id claim = %v, want %s", claims["user_id"], userID)
	}

	// The refresh token is stored hashed, never raw.
	if len(mockRepo.tokens) != 1 {
		t.Fatalf("stored %d refresh tokens, want 1", len(mockRepo.tokens))
	}
	for hash, stored := range mockRepo.tokens {
		if hash == pair.RefreshToken {
			t.Error("refresh token stored in plain text")
		}
		if stored.UserID != userID {
			t.Errorf("stored token user = %s, want %s", stored.UserID, userID)
		}
	}
}

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	svc := NewAuthService(mockRepo, testAuthConfig())

	userID := uuid.New()
	first, err := svc.GenerateTokenPair(context.Background(), userID, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, gotUserID, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUserID != userID {
		t.Errorf("user id = %s, want %s", gotUserID, userID)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("rotation should issue a new refresh token")
	}

	// The old token is revoked and linked to its replacement.
	oldHash := svc.hashToken(first.RefreshToken)
	old := mockRepo.tokens[oldHash]
	if !old.IsRevoked() {
		t.Error("old token should be revoked after rotation")
	}
	if old.ReplacedBy == nil {
		t.Error("old token should point at its replacement")
	}
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	svc := NewAuthService(mockRepo, testAuthConfig())

	userID := uuid.New()
	first, err := svc.GenerateTokenPair(context.Background(), userID, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Legitimate rotation, then an attacker replays the consumed token.
	if _, _, err := svc.RefreshTokens(context.Background(), first.RefreshToken, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = svc.RefreshTokens(context.Background(), first.RefreshToken, "", "")
	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenReused)
	}

	if len(mockRepo.revokeAllUserCalls) != 1 || mockRepo.revokeAllUserCalls[0] != userID {
		t.Error("reuse should revoke the whole token family")
	}

	// Every token of the user is now dead, including the rotated one.
	for _, token := range mockRepo.tokens {
		if !token.IsRevoked() {
			t.Error("all user tokens should be revoked after reuse detection")
		}
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	cfg := testAuthConfig()
	svc := NewAuthService(mockRepo, cfg)

	userID := uuid.New()
	pair, err := svc.GenerateTokenPair(context.Background(), userID, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Age the stored token past its expiry.
	hash := svc.hashToken(pair.RefreshToken)
	mockRepo.tokens[hash].ExpiresAt = time.Now().Add(-time.Hour)

	_, _, err = svc.RefreshTokens(context.Background(), pair.RefreshToken, "", "")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenExpired)
	}
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	svc := NewAuthService(newMockRefreshTokenRepository(), testAuthConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "never-issued", "", "")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrRefreshTokenNotFound)
	}
}
