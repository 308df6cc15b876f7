package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vovakirdan/codesync-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Service provides authentication operations for the REST surface. The
// signaling core never consults it; room joins trust the supplied username.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with hashed password and returns a JWT token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return "", ErrInvalidUsername
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err == nil && existing != nil {
		return "", ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.CreateUser(ctx, &store.User{
		Username:     username,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return GenerateToken(s.jwtConfig, id, username, false)
}

// Login verifies credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return GenerateToken(s.jwtConfig, user.ID, user.Username, user.IsGuest)
}

// Guest creates a throwaway guest account around the given display name and
// returns a JWT token for it. The stored username is suffixed to stay unique.
func (s *Service) Guest(ctx context.Context, displayName string) (string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "guest"
	}
	if len(displayName) > 32 {
		displayName = displayName[:32]
	}

	sessionID := uuid.NewString()
	username := fmt.Sprintf("%s-%s", displayName, sessionID[:8])

	id, err := s.store.CreateUser(ctx, &store.User{
		Username:     username,
		PasswordHash: "",
		IsGuest:      true,
		SessionID:    sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("create guest: %w", err)
	}

	return GenerateToken(s.jwtConfig, id, username, true)
}

// GetUser fetches a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*store.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// ValidateToken parses and validates a JWT token against the service config.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
