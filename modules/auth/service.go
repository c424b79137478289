package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/private-chat-demo/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUsername is returned when the username is malformed.
	ErrInvalidUsername = errors.New("username must be 3-50 characters without spaces")
	// ErrInvalidFullname is returned when the full name is missing.
	ErrInvalidFullname = errors.New("full name is required")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when the password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// Avatar URLs assigned at registration based on the declared gender.
const (
	maleAvatarURL   = "https://avatar.iran.liara.run/public/boy"
	femaleAvatarURL = "https://avatar.iran.liara.run/public/girl"
)

// AuthService handles account and token business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user account and issues a token for it.
func (s *AuthService) Register(_ context.Context, fullname, username, password, gender string) (*domain.User, *domain.Token, error) {
	fullname = strings.TrimSpace(fullname)
	username = strings.TrimSpace(username)

	if fullname == "" {
		return nil, nil, ErrInvalidFullname
	}
	if len(username) < 3 || len(username) > 50 || strings.ContainsAny(username, " \t\n") {
		return nil, nil, ErrInvalidUsername
	}
	if len(password) < 8 {
		return nil, nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, nil, ErrPasswordTooLong
	}

	exists, err := s.repo.UsernameExists(username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Fullname:     fullname,
		Username:     username,
		PasswordHash: passwordHash,
		Gender:       gender,
		Avatar:       avatarFor(gender),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	return user, token, nil
}

// Login authenticates a user and returns the user with a fresh token.
// Unknown username and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(_ context.Context, username, password string) (*domain.User, *domain.Token, error) {
	user, err := s.repo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	return user, token, nil
}

// ValidateToken validates a token and returns the principal's claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// ListOtherUsers returns the public profiles of every user except the caller.
func (s *AuthService) ListOtherUsers(_ context.Context, userID string) ([]domain.Profile, error) {
	users, err := s.repo.FindOthers(userID)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, domain.ProfileOf(u))
	}
	return profiles, nil
}

func (s *AuthService) issueToken(user *domain.User) (*domain.Token, error) {
	accessToken, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &domain.Token{
		AccessToken: accessToken,
		ExpiresIn:   s.jwt.TokenDuration(),
		TokenType:   "Bearer",
	}, nil
}

func avatarFor(gender string) string {
	switch gender {
	case "male":
		return maleAvatarURL
	case "female":
		return femaleAvatarURL
	default:
		return ""
	}
}
