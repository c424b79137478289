package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/private-chat-demo/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface other modules use to reach auth services.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (domain.Profile, error)
	ListOtherUsers(ctx context.Context, userID string) ([]domain.Profile, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) AuthPort {
	if container == nil {
		panic("auth: ServiceContainer is nil")
	}
	return &AuthAdapter{container: container}
}

// Register creates a new account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRegister,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	return &resp, nil
}

// Login authenticates a user.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLogin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	return &resp, nil
}

// ValidateToken validates a token and returns the principal's claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceValidateToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !resp.Valid {
		return nil, fmt.Errorf("token rejected: %s", resp.Error)
	}
	return &domain.Claims{
		UserID:   resp.UserID,
		Username: resp.Username,
	}, nil
}

// GetUser fetches a user's public profile.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (domain.Profile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Profile{}, fmt.Errorf("failed to get user: %w", err)
	}
	return resp.User, nil
}

// ListOtherUsers returns the directory of every user except the caller.
func (a *AuthAdapter) ListOtherUsers(ctx context.Context, userID string) ([]domain.Profile, error) {
	req := ListUsersRequest{UserID: userID}
	var resp ListUsersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return resp.Users, nil
}
