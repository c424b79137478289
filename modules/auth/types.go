package auth

import (
	"time"

	domain "github.com/example/private-chat-demo/domain/user"
)

// Request-reply service names registered by the auth module.
const (
	ServiceRegister      = "register"
	ServiceLogin         = "login"
	ServiceValidateToken = "validate-token"
	ServiceGetUser       = "get-user"
	ServiceListUsers     = "list-users"
)

// RegisterRequest is the request to create an account.
type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

// RegisterResponse is the response for a successful registration.
type RegisterResponse struct {
	User        domain.Profile `json:"user"`
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
	CreatedAt   time.Time      `json:"created_at"`
}

// LoginRequest is the request to authenticate.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response for a successful login.
type LoginResponse struct {
	User        domain.Profile `json:"user"`
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	TokenType   string         `json:"token_type"`
}

// ValidateTokenRequest is the request to validate a token.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse is the response for token validation.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetUserRequest is the request to fetch a user's profile.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse is the response with a user's profile.
type GetUserResponse struct {
	User domain.Profile `json:"user"`
}

// ListUsersRequest is the request to list every user except the caller.
type ListUsersRequest struct {
	UserID string `json:"user_id"`
}

// ListUsersResponse is the response with the user directory.
type ListUsersResponse struct {
	Users []domain.Profile `json:"users"`
}
