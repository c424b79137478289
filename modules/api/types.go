package api

import (
	chatdomain "github.com/example/private-chat-demo/domain/chat"
	userdomain "github.com/example/private-chat-demo/domain/user"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the response body for register and login.
type AuthResponse struct {
	User        userdomain.Profile `json:"user"`
	AccessToken string             `json:"access_token"`
	ExpiresIn   int64              `json:"expires_in"`
	TokenType   string             `json:"token_type"`
}

// UserListResponse is the response body for the user directory.
type UserListResponse struct {
	Users []userdomain.Profile `json:"users"`
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse is the response body for a sent message.
type SendMessageResponse struct {
	Message chatdomain.EnrichedMessage `json:"message"`
}

// HistoryResponse is the response body for a history fetch. Messages is
// an empty list when the two users have no conversation yet.
type HistoryResponse struct {
	Messages []chatdomain.EnrichedMessage `json:"messages"`
}
