package chat

import (
	domain "github.com/example/private-chat-demo/domain/chat"
)

// Request-reply service names registered by the chat module.
const (
	ServiceSendMessage = "send-message"
	ServiceGetHistory  = "get-history"
)

// SendMessageRequest is the request to send a message to another user.
type SendMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// SendMessageResponse carries the persisted, sender-enriched message.
type SendMessageResponse struct {
	Message domain.EnrichedMessage `json:"message"`
}

// GetHistoryRequest is the request for the message history between the
// caller and another user.
type GetHistoryRequest struct {
	CallerID string `json:"caller_id"`
	OtherID  string `json:"other_id"`
}

// GetHistoryResponse carries the ordered, enriched message history.
// Messages is empty (not an error) when the pair has no conversation yet.
type GetHistoryResponse struct {
	Messages []domain.EnrichedMessage `json:"messages"`
}
