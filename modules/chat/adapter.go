package chat

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/private-chat-demo/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the interface for chat operations.
type ChatPort interface {
	SendMessage(ctx context.Context, senderID, receiverID, content string) (*domain.EnrichedMessage, error)
	GetHistory(ctx context.Context, callerID, otherID string) ([]domain.EnrichedMessage, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// SendMessage sends a message to another user.
func (a *ChatAdapter) SendMessage(ctx context.Context, senderID, receiverID, content string) (*domain.EnrichedMessage, error) {
	req := SendMessageRequest{SenderID: senderID, ReceiverID: receiverID, Content: content}
	var resp SendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSendMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &resp.Message, nil
}

// GetHistory retrieves the message history between two users.
func (a *ChatAdapter) GetHistory(ctx context.Context, callerID, otherID string) ([]domain.EnrichedMessage, error) {
	req := GetHistoryRequest{CallerID: callerID, OtherID: otherID}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return resp.Messages, nil
}
