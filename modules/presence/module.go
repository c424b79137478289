package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/private-chat-demo/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PresenceModule consumes MessageSent events and pushes them to the
// receiver's current live handle. It owns the connection registry Hub.
type PresenceModule struct {
	hub *Hub
}

// Compile-time interface checks.
var _ mono.Module = (*PresenceModule)(nil)
var _ mono.EventConsumerModule = (*PresenceModule)(nil)
var _ mono.HealthCheckableModule = (*PresenceModule)(nil)

// NewModule creates a new PresenceModule.
func NewModule() *PresenceModule {
	return &PresenceModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *PresenceModule) Name() string {
	return "presence"
}

// Start initializes the module.
func (m *PresenceModule) Start(_ context.Context) error {
	log.Println("[presence] Module started - connection registry ready")
	return nil
}

// Stop closes all live connections.
func (m *PresenceModule) Stop(_ context.Context) error {
	count := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[presence] Module stopped - %d clients were connected", count)
	return nil
}

// Health returns the health status.
func (m *PresenceModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *PresenceModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	log.Println("[presence] Registered event consumers: MessageSent")
	return nil
}

// handleMessageSent pushes a recorded message to the receiver's current
// handle only. The message is already durable; an offline receiver gets it
// from a later history fetch, so a missing or failing handle is not an
// error and there is no retry.
func (m *PresenceModule) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	delivered := m.hub.PushToUser(event.ReceiverID, NewMessagePush{
		Type: EventNewMessage,
		Message: PushedMessage{
			ID:           event.MessageID,
			SenderID:     event.SenderID,
			SenderName:   event.SenderName,
			SenderAvatar: event.SenderAvatar,
			ReceiverID:   event.ReceiverID,
			Content:      event.Content,
			CreatedAt:    event.CreatedAt,
		},
	})
	if !delivered {
		log.Printf("[presence] Receiver %s offline, message %s delivered via history only",
			event.ReceiverID, event.MessageID)
	}

	return nil
}

// GetHub returns the connection registry for the API module to use.
func (m *PresenceModule) GetHub() *Hub {
	return m.hub
}

// NewMessagePush is the live-push envelope for a recorded message.
type NewMessagePush struct {
	Type    string        `json:"type"`
	Message PushedMessage `json:"message"`
}

// PushedMessage is the sender-enriched message payload pushed to the
// receiver. It matches the shape returned to the sender and by history.
type PushedMessage struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	ReceiverID   string    `json:"receiver_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}
