package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	domainchat "github.com/example/private-chat-demo/domain/chat"
	"github.com/example/private-chat-demo/events"
	"github.com/example/private-chat-demo/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChatModule owns the durable conversation/message store and the message
// delivery pipeline. It persists via GORM/SQLite and announces recorded
// messages on the EventBus for live delivery.
type ChatModule struct {
	db            *gorm.DB
	service       *Service
	eventBus      mono.EventBus
	authContainer mono.ServiceContainer
	dbPath        string
}

// Compile-time interface checks.
var (
	_ mono.Module              = (*ChatModule)(nil)
	_ mono.ServiceProviderModule = (*ChatModule)(nil)
	_ mono.DependentModule     = (*ChatModule)(nil)
	_ mono.EventBusAwareModule = (*ChatModule)(nil)
	_ mono.EventEmitterModule  = (*ChatModule)(nil)
	_ mono.HealthCheckableModule = (*ChatModule)(nil)
)

// NewModule creates a new ChatModule.
func NewModule() *ChatModule {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &ChatModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Dependencies returns the list of module dependencies.
func (m *ChatModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
// The service itself is built in Start, where a database failure can be
// returned as an error instead of crashing the wiring phase.
func (m *ChatModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authContainer = container
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *ChatModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *ChatModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// Start initializes the chat module's database and builds the service.
func (m *ChatModule) Start(_ context.Context) error {
	if err := m.openDB(); err != nil {
		return err
	}

	if err := m.db.AutoMigrate(
		&domainchat.Conversation{},
		&domainchat.Message{},
		&domainchat.ConversationMessage{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if m.authContainer == nil {
		return fmt.Errorf("auth dependency not set")
	}
	m.service = NewService(NewChatRepository(m.db), auth.NewAuthAdapter(m.authContainer))

	log.Printf("[chat] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *ChatModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *ChatModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *ChatModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceSendMessage,
		json.Unmarshal,
		json.Marshal,
		m.handleSendMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSendMessage, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetHistory,
		json.Unmarshal,
		json.Marshal,
		m.handleGetHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetHistory, err)
	}

	log.Printf("[chat] Registered services: send-message, get-history")
	return nil
}

// handleSendMessage runs the delivery pipeline. The message is durably
// recorded before the MessageSent event is published; publish failures are
// logged and swallowed so the sender still receives their confirmation.
func (m *ChatModule) handleSendMessage(ctx context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	msg, err := m.service.Send(ctx, req.SenderID, req.ReceiverID, req.Content)
	if err != nil {
		return SendMessageResponse{}, err
	}

	event := events.MessageSentEvent{
		MessageID:    msg.ID,
		SenderID:     msg.SenderID,
		SenderName:   msg.SenderName,
		SenderAvatar: msg.SenderAvatar,
		ReceiverID:   msg.ReceiverID,
		Content:      msg.Content,
		CreatedAt:    msg.CreatedAt,
	}
	if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[chat] Failed to publish MessageSent event for %s: %v", msg.ID, err)
	}

	return SendMessageResponse{Message: *msg}, nil
}

// handleGetHistory returns the ordered history between two users. A pair
// with no conversation yet yields an empty list, not an error.
func (m *ChatModule) handleGetHistory(ctx context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	messages, err := m.service.History(ctx, req.CallerID, req.OtherID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return GetHistoryResponse{Messages: []domainchat.EnrichedMessage{}}, nil
		}
		return GetHistoryResponse{}, err
	}

	return GetHistoryResponse{Messages: messages}, nil
}

func (m *ChatModule) openDB() error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db
	return nil
}
