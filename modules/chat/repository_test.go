package chat

import (
	"errors"
	"testing"

	domain "github.com/example/private-chat-demo/domain/chat"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.Conversation{},
		&domain.Message{},
		&domain.ConversationMessage{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func TestRepository_FindOrCreateConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)

	created, err := repo.FindOrCreateConversation("bob", "alice")
	if err != nil {
		t.Fatalf("FindOrCreateConversation() error = %v", err)
	}
	if created.ParticipantLo != "alice" || created.ParticipantHi != "bob" {
		t.Errorf("pair not canonicalized: got (%q, %q)", created.ParticipantLo, created.ParticipantHi)
	}

	// Second call with the reversed ordering must return the same record
	found, err := repo.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation() second call error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected one conversation per pair, got %q and %q", created.ID, found.ID)
	}

	var count int64
	if err := db.Model(&domain.Conversation{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count conversations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 conversation, got %d", count)
	}
}

func TestRepository_GetConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)

	created, err := repo.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation() error = %v", err)
	}

	tests := []struct {
		name    string
		a       string
		b       string
		wantID  string
		wantErr error
	}{
		{
			name:   "stored order",
			a:      "alice",
			b:      "bob",
			wantID: created.ID,
		},
		{
			name:   "reversed order",
			a:      "bob",
			b:      "alice",
			wantID: created.ID,
		},
		{
			name:    "unknown pair",
			a:       "alice",
			b:       "carol",
			wantErr: ErrConversationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := repo.GetConversation(tt.a, tt.b)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetConversation() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetConversation() unexpected error: %v", err)
			}
			if conv.ID != tt.wantID {
				t.Errorf("GetConversation() ID = %q, want %q", conv.ID, tt.wantID)
			}
		})
	}
}

func TestRepository_CreateMessage_Validation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "valid content",
			content: "hi",
		},
		{
			name:    "empty content",
			content: "",
			wantErr: domain.ErrEmptyContent,
		},
		{
			name:    "whitespace only",
			content: "   ",
			wantErr: domain.ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := repo.CreateMessage("alice", "bob", tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateMessage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateMessage() unexpected error: %v", err)
			}
			if msg.ID == "" {
				t.Error("CreateMessage() message ID should not be empty")
			}
			if msg.CreatedAt.IsZero() {
				t.Error("CreateMessage() CreatedAt should be assigned")
			}
			if msg.Content != tt.content {
				t.Errorf("CreateMessage() content = %q, want %q", msg.Content, tt.content)
			}
		})
	}

	// Rejected content must leave the store untouched
	var count int64
	if err := db.Model(&domain.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 persisted message, got %d", count)
	}
}

func TestRepository_RecordMessage_Ordering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)

	conv, err := repo.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation() error = %v", err)
	}

	m1, err := repo.RecordMessage(conv.ID, "alice", "bob", "first")
	if err != nil {
		t.Fatalf("RecordMessage() error = %v", err)
	}
	m2, err := repo.RecordMessage(conv.ID, "bob", "alice", "second")
	if err != nil {
		t.Fatalf("RecordMessage() error = %v", err)
	}

	messages, err := repo.ListMessages(conv.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != m1.ID || messages[1].ID != m2.ID {
		t.Errorf("messages out of order: got [%q, %q], want [%q, %q]",
			messages[0].ID, messages[1].ID, m1.ID, m2.ID)
	}

	// Positions are contiguous from zero
	var entries []domain.ConversationMessage
	if err := db.Where("conversation_id = ?", conv.ID).Order("position").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load reference list: %v", err)
	}
	for i, entry := range entries {
		if entry.Position != int64(i) {
			t.Errorf("entry %d has position %d", i, entry.Position)
		}
	}

	count, err := repo.MessageCount(conv.ID)
	if err != nil {
		t.Fatalf("MessageCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("MessageCount() = %d, want 2", count)
	}
}

func TestRepository_ListMessages_EmptyConversation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)

	conv, err := repo.FindOrCreateConversation("alice", "bob")
	if err != nil {
		t.Fatalf("FindOrCreateConversation() error = %v", err)
	}

	messages, err := repo.ListMessages(conv.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty message list, got %d messages", len(messages))
	}
}
