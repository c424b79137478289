package chat

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/example/private-chat-demo/domain/chat"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrConversationNotFound is returned when no conversation exists for a
// participant pair. A pair with no prior messages is a normal state; the
// API maps this to an empty history.
var ErrConversationNotFound = errors.New("conversation not found")

// ChatRepository is the durable conversation/message store backed by GORM.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetConversation looks up the conversation for an unordered participant
// pair. Returns ErrConversationNotFound when the pair has never exchanged
// a message.
func (r *ChatRepository) GetConversation(participantA, participantB string) (*domain.Conversation, error) {
	lo, hi := domain.PairKey(participantA, participantB)

	var conv domain.Conversation
	err := r.db.First(&conv, "participant_lo = ? AND participant_hi = ?", lo, hi).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return &conv, nil
}

// FindOrCreateConversation returns the conversation for the pair, creating
// it with an empty message list on first contact. The unique index on the
// canonicalized pair makes creation race-safe: if a concurrent caller wins
// the insert, the duplicate-key conflict triggers a re-read, so exactly one
// conversation ever exists for a pair.
func (r *ChatRepository) FindOrCreateConversation(participantA, participantB string) (*domain.Conversation, error) {
	conv, err := r.GetConversation(participantA, participantB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}

	lo, hi := domain.PairKey(participantA, participantB)
	created := &domain.Conversation{
		ID:            uuid.New().String(),
		ParticipantLo: lo,
		ParticipantHi: hi,
		CreatedAt:     time.Now().UTC(),
	}

	if err := r.db.Create(created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetConversation(participantA, participantB)
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return created, nil
}

// CreateMessage persists a new immutable message with a fresh identifier
// and store-assigned timestamp.
func (r *ChatRepository) CreateMessage(senderID, receiverID, content string) (*domain.Message, error) {
	return createMessage(r.db, senderID, receiverID, content)
}

// RecordMessage persists a message and appends it to the conversation in a
// single transaction: either both writes are visible or neither is.
func (r *ChatRepository) RecordMessage(conversationID, senderID, receiverID, content string) (*domain.Message, error) {
	var msg *domain.Message
	err := r.db.Transaction(func(tx *gorm.DB) error {
		created, err := createMessage(tx, senderID, receiverID, content)
		if err != nil {
			return err
		}
		if err := appendMessage(tx, conversationID, created.ID); err != nil {
			return err
		}
		msg = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns the conversation's messages in stored append order.
func (r *ChatRepository) ListMessages(conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.
		Table("conversation_messages").
		Select("messages.*").
		Joins("JOIN messages ON messages.id = conversation_messages.message_id").
		Where("conversation_messages.conversation_id = ?", conversationID).
		Order("conversation_messages.position").
		Scan(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// MessageCount returns the number of messages referenced by a conversation.
func (r *ChatRepository) MessageCount(conversationID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.ConversationMessage{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func createMessage(db *gorm.DB, senderID, receiverID, content string) (*domain.Message, error) {
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// appendMessage inserts the next reference-list entry. The position is
// derived from the current count inside the caller's transaction, so
// append order always matches commit order.
func appendMessage(tx *gorm.DB, conversationID, messageID string) error {
	var count int64
	if err := tx.Model(&domain.ConversationMessage{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count conversation messages: %w", err)
	}

	entry := &domain.ConversationMessage{
		ConversationID: conversationID,
		Position:       count,
		MessageID:      messageID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}
