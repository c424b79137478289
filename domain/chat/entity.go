package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength bounds a single message body.
const MaxContentLength = 4096

// Validation errors for message content.
var (
	ErrEmptyContent   = errors.New("message content cannot be empty")
	ErrContentTooLong = errors.New("message content exceeds maximum length")
	ErrContentInvalid = errors.New("message content is not valid UTF-8")
)

// Conversation is the unique durable channel between exactly two users.
// The participant pair is stored canonicalized (lo < hi) so that lookups
// are independent of who messaged whom first, and the unique index on the
// pair guarantees at most one conversation per pair.
type Conversation struct {
	ID            string `gorm:"primaryKey;type:text" json:"id"`
	ParticipantLo string `gorm:"not null;type:text;uniqueIndex:idx_conversation_pair,priority:1" json:"participant_lo"`
	ParticipantHi string `gorm:"not null;type:text;uniqueIndex:idx_conversation_pair,priority:2" json:"participant_hi"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the table name for the Conversation entity.
func (Conversation) TableName() string {
	return "conversations"
}

// Participants returns both participant IDs.
func (c Conversation) Participants() (string, string) {
	return c.ParticipantLo, c.ParticipantHi
}

// Involves reports whether the given user is one of the two participants.
func (c Conversation) Involves(userID string) bool {
	return c.ParticipantLo == userID || c.ParticipantHi == userID
}

// PairKey canonicalizes an unordered participant pair into (lo, hi).
func PairKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Message is one immutable unit of sent content. Rows are never updated
// or deleted after creation.
type Message struct {
	ID         string    `gorm:"primaryKey;type:text" json:"id"`
	SenderID   string    `gorm:"not null;type:text" json:"sender_id"`
	ReceiverID string    `gorm:"not null;type:text" json:"receiver_id"`
	Content    string    `gorm:"not null;type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}

// ConversationMessage is one entry in a conversation's ordered message
// reference list. Position is assigned at append time and is contiguous
// from zero within a conversation.
type ConversationMessage struct {
	ConversationID string `gorm:"primaryKey;type:text" json:"conversation_id"`
	Position       int64  `gorm:"primaryKey;autoIncrement:false" json:"position"`
	MessageID      string `gorm:"not null;type:text" json:"message_id"`
}

// TableName returns the table name for the ConversationMessage entity.
func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// EnrichedMessage is a message joined at read time with its sender's
// display attributes. This is the shape returned to senders, served from
// history, and pushed to live receivers.
type EnrichedMessage struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar"`
	ReceiverID   string    `json:"receiver_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateContent checks a message body before anything is written.
// Content that is empty after trimming is rejected; the stored content
// itself is the raw text.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return ErrContentTooLong
	}
	if !utf8.ValidString(content) {
		return ErrContentInvalid
	}
	return nil
}
