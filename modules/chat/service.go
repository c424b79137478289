package chat

import (
	"context"
	"fmt"
	"log"

	domain "github.com/example/private-chat-demo/domain/chat"
	user "github.com/example/private-chat-demo/domain/user"
	"golang.org/x/sync/singleflight"
)

// UserDirectory resolves user display attributes for read-time enrichment.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (user.Profile, error)
}

// Service implements the message delivery pipeline over the store.
type Service struct {
	repo      *ChatRepository
	directory UserDirectory
	pairGroup singleflight.Group // collapses concurrent first-contact creation per pair
}

// NewService creates a new chat Service.
func NewService(repo *ChatRepository, directory UserDirectory) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
	}
}

// Send validates and durably records a message, then returns it enriched
// with the sender's display attributes. Persistence is all-or-nothing:
// content is validated before any write, and the message row plus the
// conversation append commit in one transaction. Live delivery is not
// handled here; the module publishes a MessageSent event after Send
// returns, and failures there never affect the result the sender sees.
func (s *Service) Send(ctx context.Context, senderID, receiverID, content string) (*domain.EnrichedMessage, error) {
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}

	conv, err := s.findOrCreateConversation(senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	msg, err := s.repo.RecordMessage(conv.ID, senderID, receiverID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to record message: %w", err)
	}

	enriched := s.enrich(ctx, *msg, map[string]user.Profile{})
	return &enriched, nil
}

// History returns the full ordered message list between the caller and the
// other user, each message enriched with sender display attributes.
// Returns ErrConversationNotFound when the pair has never exchanged a
// message; the boundary maps that to an empty list.
func (s *Service) History(ctx context.Context, callerID, otherID string) ([]domain.EnrichedMessage, error) {
	conv, err := s.repo.GetConversation(callerID, otherID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// Only two possible senders per conversation; resolve each once.
	profiles := make(map[string]user.Profile, 2)
	enriched := make([]domain.EnrichedMessage, 0, len(messages))
	for _, msg := range messages {
		enriched = append(enriched, s.enrich(ctx, msg, profiles))
	}
	return enriched, nil
}

// findOrCreateConversation serializes first-contact creation per pair
// in-process; the store's unique pair index remains the final authority.
func (s *Service) findOrCreateConversation(a, b string) (*domain.Conversation, error) {
	lo, hi := domain.PairKey(a, b)
	key := lo + "|" + hi

	val, err, _ := s.pairGroup.Do(key, func() (any, error) {
		return s.repo.FindOrCreateConversation(a, b)
	})
	if err != nil {
		return nil, err
	}
	return val.(*domain.Conversation), nil
}

// enrich attaches the sender's display attributes to a message. Directory
// failures degrade to an unenriched message rather than failing the read;
// the durable fields are already settled.
func (s *Service) enrich(ctx context.Context, msg domain.Message, cache map[string]user.Profile) domain.EnrichedMessage {
	profile, ok := cache[msg.SenderID]
	if !ok {
		resolved, err := s.directory.GetUser(ctx, msg.SenderID)
		if err != nil {
			log.Printf("[chat] Failed to resolve sender %s: %v", msg.SenderID, err)
		} else {
			profile = resolved
		}
		cache[msg.SenderID] = profile
	}

	return domain.EnrichedMessage{
		ID:           msg.ID,
		SenderID:     msg.SenderID,
		SenderName:   profile.Fullname,
		SenderAvatar: profile.Avatar,
		ReceiverID:   msg.ReceiverID,
		Content:      msg.Content,
		CreatedAt:    msg.CreatedAt,
	}
}
