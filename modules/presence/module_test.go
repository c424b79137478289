package presence

import (
	"context"
	"testing"
	"time"

	"github.com/example/private-chat-demo/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (c *fakeConn) messagePushes() []NewMessagePush {
	c.mu.Lock()
	defer c.mu.Unlock()
	var pushes []NewMessagePush
	for _, p := range c.payloads {
		if push, ok := p.(NewMessagePush); ok {
			pushes = append(pushes, push)
		}
	}
	return pushes
}

func TestPresenceModule_HandleMessageSent(t *testing.T) {
	module := NewModule()
	hub := module.GetHub()

	senderConn := &fakeConn{}
	receiverConn := &fakeConn{}
	hub.Register(NewClient("alice", senderConn))
	hub.Register(NewClient("bob", receiverConn))

	sentAt := time.Now().UTC()
	event := events.MessageSentEvent{
		MessageID:    "msg-1",
		SenderID:     "alice",
		SenderName:   "Alice Doe",
		SenderAvatar: "https://avatar.example/a",
		ReceiverID:   "bob",
		Content:      "hi",
		CreatedAt:    sentAt,
	}

	require.NoError(t, module.handleMessageSent(context.Background(), event, nil))

	pushes := receiverConn.messagePushes()
	require.Len(t, pushes, 1, "receiver should get exactly one push")
	assert.Equal(t, EventNewMessage, pushes[0].Type)
	assert.Equal(t, PushedMessage{
		ID:           "msg-1",
		SenderID:     "alice",
		SenderName:   "Alice Doe",
		SenderAvatar: "https://avatar.example/a",
		ReceiverID:   "bob",
		Content:      "hi",
		CreatedAt:    sentAt,
	}, pushes[0].Message)

	assert.Empty(t, senderConn.messagePushes(), "only the receiver gets the push")
}

func TestPresenceModule_HandleMessageSent_OfflineReceiver(t *testing.T) {
	module := NewModule()

	// The message is already durable; an offline receiver is a no-op, never
	// an error that would trigger a redelivery
	event := events.MessageSentEvent{
		MessageID:  "msg-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "hi",
	}
	assert.NoError(t, module.handleMessageSent(context.Background(), event, nil))
}
