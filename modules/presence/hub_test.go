package presence

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every payload written to it. A non-nil writeBlock makes
// every write stall until the channel is closed, simulating a peer that
// stops draining its socket.
type fakeConn struct {
	mu         sync.Mutex
	payloads   []any
	writeErr   error
	writeBlock chan struct{}
	closed     bool
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.writeBlock != nil {
		<-c.writeBlock
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.payloads = append(c.payloads, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) presenceSets() []PresenceSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sets []PresenceSet
	for _, p := range c.payloads {
		if set, ok := p.(PresenceSet); ok {
			sets = append(sets, set)
		}
	}
	return sets
}

func (c *fakeConn) lastPresenceSet() (PresenceSet, bool) {
	sets := c.presenceSets()
	if len(sets) == 0 {
		return PresenceSet{}, false
	}
	return sets[len(sets)-1], true
}

func TestHub_RegisterBroadcastsPresence(t *testing.T) {
	hub := NewHub()

	connA := &fakeConn{}
	hub.Register(NewClient("alice", connA))

	// The connecting client itself receives the set
	set, ok := connA.lastPresenceSet()
	require.True(t, ok, "alice should receive a presence set on connect")
	assert.Equal(t, EventPresenceSet, set.Type)
	assert.Equal(t, []string{"alice"}, set.UserIDs)

	connB := &fakeConn{}
	hub.Register(NewClient("bob", connB))

	// Both clients now see the full set, sorted
	for name, conn := range map[string]*fakeConn{"alice": connA, "bob": connB} {
		set, ok := conn.lastPresenceSet()
		require.True(t, ok, "%s should receive a presence set", name)
		assert.Equal(t, []string{"alice", "bob"}, set.UserIDs)
	}

	assert.Equal(t, 2, hub.ClientCount())
}

func TestHub_RegisterReplacesExistingBinding(t *testing.T) {
	hub := NewHub()

	first := NewClient("alice", &fakeConn{})
	second := NewClient("alice", &fakeConn{})

	hub.Register(first)
	hub.Register(second)

	assert.Equal(t, 1, hub.ClientCount())

	current, ok := hub.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, current, "newest connection wins")
}

func TestHub_UnregisterIgnoresStaleHandle(t *testing.T) {
	hub := NewHub()

	first := NewClient("alice", &fakeConn{})
	second := NewClient("alice", &fakeConn{})

	hub.Register(first)
	hub.Register(second)

	// The superseded connection disconnects late; the newer binding stays
	hub.Unregister(first)

	current, ok := hub.Lookup("alice")
	require.True(t, ok, "alice should still be registered")
	assert.Same(t, second, current)

	// The current handle disconnecting removes the binding
	hub.Unregister(second)
	_, ok = hub.Lookup("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_UnregisterBroadcastsToRemaining(t *testing.T) {
	hub := NewHub()

	connA := &fakeConn{}
	connB := &fakeConn{}
	clientA := NewClient("alice", connA)
	hub.Register(clientA)
	hub.Register(NewClient("bob", connB))

	hub.Unregister(clientA)

	set, ok := connB.lastPresenceSet()
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, set.UserIDs, "bob should see alice gone")
}

func TestHub_PushToUser(t *testing.T) {
	hub := NewHub()

	conn := &fakeConn{}
	hub.Register(NewClient("alice", conn))

	payload := NewMessagePush{Type: EventNewMessage}
	delivered := hub.PushToUser("alice", payload)
	assert.True(t, delivered)

	conn.mu.Lock()
	last := conn.payloads[len(conn.payloads)-1]
	conn.mu.Unlock()
	assert.Equal(t, payload, last)

	// No handle for the user means no delivery, not an error
	assert.False(t, hub.PushToUser("bob", payload))
}

func TestHub_PushToUser_WriteFailure(t *testing.T) {
	hub := NewHub()

	conn := &fakeConn{writeErr: errors.New("connection reset")}
	hub.Register(NewClient("alice", conn))

	// Best effort: the handle existed, so delivery is reported even though
	// the write failed
	assert.True(t, hub.PushToUser("alice", NewMessagePush{Type: EventNewMessage}))
}

func TestHub_BroadcastIsolatesFailingHandles(t *testing.T) {
	hub := NewHub()

	broken := &fakeConn{writeErr: errors.New("connection reset")}
	healthy := &fakeConn{}
	hub.Register(NewClient("alice", broken))
	hub.Register(NewClient("bob", healthy))

	set, ok := healthy.lastPresenceSet()
	require.True(t, ok, "healthy handle should still receive the broadcast")
	assert.Equal(t, []string{"alice", "bob"}, set.UserIDs)
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()

	connA := &fakeConn{}
	connB := &fakeConn{}
	hub.Register(NewClient("alice", connA))
	hub.Register(NewClient("bob", connB))

	hub.CloseAll()

	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, connA.closed)
	assert.True(t, connB.closed)
}

func TestHub_SlowPeerDoesNotBlockRegistry(t *testing.T) {
	hub := NewHub()

	release := make(chan struct{})
	stuck := &fakeConn{writeBlock: release}

	registered := make(chan struct{})
	go func() {
		hub.Register(NewClient("alice", stuck))
		close(registered)
	}()

	// The binding is in the registry even while alice's own presence-set
	// write is stalled on her connection
	require.Eventually(t, func() bool {
		_, ok := hub.Lookup("alice")
		return ok
	}, time.Second, 5*time.Millisecond)

	// Registry reads never wait behind the stalled broadcast write
	reads := make(chan struct{})
	go func() {
		hub.Lookup("alice")
		hub.OnlineUserIDs()
		hub.ClientCount()
		close(reads)
	}()
	select {
	case <-reads:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("registry reads blocked behind a stalled broadcast write")
	}

	// A late disconnect of a superseded handle also returns immediately
	hub.Unregister(NewClient("alice", &fakeConn{}))

	close(release)
	<-registered
}

func TestHub_OnlineUserIDsSorted(t *testing.T) {
	hub := NewHub()

	for _, id := range []string{"carol", "alice", "bob"} {
		hub.Register(NewClient(id, &fakeConn{}))
	}

	assert.Equal(t, []string{"alice", "bob", "carol"}, hub.OnlineUserIDs())
}
