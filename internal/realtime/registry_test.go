package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"socialnet/backend/internal/models"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSessions struct {
	chats map[uuid.UUID][]models.PrivateChat
}

func (s *staticSessions) FindPrivateChats(_ context.Context, profileID uuid.UUID) ([]models.PrivateChat, error) {
	return s.chats[profileID], nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	presence := NewPresenceStore(newExpiringCache(), 11*time.Second)
	registry := NewRegistry(NewLoopbackBackplane(), presence, &staticSessions{}, logr.Discard())
	registry.Start(context.Background())
	return registry
}

// join registers a client without a socket; the write pump is never
// started so frames accumulate in the send buffer.
func join(registry *Registry, profile models.ProfileShort, chats ...models.PrivateChat) *Client {
	client := newClient(nil, registry, NewSession(profile, chats))
	registry.rooms.add(profile.ID, client)
	return client
}

func receive(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case raw := <-client.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	default:
		t.Fatal("no frame queued")
		return Frame{}
	}
}

func TestEmitReachesEveryRoomMember(t *testing.T) {
	registry := newTestRegistry(t)
	alice := models.ProfileShort{ID: uuid.New(), Username: "alice"}

	first := join(registry, alice)
	second := join(registry, alice)
	stranger := join(registry, models.ProfileShort{ID: uuid.New(), Username: "carol"})

	registry.Emit(alice.ID, EventOnlineFriends, []uuid.UUID{})

	for _, client := range []*Client{first, second} {
		frame := receive(t, client)
		assert.Equal(t, EventOnlineFriends, frame.Event)
	}
	assert.Len(t, stranger.send, 0)
}

func TestAddFriendMutatesLiveSessions(t *testing.T) {
	registry := newTestRegistry(t)
	alice := models.ProfileShort{ID: uuid.New(), Username: "alice"}
	client := join(registry, alice)

	group := uuid.New()
	bob := uuid.New()
	registry.Emit(alice.ID, EventAddFriend, PrivateChatPayload{
		ChatGroupID: group,
		ProfileID:   bob,
		Username:    "bob",
	})

	assert.True(t, client.Session().HasChatGroup(group))
	frame := receive(t, client)
	assert.Equal(t, EventAddFriend, frame.Event)

	registry.Emit(alice.ID, EventRemoveFriend, RemoveFriendPayload{ProfileID: bob})

	assert.False(t, client.Session().HasChatGroup(group))
}

func TestSlowConnectionDropsInsteadOfBlocking(t *testing.T) {
	registry := newTestRegistry(t)
	alice := models.ProfileShort{ID: uuid.New(), Username: "alice"}
	client := join(registry, alice)

	for i := 0; i < sendBufferSize+10; i++ {
		registry.Emit(alice.ID, EventOnlineFriends, []uuid.UUID{})
	}

	// Emit must never block; the overflow is simply gone.
	assert.Len(t, client.send, sendBufferSize)
}

func TestSendDirectSkipsRemovedClients(t *testing.T) {
	registry := newTestRegistry(t)
	alice := models.ProfileShort{ID: uuid.New(), Username: "alice"}
	client := join(registry, alice)

	client.Send(EventUnreadNotificationsCount, 3)
	frame := receive(t, client)
	assert.Equal(t, EventUnreadNotificationsCount, frame.Event)

	registry.remove(client)
	assert.False(t, registry.Connected(client))

	// The channel is closed now; a direct send must not panic.
	client.Send(EventUnreadNotificationsCount, 4)
}
