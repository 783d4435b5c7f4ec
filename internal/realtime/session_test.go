package realtime

import (
	"testing"

	"socialnet/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionSnapshotIsolation(t *testing.T) {
	group := uuid.New()
	counterpart := uuid.New()
	session := NewSession(models.ProfileShort{ID: uuid.New(), Username: "alice"},
		[]models.PrivateChat{{ChatGroupID: group, ProfileID: counterpart, Username: "bob"}})

	chats := session.PrivateChats()
	chats[0].Username = "mallory"

	assert.Equal(t, "bob", session.PrivateChats()[0].Username)
}

func TestSessionAuthorizesOnlyKnownGroups(t *testing.T) {
	group := uuid.New()
	session := NewSession(models.ProfileShort{ID: uuid.New(), Username: "alice"},
		[]models.PrivateChat{{ChatGroupID: group, ProfileID: uuid.New(), Username: "bob"}})

	assert.True(t, session.HasChatGroup(group))
	assert.False(t, session.HasChatGroup(uuid.New()))
}

func TestSessionAddPrivateChatDedupes(t *testing.T) {
	session := NewSession(models.ProfileShort{ID: uuid.New(), Username: "alice"}, nil)

	chat := models.PrivateChat{ChatGroupID: uuid.New(), ProfileID: uuid.New(), Username: "bob"}
	session.AddPrivateChat(chat)
	session.AddPrivateChat(chat)

	assert.Len(t, session.PrivateChats(), 1)
	assert.True(t, session.HasChatGroup(chat.ChatGroupID))
}

func TestSessionRemovePrivateChatWith(t *testing.T) {
	bob := uuid.New()
	carol := uuid.New()
	bobGroup := uuid.New()
	session := NewSession(models.ProfileShort{ID: uuid.New(), Username: "alice"},
		[]models.PrivateChat{
			{ChatGroupID: bobGroup, ProfileID: bob, Username: "bob"},
			{ChatGroupID: uuid.New(), ProfileID: carol, Username: "carol"},
		})

	session.RemovePrivateChatWith(bob)

	assert.False(t, session.HasChatGroup(bobGroup))
	assert.Equal(t, []uuid.UUID{carol}, session.CounterpartIDs())
}
