package realtime

import (
	"sync"

	"socialnet/backend/internal/models"

	"github.com/google/uuid"
)

// Session is the connection-scoped state of one authenticated
// websocket: the profile plus a snapshot of its private-chat
// counterparts taken at connect time. The snapshot only changes through
// push-driven updates (add_friend / remove_friend events); it is never
// re-queried for the connection's lifetime.
type Session struct {
	Profile models.ProfileShort

	mu           sync.Mutex
	privateChats []models.PrivateChat
}

func NewSession(profile models.ProfileShort, privateChats []models.PrivateChat) *Session {
	return &Session{Profile: profile, privateChats: privateChats}
}

// PrivateChats returns a copy of the current snapshot.
func (s *Session) PrivateChats() []models.PrivateChat {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats := make([]models.PrivateChat, len(s.privateChats))
	copy(chats, s.privateChats)
	return chats
}

// HasChatGroup reports whether the snapshot contains the chat group;
// this is the authorization check for chat sends.
func (s *Session) HasChatGroup(chatGroupID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chat := range s.privateChats {
		if chat.ChatGroupID == chatGroupID {
			return true
		}
	}
	return false
}

// CounterpartIDs returns the profile ids across all private chats in
// the snapshot.
func (s *Session) CounterpartIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.privateChats))
	for _, chat := range s.privateChats {
		ids = append(ids, chat.ProfileID)
	}
	return ids
}

// AddPrivateChat appends a chat to the snapshot (friend accepted).
func (s *Session) AddPrivateChat(chat models.PrivateChat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.privateChats {
		if existing.ChatGroupID == chat.ChatGroupID {
			return
		}
	}
	s.privateChats = append(s.privateChats, chat)
}

// RemovePrivateChatWith drops the chat whose counterpart is the given
// profile (friend removed).
func (s *Session) RemovePrivateChatWith(profileID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chats := s.privateChats[:0]
	for _, chat := range s.privateChats {
		if chat.ProfileID != profileID {
			chats = append(chats, chat)
		}
	}
	s.privateChats = chats
}
