package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Client -> server events.
const (
	EventPing           = "ping"
	EventChatMessage    = "chat_message"
	EventIsTyping       = "is_typing"
	EventMarkChatAsRead = "mark_chat_as_read"
)

// Server -> client events.
const (
	EventUnreadConversationsIDs   = "unread_conversations_ids"
	EventPrivateChats             = "private_chats"
	EventOnlineFriends            = "online_friends"
	EventAddFriend                = "add_friend"
	EventRemoveFriend             = "remove_friend"
	EventNewUnreadNotification    = "new_unread_notification"
	EventUnreadNotificationsCount = "unread_notifications_count"
)

// Frame is the websocket message envelope in both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PrivateChatPayload describes one private chat to the client; also the
// add_friend payload.
type PrivateChatPayload struct {
	ChatGroupID uuid.UUID `json:"chatGroupId"`
	ProfileID   uuid.UUID `json:"profileId"`
	Username    string    `json:"username"`
}

// RemoveFriendPayload tells a client which counterpart was unfriended.
type RemoveFriendPayload struct {
	ProfileID uuid.UUID `json:"profileId"`
}

// ChatMessagePayload is the server -> client chat_message body.
type ChatMessagePayload struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	FromProfileID uuid.UUID `json:"fromProfileId"`
	ChatGroupID   uuid.UUID `json:"chatGroupId"`
	Content       string    `json:"content"`
}

// IsTypingPayload is the server -> client is_typing body.
type IsTypingPayload struct {
	ProfileID   uuid.UUID `json:"profileId"`
	Username    string    `json:"username"`
	ChatGroupID uuid.UUID `json:"chatGroupId"`
}

// ChatMessageIn is the client -> server chat_message body.
type ChatMessageIn struct {
	Message string    `json:"message"`
	To      uuid.UUID `json:"to"`
}

// IsTypingIn is the client -> server is_typing body.
type IsTypingIn struct {
	ChatGroupID uuid.UUID `json:"chatGroupId"`
}

// MarkChatAsReadIn is the client -> server mark_chat_as_read body.
type MarkChatAsReadIn struct {
	ChatGroupID   uuid.UUID `json:"chatGroupId"`
	ChatMessageID uuid.UUID `json:"chatMessageId"`
}
