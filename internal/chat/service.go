package chat

import (
	"context"
	"encoding/json"
	"time"

	"socialnet/backend/internal/models"
	"socialnet/backend/internal/realtime"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// PresenceChecker narrows the presence store to the read side the
// poller needs.
type PresenceChecker interface {
	OnlineSubset(ctx context.Context, profileIDs []uuid.UUID) ([]uuid.UUID, error)
}

// Service authorizes and routes chat traffic. Authorization always
// consults the sender's cached session snapshot, never the store: an
// unauthorized target is silently ignored.
type Service struct {
	repo         *Repo
	registry     *realtime.Registry
	presence     PresenceChecker
	pollInterval time.Duration
	log          logr.Logger
}

func NewService(repo *Repo, registry *realtime.Registry, presence PresenceChecker, pollInterval time.Duration, log logr.Logger) *Service {
	return &Service{
		repo:         repo,
		registry:     registry,
		presence:     presence,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Register wires the service into the registry's event routing and
// connect sequence.
func (s *Service) Register() {
	s.registry.Handle(realtime.EventChatMessage, s.onChatMessage)
	s.registry.Handle(realtime.EventIsTyping, s.onIsTyping)
	s.registry.Handle(realtime.EventMarkChatAsRead, s.onMarkChatAsRead)
	s.registry.OnConnect(s.onConnect)
}

// Conversations lists the profile's conversations, newest first.
func (s *Service) Conversations(ctx context.Context, profileID uuid.UUID, olderThan time.Time, limit int) ([]models.Conversation, error) {
	return s.repo.FindConversations(ctx, profileID, olderThan, limit)
}

// Messages lists a group's message history, newest first.
func (s *Service) Messages(ctx context.Context, chatGroupID uuid.UUID, olderThan time.Time, limit int) ([]models.ChatMessage, error) {
	return s.repo.FindMessages(ctx, chatGroupID, olderThan, limit)
}

// PrivateChats lists the profile's active private chats.
func (s *Service) PrivateChats(ctx context.Context, profileID uuid.UUID) ([]models.PrivateChat, error) {
	return s.repo.FindPrivateChats(ctx, profileID)
}

// IsMember reports whether the profile belongs to the chat group.
// Membership survives group deactivation, so history stays readable
// after an unfriend.
func (s *Service) IsMember(ctx context.Context, chatGroupID, profileID uuid.UUID) (bool, error) {
	memberIDs, err := s.repo.FindChatGroupMemberIDs(ctx, chatGroupID)
	if err != nil {
		return false, err
	}
	for _, memberID := range memberIDs {
		if memberID == profileID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) onConnect(ctx context.Context, client *realtime.Client) {
	unreadIDs, err := s.repo.FindUnreadConversationIDs(ctx, client.ProfileID())
	if err != nil {
		s.log.Error(err, "unread conversations lookup failed", "profile", client.ProfileID())
		unreadIDs = []uuid.UUID{}
	}
	client.Send(realtime.EventUnreadConversationsIDs, unreadIDs)

	chats := client.Session().PrivateChats()
	payload := make([]realtime.PrivateChatPayload, 0, len(chats))
	for _, chat := range chats {
		payload = append(payload, realtime.PrivateChatPayload{
			ChatGroupID: chat.ChatGroupID,
			ProfileID:   chat.ProfileID,
			Username:    chat.Username,
		})
	}
	client.Send(realtime.EventPrivateChats, payload)

	go s.onlineFriendsLoop(client)
}

// onlineFriendsLoop pushes the online subset of the session's
// counterparts at a fixed interval. It has no cancellation token; it
// exits when its owning connection is no longer registered.
func (s *Service) onlineFriendsLoop(client *realtime.Client) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		if !s.registry.Connected(client) {
			return
		}
		online, err := s.presence.OnlineSubset(context.Background(), client.Session().CounterpartIDs())
		if err != nil {
			s.log.Error(err, "online statuses lookup failed", "profile", client.ProfileID())
		} else {
			client.Send(realtime.EventOnlineFriends, online)
		}
		<-ticker.C
	}
}

func (s *Service) onChatMessage(ctx context.Context, client *realtime.Client, raw json.RawMessage) {
	var in realtime.ChatMessageIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	if !client.Session().HasChatGroup(in.To) {
		s.log.V(1).Info("chat message to unauthorized group dropped",
			"profile", client.ProfileID(), "group", in.To)
		return
	}

	message := &models.ChatMessage{
		FromProfileID: client.ProfileID(),
		ChatGroupID:   in.To,
		Content:       in.Message,
	}
	if err := s.repo.SaveMessage(ctx, message); err != nil {
		s.log.Error(err, "chat message persistence failed", "profile", client.ProfileID())
		return
	}
	// The sender has read their own message.
	if err := s.repo.UpsertReadStatus(ctx, client.ProfileID(), in.To, message.ID); err != nil {
		s.log.Error(err, "read status upsert failed", "profile", client.ProfileID())
	}

	payload := realtime.ChatMessagePayload{
		ID:            message.ID,
		CreatedAt:     message.CreatedAt,
		FromProfileID: message.FromProfileID,
		ChatGroupID:   message.ChatGroupID,
		Content:       message.Content,
	}
	// Counterpart rooms come from a store lookup of the group's
	// membership; the sender's other connections share the sender's
	// room.
	for _, recipient := range s.messageRecipients(ctx, in.To, client.ProfileID()) {
		s.registry.Emit(recipient, realtime.EventChatMessage, payload)
	}
	s.registry.Emit(client.ProfileID(), realtime.EventChatMessage, payload)
}

func (s *Service) onIsTyping(ctx context.Context, client *realtime.Client, raw json.RawMessage) {
	var in realtime.IsTypingIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	if !client.Session().HasChatGroup(in.ChatGroupID) {
		return
	}
	payload := realtime.IsTypingPayload{
		ProfileID:   client.ProfileID(),
		Username:    client.Username(),
		ChatGroupID: in.ChatGroupID,
	}
	// Ephemeral: never persisted, and the sender's own room is
	// excluded.
	for _, recipient := range s.messageRecipients(ctx, in.ChatGroupID, client.ProfileID()) {
		s.registry.Emit(recipient, realtime.EventIsTyping, payload)
	}
}

func (s *Service) onMarkChatAsRead(ctx context.Context, client *realtime.Client, raw json.RawMessage) {
	var in realtime.MarkChatAsReadIn
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	err := s.repo.UpsertReadStatus(ctx, client.ProfileID(), in.ChatGroupID, in.ChatMessageID)
	if err != nil {
		s.log.Error(err, "read status upsert failed", "profile", client.ProfileID())
	}
}

func (s *Service) messageRecipients(ctx context.Context, chatGroupID, senderID uuid.UUID) []uuid.UUID {
	memberIDs, err := s.repo.FindChatGroupMemberIDs(ctx, chatGroupID)
	if err != nil {
		s.log.Error(err, "chat group members lookup failed", "group", chatGroupID)
		return nil
	}
	recipients := memberIDs[:0]
	for _, memberID := range memberIDs {
		if memberID != senderID {
			recipients = append(recipients, memberID)
		}
	}
	return recipients
}
