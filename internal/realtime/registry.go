package realtime

import (
	"context"
	"encoding/json"

	"socialnet/backend/internal/models"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// HandlerFunc handles one client -> server event.
type HandlerFunc func(ctx context.Context, client *Client, payload json.RawMessage)

// ConnectHook runs once for every newly admitted connection.
type ConnectHook func(ctx context.Context, client *Client)

// SessionLoader fetches the private-chat snapshot taken at connect
// time.
type SessionLoader interface {
	FindPrivateChats(ctx context.Context, profileID uuid.UUID) ([]models.PrivateChat, error)
}

// Registry holds every live connection of this process, grouped into
// rooms keyed by profile id so that all of a user's concurrent
// connections receive events uniformly. Delivery always crosses the
// backplane, so a room is reachable from any process regardless of
// which one holds the socket.
type Registry struct {
	rooms     roomSet
	backplane Backplane
	presence  *PresenceStore
	sessions  SessionLoader
	handlers  map[string]HandlerFunc
	hooks     []ConnectHook
	log       logr.Logger
}

func NewRegistry(backplane Backplane, presence *PresenceStore, sessions SessionLoader, log logr.Logger) *Registry {
	return &Registry{
		rooms:     newRoomSet(),
		backplane: backplane,
		presence:  presence,
		sessions:  sessions,
		handlers:  make(map[string]HandlerFunc),
		log:       log,
	}
}

// Start subscribes the registry to the backplane. Must be called before
// any connection is admitted.
func (r *Registry) Start(ctx context.Context) {
	r.backplane.Subscribe(ctx, r.deliver)
}

// Handle routes a client -> server event to the given handler.
func (r *Registry) Handle(event string, handler HandlerFunc) {
	r.handlers[event] = handler
}

// OnConnect registers a hook run for every new connection.
func (r *Registry) OnConnect(hook ConnectHook) {
	r.hooks = append(r.hooks, hook)
}

// Presence returns the presence store backing this registry.
func (r *Registry) Presence() *PresenceStore {
	return r.presence
}

// Emit publishes an event to a room through the backplane. Fire and
// forget: a failed publish is logged, never escalated, and no timeout
// is applied.
func (r *Registry) Emit(room uuid.UUID, event string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		r.log.Error(err, "unencodable realtime payload", "event", event)
		return
	}
	envelope := Envelope{Room: room, Event: event, Payload: encoded}
	if err := r.backplane.Publish(context.Background(), envelope); err != nil {
		r.log.Error(err, "backplane publish failed", "event", event, "room", room)
	}
}

// Admit takes an authenticated websocket into the profile's room,
// builds the connection's session, renews presence and runs the
// connect hooks.
func (r *Registry) Admit(ctx context.Context, conn *websocket.Conn, profile models.ProfileShort) (*Client, error) {
	privateChats, err := r.sessions.FindPrivateChats(ctx, profile.ID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client := newClient(conn, r, NewSession(profile, privateChats))
	r.rooms.add(profile.ID, client)

	if err := r.presence.Renew(ctx, profile.ID); err != nil {
		r.log.Error(err, "presence renewal failed", "profile", profile.ID)
	}
	for _, hook := range r.hooks {
		hook(ctx, client)
	}

	go client.writePump()
	go client.readPump()
	return client, nil
}

// Connected reports whether the client still belongs to its room.
// Background pollers use this as their exit condition.
func (r *Registry) Connected(client *Client) bool {
	return r.rooms.contains(client.ProfileID(), client)
}

func (r *Registry) remove(client *Client) {
	r.rooms.remove(client.ProfileID(), client)
}

// deliver hands one backplane envelope to the local members of its
// room. Friend add/remove events additionally mutate the live session
// snapshots before delivery, so chat authorization tracks the graph
// without re-querying.
func (r *Registry) deliver(envelope Envelope) {
	switch envelope.Event {
	case EventAddFriend:
		var payload PrivateChatPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err == nil {
			r.rooms.each(envelope.Room, func(client *Client) {
				client.session.AddPrivateChat(models.PrivateChat{
					ChatGroupID: payload.ChatGroupID,
					ProfileID:   payload.ProfileID,
					Username:    payload.Username,
				})
			})
		}
	case EventRemoveFriend:
		var payload RemoveFriendPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err == nil {
			r.rooms.each(envelope.Room, func(client *Client) {
				client.session.RemovePrivateChatWith(payload.ProfileID)
			})
		}
	}

	frame, err := json.Marshal(Frame{Event: envelope.Event, Payload: envelope.Payload})
	if err != nil {
		return
	}
	r.rooms.each(envelope.Room, func(client *Client) {
		if !client.enqueue(frame) {
			r.log.Info("dropping event for slow connection",
				"event", envelope.Event, "profile", client.ProfileID())
		}
	})
}

// sendDirect delivers a frame to a single connection, bypassing the
// backplane. Used for connect-time pushes addressed to one socket.
func (r *Registry) sendDirect(client *Client, event string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		r.log.Error(err, "unencodable realtime payload", "event", event)
		return
	}
	frame, err := json.Marshal(Frame{Event: event, Payload: encoded})
	if err != nil {
		return
	}
	r.rooms.ifMember(client, func() {
		if !client.enqueue(frame) {
			r.log.Info("dropping event for slow connection",
				"event", event, "profile", client.ProfileID())
		}
	})
}
