package relationship

import (
	"context"
	"fmt"

	"socialnet/backend/internal/models"
	"socialnet/backend/internal/realtime"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Notification events produced by relationship changes.
const (
	NotificationNewFriendshipRequest = "NEW_FRIENDSHIP_REQUEST"
	NotificationNewFriend            = "NEW_FRIEND"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Emitter pushes a realtime event to every connection in a room.
// Pushes are fire-and-forget.
type Emitter interface {
	Emit(room uuid.UUID, event string, payload any)
}

// Notifier enqueues a notification event for fan-out. Enqueueing never
// blocks and never fails the triggering operation.
type Notifier interface {
	Notify(event string, payload map[string]any, recipients []uuid.UUID)
}

// Engine enforces the friendship state machine over the graph store,
// keeps the relationship cache coherent and triggers the realtime and
// notification side effects of graph mutations.
//
// Cache invalidation happens strictly after the store transaction
// commits; a reader racing into that window may observe the
// pre-mutation state for one cache TTL at most.
type Engine struct {
	graph    GraphStore
	cache    *Cache
	realtime Emitter
	notifier Notifier
	log      logr.Logger
}

func NewEngine(graph GraphStore, cache *Cache, emitter Emitter, notifier Notifier, log logr.Logger) *Engine {
	return &Engine{
		graph:    graph,
		cache:    cache,
		realtime: emitter,
		notifier: notifier,
		log:      log,
	}
}

// GetRelationship classifies the relationship between two profiles from
// profileID's perspective.
func (e *Engine) GetRelationship(ctx context.Context, profileID, otherProfileID uuid.UUID) (models.Relationship, error) {
	if profileID == otherProfileID {
		return models.RelationshipSelf, nil
	}
	if cached, ok, err := e.cache.GetRelationship(ctx, profileID, otherProfileID); err != nil {
		return "", err
	} else if ok {
		return cached, nil
	}

	edge, err := e.graph.EdgeBetween(ctx, profileID, otherProfileID)
	if err != nil {
		return "", fmt.Errorf("relationship lookup: %w", err)
	}
	relationship := classifyEdge(edge, profileID)
	if err := e.cache.SetRelationship(ctx, profileID, otherProfileID, relationship); err != nil {
		return "", err
	}
	return relationship, nil
}

func classifyEdge(edge *models.RelationshipEdge, profileID uuid.UUID) models.Relationship {
	switch {
	case edge == nil:
		return models.RelationshipNone
	case edge.Type == models.EdgeFriend:
		return models.RelationshipFriend
	case edge.FromProfileID == profileID:
		return models.RelationshipOutgoingFriendRequest
	default:
		return models.RelationshipIncomingFriendRequest
	}
}

// IsFriendWith reports whether the two profiles are friends. A profile
// counts as a friend of itself.
func (e *Engine) IsFriendWith(ctx context.Context, profileID, otherProfileID uuid.UUID) (bool, error) {
	if profileID == otherProfileID {
		return true, nil
	}
	relationship, err := e.GetRelationship(ctx, profileID, otherProfileID)
	if err != nil {
		return false, err
	}
	return relationship == models.RelationshipFriend, nil
}

// CreateRequest sends a friend request. Legal only from NONE.
func (e *Engine) CreateRequest(ctx context.Context, requesterID, targetID uuid.UUID) error {
	if err := e.checkRelationship(ctx, requesterID, targetID, models.RelationshipNone); err != nil {
		return err
	}
	if err := e.graph.CreateRequest(ctx, requesterID, targetID); err != nil {
		return err
	}
	if err := e.cache.UnsetRelationship(ctx, requesterID, targetID, false); err != nil {
		return err
	}

	requester, err := e.profileByID(ctx, requesterID)
	if err != nil {
		return err
	}
	e.notifier.Notify(NotificationNewFriendshipRequest, map[string]any{
		"byId":       requester.ID,
		"byUsername": requester.Username,
	}, []uuid.UUID{targetID})
	return nil
}

// AcceptRequest turns an incoming friend request into a friendship and
// provisions (or reactivates) the pair's private chat group, returning
// it for the caller.
func (e *Engine) AcceptRequest(ctx context.Context, requesterID, accepterID uuid.UUID) (*models.ChatGroup, error) {
	if err := e.checkRelationship(ctx, accepterID, requesterID, models.RelationshipIncomingFriendRequest); err != nil {
		return nil, err
	}
	group, err := e.graph.AcceptRequest(ctx, requesterID, accepterID)
	if err != nil {
		return nil, err
	}
	if err := e.cache.UnsetRelationship(ctx, requesterID, accepterID, true); err != nil {
		return nil, err
	}

	profiles, err := e.graph.ProfilesByIDs(ctx, []uuid.UUID{requesterID, accepterID})
	if err != nil {
		return nil, err
	}
	for _, recipient := range profiles {
		for _, other := range profiles {
			if other.ID == recipient.ID {
				continue
			}
			e.realtime.Emit(recipient.ID, realtime.EventAddFriend, realtime.PrivateChatPayload{
				ChatGroupID: group.ID,
				ProfileID:   other.ID,
				Username:    other.Username,
			})
		}
	}

	accepter, err := e.profileByID(ctx, accepterID)
	if err != nil {
		return nil, err
	}
	e.notifier.Notify(NotificationNewFriend, map[string]any{
		"profileId":       accepter.ID,
		"profileUsername": accepter.Username,
	}, []uuid.UUID{requesterID})
	return group, nil
}

// RejectRequest discards an incoming friend request.
func (e *Engine) RejectRequest(ctx context.Context, requesterID, rejecterID uuid.UUID) error {
	if err := e.checkRelationship(ctx, rejecterID, requesterID, models.RelationshipIncomingFriendRequest); err != nil {
		return err
	}
	if err := e.graph.DeleteRequest(ctx, requesterID, rejecterID); err != nil {
		return err
	}
	return e.cache.UnsetRelationship(ctx, requesterID, rejecterID, false)
}

// CancelRequest withdraws an outgoing friend request.
func (e *Engine) CancelRequest(ctx context.Context, cancelerID, targetID uuid.UUID) error {
	if err := e.checkRelationship(ctx, cancelerID, targetID, models.RelationshipOutgoingFriendRequest); err != nil {
		return err
	}
	if err := e.graph.DeleteRequest(ctx, cancelerID, targetID); err != nil {
		return err
	}
	return e.cache.UnsetRelationship(ctx, cancelerID, targetID, false)
}

// RemoveFriend dissolves a friendship. The pair's private chat group is
// deactivated, not deleted, so history survives a later re-friending.
func (e *Engine) RemoveFriend(ctx context.Context, profileID, friendID uuid.UUID) error {
	if err := e.checkRelationship(ctx, profileID, friendID, models.RelationshipFriend); err != nil {
		return err
	}
	if err := e.graph.DeleteFriendship(ctx, profileID, friendID); err != nil {
		return err
	}
	if err := e.cache.UnsetRelationship(ctx, profileID, friendID, true); err != nil {
		return err
	}

	e.realtime.Emit(profileID, realtime.EventRemoveFriend, realtime.RemoveFriendPayload{ProfileID: friendID})
	e.realtime.Emit(friendID, realtime.EventRemoveFriend, realtime.RemoveFriendPayload{ProfileID: profileID})
	return nil
}

// ListFriends returns the profile's friends ascending by username. The
// uncursored first page is served from the materialized friend-list
// cache when possible; cursored reads always hit the graph.
func (e *Engine) ListFriends(ctx context.Context, profileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error) {
	limit = clampLimit(limit)
	if usernameGt == "" {
		if friends, ok, err := e.cache.GetFriends(ctx, profileID); err != nil {
			return nil, err
		} else if ok {
			return friends, nil
		}
	}
	friends, err := e.graph.Friends(ctx, profileID, usernameGt, limit)
	if err != nil {
		return nil, err
	}
	if usernameGt == "" {
		if err := e.cache.SetFriends(ctx, profileID, friends); err != nil {
			return nil, err
		}
	}
	return friends, nil
}

// ListFriendRequests returns pending requests for the profile in the
// given direction, ascending by username.
func (e *Engine) ListFriendRequests(ctx context.Context, profileID uuid.UUID, direction RequestDirection, usernameGt string, limit int) ([]models.ProfileShort, error) {
	return e.graph.FriendRequests(ctx, profileID, direction, usernameGt, clampLimit(limit))
}

// ListMutualFriends returns the friends two profiles share, ascending
// by username.
func (e *Engine) ListMutualFriends(ctx context.Context, profileID, otherProfileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error) {
	return e.graph.MutualFriends(ctx, profileID, otherProfileID, usernameGt, clampLimit(limit))
}

// ListFriendSuggestions returns friends-of-friends that are not already
// friends, ascending by username.
func (e *Engine) ListFriendSuggestions(ctx context.Context, profileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error) {
	return e.graph.FriendSuggestions(ctx, profileID, usernameGt, clampLimit(limit))
}

func (e *Engine) checkRelationship(ctx context.Context, profileID, otherProfileID uuid.UUID, allowed models.Relationship) error {
	relationship, err := e.GetRelationship(ctx, profileID, otherProfileID)
	if err != nil {
		return err
	}
	if relationship != allowed {
		return fmt.Errorf("%w: %s", ErrInvalidStateTransition, relationship)
	}
	return nil
}

func (e *Engine) profileByID(ctx context.Context, profileID uuid.UUID) (*models.ProfileShort, error) {
	profiles, err := e.graph.ProfilesByIDs(ctx, []uuid.UUID{profileID})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, profileID)
	}
	return &profiles[0], nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
