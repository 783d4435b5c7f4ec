package relationship

import (
	"context"
	"errors"

	"socialnet/backend/internal/chat"
	"socialnet/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestDirection selects which side of pending friend requests a
// traversal follows.
type RequestDirection string

const (
	DirectionIncoming RequestDirection = "incoming"
	DirectionOutgoing RequestDirection = "outgoing"
)

// GraphStore is the graph-shaped source of truth for profiles and
// relationship edges. Mutations are individually transactional; a raced
// mutation surfaces as ErrInvalidStateTransition for the caller to
// re-check.
type GraphStore interface {
	EdgeBetween(ctx context.Context, profileID, otherProfileID uuid.UUID) (*models.RelationshipEdge, error)
	CreateRequest(ctx context.Context, requesterID, targetID uuid.UUID) error
	DeleteRequest(ctx context.Context, fromID, toID uuid.UUID) error
	// AcceptRequest deletes the request edge, creates the friend edge
	// and provisions (or reactivates) the pair's private chat group,
	// all in one transaction.
	AcceptRequest(ctx context.Context, requesterID, accepterID uuid.UUID) (*models.ChatGroup, error)
	// DeleteFriendship removes the friend edge and deactivates the
	// pair's private chat group in one transaction.
	DeleteFriendship(ctx context.Context, profileID, friendID uuid.UUID) error

	Friends(ctx context.Context, profileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error)
	FriendRequests(ctx context.Context, profileID uuid.UUID, direction RequestDirection, usernameGt string, limit int) ([]models.ProfileShort, error)
	MutualFriends(ctx context.Context, profileID, otherProfileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error)
	FriendSuggestions(ctx context.Context, profileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error)
	ProfilesByIDs(ctx context.Context, profileIDs []uuid.UUID) ([]models.ProfileShort, error)
}

// adjacencyCTE normalizes the directed edge rows into both-way friend
// adjacency for the traversal queries.
const adjacencyCTE = `
	WITH adjacency AS (
		SELECT from_profile_id AS profile_id, to_profile_id AS friend_id
		FROM relationship_edge WHERE type = 'FRIEND'
		UNION ALL
		SELECT to_profile_id AS profile_id, from_profile_id AS friend_id
		FROM relationship_edge WHERE type = 'FRIEND'
	)`

// Store implements GraphStore on a relationship-edge adjacency table.
type Store struct {
	db    *gorm.DB
	chats *chat.Repo
}

func NewStore(db *gorm.DB, chats *chat.Repo) *Store {
	return &Store{db: db, chats: chats}
}

func (s *Store) EdgeBetween(ctx context.Context, profileID, otherProfileID uuid.UUID) (*models.RelationshipEdge, error) {
	var edge models.RelationshipEdge
	err := s.db.WithContext(ctx).
		Where("(from_profile_id = ? AND to_profile_id = ?) OR (from_profile_id = ? AND to_profile_id = ?)",
			profileID, otherProfileID, otherProfileID, profileID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (s *Store) CreateRequest(ctx context.Context, requesterID, targetID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard at the store level too: a FRIEND edge between the pair
		// makes the request illegal regardless of what the cache said.
		var count int64
		err := tx.Model(&models.RelationshipEdge{}).
			Where("(from_profile_id = ? AND to_profile_id = ?) OR (from_profile_id = ? AND to_profile_id = ?)",
				requesterID, targetID, targetID, requesterID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrInvalidStateTransition
		}
		return tx.Create(&models.RelationshipEdge{
			FromProfileID: requesterID,
			ToProfileID:   targetID,
			Type:          models.EdgeFriendRequest,
		}).Error
	})
}

func (s *Store) DeleteRequest(ctx context.Context, fromID, toID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("from_profile_id = ? AND to_profile_id = ? AND type = ?",
			fromID, toID, models.EdgeFriendRequest).
		Delete(&models.RelationshipEdge{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidStateTransition
	}
	return nil
}

func (s *Store) AcceptRequest(ctx context.Context, requesterID, accepterID uuid.UUID) (*models.ChatGroup, error) {
	var group *models.ChatGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("from_profile_id = ? AND to_profile_id = ? AND type = ?",
			requesterID, accepterID, models.EdgeFriendRequest).
			Delete(&models.RelationshipEdge{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidStateTransition
		}
		if err := tx.Create(&models.RelationshipEdge{
			FromProfileID: requesterID,
			ToProfileID:   accepterID,
			Type:          models.EdgeFriend,
		}).Error; err != nil {
			return err
		}

		// Reuse the pair's chat group if the pair had one before;
		// message history is restored with it.
		chats := s.chats.WithTx(tx)
		existing, err := chats.FindPrivateChatGroup(ctx, requesterID, accepterID)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.Active {
				if existing, err = chats.SetChatGroupActive(ctx, existing.ID, true); err != nil {
					return err
				}
			}
			group = existing
			return nil
		}
		group, err = chats.SavePrivateChatGroup(ctx, requesterID, accepterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Store) DeleteFriendship(ctx context.Context, profileID, friendID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("((from_profile_id = ? AND to_profile_id = ?) OR (from_profile_id = ? AND to_profile_id = ?)) AND type = ?",
			profileID, friendID, friendID, profileID, models.EdgeFriend).
			Delete(&models.RelationshipEdge{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidStateTransition
		}

		chats := s.chats.WithTx(tx)
		group, err := chats.FindPrivateChatGroup(ctx, profileID, friendID)
		if err != nil {
			return err
		}
		if group == nil {
			return gorm.ErrRecordNotFound
		}
		_, err = chats.SetChatGroupActive(ctx, group.ID, false)
		return err
	})
}

func (s *Store) Friends(ctx context.Context, profileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error) {
	var friends []models.ProfileShort
	err := s.db.WithContext(ctx).Raw(adjacencyCTE+`
		SELECT p.id, p.username
		FROM adjacency a
			JOIN profile p ON p.id = a.friend_id
		WHERE a.profile_id = @profile_id
			AND (@username_gt = '' OR p.username > @username_gt)
		ORDER BY p.username
		LIMIT @limit`,
		map[string]any{
			"profile_id":  profileID,
			"username_gt": usernameGt,
			"limit":       limit,
		}).Scan(&friends).Error
	return friends, err
}

func (s *Store) FriendRequests(ctx context.Context, profileID uuid.UUID, direction RequestDirection, usernameGt string, limit int) ([]models.ProfileShort, error) {
	ownColumn, otherColumn := "from_profile_id", "to_profile_id"
	if direction == DirectionIncoming {
		ownColumn, otherColumn = otherColumn, ownColumn
	}
	var profiles []models.ProfileShort
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.id, p.username
		FROM relationship_edge e
			JOIN profile p ON p.id = e.`+otherColumn+`
		WHERE e.`+ownColumn+` = @profile_id
			AND e.type = 'FRIEND_REQUEST'
			AND (@username_gt = '' OR p.username > @username_gt)
		ORDER BY p.username
		LIMIT @limit`,
		map[string]any{
			"profile_id":  profileID,
			"username_gt": usernameGt,
			"limit":       limit,
		}).Scan(&profiles).Error
	return profiles, err
}

func (s *Store) MutualFriends(ctx context.Context, profileID, otherProfileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error) {
	var profiles []models.ProfileShort
	err := s.db.WithContext(ctx).Raw(adjacencyCTE+`
		SELECT DISTINCT p.id, p.username
		FROM adjacency a1
			JOIN adjacency a2 ON a1.friend_id = a2.friend_id
			JOIN profile p ON p.id = a1.friend_id
		WHERE a1.profile_id = @profile_id
			AND a2.profile_id = @other_profile_id
			AND (@username_gt = '' OR p.username > @username_gt)
		ORDER BY p.username
		LIMIT @limit`,
		map[string]any{
			"profile_id":       profileID,
			"other_profile_id": otherProfileID,
			"username_gt":      usernameGt,
			"limit":            limit,
		}).Scan(&profiles).Error
	return profiles, err
}

func (s *Store) FriendSuggestions(ctx context.Context, profileID uuid.UUID, usernameGt string, limit int) ([]models.ProfileShort, error) {
	var profiles []models.ProfileShort
	err := s.db.WithContext(ctx).Raw(adjacencyCTE+`
		SELECT DISTINCT p.id, p.username
		FROM adjacency a1
			JOIN adjacency a2 ON a2.profile_id = a1.friend_id
			JOIN profile p ON p.id = a2.friend_id
		WHERE a1.profile_id = @profile_id
			AND a2.friend_id <> @profile_id
			AND a2.friend_id NOT IN (
				SELECT friend_id FROM adjacency WHERE profile_id = @profile_id)
			AND (@username_gt = '' OR p.username > @username_gt)
		ORDER BY p.username
		LIMIT @limit`,
		map[string]any{
			"profile_id":  profileID,
			"username_gt": usernameGt,
			"limit":       limit,
		}).Scan(&profiles).Error
	return profiles, err
}

func (s *Store) ProfilesByIDs(ctx context.Context, profileIDs []uuid.UUID) ([]models.ProfileShort, error) {
	var profiles []models.ProfileShort
	err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id IN ?", profileIDs).
		Find(&profiles).Error
	return profiles, err
}
