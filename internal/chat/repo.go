package chat

import (
	"context"
	"errors"
	"time"

	"socialnet/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo persists chat groups, memberships, messages and read pointers.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithTx returns a Repo bound to an open transaction.
func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

// SaveMessage persists a new chat message, filling id and timestamp.
func (r *Repo) SaveMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// SavePrivateChatGroup creates a private group for the pair, with one
// membership per member carrying the counterpart's username.
func (r *Repo) SavePrivateChatGroup(ctx context.Context, profileID, otherProfileID uuid.UUID) (*models.ChatGroup, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where("id IN ?", []uuid.UUID{profileID, otherProfileID}).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	if len(profiles) != 2 {
		return nil, gorm.ErrRecordNotFound
	}
	usernames := map[uuid.UUID]string{}
	for _, profile := range profiles {
		usernames[profile.ID] = profile.Username
	}

	group := &models.ChatGroup{Private: true, Active: true}
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	first := usernames[otherProfileID]
	second := usernames[profileID]
	memberships := []models.ProfileChatGroup{
		{ProfileID: profileID, ChatGroupID: group.ID, Name: &first},
		{ProfileID: otherProfileID, ChatGroupID: group.ID, Name: &second},
	}
	if err := r.db.WithContext(ctx).Create(&memberships).Error; err != nil {
		return nil, err
	}
	return group, nil
}

// SetChatGroupActive flips the group's active flag and returns the
// updated group.
func (r *Repo) SetChatGroupActive(ctx context.Context, chatGroupID uuid.UUID, active bool) (*models.ChatGroup, error) {
	var group models.ChatGroup
	err := r.db.WithContext(ctx).First(&group, "id = ?", chatGroupID).Error
	if err != nil {
		return nil, err
	}
	group.Active = active
	if err := r.db.WithContext(ctx).Model(&group).Update("active", active).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindPrivateChatGroup returns the pair's private group, active or not,
// or nil when the pair never had one.
func (r *Repo) FindPrivateChatGroup(ctx context.Context, profileID, otherProfileID uuid.UUID) (*models.ChatGroup, error) {
	var group models.ChatGroup
	err := r.db.WithContext(ctx).Raw(`
		SELECT cg.id, cg.name, cg.private, cg.active
		FROM profile_chat_group pcg1
			JOIN profile_chat_group pcg2 ON pcg1.chat_group_id = pcg2.chat_group_id
			JOIN chat_group cg ON pcg1.chat_group_id = cg.id
		WHERE pcg1.profile_id = @profile_id
			AND pcg2.profile_id = @other_profile_id
			AND cg.private = TRUE`,
		map[string]any{
			"profile_id":       profileID,
			"other_profile_id": otherProfileID,
		}).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// UpsertReadStatus moves the member's read pointer for a group to the
// given message, keyed on (profile_id, chat_group_id).
func (r *Repo) UpsertReadStatus(ctx context.Context, profileID, chatGroupID, chatMessageID uuid.UUID) error {
	status := models.ChatMessageReadStatus{
		ProfileID:     profileID,
		ChatGroupID:   chatGroupID,
		ChatMessageID: chatMessageID,
		ReadAt:        time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}, {Name: "chat_group_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"chat_message_id": chatMessageID,
			"read_at":         status.ReadAt,
		}),
	}).Create(&status).Error
}

// FindConversations lists the newest message of each of the profile's
// active groups, newest first, with the profile's read marker attached.
func (r *Repo) FindConversations(ctx context.Context, profileID uuid.UUID, olderThan time.Time, limit int) ([]models.Conversation, error) {
	if olderThan.IsZero() {
		olderThan = time.Now().UTC()
	}
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).Raw(`
		SELECT * FROM (
			SELECT DISTINCT ON (pcg.profile_id, pcg.chat_group_id)
				cm.from_profile_id, cm.content, cm.created_at,
				p.username AS from_profile_username, cm.chat_group_id,
				COALESCE(pcg.name, cg.name) AS chat_group_name, cmrs.read_at
			FROM chat_message cm
				JOIN profile_chat_group pcg ON cm.chat_group_id = pcg.chat_group_id
				JOIN chat_group cg ON cm.chat_group_id = cg.id
				JOIN profile p ON cm.from_profile_id = p.id
				LEFT OUTER JOIN chat_message_read_status cmrs ON cm.id = cmrs.chat_message_id
					AND cmrs.profile_id = pcg.profile_id
			WHERE pcg.profile_id = @profile_id
				AND cg.active = TRUE
			ORDER BY pcg.profile_id, pcg.chat_group_id, cm.created_at DESC
		) conversations
		WHERE created_at < @older_than
		ORDER BY created_at DESC
		LIMIT @limit`,
		map[string]any{
			"profile_id": profileID,
			"older_than": olderThan,
			"limit":      limit,
		}).Scan(&conversations).Error
	return conversations, err
}

// FindUnreadConversationIDs returns the ids of active groups whose
// latest message the profile has not read.
func (r *Repo) FindUnreadConversationIDs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		SELECT chat_group_id FROM (
			SELECT DISTINCT ON (pcg.profile_id, pcg.chat_group_id)
				cmrs.read_at AS read_at, pcg.chat_group_id AS chat_group_id
			FROM chat_message cm
				JOIN profile_chat_group pcg ON cm.chat_group_id = pcg.chat_group_id
				JOIN chat_group cg ON cm.chat_group_id = cg.id
				LEFT OUTER JOIN chat_message_read_status cmrs
					ON cm.id = cmrs.chat_message_id AND cmrs.profile_id = pcg.profile_id
			WHERE pcg.profile_id = @profile_id
				AND cg.active = TRUE
			ORDER BY pcg.profile_id, pcg.chat_group_id, cm.created_at DESC
		) conversations
		WHERE read_at IS NULL`,
		map[string]any{"profile_id": profileID}).Scan(&ids).Error
	return ids, err
}

// FindPrivateChats lists the profile's active private chats with the
// counterpart member of each, straight off the denormalized membership.
func (r *Repo) FindPrivateChats(ctx context.Context, profileID uuid.UUID) ([]models.PrivateChat, error) {
	var chats []models.PrivateChat
	err := r.db.WithContext(ctx).Raw(`
		SELECT cg.id AS chat_group_id, pcg2.profile_id, p.username
		FROM profile_chat_group pcg1
			JOIN profile_chat_group pcg2 ON pcg1.chat_group_id = pcg2.chat_group_id
			JOIN chat_group cg ON cg.id = pcg2.chat_group_id
			JOIN profile p ON p.id = pcg2.profile_id
		WHERE pcg1.profile_id != pcg2.profile_id
			AND pcg1.profile_id = @profile_id
			AND cg.private = TRUE
			AND cg.active = TRUE`,
		map[string]any{"profile_id": profileID}).Scan(&chats).Error
	return chats, err
}

// FindChatGroupMemberIDs returns the profile ids of a group's members.
func (r *Repo) FindChatGroupMemberIDs(ctx context.Context, chatGroupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ProfileChatGroup{}).
		Where("chat_group_id = ?", chatGroupID).
		Pluck("profile_id", &ids).Error
	return ids, err
}

// FindMessages returns a group's messages, newest first, older than the
// cursor.
func (r *Repo) FindMessages(ctx context.Context, chatGroupID uuid.UUID, olderThan time.Time, limit int) ([]models.ChatMessage, error) {
	if olderThan.IsZero() {
		olderThan = time.Now().UTC()
	}
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_group_id = ? AND created_at < ?", chatGroupID, olderThan).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
