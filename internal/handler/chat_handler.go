package handler

import (
	"context"
	"net/http"
	"time"

	"socialnet/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatQueries is the read side of the chat service the HTTP surface
// needs.
type ChatQueries interface {
	Conversations(ctx context.Context, profileID uuid.UUID, olderThan time.Time, limit int) ([]models.Conversation, error)
	Messages(ctx context.Context, chatGroupID uuid.UUID, olderThan time.Time, limit int) ([]models.ChatMessage, error)
	IsMember(ctx context.Context, chatGroupID, profileID uuid.UUID) (bool, error)
}

type ChatHandler struct {
	service ChatQueries
}

func NewChatHandler(service ChatQueries) *ChatHandler {
	return &ChatHandler{service: service}
}

// GetConversations godoc
// @Summary      List conversations
// @Description  Lists the viewer's conversations ordered by last message, newest first.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        older_than  query     string  false  "RFC3339 cursor"
// @Param        limit       query     int     false  "Page size"
// @Success      200  {array}   models.Conversation
// @Failure      401  {object}  ErrorResponse
// @Router       /conversations [get]
func (h *ChatHandler) GetConversations(c *gin.Context) {
	olderThan, limit := timeCursor(c)

	conversations, err := h.service.Conversations(c.Request.Context(), viewerID(c), olderThan, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// GetMessages godoc
// @Summary      List chat messages
// @Description  Lists a chat group's message history, newest first. The viewer must be a member of the group; a deactivated group's history stays readable.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true   "Chat Group ID"
// @Param        older_than  query     string  false  "RFC3339 cursor"
// @Param        limit       query     int     false  "Page size"
// @Success      200  {array}   models.ChatMessage
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /conversations/{id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatGroupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat group ID"})
		return
	}

	member, err := h.service.IsMember(c.Request.Context(), chatGroupID, viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this chat group"})
		return
	}

	olderThan, limit := timeCursor(c)
	messages, err := h.service.Messages(c.Request.Context(), chatGroupID, olderThan, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
