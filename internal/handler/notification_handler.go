package handler

import (
	"net/http"

	"socialnet/backend/internal/notification"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	repo *notification.Repo
}

func NewNotificationHandler(repo *notification.Repo) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// MarkNotificationsRequest selects notifications to flag. Omitted
// flags are left unchanged.
type MarkNotificationsRequest struct {
	IDs     []uuid.UUID `json:"ids" binding:"required"`
	Read    *bool       `json:"read"`
	Visited *bool       `json:"visited"`
}

// GetNotifications godoc
// @Summary      List notifications
// @Description  Lists the viewer's notifications, newest first, with an older_than cursor.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        older_than  query     string  false  "RFC3339 cursor"
// @Param        limit       query     int     false  "Page size"
// @Success      200  {array}   models.Notification
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	olderThan, limit := timeCursor(c)

	notifications, err := h.repo.FindByProfileID(c.Request.Context(), viewerID(c), olderThan, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// GetUnreadNotificationsCount godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"count": 3}"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadNotificationsCount(c *gin.Context) {
	count, err := h.repo.CountUnread(c.Request.Context(), viewerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkNotifications godoc
// @Summary      Flag notifications
// @Description  Sets the read and/or visited flags on the given notifications and returns the updated rows.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      MarkNotificationsRequest  true  "Notification IDs and flags"
// @Success      200  {array}   models.Notification
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/mark [post]
func (h *NotificationHandler) MarkNotifications(c *gin.Context) {
	var req MarkNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.repo.MarkAs(c.Request.Context(), req.IDs, req.Read, req.Visited)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, updated)
}
