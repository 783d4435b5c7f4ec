package handler

import (
	"errors"
	"net/http"

	"socialnet/backend/internal/models"
	"socialnet/backend/internal/relationship"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrorResponse defines the structure of error bodies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RelationshipResponse carries a relationship code from the viewer's
// perspective.
type RelationshipResponse struct {
	Relationship models.Relationship `json:"relationship"`
}

type RelationHandler struct {
	engine *relationship.Engine
}

func NewRelationHandler(engine *relationship.Engine) *RelationHandler {
	return &RelationHandler{engine: engine}
}

// viewerID reads the authenticated profile id set by the auth
// middleware.
func viewerID(c *gin.Context) uuid.UUID {
	id, _ := c.Get("profileID")
	return id.(uuid.UUID)
}

func targetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target profile ID"})
		return uuid.Nil, false
	}
	return id, true
}

// relationErr translates engine errors into responses shared by the
// mutation endpoints. Conflicts and missing profiles keep their own
// status codes; everything else is a 500.
func relationErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, relationship.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Relationship state does not allow this action"})
	case errors.Is(err, relationship.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update relationship"})
	}
}

// GetRelationship godoc
// @Summary      Get relationship with a profile
// @Description  Returns the relationship code between the viewer and the target profile, from the viewer's perspective.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target Profile ID"
// @Success      200  {object}  RelationshipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/{id}/relationship [get]
func (h *RelationHandler) GetRelationship(c *gin.Context) {
	target, ok := targetID(c)
	if !ok {
		return
	}

	relation, err := h.engine.GetRelationship(c.Request.Context(), viewerID(c), target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch relationship"})
		return
	}

	c.JSON(http.StatusOK, RelationshipResponse{Relationship: relation})
}

// SendFriendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another profile. Only valid when no relationship exists.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target Profile ID"
// @Success      201  {object}  map[string]string "{"message": "Request sent successfully"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Relationship state does not allow this action"
// @Router       /profiles/{id}/friend-request [post]
func (h *RelationHandler) SendFriendRequest(c *gin.Context) {
	target, ok := targetID(c)
	if !ok {
		return
	}

	if err := h.engine.CreateRequest(c.Request.Context(), viewerID(c), target); err != nil {
		relationErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Request sent successfully"})
}

// AcceptFriendRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request from the target profile and opens (or reactivates) the private chat.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Requesting Profile ID"
// @Success      200  {object}  map[string]string "{"chatGroupId": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "No incoming request from this profile"
// @Router       /profiles/{id}/accept [post]
func (h *RelationHandler) AcceptFriendRequest(c *gin.Context) {
	requester, ok := targetID(c)
	if !ok {
		return
	}

	group, err := h.engine.AcceptRequest(c.Request.Context(), requester, viewerID(c))
	if err != nil {
		relationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chatGroupId": group.ID})
}

// RejectFriendRequest godoc
// @Summary      Reject friend request
// @Description  Rejects a pending friend request from the target profile.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Requesting Profile ID"
// @Success      200  {object}  map[string]string "{"message": "Request rejected"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /profiles/{id}/reject [post]
func (h *RelationHandler) RejectFriendRequest(c *gin.Context) {
	requester, ok := targetID(c)
	if !ok {
		return
	}

	if err := h.engine.RejectRequest(c.Request.Context(), requester, viewerID(c)); err != nil {
		relationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
}

// CancelFriendRequest godoc
// @Summary      Cancel friend request
// @Description  Cancels a friend request previously sent by the viewer.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target Profile ID"
// @Success      200  {object}  map[string]string "{"message": "Request cancelled"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /profiles/{id}/cancel [post]
func (h *RelationHandler) CancelFriendRequest(c *gin.Context) {
	target, ok := targetID(c)
	if !ok {
		return
	}

	if err := h.engine.CancelRequest(c.Request.Context(), viewerID(c), target); err != nil {
		relationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request cancelled"})
}

// Unfriend godoc
// @Summary      Remove friend
// @Description  Ends the friendship with the target profile and deactivates the shared private chat.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target Profile ID"
// @Success      200  {object}  map[string]string "{"message": "Friend removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /profiles/{id}/unfriend [post]
func (h *RelationHandler) Unfriend(c *gin.Context) {
	target, ok := targetID(c)
	if !ok {
		return
	}

	if err := h.engine.RemoveFriend(c.Request.Context(), viewerID(c), target); err != nil {
		relationErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}

// GetFriends godoc
// @Summary      List friends
// @Description  Lists the viewer's friends ordered by username, with keyset pagination.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        username_gt  query     string  false  "Return friends with username greater than this value"
// @Param        limit        query     int     false  "Page size (max 50)"
// @Success      200  {array}   models.ProfileShort
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/me/friends [get]
func (h *RelationHandler) GetFriends(c *gin.Context) {
	usernameGt, limit := usernameCursor(c)

	friends, err := h.engine.ListFriends(c.Request.Context(), viewerID(c), usernameGt, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}

	c.JSON(http.StatusOK, friends)
}

// GetFriendRequests godoc
// @Summary      List friend requests
// @Description  Lists the viewer's pending friend requests in the given direction.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        direction    query     string  true   "Request direction (incoming, outgoing)"
// @Param        username_gt  query     string  false  "Keyset cursor"
// @Param        limit        query     int     false  "Page size (max 50)"
// @Success      200  {array}   models.ProfileShort
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/me/friend-requests [get]
func (h *RelationHandler) GetFriendRequests(c *gin.Context) {
	var direction relationship.RequestDirection
	switch c.Query("direction") {
	case "incoming":
		direction = relationship.DirectionIncoming
	case "outgoing":
		direction = relationship.DirectionOutgoing
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'direction' query parameter (incoming or outgoing) is required for this endpoint."})
		return
	}

	usernameGt, limit := usernameCursor(c)
	requests, err := h.engine.ListFriendRequests(c.Request.Context(), viewerID(c), direction, usernameGt, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friend requests"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetMutualFriends godoc
// @Summary      List mutual friends
// @Description  Lists profiles that are friends with both the viewer and the target profile.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true   "Target Profile ID"
// @Param        username_gt  query     string  false  "Keyset cursor"
// @Param        limit        query     int     false  "Page size (max 50)"
// @Success      200  {array}   models.ProfileShort
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/{id}/mutual-friends [get]
func (h *RelationHandler) GetMutualFriends(c *gin.Context) {
	target, ok := targetID(c)
	if !ok {
		return
	}

	usernameGt, limit := usernameCursor(c)
	mutual, err := h.engine.ListMutualFriends(c.Request.Context(), viewerID(c), target, usernameGt, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch mutual friends"})
		return
	}

	c.JSON(http.StatusOK, mutual)
}

// GetFriendSuggestions godoc
// @Summary      List friend suggestions
// @Description  Lists friends-of-friends the viewer is not yet connected to.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        username_gt  query     string  false  "Keyset cursor"
// @Param        limit        query     int     false  "Page size (max 50)"
// @Success      200  {array}   models.ProfileShort
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/me/friend-suggestions [get]
func (h *RelationHandler) GetFriendSuggestions(c *gin.Context) {
	usernameGt, limit := usernameCursor(c)

	suggestions, err := h.engine.ListFriendSuggestions(c.Request.Context(), viewerID(c), usernameGt, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suggestions"})
		return
	}

	c.JSON(http.StatusOK, suggestions)
}
